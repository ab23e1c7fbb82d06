package log

import "time"

// Field is a single structured key/value attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F constructs a Field from an arbitrary value.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Str constructs a string Field.
func Str(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int constructs an int Field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 constructs an int64 Field.
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 constructs a float64 Field.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool constructs a bool Field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration constructs a Field holding a duration's string form.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err constructs the conventional "error" Field. A nil error yields a nil
// value, which formatters omit.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags entries with the subsystem that emitted them.
func Component(name string) Field {
	return Field{Key: "component", Value: name}
}
