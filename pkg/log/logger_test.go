package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug": DebugLevel, "INFO": InfoLevel, "warning": WarnLevel,
		"error": ErrorLevel, "fatal": FatalLevel,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("ParseLevel(loud) should fail")
	}
}

func TestJSONFormatterOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(DebugLevel),
		WithFormatter(&JSONFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("queue opened", Str("queue", "default"), Int("buckets", 3))

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if obj["msg"] != "queue opened" || obj["level"] != "INFO" {
		t.Fatalf("unexpected entry: %v", obj)
	}
	if obj["queue"] != "default" || obj["buckets"] != float64(3) {
		t.Fatalf("fields missing: %v", obj)
	}
}

func TestLevelGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithLevel(WarnLevel),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("visible")
	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Fatalf("expected 1 line, got %d: %q", n, buf.String())
	}
}

func TestWithFieldsAreInherited(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(WithOutput(NewWriterOutput(&buf)))
	child := base.With(Component("scheduler"), Str("ns", "default"))
	child.Info("tick")

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if obj["component"] != "scheduler" || obj["ns"] != "default" {
		t.Fatalf("inherited fields missing: %v", obj)
	}
}

func TestTextFormatterQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(
		WithFormatter(&TextFormatter{}),
		WithOutput(NewWriterOutput(&buf)),
	)
	l.Info("hello", Str("path", "a b"))
	out := buf.String()
	if !strings.Contains(out, `path="a b"`) {
		t.Fatalf("value not quoted: %q", out)
	}
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "hello") {
		t.Fatalf("missing level or message: %q", out)
	}
}

func TestErrFieldOmitsNil(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(NewWriterOutput(&buf)))
	l.Info("ok", Err(nil))
	if strings.Contains(buf.String(), "error") {
		t.Fatalf("nil error should be omitted: %q", buf.String())
	}
}

func TestSlogBridge(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithOutput(NewWriterOutput(&buf)))
	sl := l.(*BaseLogger).Slog()
	sl.Info("bridged", "attempt", 2)

	var obj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if obj["msg"] != "bridged" || obj["attempt"] != float64(2) {
		t.Fatalf("bridge lost data: %v", obj)
	}
}

func TestApplyConfig(t *testing.T) {
	l, err := ApplyConfig(Config{Level: "debug", Format: "text"})
	if err != nil {
		t.Fatalf("ApplyConfig: %v", err)
	}
	if l.GetLevel() != DebugLevel {
		t.Fatalf("level = %v, want debug", l.GetLevel())
	}
	if _, err := ApplyConfig(Config{Format: "xml"}); err == nil {
		t.Fatalf("unknown format should fail")
	}
}
