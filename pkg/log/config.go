package log

import (
	stdlog "log"
	"strings"
)

// Config is the declarative logging configuration carried by the server
// config file.
type Config struct {
	// Level is the minimum level: debug, info, warn, error or fatal.
	Level string `json:"level" yaml:"level"`
	// Format selects the output shape: "json" or "text".
	Format string `json:"format" yaml:"format"`
}

// ApplyConfig builds a logger from a Config. Zero values fall back to
// info-level JSON output.
func ApplyConfig(cfg Config) (Logger, error) {
	level := InfoLevel
	if cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		formatter = &JSONFormatter{}
	case "text", "console":
		formatter = &TextFormatter{}
	default:
		return nil, &unknownFormatError{format: cfg.Format}
	}

	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
	), nil
}

type unknownFormatError struct{ format string }

func (e *unknownFormatError) Error() string {
	return "log: unknown format " + e.format
}

// RedirectStdLog points the standard library's global logger at the given
// logger, so dependencies that write through package log (Pebble's event
// listener does) land in the structured stream at info level.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdLogAdapter{logger: logger})
}

type stdLogAdapter struct {
	logger Logger
}

func (a stdLogAdapter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		a.logger.Info(msg, Str("source", "stdlog"))
	}
	return len(p), nil
}
