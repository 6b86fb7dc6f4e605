package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to w (stdout when nil) with
// source location enabled. Level should be a valid slog level string: DEBUG,
// INFO, WARN, ERROR. Unrecognized values default to ERROR.
func New(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelError
	}
	if w == nil {
		w = os.Stdout
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}))
}

// Discard returns a logger that drops every record. Tests use it to keep
// output quiet.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
