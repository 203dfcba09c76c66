package logger

import (
	"io"
	"log/slog"
	"os"
)

// Log is usable before Init so packages can log from tests.
var Log = slog.New(slog.NewJSONHandler(os.Stdout, nil))

func Init() {
	InitWithWriter(os.Stdout, slog.LevelDebug)
}

// InitWithWriter swaps the global logger; tests point it at a buffer.
func InitWithWriter(w io.Writer, level slog.Level) {
	// JSON handler for production-ready logging
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	Log = slog.New(handler)
}
