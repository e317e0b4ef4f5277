package logger

import (
	"log/slog"
	"os"
	"strings"
)

// L is the application-wide structured logger. InitLogger must be called
// before the first use; packages that may run before initialization fall
// back to the default below.
var L *slog.Logger

func init() {
	L = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func InitLogger(levelStr string) {
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	L = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	slog.SetDefault(L)

	L.Info("Logger initialized", "level", level.String())
}
