package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"crypto-pulse/internal/config"
)

var (
	singleton *slog.Logger
	once      sync.Once
)

// Init initializes the singleton logger from the provided config.
// It is thread-safe and idempotent - the first successful call wins,
// and subsequent calls return the same logger instance.
func Init(cfg config.Config) (*slog.Logger, error) {
	once.Do(func() {
		singleton = New(cfg, os.Stdout)
		slog.SetDefault(singleton)
	})

	return singleton, nil
}

// New builds a logger writing to w; unknown formats fall back to JSON.
func New(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.LogLevel),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("app", "crypto-pulse")
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the singleton logger instance.
// Before Init it returns slog.Default() so handlers never see nil.
func L() *slog.Logger {
	if singleton == nil {
		return slog.Default()
	}
	return singleton
}
