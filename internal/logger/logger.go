package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/equity-capital-ledger/internal/config"
	"github.com/equity-capital-ledger/internal/domain/shared"
)

// NewLogger creates the JSON logger shared by both binaries, tagged with the application name and environment
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := ParseLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	logger := slog.New(slog.NewJSONHandler(w, opts))
	if cfg.Application.Name != "" {
		logger = logger.With("app", cfg.Application.Name, "env", cfg.Application.Env)
	}

	logger.Info("logger initialized", "level", level)

	return logger
}

// ParseLevel maps a LOG_LEVEL value onto a slog level, defaulting to info
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithContext returns base enriched with the correlation id carried by ctx, if any
func WithContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := shared.CorrelationID(ctx); id != "" {
		return base.With("correlation_id", id)
	}
	return base
}
