// Package logging builds the process logger. Call sites use log/slog; the
// handler underneath is zap.
package logging

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Options selects level, encoding and destination.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Output string // stdout, stderr or a file path
}

// NewZap builds a zap logger for opts. Unknown levels fall back to info.
func NewZap(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	}

	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	out := opts.Output
	if out == "" {
		out = "stdout"
	}
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// NewSlog wraps a zap core in a slog logger.
func NewSlog(core zapcore.Core) *slog.Logger {
	return slog.New(zapslog.NewHandler(core))
}

// Setup installs a zap-backed logger as the slog default.
// POST: the returned sync func flushes buffered entries; call it before exit
func Setup(opts Options) (*slog.Logger, func(), error) {
	z, err := NewZap(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := NewSlog(z.Core())
	slog.SetDefault(logger)
	return logger, func() { _ = z.Sync() }, nil
}
