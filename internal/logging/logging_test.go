package logging

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewZap(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		level zapcore.Level
	}{
		{"json info", Options{Level: "info", Format: "json", Output: "stdout"}, zapcore.InfoLevel},
		{"console debug", Options{Level: "debug", Format: "console", Output: "stderr"}, zapcore.DebugLevel},
		{"unknown level falls back to info", Options{Level: "loud"}, zapcore.InfoLevel},
		{"file output", Options{Level: "warn", Output: filepath.Join(t.TempDir(), "squad.log")}, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z, err := NewZap(tt.opts)
			require.NoError(t, err)
			assert.True(t, z.Core().Enabled(tt.level))
			assert.False(t, z.Core().Enabled(tt.level-1))
		})
	}
}

func TestNewSlog_WritesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewSlog(core)

	logger.InfoContext(context.Background(), "auth_event", "event", "login_success", "user_id", "u1")
	logger.Debug("hidden")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "auth_event", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "login_success", fields["event"])
	assert.Equal(t, "u1", fields["user_id"])
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, sync, err := Setup(Options{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	defer sync()
	assert.Same(t, logger, slog.Default())
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}
