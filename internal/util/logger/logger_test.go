package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_SameInstancePerSubsystem(t *testing.T) {
	a := Logger("test-sub")
	b := Logger("test-sub")
	assert.Same(t, a, b)

	c := Logger("other-sub")
	assert.NotSame(t, a, c)
}

func TestSetLevel(t *testing.T) {
	l := Logger("level-sub")
	require.NotNil(t, l)

	SetLevel("level-sub", slog.LevelError)
	assert.False(t, l.Enabled(nil, slog.LevelInfo))
	assert.True(t, l.Enabled(nil, slog.LevelError))

	SetLevel("level-sub", slog.LevelDebug)
	assert.True(t, l.Enabled(nil, slog.LevelDebug))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	require.NotNil(t, l)
	assert.False(t, l.Enabled(nil, slog.LevelError))

	// 不 panic
	l.Info("ignored", "k", "v")
}

func TestParseLevelConfig(t *testing.T) {
	cfg := &envConfig{
		defaultLevel:    slog.LevelInfo,
		subsystemLevels: make(map[string]slog.Level),
	}

	parseLevelConfig(cfg, "client=debug, wire=warn ,error")

	assert.Equal(t, slog.LevelError, cfg.defaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.subsystemLevels["client"])
	assert.Equal(t, slog.LevelWarn, cfg.subsystemLevels["wire"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := parseLevel(tt.name)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, level)
			}
		})
	}
}
