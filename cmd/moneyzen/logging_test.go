package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggingAppliesConfiguredLevel(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("logging.level", "warn")
	viper.Set("logging.format", "json")

	require.NoError(t, setupLogging())

	ctx := context.Background()
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelWarn))
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelInfo))
}

func TestSetupLoggingRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
	}{
		{"unknown level", "verbose", "console", "invalid log level"},
		{"unknown format", "info", "xml", "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(viper.Reset)
			viper.Set("logging.level", tt.level)
			viper.Set("logging.format", tt.format)

			err := setupLogging()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
