package common

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLoggerAppliesLevel(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		level   slog.Level
		enabled slog.Level
		muted   slog.Level
	}{
		{"console at info", "console", slog.LevelInfo, slog.LevelInfo, slog.LevelDebug},
		{"json at warn", "json", slog.LevelWarn, slog.LevelError, slog.LevelInfo},
		{"unknown format falls back to text", "fancy", slog.LevelDebug, slog.LevelDebug, slog.LevelDebug - 4},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := SetupLogger(tt.level, tt.format); err != nil {
				t.Fatalf("SetupLogger failed: %v", err)
			}
			if !slog.Default().Enabled(ctx, tt.enabled) {
				t.Errorf("Expected level %v to be enabled", tt.enabled)
			}
			if slog.Default().Enabled(ctx, tt.muted) {
				t.Errorf("Expected level %v to be muted", tt.muted)
			}
		})
	}
}
