package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// Helper function to create a migrated test store.
func createTestStore(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestNewSQLiteStoreCreatesParentDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "deeper", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store in nested path: %v", err)
	}
	defer store.Close()
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "RFC 3339",
			input: "2026-05-10T14:30:00Z",
			want:  time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "legacy space-separated",
			input: "2026-05-10 14:30:00",
			want:  time.Date(2026, 5, 10, 14, 30, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "not-a-date",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseTime(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTime(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimeRoundTrip(t *testing.T) {
	original := time.Date(2026, 8, 31, 9, 15, 42, 0, time.UTC)

	parsed, err := parseTime(formatTime(original))
	if err != nil {
		t.Fatalf("Failed to parse formatted time: %v", err)
	}
	if !parsed.Equal(original) {
		t.Errorf("Round trip changed time: got %v, want %v", parsed, original)
	}
}

func TestFormatTimeNormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2026, 8, 31, 12, 0, 0, 0, zone)

	parsed, err := parseTime(formatTime(local))
	if err != nil {
		t.Fatalf("Failed to parse formatted time: %v", err)
	}
	if !parsed.Equal(local) {
		t.Errorf("Zone normalization changed instant: got %v, want %v", parsed, local)
	}
	if parsed.Location() != time.UTC {
		t.Errorf("Expected UTC location, got %v", parsed.Location())
	}
}
