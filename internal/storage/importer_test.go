package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/moneyzen/money-zen/internal/model"
	"github.com/moneyzen/money-zen/internal/service"
)

func TestParseImportDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "RFC 3339 timestamp",
			input: "2026-03-15T08:30:00Z",
			want:  time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name:  "bare calendar date becomes midnight UTC",
			input: "2026-03-15",
			want:  time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "slash-separated date",
			input:   "15/03/2026",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "not-a-date",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseImportDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseImportDate(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseImportDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseImportDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestImportTransactions(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	account, _, expense := createTestLedger(t, store, "Importer")

	record := func(date, desc string, amount float64) service.ImportRecord {
		return service.ImportRecord{
			AccountID:   account.ID,
			CategoryID:  expense.ID,
			Description: desc,
			Type:        model.TypeExpense,
			DateText:    date,
			Amount:      amount,
		}
	}

	summary, err := store.ImportTransactions(ctx, []service.ImportRecord{
		record("2026-01-10", "groceries", 45.20),
		record("2026-01-11", "fuel", 60.00),
		record("2026-01-10", "groceries", 45.20), // duplicate within the batch
		record("not-a-date", "broken row", 5.00),
	})
	if err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}

	if summary.Imported != 2 {
		t.Errorf("Imported = %d, want 2", summary.Imported)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", summary.Errors)
	}
	if !strings.Contains(summary.Errors[0], "record 4") {
		t.Errorf("Error should name the failing row: %q", summary.Errors[0])
	}

	// Balances reflect only the rows that actually landed.
	assertBalance(t, store, account.ID, -(45.20 + 60.00))

	// A second run of the same batch imports nothing new.
	summary, err = store.ImportTransactions(ctx, []service.ImportRecord{
		record("2026-01-10", "groceries", 45.20),
		record("2026-01-11", "fuel", 60.00),
	})
	if err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}
	if summary.Imported != 0 || summary.Skipped != 2 {
		t.Errorf("Re-import summary = %+v, want 0 imported / 2 skipped", summary)
	}
}

func TestImportTransactionsEmptyBatch(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	if _, err := store.ImportTransactions(context.Background(), nil); err == nil {
		t.Error("Expected error for empty batch")
	}
}

func TestImportTransactionsNeverAbortsBatch(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	account, _, expense := createTestLedger(t, store, "Importer Resilience")

	// A failing row in the middle must not stop the rows after it.
	summary, err := store.ImportTransactions(ctx, []service.ImportRecord{
		{AccountID: account.ID, CategoryID: expense.ID, Description: "first",
			Type: model.TypeExpense, DateText: "2026-02-01", Amount: 1},
		{AccountID: "ghost", CategoryID: expense.ID, Description: "bad account",
			Type: model.TypeExpense, DateText: "2026-02-02", Amount: 2},
		{AccountID: account.ID, CategoryID: expense.ID, Description: "last",
			Type: model.TypeExpense, DateText: "2026-02-03", Amount: 3},
	})
	if err != nil {
		t.Fatalf("ImportTransactions failed: %v", err)
	}

	if summary.Imported != 2 {
		t.Errorf("Imported = %d, want 2", summary.Imported)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("Errors = %v, want exactly one", summary.Errors)
	}
}
