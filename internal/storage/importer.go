package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/moneyzen/money-zen/internal/service"
)

// Date shapes accepted from external sources: a full timestamp, or a bare
// calendar date taken as midnight UTC.
var importDateFormats = []string{
	time.RFC3339,
	"2006-01-02",
}

func parseImportDate(text string) (time.Time, error) {
	for _, layout := range importDateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", text)
}

// ImportTransactions inserts a batch of externally sourced records. Rows
// whose date cannot be parsed are reported as errors; rows matching an
// existing transaction on (date, amount, description) are skipped. Every
// row's outcome is independent; the batch never aborts early.
//
// Inserted rows go through the standard create path, so account balances
// stay consistent.
func (s *SQLiteStore) ImportTransactions(ctx context.Context, records []service.ImportRecord) (*service.ImportSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: records", ErrEmptySlice)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := &service.ImportSummary{}
	for i, rec := range records {
		if err := s.importRecordLocked(ctx, rec, summary); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: %v", i+1, err))
		}
	}

	slog.Info("bulk import finished",
		"imported", summary.Imported,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors))
	return summary, nil
}

func (s *SQLiteStore) importRecordLocked(ctx context.Context, rec service.ImportRecord, summary *service.ImportSummary) error {
	if err := validateTransactionInput(rec.AccountID, rec.CategoryID, rec.Description, rec.Amount, rec.Type); err != nil {
		return err
	}

	date, err := parseImportDate(rec.DateText)
	if err != nil {
		return err
	}

	dup, err := s.isDuplicateImport(ctx, date, rec.Amount, rec.Description)
	if err != nil {
		return err
	}
	if dup {
		summary.Skipped++
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := insertTransaction(ctx, tx, rec.AccountID, rec.CategoryID, rec.Amount, rec.Description, rec.Type, date); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	summary.Imported++
	return nil
}

// isDuplicateImport reports whether a transaction with the exact same
// (date, amount, description) triple already exists.
func (s *SQLiteStore) isDuplicateImport(ctx context.Context, date time.Time, amount float64, description string) (bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM transactions
		WHERE date = ? AND amount = ? AND description = ?
		LIMIT 1`,
		formatTime(date), amount, description).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	return true, nil
}
