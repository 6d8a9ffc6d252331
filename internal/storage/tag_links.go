package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/moneyzen/money-zen/internal/model"
)

// AddTagsToTransaction attaches tags to a transaction. Attaching an already
// linked pair is a no-op per pair, not an error.
func (s *SQLiteStore) AddTagsToTransaction(ctx context.Context, transactionID string, tagIDs []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return addTagLinks(ctx, s.db, transactionID, tagIDs)
}

func addTagLinks(ctx context.Context, q queryable, transactionID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO transaction_tags (transaction_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			transactionID, tagID, formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to link tag %s: %w", tagID, err)
		}
	}
	return nil
}

// RemoveTagsFromTransaction detaches tags from a transaction. Removing a
// link that never existed is a no-op.
func (s *SQLiteStore) RemoveTagsFromTransaction(ctx context.Context, transactionID string, tagIDs []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return removeTagLinks(ctx, s.db, transactionID, tagIDs)
}

func removeTagLinks(ctx context.Context, q queryable, transactionID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := q.ExecContext(ctx, `
			DELETE FROM transaction_tags WHERE transaction_id = ? AND tag_id = ?`,
			transactionID, tagID)
		if err != nil {
			return fmt.Errorf("failed to unlink tag %s: %w", tagID, err)
		}
	}
	return nil
}

// GetTransactionTags returns the tags attached to a transaction, ordered by
// tag name.
func (s *SQLiteStore) GetTransactionTags(ctx context.Context, transactionID string) ([]model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.icon, t.created_at
		FROM tags t
		INNER JOIN transaction_tags tt ON t.id = tt.tag_id
		WHERE tt.transaction_id = ?
		ORDER BY t.name`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTags(rows)
}

// GetTransactionsByTag returns the transactions carrying a tag, newest date
// first.
func (s *SQLiteStore) GetTransactionsByTag(ctx context.Context, tagID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tagID, "tagID"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryTransactions(ctx, s.db, `
		SELECT tx.id, tx.account_id, tx.category_id, tx.amount, tx.description,
		       tx.transaction_type, tx.date, tx.created_at, tx.updated_at
		FROM transactions tx
		INNER JOIN transaction_tags tt ON tx.id = tt.transaction_id
		WHERE tt.tag_id = ?
		ORDER BY tx.date DESC, tx.created_at DESC`, tagID)
}

// BulkUpdateTransactionTags applies a tag add-set and remove-set across many
// transactions and returns the number of transactions touched.
func (s *SQLiteStore) BulkUpdateTransactionTags(ctx context.Context, transactionIDs, tagsToAdd, tagsToRemove []string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(transactionIDs) == 0 {
		return 0, fmt.Errorf("%w: transactionIDs", ErrEmptySlice)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, txID := range transactionIDs {
		if err := addTagLinks(ctx, s.db, txID, tagsToAdd); err != nil {
			slog.Warn("skipped transaction during bulk tag update", "id", txID, "error", err)
			continue
		}
		if err := removeTagLinks(ctx, s.db, txID, tagsToRemove); err != nil {
			slog.Warn("skipped transaction during bulk tag update", "id", txID, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}
