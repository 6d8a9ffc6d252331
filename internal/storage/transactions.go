package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/moneyzen/money-zen/internal/common"
	"github.com/moneyzen/money-zen/internal/model"
)

const transactionColumns = `id, account_id, category_id, amount, description, transaction_type, date, created_at, updated_at`

// CreateTransaction inserts a transaction and applies its signed amount to
// the owning account's balance, atomically.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, accountID, categoryID string, amount float64, description string, txType model.TransactionType, date time.Time) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateTransactionInput(accountID, categoryID, description, amount, txType); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txn, err := insertTransaction(ctx, tx, accountID, categoryID, amount, description, txType, date)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("created transaction", "id", txn.ID, "account", accountID, "type", txType, "amount", amount)
	return txn, nil
}

// insertTransaction runs the insert + balance maintenance inside the given
// database transaction. Shared by the create path and the bulk importer.
func insertTransaction(ctx context.Context, tx *sql.Tx, accountID, categoryID string, amount float64, description string, txType model.TransactionType, date time.Time) (*model.Transaction, error) {
	id := newID()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, account_id, category_id, amount, description, transaction_type, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, accountID, categoryID, amount, description, string(txType),
		formatTime(date), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	txn := &model.Transaction{
		ID:          id,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: description,
		Type:        txType,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := applyBalanceDelta(ctx, tx, accountID, txn.SignedAmount()); err != nil {
		return nil, err
	}
	return txn, nil
}

// applyBalanceDelta shifts an account's cached balance by the given signed
// amount, keeping it equal to the signed sum of the account's transactions.
func applyBalanceDelta(ctx context.Context, tx *sql.Tx, accountID string, delta float64) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + ?, updated_at = ? WHERE id = ?`,
		delta, formatTime(time.Now()), accountID)
	if err != nil {
		return fmt.Errorf("failed to update account balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, accountID)
	}
	return nil
}

// GetTransactions returns all transactions, newest date first.
func (s *SQLiteStore) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY date DESC, created_at DESC`)
}

// GetTransactionByID returns a single transaction.
func (s *SQLiteStore) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return getTransactionByID(ctx, s.db, id)
}

func getTransactionByID(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetTransactionsByMonth returns the transactions dated within one calendar month.
func (s *SQLiteStore) GetTransactionsByMonth(ctx context.Context, year, month int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d", common.ErrInvalidDate, month)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE strftime('%Y-%m', date) = ?
		 ORDER BY date DESC, created_at DESC`,
		fmt.Sprintf("%04d-%02d", year, month))
}

// GetTransactionsByAccount returns an account's transactions.
func (s *SQLiteStore) GetTransactionsByAccount(ctx context.Context, accountID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE account_id = ?
		 ORDER BY date DESC, created_at DESC`, accountID)
}

// GetTransactionsByCategory returns a category's transactions.
func (s *SQLiteStore) GetTransactionsByCategory(ctx context.Context, categoryID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE category_id = ?
		 ORDER BY date DESC, created_at DESC`, categoryID)
}

// GetTransactionsByDateRange returns transactions dated within [start, end].
func (s *SQLiteStore) GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, start, end)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryTransactions(ctx, s.db,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE date >= ? AND date <= ?
		 ORDER BY date DESC, created_at DESC`,
		formatTime(start), formatTime(end))
}

// UpdateTransaction rewrites a transaction and recomputes the affected
// account balances from the delta between old and new state, atomically.
// Moving a transaction between accounts reverses it on the old account and
// applies it on the new one.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, id, accountID, categoryID string, amount float64, description string, txType model.TransactionType, date time.Time) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateTransactionInput(accountID, categoryID, description, amount, txType); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old, err := getTransactionByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, amount = ?, description = ?, transaction_type = ?, date = ?, updated_at = ?
		WHERE id = ?`,
		accountID, categoryID, amount, description, string(txType),
		formatTime(date), formatTime(now), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	updated := &model.Transaction{Amount: amount, Type: txType}
	if old.AccountID == accountID {
		delta := updated.SignedAmount() - old.SignedAmount()
		if delta != 0 {
			if err := applyBalanceDelta(ctx, tx, accountID, delta); err != nil {
				return nil, err
			}
		}
	} else {
		if err := applyBalanceDelta(ctx, tx, old.AccountID, -old.SignedAmount()); err != nil {
			return nil, err
		}
		if err := applyBalanceDelta(ctx, tx, accountID, updated.SignedAmount()); err != nil {
			return nil, err
		}
	}

	// Re-read inside the same transaction so the caller gets the canonical
	// persisted state.
	txn, err := getTransactionByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("updated transaction", "id", id)
	return txn, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// owning account's balance, atomically.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteTransactionLocked(ctx, id)
}

func (s *SQLiteStore) deleteTransactionLocked(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old, err := getTransactionByID(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	if err := applyBalanceDelta(ctx, tx, old.AccountID, -old.SignedAmount()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("deleted transaction", "id", id)
	return nil
}

// DeleteTransactions removes a batch of transactions. Each item's outcome is
// independent; the returned count is how many were actually deleted.
func (s *SQLiteStore) DeleteTransactions(ctx context.Context, ids []string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids", ErrEmptySlice)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if err := s.deleteTransactionLocked(ctx, id); err != nil {
			slog.Warn("skipped transaction during batch delete", "id", id, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

func queryTransactions(ctx context.Context, q queryable, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	slog.Debug("retrieved transactions", "count", len(transactions))
	return transactions, nil
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		txn                      model.Transaction
		typ                      string
		date, createdAt, updated string
	)
	if err := row.Scan(&txn.ID, &txn.AccountID, &txn.CategoryID, &txn.Amount,
		&txn.Description, &typ, &date, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Type = model.TransactionType(typ)
	var err error
	if txn.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("transaction %s date: %w", txn.ID, err)
	}
	if txn.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("transaction %s created_at: %w", txn.ID, err)
	}
	if txn.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("transaction %s updated_at: %w", txn.ID, err)
	}
	return &txn, nil
}
