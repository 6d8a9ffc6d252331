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

const accountColumns = `id, name, account_type, balance, currency, owner, created_at, updated_at`

// CreateAccount creates a new account with a zero starting balance.
func (s *SQLiteStore) CreateAccount(ctx context.Context, name, accountType, currency, owner string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := validateString(accountType, "accountType"); err != nil {
		return nil, err
	}
	if err := validateString(currency, "currency"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, account_type, balance, currency, owner, created_at, updated_at)
		VALUES (?, ?, ?, 0.0, ?, ?, ?, ?)`,
		id, name, accountType, currency, owner, formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("created account", "id", id, "name", name)

	return &model.Account{
		ID:        id,
		Name:      name,
		Type:      accountType,
		Currency:  currency,
		Owner:     owner,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetAccounts returns all accounts, newest first.
func (s *SQLiteStore) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	slog.Debug("retrieved accounts", "count", len(accounts))
	return accounts, nil
}

// GetAccountByID returns a single account.
func (s *SQLiteStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return getAccountByID(ctx, s.db, id)
}

func getAccountByID(ctx context.Context, q queryable, id string) (*model.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)

	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// UpdateAccount mutates an account's descriptive fields and returns the
// canonical persisted state. Balance is never set directly.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, id, name, accountType, currency, owner string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, account_type = ?, currency = ?, owner = ?, updated_at = ?
		WHERE id = ?`,
		name, accountType, currency, owner, formatTime(time.Now()), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, common.ErrNotFound
	}

	// Re-read so the caller gets exactly what is persisted.
	return getAccountByID(ctx, s.db, id)
}

// DeleteAccount removes an account. Its transactions cascade away with it.
func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	slog.Info("deleted account", "id", id)
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		acct               model.Account
		createdAt, updated string
	)
	if err := row.Scan(&acct.ID, &acct.Name, &acct.Type, &acct.Balance,
		&acct.Currency, &acct.Owner, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	var err error
	if acct.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("account %s created_at: %w", acct.ID, err)
	}
	if acct.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("account %s updated_at: %w", acct.ID, err)
	}
	return &acct, nil
}
