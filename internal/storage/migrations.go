package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/moneyzen/money-zen/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					account_type TEXT NOT NULL,
					balance REAL NOT NULL DEFAULT 0.0,
					currency TEXT NOT NULL DEFAULT 'RON',
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					color TEXT NOT NULL DEFAULT '#3B82F6',
					icon TEXT NOT NULL DEFAULT '💰',
					category_type TEXT NOT NULL CHECK (category_type IN ('income', 'expense')),
					created_at TEXT NOT NULL
				)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_type ON categories(name, category_type)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL,
					category_id TEXT NOT NULL,
					amount REAL NOT NULL,
					description TEXT NOT NULL,
					transaction_type TEXT NOT NULL CHECK (transaction_type IN ('income', 'expense')),
					date TEXT NOT NULL,
					created_at TEXT NOT NULL,
					updated_at TEXT NOT NULL,
					FOREIGN KEY (account_id) REFERENCES accounts (id) ON DELETE CASCADE,
					FOREIGN KEY (category_id) REFERENCES categories (id) ON DELETE RESTRICT
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add owner column to accounts",
		Up: func(tx *sql.Tx) error {
			// Databases created by early releases may or may not carry the
			// column already; probe live table metadata before altering.
			exists, err := columnExists(tx, "accounts", "owner")
			if err != nil {
				return err
			}
			if exists {
				return nil
			}
			if _, err := tx.Exec(`ALTER TABLE accounts ADD COLUMN owner TEXT NOT NULL DEFAULT ''`); err != nil {
				return fmt.Errorf("failed to add owner column: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add tags and transaction-tag links",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS tags (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE,
					color TEXT NOT NULL DEFAULT '#8B5CF6',
					icon TEXT NOT NULL DEFAULT '🏷️',
					created_at TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS transaction_tags (
					transaction_id TEXT NOT NULL,
					tag_id TEXT NOT NULL,
					created_at TEXT NOT NULL,
					PRIMARY KEY (transaction_id, tag_id),
					FOREIGN KEY (transaction_id) REFERENCES transactions (id) ON DELETE CASCADE,
					FOREIGN KEY (tag_id) REFERENCES tags (id) ON DELETE CASCADE
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transaction_tags_tag ON transaction_tags(tag_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Normalize legacy timestamp text to RFC 3339",
		Up: func(tx *sql.Tx) error {
			// Early releases stored '2006-01-02 15:04:05'. Date filters and
			// import dedup compare raw text, so every stored value must use
			// the canonical 'T'/'Z' form.
			const legacy = `'[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9] [0-9][0-9]:[0-9][0-9]:[0-9][0-9]'`
			queries := []string{
				`UPDATE transactions SET date = replace(date, ' ', 'T') || 'Z' WHERE date GLOB ` + legacy,
				`UPDATE transactions SET created_at = replace(created_at, ' ', 'T') || 'Z' WHERE created_at GLOB ` + legacy,
				`UPDATE transactions SET updated_at = replace(updated_at, ' ', 'T') || 'Z' WHERE updated_at GLOB ` + legacy,
				`UPDATE accounts SET created_at = replace(created_at, ' ', 'T') || 'Z' WHERE created_at GLOB ` + legacy,
				`UPDATE accounts SET updated_at = replace(updated_at, ' ', 'T') || 'Z' WHERE updated_at GLOB ` + legacy,
				`UPDATE categories SET created_at = replace(created_at, ' ', 'T') || 'Z' WHERE created_at GLOB ` + legacy,
				`UPDATE tags SET created_at = replace(created_at, ' ', 'T') || 'Z' WHERE created_at GLOB ` + legacy,
				`UPDATE transaction_tags SET created_at = replace(created_at, ' ', 'T') || 'Z' WHERE created_at GLOB ` + legacy,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// columnExists reports whether a column is present on a table, via live
// table metadata.
func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Migrate applies all pending database migrations and seeds reference data.
// Safe to call on every startup.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	// Reference data is seeded only into empty tables; a seed failure is
	// logged and startup continues degraded.
	if err := s.seedDefaultCategories(ctx); err != nil {
		slog.Warn("failed to seed default categories", "error", err)
	}
	if err := s.seedDefaultAccounts(ctx); err != nil {
		slog.Warn("failed to seed default accounts", "error", err)
	}

	return nil
}

var defaultCategories = []struct {
	icon  string
	name  string
	color string
	typ   model.CategoryType
}{
	{"🍔", "Food & Dining", "#EF4444", model.CategoryTypeExpense},
	{"🚗", "Transportation", "#F59E0B", model.CategoryTypeExpense},
	{"🏠", "Home & Utilities", "#10B981", model.CategoryTypeExpense},
	{"👕", "Shopping", "#8B5CF6", model.CategoryTypeExpense},
	{"🎬", "Entertainment", "#EC4899", model.CategoryTypeExpense},
	{"💊", "Healthcare", "#06B6D4", model.CategoryTypeExpense},
	{"💼", "Salary", "#22C55E", model.CategoryTypeIncome},
	{"💸", "Investment", "#3B82F6", model.CategoryTypeIncome},
	{"🎁", "Gift", "#F97316", model.CategoryTypeIncome},
	{"📚", "Education", "#6366F1", model.CategoryTypeExpense},
}

var defaultAccounts = []struct {
	name     string
	typ      string
	currency string
	owner    string
}{
	{"Cash Alex", "cash", "RON", "Alex"},
	{"Cash Maria", "cash", "RON", "Maria"},
	{"BT Checking Alex", "checking", "RON", "Alex"},
	{"BT Checking Maria", "checking", "RON", "Maria"},
	{"Revolut Alex", "checking", "RON", "Alex"},
	{"Revolut Maria", "checking", "RON", "Maria"},
	{"Revolut EUR", "checking", "EUR", "Alex"},
	{"Savings RON", "savings", "RON", "Alex"},
	{"Savings EUR", "savings", "EUR", "Maria"},
	{"Credit Card BT", "credit_card", "RON", "Alex"},
	{"Investments XTB", "investment", "EUR", "Alex"},
	{"Investments USD", "investment", "USD", "Maria"},
}

func (s *SQLiteStore) seedDefaultCategories(ctx context.Context) error {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, c := range defaultCategories {
		now := formatTime(time.Now())
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO categories (id, name, color, icon, category_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			newID(), c.name, c.color, c.icon, string(c.typ), now)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.name, err)
		}
	}

	slog.Info("Seeded default categories", "count", len(defaultCategories))
	return nil
}

func (s *SQLiteStore) seedDefaultAccounts(ctx context.Context) error {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, a := range defaultAccounts {
		now := formatTime(time.Now())
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO accounts (id, name, account_type, balance, currency, owner, created_at, updated_at)
			VALUES (?, ?, ?, 0.0, ?, ?, ?, ?)`,
			newID(), a.name, a.typ, a.currency, a.owner, now, now)
		if err != nil {
			return fmt.Errorf("failed to seed account %s: %w", a.name, err)
		}
	}

	slog.Info("Seeded default accounts", "count", len(defaultAccounts))
	return nil
}
