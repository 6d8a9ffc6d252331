package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moneyzen/money-zen/internal/common"
	"github.com/moneyzen/money-zen/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the service.Storage interface using SQLite.
//
// All exported operations funnel through a single mutex, so a logical
// operation that issues several statements (insert transaction + update
// balance) never interleaves with another caller's. Concurrent callers
// queue and run strictly sequentially.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

var _ service.Storage = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if necessary) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NewBackupManager creates a backup manager for this store, writing
// timestamped copies of the database file to backupDir.
func (s *SQLiteStore) NewBackupManager(backupDir string) (*BackupManager, error) {
	return NewBackupManager(s.db, s.dbPath, backupDir)
}

// newID returns a fresh unique row identifier.
func newID() string {
	return uuid.NewString()
}

// Timestamp formats accepted on read. New writes always use RFC 3339 UTC;
// the bare form appears in rows written by earlier releases. Migration v4
// rewrites such rows in place, so text comparisons in date filters and
// import dedup only ever see the canonical form.
const legacyTimeFormat = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime accepts the two serialized shapes found on disk. Anything else
// is a typed parse error; malformed timestamps are never silently replaced.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(legacyTimeFormat, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidDate, s)
}

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
