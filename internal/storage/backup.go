package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// BackupManager writes timestamped copies of the database file to a backup
// folder and restores the active file from a chosen copy.
//
// Backups run outside the store's operation mutex; a backup taken mid-write
// still sees a consistent snapshot because it goes through VACUUM INTO.
type BackupManager struct {
	db        *sql.DB
	dbPath    string
	backupDir string
}

// BackupInfo describes one backup file.
type BackupInfo struct {
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	FileSize  int64     `json:"file_size"`
}

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
)

// NewBackupManager creates a backup manager, ensuring the backup folder exists.
func NewBackupManager(db *sql.DB, dbPath, backupDir string) (*BackupManager, error) {
	if err := os.MkdirAll(backupDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &BackupManager{
		db:        db,
		dbPath:    dbPath,
		backupDir: backupDir,
	}, nil
}

// Create writes a timestamped backup of the database and returns its info.
func (bm *BackupManager) Create(ctx context.Context) (*BackupInfo, error) {
	name := fmt.Sprintf("money-zen-backup-%s.db", time.Now().Format("2006-01-02-150405"))
	dest := filepath.Join(bm.backupDir, name)

	if err := bm.snapshotDatabase(ctx, dest); err != nil {
		return nil, err
	}

	info, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	slog.Info("created backup", "path", dest, "size", info.Size())
	return &BackupInfo{
		Name:      name,
		Path:      dest,
		FileSize:  info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// List returns the available backups, newest first.
func (bm *BackupManager) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:      entry.Name(),
			Path:      filepath.Join(bm.backupDir, entry.Name()),
			FileSize:  info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Restore overwrites the active database file from the named backup. The
// copy is a raw file operation, not coordinated with concurrent writers;
// the previous live file is kept next to the database until it succeeds.
func (bm *BackupManager) Restore(_ context.Context, name string) error {
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return errors.New("invalid backup name: cannot contain path separators")
	}

	backupPath := filepath.Join(bm.backupDir, name)
	if _, err := os.Stat(backupPath); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}

	if err := verifyIntegrity(backupPath); err != nil {
		return fmt.Errorf("%w: %v", ErrBackupCorrupted, err)
	}

	// Safety copy of the live file, in case the restore copy fails midway.
	safetyPath := bm.dbPath + ".restore-backup"
	if err := copyFile(bm.dbPath, safetyPath); err != nil {
		return fmt.Errorf("failed to back up current database: %w", err)
	}

	if err := copyFile(backupPath, bm.dbPath); err != nil {
		if restoreErr := copyFile(safetyPath, bm.dbPath); restoreErr != nil {
			slog.Error("failed to roll back after restore failure", "error", restoreErr)
		}
		return fmt.Errorf("failed to restore backup: %w", err)
	}

	if err := os.Remove(safetyPath); err != nil {
		slog.Warn("failed to remove safety copy", "error", err)
	}

	slog.Info("restored backup", "name", name)
	return nil
}

// snapshotDatabase produces a consistent copy via VACUUM INTO, falling back
// to a plain file copy where unsupported.
func (bm *BackupManager) snapshotDatabase(ctx context.Context, destPath string) error {
	if _, err := bm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	if strings.ContainsAny(destPath, `'";`) {
		return fmt.Errorf("invalid destination path: contains forbidden characters")
	}
	query := fmt.Sprintf("VACUUM INTO '%s'", destPath)
	if _, err := bm.db.ExecContext(ctx, query); err != nil {
		slog.Warn("VACUUM INTO failed, falling back to file copy", "error", err)
		return copyFile(bm.dbPath, destPath)
	}
	return nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// copyFile copies through a temp file and renames, so a half-written
// destination never masquerades as a complete one.
func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	tmpDst := dst + ".tmp"
	destination, err := os.Create(tmpDst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		_ = destination.Close()
		_ = os.Remove(tmpDst)
		return err
	}
	if err := destination.Close(); err != nil {
		_ = os.Remove(tmpDst)
		return err
	}

	return os.Rename(tmpDst, dst)
}
