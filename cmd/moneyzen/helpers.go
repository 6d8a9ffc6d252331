package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/moneyzen/money-zen/internal/config"
	"github.com/moneyzen/money-zen/internal/storage"
)

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStore, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// backupDir resolves the backup folder from config, falling back to the
// per-user documents default.
func backupDir() string {
	dir := viper.GetString("backup.dir")
	if dir == "" {
		dir = config.DefaultBackupDir()
	}
	return config.ExpandPath(dir)
}
