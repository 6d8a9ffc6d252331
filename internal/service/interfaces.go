// Package service defines the contracts between the command surface and the
// persistence layer.
package service

import (
	"context"
	"time"

	"github.com/moneyzen/money-zen/internal/model"
)

// ImportRecord is one externally sourced transaction row handed to the bulk
// importer. Date is text because sources disagree on its shape; the importer
// accepts RFC 3339 and bare calendar dates.
type ImportRecord struct {
	AccountID   string
	CategoryID  string
	Description string
	Type        model.TransactionType
	DateText    string
	Amount      float64
}

// ImportSummary reports the outcome of a bulk import. Each row's outcome is
// independent; a failed row never aborts the batch.
type ImportSummary struct {
	Errors   []string `json:"errors"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Schema management
	Migrate(ctx context.Context) error

	// Account operations
	CreateAccount(ctx context.Context, name, accountType, currency, owner string) (*model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	UpdateAccount(ctx context.Context, id, name, accountType, currency, owner string) (*model.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	// Category operations
	CreateCategory(ctx context.Context, name, icon, color string, categoryType model.CategoryType) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	UpdateCategory(ctx context.Context, id, name, icon, color string, categoryType model.CategoryType) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	// Tag operations
	CreateTag(ctx context.Context, name, icon, color string) (*model.Tag, error)
	GetTags(ctx context.Context) ([]model.Tag, error)
	GetTagByID(ctx context.Context, id string) (*model.Tag, error)
	UpdateTag(ctx context.Context, id, name, icon, color string) (*model.Tag, error)
	DeleteTag(ctx context.Context, id string) error

	// Transaction operations
	CreateTransaction(ctx context.Context, accountID, categoryID string, amount float64, description string, txType model.TransactionType, date time.Time) (*model.Transaction, error)
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsByMonth(ctx context.Context, year, month int) ([]model.Transaction, error)
	GetTransactionsByAccount(ctx context.Context, accountID string) ([]model.Transaction, error)
	GetTransactionsByCategory(ctx context.Context, categoryID string) ([]model.Transaction, error)
	GetTransactionsByDateRange(ctx context.Context, start, end time.Time) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, id, accountID, categoryID string, amount float64, description string, txType model.TransactionType, date time.Time) (*model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	DeleteTransactions(ctx context.Context, ids []string) (int, error)

	// Tag association operations
	AddTagsToTransaction(ctx context.Context, transactionID string, tagIDs []string) error
	RemoveTagsFromTransaction(ctx context.Context, transactionID string, tagIDs []string) error
	GetTransactionTags(ctx context.Context, transactionID string) ([]model.Tag, error)
	GetTransactionsByTag(ctx context.Context, tagID string) ([]model.Transaction, error)
	BulkUpdateTransactionTags(ctx context.Context, transactionIDs, tagsToAdd, tagsToRemove []string) (int, error)

	// Bulk import
	ImportTransactions(ctx context.Context, records []ImportRecord) (*ImportSummary, error)

	// Category migration
	MigrateCategoriesFromFile(ctx context.Context, path string) (int, error)

	// Lifecycle
	Close() error
}
