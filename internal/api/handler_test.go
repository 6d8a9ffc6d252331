package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyzen/money-zen/internal/model"
	"github.com/moneyzen/money-zen/internal/service"
	"github.com/moneyzen/money-zen/internal/storage"
)

func newTestHandler(t *testing.T) (*Handler, *storage.SQLiteStore) {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))

	backups, err := store.NewBackupManager(filepath.Join(dir, "backups"))
	require.NoError(t, err)

	return NewHandler(store, backups, slog.Default()), store
}

func dispatch(t *testing.T, h *Handler, command string, payload any) Response {
	t.Helper()

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = data
	}
	return h.Dispatch(context.Background(), command, raw)
}

func TestDispatchUnknownCommand(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := dispatch(t, h, "mint_currency", nil)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown command")
}

func TestInitDatabaseIsIdempotent(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := dispatch(t, h, "init_database", nil)
	assert.True(t, resp.OK)
	assert.Empty(t, resp.Error)
}

func TestAccountLifecycle(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := dispatch(t, h, "create_account", map[string]string{
		"name":         "Holiday Fund",
		"account_type": "savings",
		"currency":     "EUR",
		"owner":        "Alex",
	})
	require.True(t, resp.OK, resp.Error)

	account, isAccount := resp.Data.(*model.Account)
	require.True(t, isAccount)
	assert.Equal(t, "Holiday Fund", account.Name)
	assert.Equal(t, "EUR", account.Currency)
	assert.Zero(t, account.Balance)

	resp = dispatch(t, h, "update_account", map[string]string{
		"id":           account.ID,
		"name":         "Holiday Fund 2027",
		"account_type": "savings",
		"currency":     "EUR",
		"owner":        "Alex",
	})
	require.True(t, resp.OK, resp.Error)
	updated, isAccount := resp.Data.(*model.Account)
	require.True(t, isAccount)
	assert.Equal(t, "Holiday Fund 2027", updated.Name)

	resp = dispatch(t, h, "get_accounts", nil)
	require.True(t, resp.OK, resp.Error)
	accounts, isList := resp.Data.([]model.Account)
	require.True(t, isList)
	found := false
	for _, a := range accounts {
		if a.ID == account.ID {
			found = true
		}
	}
	assert.True(t, found)

	resp = dispatch(t, h, "delete_account", map[string]string{"id": account.ID})
	assert.True(t, resp.OK, resp.Error)
}

func TestCreateCategoryDuplicateFlattensToText(t *testing.T) {
	h, _ := newTestHandler(t)

	payload := map[string]string{
		"name":          "Utilities",
		"icon":          "💡",
		"color":         "#F1C40F",
		"category_type": "expense",
	}
	resp := dispatch(t, h, "create_category", payload)
	require.True(t, resp.OK, resp.Error)

	resp = dispatch(t, h, "create_category", payload)
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestTransactionCommandsMaintainBalance(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "Wallet", "cash", "RON", "Maria")
	require.NoError(t, err)
	category, err := store.CreateCategory(ctx, "Coffee", "☕", "#8B4513", model.CategoryTypeExpense)
	require.NoError(t, err)

	resp := dispatch(t, h, "create_transaction", map[string]any{
		"account_id":       account.ID,
		"category_id":      category.ID,
		"amount":           12.5,
		"description":      "flat white",
		"transaction_type": "expense",
		"date":             "2026-08-30",
	})
	require.True(t, resp.OK, resp.Error)
	txn, isTxn := resp.Data.(*model.Transaction)
	require.True(t, isTxn)

	after, err := store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.InDelta(t, -12.5, after.Balance, 1e-9)

	resp = dispatch(t, h, "delete_transaction", map[string]string{"id": txn.ID})
	require.True(t, resp.OK, resp.Error)

	after, err = store.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, after.Balance, 1e-9)
}

func TestCreateTransactionRejectsBadDate(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := dispatch(t, h, "create_transaction", map[string]any{
		"account_id":       "a",
		"category_id":      "c",
		"amount":           1.0,
		"transaction_type": "expense",
		"date":             "yesterday",
	})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "invalid date")
}

func TestDeleteMultipleTransactionsReportsCount(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "Checking", "checking", "USD", "Alex")
	require.NoError(t, err)
	category, err := store.CreateCategory(ctx, "Snacks", "🍿", "#E67E22", model.CategoryTypeExpense)
	require.NoError(t, err)

	txn, err := store.CreateTransaction(ctx, account.ID, category.ID, 4.0,
		"popcorn", model.TypeExpense, mustDate(t, "2026-08-01"))
	require.NoError(t, err)

	resp := dispatch(t, h, "delete_multiple_transactions", map[string]any{
		"transaction_ids": []string{txn.ID, "missing-id"},
	})
	require.True(t, resp.OK, resp.Error)

	counts, isMap := resp.Data.(map[string]int)
	require.True(t, isMap)
	assert.Equal(t, 1, counts["deleted"])
}

func TestImportTransactionsSummary(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "Imports", "checking", "EUR", "Maria")
	require.NoError(t, err)
	category, err := store.CreateCategory(ctx, "Misc Import", "📦", "#95A5A6", model.CategoryTypeExpense)
	require.NoError(t, err)

	row := map[string]any{
		"account_id":       account.ID,
		"category_id":      category.ID,
		"amount":           20.0,
		"description":      "groceries",
		"transaction_type": "expense",
		"date":             "2026-07-15",
	}
	resp := dispatch(t, h, "import_transactions", map[string]any{
		"transactions": []map[string]any{row, row},
	})
	require.True(t, resp.OK, resp.Error)

	summary, isSummary := resp.Data.(*service.ImportSummary)
	require.True(t, isSummary)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, summary.Errors)
}

func TestTagLinkCommands(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	account, err := store.CreateAccount(ctx, "Tagged", "cash", "RON", "Alex")
	require.NoError(t, err)
	category, err := store.CreateCategory(ctx, "Trips", "✈️", "#1ABC9C", model.CategoryTypeExpense)
	require.NoError(t, err)
	tag, err := store.CreateTag(ctx, "vacation", "🏖️", "#3498DB")
	require.NoError(t, err)
	txn, err := store.CreateTransaction(ctx, account.ID, category.ID, 300.0,
		"flights", model.TypeExpense, mustDate(t, "2026-06-10"))
	require.NoError(t, err)

	resp := dispatch(t, h, "add_tags_to_transaction", map[string]any{
		"transaction_id": txn.ID,
		"tag_ids":        []string{tag.ID},
	})
	require.True(t, resp.OK, resp.Error)

	resp = dispatch(t, h, "get_transaction_tags", map[string]string{
		"transaction_id": txn.ID,
	})
	require.True(t, resp.OK, resp.Error)
	tags, isList := resp.Data.([]model.Tag)
	require.True(t, isList)
	require.Len(t, tags, 1)
	assert.Equal(t, "vacation", tags[0].Name)

	resp = dispatch(t, h, "remove_tags_from_transaction", map[string]any{
		"transaction_id": txn.ID,
		"tag_ids":        []string{tag.ID},
	})
	assert.True(t, resp.OK, resp.Error)
}

func TestBackupCommandsRequireConfiguration(t *testing.T) {
	_, store := newTestHandler(t)
	h := NewHandler(store, nil, slog.Default())

	resp := dispatch(t, h, "backup_database", nil)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "not configured")
}

func TestBackupAndRestoreRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := dispatch(t, h, "backup_database", nil)
	require.True(t, resp.OK, resp.Error)
	info, isInfo := resp.Data.(*storage.BackupInfo)
	require.True(t, isInfo)
	assert.NotEmpty(t, info.Name)

	resp = dispatch(t, h, "list_backups", nil)
	require.True(t, resp.OK, resp.Error)
	infos, isList := resp.Data.([]storage.BackupInfo)
	require.True(t, isList)
	require.NotEmpty(t, infos)

	resp = dispatch(t, h, "restore_database", map[string]string{"name": info.Name})
	assert.True(t, resp.OK, resp.Error)
}

func TestMissingPayloadIsRejected(t *testing.T) {
	h, _ := newTestHandler(t)

	resp := h.Dispatch(context.Background(), "delete_account", nil)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "missing request payload")
}

func mustDate(t *testing.T, text string) time.Time {
	t.Helper()
	v, err := parseDate(text)
	require.NoError(t, err)
	return v
}
