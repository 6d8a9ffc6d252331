// Package api exposes the persistence layer to a UI shell as a named-command
// request/response surface. Every command takes a JSON payload and returns an
// envelope; errors are flattened to text because the shell renders them
// directly.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/moneyzen/money-zen/internal/model"
	"github.com/moneyzen/money-zen/internal/service"
	"github.com/moneyzen/money-zen/internal/storage"
)

// BackupService is the subset of backup operations the command surface needs.
type BackupService interface {
	Create(ctx context.Context) (*storage.BackupInfo, error)
	List(ctx context.Context) ([]storage.BackupInfo, error)
	Restore(ctx context.Context, name string) error
}

// Handler dispatches named commands to the persistence layer.
type Handler struct {
	store   service.Storage
	backups BackupService
	logger  *slog.Logger
}

// NewHandler creates a command handler over the given store. The backup
// service may be nil; backup commands then report an error.
func NewHandler(store service.Storage, backups BackupService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:   store,
		backups: backups,
		logger:  logger,
	}
}

// Response is the envelope returned for every command.
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	OK    bool   `json:"ok"`
}

func ok(data any) Response {
	return Response{OK: true, Data: data}
}

func fail(err error) Response {
	return Response{OK: false, Error: err.Error()}
}

// Dispatch routes a named command with its JSON payload to the matching
// storage operation. Commands with no payload accept an empty or nil body.
func (h *Handler) Dispatch(ctx context.Context, command string, payload json.RawMessage) Response {
	h.logger.Debug("dispatching command", "command", command)

	handler, found := h.routes()[command]
	if !found {
		return fail(fmt.Errorf("unknown command: %q", command))
	}

	resp := handler(ctx, payload)
	if !resp.OK {
		h.logger.Warn("command failed", "command", command, "error", resp.Error)
	}
	return resp
}

type commandFunc func(ctx context.Context, payload json.RawMessage) Response

func (h *Handler) routes() map[string]commandFunc {
	return map[string]commandFunc{
		"init_database": h.initDatabase,

		"create_account": h.createAccount,
		"get_accounts":   h.getAccounts,
		"update_account": h.updateAccount,
		"delete_account": h.deleteAccount,

		"create_category": h.createCategory,
		"get_categories":  h.getCategories,
		"update_category": h.updateCategory,
		"delete_category": h.deleteCategory,

		"create_tag": h.createTag,
		"get_tags":   h.getTags,
		"update_tag": h.updateTag,
		"delete_tag": h.deleteTag,

		"create_transaction":            h.createTransaction,
		"get_transactions":              h.getTransactions,
		"get_transactions_by_month":     h.getTransactionsByMonth,
		"get_transactions_by_account":   h.getTransactionsByAccount,
		"get_transactions_by_category":  h.getTransactionsByCategory,
		"get_transactions_by_daterange": h.getTransactionsByDateRange,
		"get_transactions_by_tag":       h.getTransactionsByTag,
		"update_transaction":            h.updateTransaction,
		"delete_transaction":            h.deleteTransaction,
		"delete_multiple_transactions":  h.deleteMultipleTransactions,

		"add_tags_to_transaction":      h.addTagsToTransaction,
		"remove_tags_from_transaction": h.removeTagsFromTransaction,
		"get_transaction_tags":         h.getTransactionTags,
		"bulk_update_transaction_tags": h.bulkUpdateTransactionTags,

		"import_transactions": h.importTransactions,
		"migrate_categories":  h.migrateCategories,

		"backup_database":  h.backupDatabase,
		"list_backups":     h.listBackups,
		"restore_database": h.restoreDatabase,
	}
}

func decode[T any](payload json.RawMessage) (T, error) {
	var req T
	if len(payload) == 0 {
		return req, fmt.Errorf("missing request payload")
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, fmt.Errorf("invalid request payload: %w", err)
	}
	return req, nil
}

// parseDate accepts RFC 3339 timestamps and bare calendar dates, matching
// what the UI shell sends.
func parseDate(text string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", text)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", text)
	}
	return t, nil
}

func (h *Handler) initDatabase(ctx context.Context, _ json.RawMessage) Response {
	if err := h.store.Migrate(ctx); err != nil {
		return fail(err)
	}
	return ok(nil)
}

type accountRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"account_type"`
	Currency string `json:"currency"`
	Owner    string `json:"owner"`
}

func (h *Handler) createAccount(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[accountRequest](payload)
	if err != nil {
		return fail(err)
	}
	account, err := h.store.CreateAccount(ctx, req.Name, req.Type, req.Currency, req.Owner)
	if err != nil {
		return fail(err)
	}
	return ok(account)
}

func (h *Handler) getAccounts(ctx context.Context, _ json.RawMessage) Response {
	accounts, err := h.store.GetAccounts(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(accounts)
}

func (h *Handler) updateAccount(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[accountRequest](payload)
	if err != nil {
		return fail(err)
	}
	account, err := h.store.UpdateAccount(ctx, req.ID, req.Name, req.Type, req.Currency, req.Owner)
	if err != nil {
		return fail(err)
	}
	return ok(account)
}

type idRequest struct {
	ID string `json:"id"`
}

func (h *Handler) deleteAccount(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[idRequest](payload)
	if err != nil {
		return fail(err)
	}
	if err := h.store.DeleteAccount(ctx, req.ID); err != nil {
		return fail(err)
	}
	return ok(nil)
}

type categoryRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Type  string `json:"category_type"`
}

func (h *Handler) createCategory(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[categoryRequest](payload)
	if err != nil {
		return fail(err)
	}
	category, err := h.store.CreateCategory(ctx, req.Name, req.Icon, req.Color, model.CategoryType(req.Type))
	if err != nil {
		return fail(err)
	}
	return ok(category)
}

func (h *Handler) getCategories(ctx context.Context, _ json.RawMessage) Response {
	categories, err := h.store.GetCategories(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(categories)
}

func (h *Handler) updateCategory(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[categoryRequest](payload)
	if err != nil {
		return fail(err)
	}
	category, err := h.store.UpdateCategory(ctx, req.ID, req.Name, req.Icon, req.Color, model.CategoryType(req.Type))
	if err != nil {
		return fail(err)
	}
	return ok(category)
}

func (h *Handler) deleteCategory(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[idRequest](payload)
	if err != nil {
		return fail(err)
	}
	if err := h.store.DeleteCategory(ctx, req.ID); err != nil {
		return fail(err)
	}
	return ok(nil)
}

type tagRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (h *Handler) createTag(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[tagRequest](payload)
	if err != nil {
		return fail(err)
	}
	tag, err := h.store.CreateTag(ctx, req.Name, req.Icon, req.Color)
	if err != nil {
		return fail(err)
	}
	return ok(tag)
}

func (h *Handler) getTags(ctx context.Context, _ json.RawMessage) Response {
	tags, err := h.store.GetTags(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(tags)
}

func (h *Handler) updateTag(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[tagRequest](payload)
	if err != nil {
		return fail(err)
	}
	tag, err := h.store.UpdateTag(ctx, req.ID, req.Name, req.Icon, req.Color)
	if err != nil {
		return fail(err)
	}
	return ok(tag)
}

func (h *Handler) deleteTag(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[idRequest](payload)
	if err != nil {
		return fail(err)
	}
	if err := h.store.DeleteTag(ctx, req.ID); err != nil {
		return fail(err)
	}
	return ok(nil)
}

type transactionRequest struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"account_id"`
	CategoryID  string  `json:"category_id"`
	Description string  `json:"description"`
	Type        string  `json:"transaction_type"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
}

func (h *Handler) createTransaction(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[transactionRequest](payload)
	if err != nil {
		return fail(err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return fail(err)
	}
	txn, err := h.store.CreateTransaction(ctx, req.AccountID, req.CategoryID, req.Amount,
		req.Description, model.TransactionType(req.Type), date)
	if err != nil {
		return fail(err)
	}
	return ok(txn)
}

func (h *Handler) getTransactions(ctx context.Context, _ json.RawMessage) Response {
	txns, err := h.store.GetTransactions(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(txns)
}

func (h *Handler) getTransactionsByMonth(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		Year  int `json:"year"`
		Month int `json:"month"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	txns, err := h.store.GetTransactionsByMonth(ctx, req.Year, req.Month)
	if err != nil {
		return fail(err)
	}
	return ok(txns)
}

func (h *Handler) getTransactionsByAccount(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		AccountID string `json:"account_id"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	txns, err := h.store.GetTransactionsByAccount(ctx, req.AccountID)
	if err != nil {
		return fail(err)
	}
	return ok(txns)
}

func (h *Handler) getTransactionsByCategory(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		CategoryID string `json:"category_id"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	txns, err := h.store.GetTransactionsByCategory(ctx, req.CategoryID)
	if err != nil {
		return fail(err)
	}
	return ok(txns)
}

func (h *Handler) getTransactionsByDateRange(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		Start string `json:"start_date"`
		End   string `json:"end_date"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	start, err := parseDate(req.Start)
	if err != nil {
		return fail(err)
	}
	end, err := parseDate(req.End)
	if err != nil {
		return fail(err)
	}
	txns, err := h.store.GetTransactionsByDateRange(ctx, start, end)
	if err != nil {
		return fail(err)
	}
	return ok(txns)
}

func (h *Handler) getTransactionsByTag(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		TagID string `json:"tag_id"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	txns, err := h.store.GetTransactionsByTag(ctx, req.TagID)
	if err != nil {
		return fail(err)
	}
	return ok(txns)
}

func (h *Handler) updateTransaction(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[transactionRequest](payload)
	if err != nil {
		return fail(err)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return fail(err)
	}
	txn, err := h.store.UpdateTransaction(ctx, req.ID, req.AccountID, req.CategoryID,
		req.Amount, req.Description, model.TransactionType(req.Type), date)
	if err != nil {
		return fail(err)
	}
	return ok(txn)
}

func (h *Handler) deleteTransaction(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[idRequest](payload)
	if err != nil {
		return fail(err)
	}
	if err := h.store.DeleteTransaction(ctx, req.ID); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (h *Handler) deleteMultipleTransactions(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		IDs []string `json:"transaction_ids"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	deleted, err := h.store.DeleteTransactions(ctx, req.IDs)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]int{"deleted": deleted})
}

type tagLinkRequest struct {
	TransactionID string   `json:"transaction_id"`
	TagIDs        []string `json:"tag_ids"`
}

func (h *Handler) addTagsToTransaction(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[tagLinkRequest](payload)
	if err != nil {
		return fail(err)
	}
	if err := h.store.AddTagsToTransaction(ctx, req.TransactionID, req.TagIDs); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (h *Handler) removeTagsFromTransaction(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[tagLinkRequest](payload)
	if err != nil {
		return fail(err)
	}
	if err := h.store.RemoveTagsFromTransaction(ctx, req.TransactionID, req.TagIDs); err != nil {
		return fail(err)
	}
	return ok(nil)
}

func (h *Handler) getTransactionTags(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		TransactionID string `json:"transaction_id"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	tags, err := h.store.GetTransactionTags(ctx, req.TransactionID)
	if err != nil {
		return fail(err)
	}
	return ok(tags)
}

func (h *Handler) bulkUpdateTransactionTags(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		TransactionIDs []string `json:"transaction_ids"`
		TagsToAdd      []string `json:"tags_to_add"`
		TagsToRemove   []string `json:"tags_to_remove"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	updated, err := h.store.BulkUpdateTransactionTags(ctx, req.TransactionIDs, req.TagsToAdd, req.TagsToRemove)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]int{"updated": updated})
}

type importRowRequest struct {
	AccountID   string  `json:"account_id"`
	CategoryID  string  `json:"category_id"`
	Description string  `json:"description"`
	Type        string  `json:"transaction_type"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
}

func (h *Handler) importTransactions(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		Transactions []importRowRequest `json:"transactions"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	records := make([]service.ImportRecord, 0, len(req.Transactions))
	for _, row := range req.Transactions {
		records = append(records, service.ImportRecord{
			AccountID:   row.AccountID,
			CategoryID:  row.CategoryID,
			Description: row.Description,
			Type:        model.TransactionType(row.Type),
			DateText:    row.Date,
			Amount:      row.Amount,
		})
	}
	summary, err := h.store.ImportTransactions(ctx, records)
	if err != nil {
		return fail(err)
	}
	return ok(summary)
}

func (h *Handler) migrateCategories(ctx context.Context, payload json.RawMessage) Response {
	req, err := decode[struct {
		Path string `json:"path"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	inserted, err := h.store.MigrateCategoriesFromFile(ctx, req.Path)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]int{"inserted": inserted})
}

func (h *Handler) backupDatabase(ctx context.Context, _ json.RawMessage) Response {
	if h.backups == nil {
		return fail(fmt.Errorf("backups are not configured"))
	}
	info, err := h.backups.Create(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(info)
}

func (h *Handler) listBackups(ctx context.Context, _ json.RawMessage) Response {
	if h.backups == nil {
		return fail(fmt.Errorf("backups are not configured"))
	}
	infos, err := h.backups.List(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(infos)
}

func (h *Handler) restoreDatabase(ctx context.Context, payload json.RawMessage) Response {
	if h.backups == nil {
		return fail(fmt.Errorf("backups are not configured"))
	}
	req, err := decode[struct {
		Name string `json:"name"`
	}](payload)
	if err != nil {
		return fail(err)
	}
	if err := h.backups.Restore(ctx, req.Name); err != nil {
		return fail(err)
	}
	return ok(nil)
}
