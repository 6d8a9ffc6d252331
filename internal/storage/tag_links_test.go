package storage

import (
	"context"
	"testing"
	"time"

	"github.com/moneyzen/money-zen/internal/model"
)

func TestAddAndGetTransactionTags(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	account, _, expense := createTestLedger(t, store, "Tag Links")
	txn, err := store.CreateTransaction(ctx, account.ID, expense.ID, 50.0,
		"tagged spending", model.TypeExpense, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	urgent := createTestTag(t, store, "urgent")
	shared := createTestTag(t, store, "shared")

	if err := store.AddTagsToTransaction(ctx, txn.ID, []string{urgent.ID, shared.ID}); err != nil {
		t.Fatalf("AddTagsToTransaction failed: %v", err)
	}

	// Re-adding the same tags is a no-op, not an error.
	if err := store.AddTagsToTransaction(ctx, txn.ID, []string{urgent.ID}); err != nil {
		t.Fatalf("Re-adding existing tag failed: %v", err)
	}

	tags, err := store.GetTransactionTags(ctx, txn.ID)
	if err != nil {
		t.Fatalf("GetTransactionTags failed: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(tags))
	}
	// Ordered by name.
	if tags[0].Name != "shared" || tags[1].Name != "urgent" {
		t.Errorf("Tags out of order: %q, %q", tags[0].Name, tags[1].Name)
	}
}

func TestRemoveTagsFromTransaction(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	account, _, expense := createTestLedger(t, store, "Tag Removal")
	txn, err := store.CreateTransaction(ctx, account.ID, expense.ID, 12.0,
		"loses its tag", model.TypeExpense, time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	tag := createTestTag(t, store, "fleeting")

	if err := store.AddTagsToTransaction(ctx, txn.ID, []string{tag.ID}); err != nil {
		t.Fatalf("AddTagsToTransaction failed: %v", err)
	}
	if err := store.RemoveTagsFromTransaction(ctx, txn.ID, []string{tag.ID}); err != nil {
		t.Fatalf("RemoveTagsFromTransaction failed: %v", err)
	}

	// Removing an absent association is a no-op.
	if err := store.RemoveTagsFromTransaction(ctx, txn.ID, []string{tag.ID}); err != nil {
		t.Errorf("Removing absent tag should be a no-op, got %v", err)
	}

	tags, err := store.GetTransactionTags(ctx, txn.ID)
	if err != nil {
		t.Fatalf("GetTransactionTags failed: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("Expected no tags after removal, got %d", len(tags))
	}
}

func TestGetTransactionsByTag(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	account, _, expense := createTestLedger(t, store, "By Tag")
	tag := createTestTag(t, store, "holiday")

	tagged, err := store.CreateTransaction(ctx, account.ID, expense.ID, 200.0,
		"hotel", model.TypeExpense, time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := store.CreateTransaction(ctx, account.ID, expense.ID, 15.0,
		"untagged", model.TypeExpense, time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if err := store.AddTagsToTransaction(ctx, tagged.ID, []string{tag.ID}); err != nil {
		t.Fatalf("AddTagsToTransaction failed: %v", err)
	}

	txns, err := store.GetTransactionsByTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("GetTransactionsByTag failed: %v", err)
	}
	if len(txns) != 1 || txns[0].ID != tagged.ID {
		t.Errorf("Expected only the tagged transaction, got %d", len(txns))
	}
}

func TestBulkUpdateTransactionTags(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	account, _, expense := createTestLedger(t, store, "Bulk Tags")
	oldTag := createTestTag(t, store, "old")
	newTag := createTestTag(t, store, "new")
	date := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	var ids []string
	for _, desc := range []string{"one", "two", "three"} {
		txn, err := store.CreateTransaction(ctx, account.ID, expense.ID, 1.0,
			desc, model.TypeExpense, date)
		if err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		if err := store.AddTagsToTransaction(ctx, txn.ID, []string{oldTag.ID}); err != nil {
			t.Fatalf("AddTagsToTransaction failed: %v", err)
		}
		ids = append(ids, txn.ID)
	}

	updated, err := store.BulkUpdateTransactionTags(ctx, ids, []string{newTag.ID}, []string{oldTag.ID})
	if err != nil {
		t.Fatalf("BulkUpdateTransactionTags failed: %v", err)
	}
	if updated != len(ids) {
		t.Errorf("Updated = %d, want %d", updated, len(ids))
	}

	for _, id := range ids {
		tags, err := store.GetTransactionTags(ctx, id)
		if err != nil {
			t.Fatalf("GetTransactionTags failed: %v", err)
		}
		if len(tags) != 1 || tags[0].Name != "new" {
			t.Errorf("Transaction %s tags = %v, want just %q", id, tags, "new")
		}
	}

	if _, err := store.BulkUpdateTransactionTags(ctx, nil, []string{newTag.ID}, nil); err == nil {
		t.Error("Expected error for empty transaction list")
	}
}
