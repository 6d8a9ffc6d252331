package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moneyzen/money-zen/internal/common"
	"github.com/moneyzen/money-zen/internal/model"
)

// Helper function to create a tag.
func createTestTag(t *testing.T, store *SQLiteStore, name string) *model.Tag {
	t.Helper()
	tag, err := store.CreateTag(context.Background(), name, "🏷️", "#00AAFF")
	if err != nil {
		t.Fatalf("Failed to create test tag %q: %v", name, err)
	}
	return tag
}

func TestCreateTag(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	tag, err := store.CreateTag(ctx, "recurring", "🔁", "#336699")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if tag.ID == "" || tag.Name != "recurring" {
		t.Errorf("Created tag %+v does not match input", tag)
	}

	if _, err := store.CreateTag(ctx, "", "🔁", "#336699"); err == nil {
		t.Error("Expected error for empty tag name")
	}

	if _, err := store.CreateTag(ctx, "recurring", "🔁", "#336699"); !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry for duplicate tag name, got %v", err)
	}
}

func TestGetTagsOrdering(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	for _, name := range []string{"zebra", "alpha", "middle"} {
		createTestTag(t, store, name)
	}

	tags, err := store.GetTags(ctx)
	if err != nil {
		t.Fatalf("GetTags failed: %v", err)
	}
	if len(tags) != 3 {
		t.Fatalf("Expected 3 tags, got %d", len(tags))
	}
	for i, want := range []string{"alpha", "middle", "zebra"} {
		if tags[i].Name != want {
			t.Errorf("tags[%d].Name = %q, want %q", i, tags[i].Name, want)
		}
	}
}

func TestUpdateTag(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	created := createTestTag(t, store, "work")
	other := createTestTag(t, store, "personal")

	updated, err := store.UpdateTag(ctx, created.ID, "work-travel", "✈️", "#778899")
	if err != nil {
		t.Fatalf("UpdateTag failed: %v", err)
	}
	if updated.Name != "work-travel" || updated.Icon != "✈️" {
		t.Errorf("Update not applied: %+v", updated)
	}

	_, err = store.UpdateTag(ctx, other.ID, "work-travel", "✈️", "#778899")
	if !errors.Is(err, common.ErrDuplicateEntry) {
		t.Errorf("Expected ErrDuplicateEntry when stealing a name, got %v", err)
	}

	_, err = store.UpdateTag(ctx, "no-such-id", "anything", "❓", "#000000")
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown ID, got %v", err)
	}
}

func TestDeleteTagRefusedWhileInUse(t *testing.T) {
	store, cleanup := createTestStore(t)
	defer cleanup()

	ctx := context.Background()
	account, err := store.CreateAccount(ctx, "Tag Delete Test", "cash", "RON", "")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	category := createTestCategory(t, store, "Tag Delete Spending", model.CategoryTypeExpense)
	tag := createTestTag(t, store, "sticky")

	txn, err := store.CreateTransaction(ctx, account.ID, category.ID, 9.99,
		"tagged purchase", model.TypeExpense, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if err := store.AddTagsToTransaction(ctx, txn.ID, []string{tag.ID}); err != nil {
		t.Fatalf("AddTagsToTransaction failed: %v", err)
	}

	if err := store.DeleteTag(ctx, tag.ID); !errors.Is(err, common.ErrInUse) {
		t.Errorf("Expected ErrInUse while tag is attached, got %v", err)
	}

	if err := store.RemoveTagsFromTransaction(ctx, txn.ID, []string{tag.ID}); err != nil {
		t.Fatalf("RemoveTagsFromTransaction failed: %v", err)
	}
	if err := store.DeleteTag(ctx, tag.ID); err != nil {
		t.Errorf("DeleteTag failed after links removed: %v", err)
	}
}
