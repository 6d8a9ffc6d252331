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

const categoryColumns = `id, name, color, icon, category_type, created_at`

// CreateCategory creates a new category. The name must be unique within its
// type; a conflicting row rejects the write before it is attempted.
func (s *SQLiteStore) CreateCategory(ctx context.Context, name, icon, color string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := categoryType.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Pre-flight uniqueness check. Safe under the operation mutex; the
	// unique index backs it up regardless.
	if err := checkCategoryNameFree(ctx, s.db, name, categoryType, ""); err != nil {
		return nil, err
	}

	id := newID()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, color, icon, category_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, color, icon, string(categoryType), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created category", "id", id, "name", name, "type", categoryType)

	return &model.Category{
		ID:        id,
		Name:      name,
		Color:     color,
		Icon:      icon,
		Type:      categoryType,
		CreatedAt: now,
	}, nil
}

// GetCategories returns all categories ordered by type then name.
func (s *SQLiteStore) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY category_type, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a single category.
func (s *SQLiteStore) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return getCategoryByID(ctx, s.db, id)
}

func getCategoryByID(ctx context.Context, q queryable, id string) (*model.Category, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// UpdateCategory mutates a category and returns the canonical persisted state.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id, name, icon, color string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	if err := categoryType.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkCategoryNameFree(ctx, s.db, name, categoryType, id); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, color = ?, icon = ?, category_type = ?
		WHERE id = ?`,
		name, color, icon, string(categoryType), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, common.ErrNotFound
	}

	return getCategoryByID(ctx, s.db, id)
}

// DeleteCategory removes a category. Deletion is refused while any
// transaction still references it.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var refs int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count category references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: category referenced by %d transaction(s)", common.ErrInUse, refs)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	slog.Info("deleted category", "id", id)
	return nil
}

// checkCategoryNameFree rejects a write when a different row already holds
// the (name, type) pair.
func checkCategoryNameFree(ctx context.Context, q queryable, name string, categoryType model.CategoryType, excludeID string) error {
	var existingID string
	err := q.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ? AND category_type = ?`,
		name, string(categoryType)).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check existing category: %w", err)
	}
	if existingID != excludeID {
		return fmt.Errorf("%w: category %q (%s)", common.ErrDuplicateEntry, name, categoryType)
	}
	return nil
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var (
		cat       model.Category
		typ       string
		createdAt string
	)
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Color, &cat.Icon, &typ, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	cat.Type = model.CategoryType(typ)
	var err error
	if cat.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("category %s created_at: %w", cat.ID, err)
	}
	return &cat, nil
}
