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

const tagColumns = `id, name, color, icon, created_at`

// CreateTag creates a new tag. Names are globally unique.
func (s *SQLiteStore) CreateTag(ctx context.Context, name, icon, color string) (*model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkTagNameFree(ctx, s.db, name, ""); err != nil {
		return nil, err
	}

	id := newID()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, color, icon, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, name, color, icon, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	slog.Info("created tag", "id", id, "name", name)

	return &model.Tag{
		ID:        id,
		Name:      name,
		Color:     color,
		Icon:      icon,
		CreatedAt: now,
	}, nil
}

// GetTags returns all tags ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context) ([]model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTags(rows)
}

// GetTagByID returns a single tag.
func (s *SQLiteStore) GetTagByID(ctx context.Context, id string) (*model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)

	tag, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// UpdateTag mutates a tag and returns the canonical persisted state.
func (s *SQLiteStore) UpdateTag(ctx context.Context, id, name, icon, color string) (*model.Tag, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkTagNameFree(ctx, s.db, name, id); err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET name = ?, color = ?, icon = ? WHERE id = ?`,
		name, color, icon, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, common.ErrNotFound
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)
	tag, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return tag, err
}

// DeleteTag removes a tag. Deletion is refused while any transaction link
// still references it.
func (s *SQLiteStore) DeleteTag(ctx context.Context, id string) error {
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
		`SELECT COUNT(*) FROM transaction_tags WHERE tag_id = ?`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count tag references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: tag referenced by %d transaction(s)", common.ErrInUse, refs)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	slog.Info("deleted tag", "id", id)
	return nil
}

func checkTagNameFree(ctx context.Context, q queryable, name, excludeID string) error {
	var existingID string
	err := q.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&existingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check existing tag: %w", err)
	}
	if existingID != excludeID {
		return fmt.Errorf("%w: tag %q", common.ErrDuplicateEntry, name)
	}
	return nil
}

func scanTag(row rowScanner) (*model.Tag, error) {
	var (
		tag       model.Tag
		createdAt string
	)
	if err := row.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.Icon, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan tag: %w", err)
	}

	var err error
	if tag.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("tag %s created_at: %w", tag.ID, err)
	}
	return &tag, nil
}

func collectTags(rows *sql.Rows) ([]model.Tag, error) {
	var tags []model.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}
