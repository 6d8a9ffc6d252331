package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/moneyzen/money-zen/internal/model"
)

// categoryGroupsFile is the shape of the grouped category definition file:
// two lists of groups, each holding named categories.
type categoryGroupsFile struct {
	Groups categoryGroups `json:"groups"`
}

type categoryGroups struct {
	Income  []categoryGroup `json:"income"`
	Expense []categoryGroup `json:"expense"`
}

type categoryGroup struct {
	GroupName  string             `json:"group_name"`
	GroupIcon  string             `json:"group_icon"`
	GroupColor string             `json:"group_color"`
	Categories []categoryGroupRow `json:"categories"`
}

type categoryGroupRow struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

// MigrateCategoriesFromFile loads a grouped category definition and inserts
// every category not already present by exact name match. Duplicates are
// skipped, not errors. Returns the number of inserted rows.
func (s *SQLiteStore) MigrateCategoriesFromFile(ctx context.Context, path string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(path, "path"); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read category file: %w", err)
	}

	var file categoryGroupsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse category file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Existing names, matched case-sensitively. A category renamed after a
	// previous run is not detected and will be reinserted by intent.
	existing := make(map[string]bool)
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM categories`)
	if err != nil {
		return 0, fmt.Errorf("failed to query existing categories: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return 0, fmt.Errorf("failed to scan category name: %w", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating category names: %w", err)
	}

	inserted := 0
	insert := func(row categoryGroupRow, typ model.CategoryType) error {
		if existing[row.Name] {
			slog.Debug("skipped existing category", "name", row.Name)
			return nil
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO categories (id, name, color, icon, category_type, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			newID(), row.Name, row.Color, row.Icon, string(typ), formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to insert category %s: %w", row.Name, err)
		}
		existing[row.Name] = true
		inserted++
		slog.Info("migrated category", "name", row.Name, "type", typ)
		return nil
	}

	for _, group := range file.Groups.Income {
		for _, row := range group.Categories {
			if err := insert(row, model.CategoryTypeIncome); err != nil {
				return inserted, err
			}
		}
	}
	for _, group := range file.Groups.Expense {
		for _, row := range group.Categories {
			if err := insert(row, model.CategoryTypeExpense); err != nil {
				return inserted, err
			}
		}
	}

	slog.Info("category migration complete", "inserted", inserted)
	return inserted, nil
}
