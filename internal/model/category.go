package model

import (
	"fmt"
	"time"
)

// CategoryType indicates whether a category classifies income or expenses.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Validate checks that the category type is one of the closed set.
func (ct CategoryType) Validate() error {
	switch ct {
	case CategoryTypeIncome, CategoryTypeExpense:
		return nil
	default:
		return fmt.Errorf("invalid category type: %q", string(ct))
	}
}

// Category represents a labeled classification of income or expense.
// Names are unique within their type.
type Category struct {
	CreatedAt time.Time    `json:"created_at"`
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Color     string       `json:"color"`
	Icon      string       `json:"icon"`
	Type      CategoryType `json:"category_type"`
}
