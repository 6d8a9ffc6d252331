package model

import (
	"fmt"
	"time"
)

// TransactionType indicates the direction of a money movement.
// The stored amount is always a non-negative magnitude; the sign is
// implied by the type.
type TransactionType string

const (
	// TypeIncome represents money flowing into an account.
	TypeIncome TransactionType = "income"
	// TypeExpense represents money flowing out of an account.
	TypeExpense TransactionType = "expense"
)

// Validate checks that the transaction type is one of the closed set.
func (tt TransactionType) Validate() error {
	switch tt {
	case TypeIncome, TypeExpense:
		return nil
	default:
		return fmt.Errorf("invalid transaction type: %q", string(tt))
	}
}

// Transaction represents a single dated money movement against one
// account and one category.
type Transaction struct {
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	CategoryID  string          `json:"category_id"`
	Description string          `json:"description"`
	Type        TransactionType `json:"transaction_type"`
	Amount      float64         `json:"amount"`
}

// SignedAmount returns the amount with the sign implied by the type:
// positive for income, negative for expense.
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TypeExpense {
		return -t.Amount
	}
	return t.Amount
}
