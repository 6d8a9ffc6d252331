// Package storage provides the SQLite persistence layer for money-zen.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/moneyzen/money-zen/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrEmptySlice       = errors.New("slice cannot be empty")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAmount ensures a transaction amount is a non-negative magnitude.
// The sign of a movement is implied by its type, never stored.
func validateAmount(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %f", ErrNegativeAmount, amount)
	}
	return nil
}

// validateTransactionInput checks the identifiers, amount, and type of an
// incoming transaction. The description is accepted as-is, empty included.
func validateTransactionInput(accountID, categoryID, description string, amount float64, txType model.TransactionType) error {
	if err := validateString(accountID, "accountID"); err != nil {
		return err
	}
	if err := validateString(categoryID, "categoryID"); err != nil {
		return err
	}
	if err := validateAmount(amount); err != nil {
		return err
	}
	return txType.Validate()
}
