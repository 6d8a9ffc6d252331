// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Domain policy errors.
	ErrInUse = errors.New("entity is in use")

	// Validation errors.
	ErrInvalidDate = errors.New("invalid date")
)
