// Package model defines the domain records persisted by the store.
package model

import "time"

// Account represents a named money container with a running balance.
// Balance is derived state: it always equals the signed sum of the
// account's transactions and is mutated only by transaction writes.
type Account struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"account_type"`
	Currency  string    `json:"currency"`
	Owner     string    `json:"owner"`
	Balance   float64   `json:"balance"`
}
