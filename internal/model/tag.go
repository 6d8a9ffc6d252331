package model

import "time"

// Tag is a free-form label attachable to many transactions.
// Names are globally unique.
type Tag struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
}
