package models

import "time"

// Expense is a confirmed expense record. Records are append-only: once
// persisted they are never mutated, corrections happen on the pending
// entry before confirmation.
type Expense struct {
	ID        int64     `json:"id"`
	ChatID    string    `json:"chat_id"`
	Date      string    `json:"date"` // DD-MM-YYYY
	Time      string    `json:"time"` // HH:MM
	Place     string    `json:"place"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
