package memory

import (
	"context"
	"time"
)

// Record is one persisted chat exchange for an authenticated user. Prompt
// and response are stored PII-scrubbed; records are append-only.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists and retrieves durable chat history.
type Store interface {
	Save(ctx context.Context, record Record) error
	// Recent returns up to limit most recent records for the user in
	// chronological order, oldest first.
	Recent(ctx context.Context, userID string, limit int) ([]Record, error)
	Close() error
}
