package memory

import (
	"context"
	"strings"
)

// NewStore selects the chat-history backend from the database URL: postgres
// when one is configured, otherwise the in-memory store. History written to
// the in-memory store dies with the process.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
