// Package store defines durable history storage and the asynchronous
// writer that keeps it off the publish path.
package store

import (
	"context"

	"github.com/vovakirdan/relaychat/internal/core"
)

// HistoryStore is an append-only log of chat messages used to seed the
// in-memory history at startup.
type HistoryStore interface {
	// Initialize ensures the schema exists. It is idempotent.
	Initialize(ctx context.Context) error
	// LoadRecent returns up to limit of the newest messages, oldest first.
	LoadRecent(ctx context.Context, limit int) ([]core.Message, error)
	// Insert appends one message and returns its identifier.
	Insert(ctx context.Context, msg core.Message) (int64, error)
	// Close releases the underlying handle.
	Close() error
}
