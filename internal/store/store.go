// Package store is the ledger of delivered briefs. It backs duplicate
// suppression on the submit path and the recent briefs listing.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

// ErrNotFound is returned by FindBrief when no matching brief exists.
var ErrNotFound = errors.New("brief not found")

// Brief is one delivered submission.
type Brief struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversation_id"`
	Fingerprint    string      `json:"fingerprint"`
	Lead           lead.Record `json:"lead"`
	SourceURL      string      `json:"source_url,omitempty"`
	DeliveredAt    time.Time   `json:"delivered_at"`
}

type Store interface {
	SaveBrief(ctx context.Context, b Brief) error
	// FindBrief returns the brief with this conversation and fingerprint.
	FindBrief(ctx context.Context, conversationID, fingerprint string) (Brief, error)
	// RecentBriefs returns the newest briefs first.
	RecentBriefs(ctx context.Context, limit int) ([]Brief, error)
	Close()
}

const sqlitePrefix = "sqlite:"

// NewStore picks a backend from the URL: empty is in-memory, "sqlite:<dsn>"
// is SQLite and anything else is a Postgres connection string.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	switch {
	case databaseURL == "":
		return NewInMemoryStore(), nil
	case strings.HasPrefix(databaseURL, sqlitePrefix):
		return NewSQLiteStore(strings.TrimPrefix(databaseURL, sqlitePrefix))
	default:
		return NewPostgresStore(ctx, databaseURL)
	}
}

// Backend names the store implementation for status reporting.
func Backend(s Store) string {
	switch s.(type) {
	case *InMemoryStore:
		return "memory"
	case *SQLiteStore:
		return "sqlite"
	case *PostgresStore:
		return "postgres"
	default:
		return "unknown"
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
