package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the ledger in a local file, for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// delivered_at holds unix nanoseconds so ordering is exact below one second.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS briefs (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			lead TEXT NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			delivered_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_briefs_conversation ON briefs(conversation_id, fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_briefs_delivered ON briefs(delivered_at)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveBrief(ctx context.Context, b Brief) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.DeliveredAt.IsZero() {
		b.DeliveredAt = time.Now().UTC()
	}
	leadJSON, err := json.Marshal(b.Lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO briefs (id, conversation_id, fingerprint, lead, source_url, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.ConversationID, b.Fingerprint, string(leadJSON), b.SourceURL, b.DeliveredAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert brief: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindBrief(ctx context.Context, conversationID, fingerprint string) (Brief, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, fingerprint, lead, source_url, delivered_at
		FROM briefs WHERE conversation_id = ? AND fingerprint = ?
		ORDER BY delivered_at DESC LIMIT 1`,
		conversationID, fingerprint,
	)
	b, err := scanSQLiteBrief(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Brief{}, ErrNotFound
	}
	return b, err
}

func (s *SQLiteStore) RecentBriefs(ctx context.Context, limit int) ([]Brief, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, fingerprint, lead, source_url, delivered_at
		FROM briefs ORDER BY delivered_at DESC, rowid DESC LIMIT ?`,
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}
	defer rows.Close()

	var out []Brief
	for rows.Next() {
		b, err := scanSQLiteBrief(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteBrief(row rowScanner) (Brief, error) {
	var (
		b         Brief
		leadJSON  string
		delivered int64
	)
	if err := row.Scan(&b.ID, &b.ConversationID, &b.Fingerprint, &leadJSON, &b.SourceURL, &delivered); err != nil {
		return Brief{}, err
	}
	if err := json.Unmarshal([]byte(leadJSON), &b.Lead); err != nil {
		return Brief{}, fmt.Errorf("unmarshal lead: %w", err)
	}
	b.DeliveredAt = time.Unix(0, delivered).UTC()
	return b, nil
}
