package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS intake_briefs (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			lead JSONB NOT NULL,
			source_url TEXT NOT NULL DEFAULT '',
			delivered_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intake_briefs_conversation ON intake_briefs(conversation_id, fingerprint)`,
		`CREATE INDEX IF NOT EXISTS idx_intake_briefs_delivered ON intake_briefs(delivered_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveBrief(ctx context.Context, b Brief) error {
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
	_, err = s.pool.Exec(ctx, `
		INSERT INTO intake_briefs (id, conversation_id, fingerprint, lead, source_url, delivered_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		b.ID, b.ConversationID, b.Fingerprint, string(leadJSON), b.SourceURL, b.DeliveredAt,
	)
	if err != nil {
		return fmt.Errorf("insert brief: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindBrief(ctx context.Context, conversationID, fingerprint string) (Brief, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, conversation_id, fingerprint, lead, source_url, delivered_at
		FROM intake_briefs WHERE conversation_id = $1 AND fingerprint = $2
		ORDER BY delivered_at DESC LIMIT 1`,
		conversationID, fingerprint,
	)
	b, err := scanPostgresBrief(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Brief{}, ErrNotFound
	}
	return b, err
}

func (s *PostgresStore) RecentBriefs(ctx context.Context, limit int) ([]Brief, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, fingerprint, lead, source_url, delivered_at
		FROM intake_briefs ORDER BY delivered_at DESC LIMIT $1`,
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query briefs: %w", err)
	}
	defer rows.Close()

	var out []Brief
	for rows.Next() {
		b, err := scanPostgresBrief(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanPostgresBrief(row pgx.Row) (Brief, error) {
	var (
		b        Brief
		leadJSON []byte
	)
	if err := row.Scan(&b.ID, &b.ConversationID, &b.Fingerprint, &leadJSON, &b.SourceURL, &b.DeliveredAt); err != nil {
		return Brief{}, err
	}
	if err := json.Unmarshal(leadJSON, &b.Lead); err != nil {
		return Brief{}, fmt.Errorf("unmarshal lead: %w", err)
	}
	return b, nil
}
