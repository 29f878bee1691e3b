//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		s.pool.Exec(context.Background(), `DELETE FROM intake_briefs WHERE conversation_id LIKE 'integration-%'`)
		s.Close()
	})
	return s
}

func TestIntegration_SaveAndFindBrief(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	convID := "integration-" + uuid.New().String()[:8]

	if err := s.SaveBrief(ctx, Brief{ConversationID: convID, Fingerprint: "fp", Lead: leadWithEmail("it@example.com")}); err != nil {
		t.Fatalf("SaveBrief failed: %v", err)
	}

	got, err := s.FindBrief(ctx, convID, "fp")
	if err != nil {
		t.Fatalf("FindBrief failed: %v", err)
	}
	if got.Lead.WorkEmail == nil || *got.Lead.WorkEmail != "it@example.com" {
		t.Errorf("lead email not round-tripped: %+v", got.Lead)
	}

	if _, err := s.FindBrief(ctx, convID, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	recent, err := s.RecentBriefs(ctx, 5)
	if err != nil {
		t.Fatalf("RecentBriefs failed: %v", err)
	}
	if len(recent) == 0 {
		t.Error("expected at least one recent brief")
	}
}
