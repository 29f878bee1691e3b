package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

func str(s string) *string { return &s }

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := Brief{
		ConversationID: "conv_a",
		Fingerprint:    "fp1",
		Lead:           lead.Record{FullName: str("Hamid Abbas"), WorkEmail: str("hamid@emebron.com")},
		SourceURL:      "https://firswood.ai/contact",
		DeliveredAt:    base,
	}
	second := Brief{
		ConversationID: "conv_b",
		Fingerprint:    "fp2",
		Lead:           lead.Record{Company: str("Emebron")},
		DeliveredAt:    base.Add(time.Minute),
	}
	require.NoError(t, s.SaveBrief(ctx, first))
	require.NoError(t, s.SaveBrief(ctx, second))

	got, err := s.FindBrief(ctx, "conv_a", "fp1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "conv_a", got.ConversationID)
	assert.Equal(t, "https://firswood.ai/contact", got.SourceURL)
	require.NotNil(t, got.Lead.WorkEmail)
	assert.Equal(t, "hamid@emebron.com", *got.Lead.WorkEmail)
	assert.Nil(t, got.Lead.Phone)
	assert.True(t, base.Equal(got.DeliveredAt))

	_, err = s.FindBrief(ctx, "conv_a", "other")
	assert.ErrorIs(t, err, ErrNotFound)

	recent, err := s.RecentBriefs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "conv_b", recent[0].ConversationID, "newest first")

	recent, err = s.RecentBriefs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestInMemoryStore(t *testing.T) {
	exerciseStore(t, NewInMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "briefs.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	exerciseStore(t, s)
}

// exerciseSubSecondOrder checks that briefs delivered within the same
// second still list newest first.
func exerciseSubSecondOrder(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	older := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	newer := older.Add(500 * time.Millisecond)

	require.NoError(t, s.SaveBrief(ctx, Brief{ConversationID: "newer", Fingerprint: "fp", DeliveredAt: newer}))
	require.NoError(t, s.SaveBrief(ctx, Brief{ConversationID: "older", Fingerprint: "fp", DeliveredAt: older}))

	recent, err := s.RecentBriefs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "newer", recent[0].ConversationID)
	assert.Equal(t, "older", recent[1].ConversationID)
	assert.True(t, newer.Equal(recent[0].DeliveredAt), "nanoseconds survive the round trip")
}

func TestInMemoryStore_SubSecondOrder(t *testing.T) {
	exerciseSubSecondOrder(t, NewInMemoryStore())
}

func TestSQLiteStore_SubSecondOrder(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "briefs.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	exerciseSubSecondOrder(t, s)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "briefs.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveBrief(ctx, Brief{ConversationID: "conv_a", Fingerprint: "fp"}))
	s.Close()

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.FindBrief(ctx, "conv_a", "fp")
	assert.NoError(t, err, "migrations must be re-runnable and data must persist")
}

func TestNewStore_Backends(t *testing.T) {
	ctx := context.Background()

	s, err := NewStore(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "memory", Backend(s))

	s, err = NewStore(ctx, "sqlite:"+filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "sqlite", Backend(s))
}

func TestRecentBriefs_DefaultLimit(t *testing.T) {
	assert.Equal(t, 50, normalizeLimit(0))
	assert.Equal(t, 50, normalizeLimit(-1))
	assert.Equal(t, 50, normalizeLimit(10000))
	assert.Equal(t, 7, normalizeLimit(7))
}

func leadWithEmail(email string) lead.Record {
	return lead.Record{WorkEmail: str(email)}
}
