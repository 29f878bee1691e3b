package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	briefs []Brief
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveBrief(_ context.Context, b Brief) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.DeliveredAt.IsZero() {
		b.DeliveredAt = time.Now().UTC()
	}
	s.briefs = append(s.briefs, b)
	return nil
}

func (s *InMemoryStore) FindBrief(_ context.Context, conversationID, fingerprint string) (Brief, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.briefs) - 1; i >= 0; i-- {
		b := s.briefs[i]
		if b.ConversationID == conversationID && b.Fingerprint == fingerprint {
			return b, nil
		}
	}
	return Brief{}, ErrNotFound
}

func (s *InMemoryStore) RecentBriefs(_ context.Context, limit int) ([]Brief, error) {
	s.mu.RLock()
	out := make([]Brief, len(s.briefs))
	copy(out, s.briefs)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].DeliveredAt.After(out[j].DeliveredAt) })
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Close() {}
