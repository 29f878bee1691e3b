// Package brief delivers qualified lead briefs to the team webhook and
// records each delivery.
package brief

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/observability"
	"github.com/MikeSquared-Agency/intake/internal/store"
)

var (
	ErrWebhookNotConfigured = errors.New("brief webhook not configured")
	ErrDelivery             = errors.New("brief delivery failed")
	ErrEmptyBrief           = errors.New("brief has no lead data")
)

type Submission struct {
	ConversationID string
	Lead           lead.Record
	Timestamp      time.Time
	SourceURL      string
}

// Receipt describes a completed submission. Duplicate is set when the same
// lead was already delivered for this conversation and nothing was re-sent.
type Receipt struct {
	BriefID     string
	Duplicate   bool
	DeliveredAt time.Time
}

// Publisher fans events out to other services.
type Publisher interface {
	Publish(subject string, data any) error
}

type Service struct {
	poster  *Poster
	ledger  store.Store
	events  Publisher
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
	convs   conversationLocks
}

// NewService wires the submitter. ledger and events may be nil.
func NewService(poster *Poster, ledger store.Store, events Publisher, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		poster:  poster,
		ledger:  ledger,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Configured() bool { return s.poster.Configured() }

// Submit delivers the brief once. Ledger and event failures are logged and
// do not fail the submission; only webhook delivery does.
func (s *Service) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	if !s.poster.Configured() {
		s.metrics.ObserveDelivery(observability.DeliveryNotConfigured)
		return Receipt{}, ErrWebhookNotConfigured
	}
	sub.Lead = lead.Normalize(sub.Lead)
	if sub.Lead.IsEmpty() {
		return Receipt{}, ErrEmptyBrief
	}
	if sub.Timestamp.IsZero() {
		sub.Timestamp = s.now().UTC()
	}
	logger := s.logger.With("conversation_id", sub.ConversationID)

	// Held from the duplicate lookup until the delivery is recorded.
	defer s.convs.lock(sub.ConversationID)()

	fp := Fingerprint(sub.Lead)
	if prev, ok := s.findDelivered(ctx, sub.ConversationID, fp, logger); ok {
		s.metrics.ObserveDelivery(observability.DeliveryDuplicate)
		logger.Info("brief already delivered", "brief_id", prev.ID)
		return Receipt{BriefID: prev.ID, Duplicate: true, DeliveredAt: prev.DeliveredAt}, nil
	}

	if err := s.poster.Post(ctx, sub); err != nil {
		s.metrics.ObserveDelivery(observability.DeliveryFailed)
		logger.Error("brief delivery failed", "error", err)
		return Receipt{}, fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	s.metrics.ObserveDelivery(observability.DeliveryOK)

	receipt := Receipt{BriefID: uuid.NewString(), DeliveredAt: s.now().UTC()}
	if s.ledger != nil {
		err := s.ledger.SaveBrief(ctx, store.Brief{
			ID:             receipt.BriefID,
			ConversationID: sub.ConversationID,
			Fingerprint:    fp,
			Lead:           sub.Lead,
			SourceURL:      sub.SourceURL,
			DeliveredAt:    receipt.DeliveredAt,
		})
		if err != nil {
			logger.Warn("failed to record brief", "brief_id", receipt.BriefID, "error", err)
		}
	}

	if s.events != nil {
		evt := hermes.BriefSubmitted{
			BriefID:        receipt.BriefID,
			ConversationID: sub.ConversationID,
			Lead:           sub.Lead,
			SourceURL:      sub.SourceURL,
			Timestamp:      receipt.DeliveredAt.Format(time.RFC3339),
		}
		if err := s.events.Publish(hermes.SubjectBriefSubmitted, evt); err != nil {
			logger.Warn("failed to publish brief submitted event", "error", err)
		}
	}
	return receipt, nil
}

// Recent lists delivered briefs, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]store.Brief, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.RecentBriefs(ctx, limit)
}

func (s *Service) findDelivered(ctx context.Context, conversationID, fp string, logger *slog.Logger) (store.Brief, bool) {
	if s.ledger == nil || conversationID == "" {
		return store.Brief{}, false
	}
	prev, err := s.ledger.FindBrief(ctx, conversationID, fp)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("brief ledger lookup failed", "error", err)
		}
		return store.Brief{}, false
	}
	return prev, true
}

// conversationLocks serializes submissions per conversation. Entries are
// dropped once no submission holds or waits on them.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*conversationLock
}

type conversationLock struct {
	sync.Mutex
	refs int
}

func (c *conversationLocks) lock(id string) (unlock func()) {
	if id == "" {
		return func() {}
	}
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[string]*conversationLock)
	}
	l, ok := c.locks[id]
	if !ok {
		l = &conversationLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		c.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}

// Fingerprint hashes the normalized lead so repeated submissions of the same
// data can be recognised.
func Fingerprint(r lead.Record) string {
	data, _ := json.Marshal(lead.Normalize(r))
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
