// Package conversation runs one chat turn end to end: classify the phase,
// generate the reply, extract lead fields and evaluate readiness. It keeps no
// state between calls; the caller replays history and phase every turn.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/intake/internal/gateway"
	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/observability"
	"github.com/MikeSquared-Agency/intake/internal/persona"
	"github.com/MikeSquared-Agency/intake/internal/phase"
	"github.com/MikeSquared-Agency/intake/internal/readiness"
	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

var (
	// ErrUpstreamCompletion wraps any failure of the chat completion call.
	ErrUpstreamCompletion = errors.New("upstream completion failed")
	// ErrEmptyMessage is returned when the request carries no user text.
	ErrEmptyMessage = errors.New("message is required")
)

const chatMaxTokens = 1024

// Extractor derives a lead record from a transcript and never fails.
type Extractor interface {
	Extract(ctx context.Context, t transcript.Transcript) lead.Record
}

// Publisher fans events out to other services.
type Publisher interface {
	Publish(subject string, data any) error
}

// Request is one inbound chat turn.
type Request struct {
	Message        string
	History        transcript.Transcript
	ConversationID string
	Phase          phase.Phase
	// Previous is the record the caller got back last turn, if any.
	Previous *lead.Record
}

// Result is everything the caller needs to persist for the next turn.
type Result struct {
	Reply          string
	ConversationID string
	Phase          phase.Phase
	// Record is nil when extraction did not run this turn.
	Record       *lead.Record
	ShouldSubmit bool
	TurnCount    int
	Timestamp    time.Time
}

// Options tune the orchestrator.
type Options struct {
	ChatTemperature float64
	// HistoryLimit caps the turns replayed to the chat completion. Extraction
	// always sees the full transcript.
	HistoryLimit int
	// StickyFields merges the caller's previous record under each fresh
	// extraction so known fields never revert to null.
	StickyFields bool
}

type Orchestrator struct {
	classifier *phase.Classifier
	personas   *persona.Set
	llm        gateway.Gateway
	extractor  Extractor
	policy     readiness.Policy
	events     Publisher
	metrics    *observability.Metrics
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an orchestrator. events and metrics may be nil.
func New(llm gateway.Gateway, ext Extractor, policy readiness.Policy, personas *persona.Set, events Publisher, metrics *observability.Metrics, opts Options, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		classifier: phase.NewClassifier(),
		personas:   personas,
		llm:        llm,
		extractor:  ext,
		policy:     policy,
		events:     events,
		metrics:    metrics,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// PolicyName reports the active readiness policy.
func (o *Orchestrator) PolicyName() string { return o.policy.Name() }

// Handle processes one chat turn.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	convID := req.ConversationID
	if convID == "" {
		convID = "conv_" + uuid.NewString()
	}
	current := req.Phase
	if !current.Valid() {
		current = phase.Discovery
	}
	logger := o.logger.With("conversation_id", convID)

	next := o.classifier.Classify(current, req.Message, req.History)
	if next != current {
		logger.Info("phase transition", "phase", current.Label(), "next_phase", next.Label())
		o.metrics.ObserveTransition(current.Label(), next.Label())
	}

	userTurn := transcript.Turn{Role: transcript.RoleUser, Text: req.Message, Timestamp: o.now().UTC()}
	start := time.Now()
	reply, err := o.llm.Generate(ctx, gateway.Request{
		System:      o.personas.Instruction(next, o.now()),
		Turns:       req.History.Window(o.opts.HistoryLimit).Append(userTurn),
		Temperature: o.opts.ChatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	o.metrics.ObserveCompletion("chat", time.Since(start), err)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errors.New("empty reply")
	}
	if err != nil {
		logger.Error("chat completion failed", "phase", next.Label(), "error", err)
		o.metrics.ObserveTurn(next.Label(), "error")
		return nil, fmt.Errorf("%w: %w", ErrUpstreamCompletion, err)
	}
	reply = strings.TrimSpace(reply)

	extended := req.History.Append(userTurn, transcript.Turn{
		Role:      transcript.RoleAssistant,
		Text:      reply,
		Timestamp: o.now().UTC(),
	})

	var record *lead.Record
	if next == phase.Qualification || phase.IsTransition(current, next) {
		rec := o.extractor.Extract(ctx, extended)
		if o.opts.StickyFields && req.Previous != nil {
			rec = lead.Merge(lead.Normalize(*req.Previous), rec)
		}
		record = &rec
	} else {
		o.metrics.ObserveExtraction(observability.ExtractionSkipped)
	}

	evaluated := lead.Empty()
	if record != nil {
		evaluated = *record
	}
	ready := o.policy.Evaluate(ctx, readiness.Input{
		Record:    evaluated,
		Current:   current,
		Next:      next,
		Message:   req.Message,
		TurnCount: len(extended),
	})
	o.metrics.ObserveReadiness(o.policy.Name(), ready)
	o.metrics.ObserveTurn(next.Label(), "ok")

	res := &Result{
		Reply:          reply,
		ConversationID: convID,
		Phase:          next,
		Record:         record,
		ShouldSubmit:   ready,
		TurnCount:      len(extended),
		Timestamp:      o.now().UTC(),
	}
	if ready {
		logger.Info("lead ready for brief", "phase", next.Label(), "fields", evaluated.FilledCount())
		o.publishReady(logger, res, evaluated)
	}
	return res, nil
}

func (o *Orchestrator) publishReady(logger *slog.Logger, res *Result, rec lead.Record) {
	if o.events == nil {
		return
	}
	evt := hermes.BriefReady{
		ConversationID: res.ConversationID,
		Phase:          res.Phase.String(),
		Policy:         o.policy.Name(),
		TurnCount:      res.TurnCount,
		Lead:           rec,
		Timestamp:      res.Timestamp.Format(time.RFC3339),
	}
	if err := o.events.Publish(hermes.SubjectBriefReady, evt); err != nil {
		logger.Warn("failed to publish brief ready event", "error", err)
	}
}
