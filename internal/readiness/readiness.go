// Package readiness decides whether a lead is complete enough to submit as a
// brief. The decision is recomputed from scratch every turn and only signals
// the caller; it never submits anything itself.
package readiness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/phase"
)

// Policy names accepted by New.
const (
	PolicyThreshold  = "threshold"
	PolicyTransition = "transition"
	PolicyRego       = "rego"
)

// DefaultMinTurns is the transcript length the threshold policy waits for.
const DefaultMinTurns = 6

// Input is everything a policy may look at for one turn.
type Input struct {
	Record    lead.Record
	Current   phase.Phase
	Next      phase.Phase
	Message   string
	TurnCount int
}

// Policy is a readiness strategy.
type Policy interface {
	Name() string
	Evaluate(ctx context.Context, in Input) bool
}

// Options configure New.
type Options struct {
	MinTurns int
	// RegoPath is a policy file for the rego strategy. Empty uses DefaultRegoPolicy.
	RegoPath string
}

// New builds the named policy.
func New(ctx context.Context, name string, opts Options, logger *slog.Logger) (Policy, error) {
	minTurns := opts.MinTurns
	if minTurns <= 0 {
		minTurns = DefaultMinTurns
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyThreshold:
		return Threshold{MinTurns: minTurns}, nil
	case "", PolicyTransition:
		return Transition{}, nil
	case PolicyRego:
		src := DefaultRegoPolicy
		if opts.RegoPath != "" {
			data, err := os.ReadFile(opts.RegoPath)
			if err != nil {
				return nil, fmt.Errorf("read readiness policy: %w", err)
			}
			src = string(data)
		}
		return NewRego(ctx, src, minTurns, logger)
	default:
		return nil, fmt.Errorf("unknown readiness policy %q", name)
	}
}

var declinePattern = regexp.MustCompile(`(?i)\b(no|nope|not now|not yet|not right now|maybe later|later|no thanks|not interested)\b`)

// Declined reports whether a message turns down the call offer.
func Declined(message string) bool {
	return declinePattern.MatchString(message)
}

// hasMinimum is the floor every policy shares: a way to reach the lead and
// some idea of what they want built.
func hasMinimum(r lead.Record) bool {
	return r.HasEmail() && r.HasProjectInfo()
}
