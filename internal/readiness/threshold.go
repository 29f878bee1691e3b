package readiness

import (
	"context"

	"github.com/MikeSquared-Agency/intake/internal/phase"
)

// Threshold submits once enough fields are known while the conversation
// is in qualification.
type Threshold struct {
	MinTurns int
}

func (Threshold) Name() string { return PolicyThreshold }

func (t Threshold) Evaluate(_ context.Context, in Input) bool {
	if in.Next != phase.Qualification {
		return false
	}
	r := in.Record
	return hasMinimum(r) &&
		r.HasName() &&
		(r.HasCompany() || r.HasTimeline()) &&
		in.TurnCount >= t.MinTurns
}
