package readiness

import (
	"context"

	"github.com/MikeSquared-Agency/intake/internal/phase"
)

// Transition submits only when the visitor accepts a call, or declines one
// while still in qualification.
type Transition struct{}

func (Transition) Name() string { return PolicyTransition }

func (Transition) Evaluate(_ context.Context, in Input) bool {
	switch {
	case phase.IsTransition(in.Current, in.Next):
		return hasMinimum(in.Record)
	case in.Current == phase.Qualification && in.Next == phase.Qualification && Declined(in.Message):
		return hasMinimum(in.Record)
	default:
		return false
	}
}
