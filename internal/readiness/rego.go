package readiness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/MikeSquared-Agency/intake/internal/phase"
)

const regoQuery = "data.intake.readiness.ready"

// Rego evaluates an OPA policy written in Rego v1 syntax. The policy must
// define data.intake.readiness.ready as a boolean.
type Rego struct {
	query    rego.PreparedEvalQuery
	minTurns int
	logger   *slog.Logger
}

func NewRego(ctx context.Context, policy string, minTurns int, logger *slog.Logger) (*Rego, error) {
	r := rego.New(
		rego.Query(regoQuery),
		rego.Module("readiness.rego", policy),
	)
	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Rego{query: query, minTurns: minTurns, logger: logger}, nil
}

func (*Rego) Name() string { return PolicyRego }

// Evaluate fails closed: an evaluation error or a non-boolean result is
// logged and reported as not ready.
func (p *Rego) Evaluate(ctx context.Context, in Input) bool {
	results, err := p.query.Eval(ctx, rego.EvalInput(p.input(in)))
	if err != nil {
		p.logger.Error("readiness policy evaluation failed", "error", err)
		return false
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false
	}
	ready, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		p.logger.Warn("readiness policy returned a non-boolean", "value", results[0].Expressions[0].Value)
		return false
	}
	return ready
}

func (p *Rego) input(in Input) map[string]any {
	r := in.Record
	return map[string]any{
		"has": map[string]any{
			"name":         r.HasName(),
			"email":        r.HasEmail(),
			"company":      r.HasCompany(),
			"phone":        r.HasPhone(),
			"timeline":     r.HasTimeline(),
			"project_info": r.HasProjectInfo(),
		},
		"record":        r,
		"current_phase": in.Current.Label(),
		"next_phase":    in.Next.Label(),
		"transition":    phase.IsTransition(in.Current, in.Next),
		"declined":      in.Current == phase.Qualification && in.Next == phase.Qualification && Declined(in.Message),
		"message":       in.Message,
		"turn_count":    in.TurnCount,
		"min_turns":     p.minTurns,
	}
}

// DefaultRegoPolicy submits on a call acceptance or decline, or once the
// threshold fields are in while qualifying.
const DefaultRegoPolicy = `
package intake.readiness

default ready := false

minimum if {
	input.has.email
	input.has.project_info
}

ready if {
	input.transition
	minimum
}

ready if {
	input.declined
	minimum
}

ready if {
	input.next_phase == "qualification"
	minimum
	input.has.name
	context_known
	input.turn_count >= input.min_turns
}

context_known if {
	input.has.company
}

context_known if {
	input.has.timeline
}
`
