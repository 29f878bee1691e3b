package phase

import (
	"fmt"
	"strings"
)

// Phase is a coarse conversational stage. Phases are ordered and a
// conversation only ever moves forward through them.
type Phase int

const (
	Discovery Phase = iota + 1
	Qualification
	Scheduling
)

// String returns the wire name used by the chat widget.
func (p Phase) String() string {
	switch p {
	case Discovery:
		return "phase1"
	case Qualification:
		return "phase2"
	case Scheduling:
		return "phase3"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Label is the human-readable stage name used in logs and metrics.
func (p Phase) Label() string {
	switch p {
	case Discovery:
		return "discovery"
	case Qualification:
		return "qualification"
	case Scheduling:
		return "scheduling"
	default:
		return "unknown"
	}
}

func (p Phase) Valid() bool {
	return p >= Discovery && p <= Scheduling
}

// Parse accepts the wire names and the aliases older widget builds send.
// An empty string is the first phase.
func Parse(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "phase1", "discovery", "faq":
		return Discovery, nil
	case "phase2", "qualification", "brief":
		return Qualification, nil
	case "phase3", "scheduling", "call":
		return Scheduling, nil
	default:
		return 0, fmt.Errorf("unknown conversation phase %q", s)
	}
}

// Max returns the later of two phases.
func Max(a, b Phase) Phase {
	if a > b {
		return a
	}
	return b
}
