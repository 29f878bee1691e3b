package phase

import (
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

var (
	// Project intent in the user's own words moves FAQ answering into discovery.
	defaultIntentKeywords = []string{
		"i want", "i need", "we want", "we need", "i'd like", "we'd like",
		"looking to", "looking for someone", "build", "project", "develop",
		"implement", "automate",
	}
	// The assistant has put a call on the table.
	defaultCallKeywords = []string{
		"discovery call", "schedule", "book", "a call", "quick call", "meeting",
	}
	// The user agreed to it.
	defaultAcceptKeywords = []string{
		"yes", "yeah", "yep", "sure", "absolutely", "definitely", "sounds good",
		"let's do it", "schedule", "book", "call",
	}
)

// Classifier decides phase transitions from keyword signals. It makes no
// network calls and holds no per-conversation state, so one value can be
// shared across requests.
type Classifier struct {
	IntentKeywords []string
	CallKeywords   []string
	AcceptKeywords []string
}

func NewClassifier() *Classifier {
	return &Classifier{
		IntentKeywords: defaultIntentKeywords,
		CallKeywords:   defaultCallKeywords,
		AcceptKeywords: defaultAcceptKeywords,
	}
}

// Classify returns the phase for this turn given the phase the caller is in,
// the newest user message and the history before it. The result is never
// earlier than current. An invalid current phase is treated as Discovery.
func (c *Classifier) Classify(current Phase, latest string, history transcript.Transcript) Phase {
	if !current.Valid() {
		current = Discovery
	}
	msg := strings.ToLower(latest)

	switch current {
	case Discovery:
		if containsAny(msg, c.IntentKeywords) {
			return Qualification
		}
	case Qualification:
		lastAssistant, ok := history.LastAssistant()
		if ok && containsAny(strings.ToLower(lastAssistant), c.CallKeywords) && containsAny(msg, c.AcceptKeywords) {
			return Scheduling
		}
	}
	return current
}

// IsTransition reports whether moving from current to next crosses into
// the scheduling phase this turn.
func IsTransition(current, next Phase) bool {
	return current == Qualification && next == Scheduling
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
