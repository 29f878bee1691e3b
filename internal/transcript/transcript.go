package transcript

import (
	"strings"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole maps a wire role to a Role. Anything that is not the user is
// treated as the assistant, matching how chat widgets label model output
// ("assistant", "model", "bot").
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleUser)) {
		return RoleUser
	}
	return RoleAssistant
}

// Turn is a single message in a conversation.
type Turn struct {
	Role      Role
	Text      string
	Timestamp time.Time // zero when the caller did not supply one
}

// Transcript is an ordered conversation. Order is conversational order and is
// replayed verbatim to the completion gateway and the extractor.
type Transcript []Turn

// Append returns a new transcript with turns added. The receiver is not
// modified, so callers can safely extend a caller-owned history.
func (t Transcript) Append(turns ...Turn) Transcript {
	out := make(Transcript, 0, len(t)+len(turns))
	out = append(out, t...)
	return append(out, turns...)
}

// LastAssistant returns the text of the most recent assistant turn.
func (t Transcript) LastAssistant() (string, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleAssistant {
			return t[i].Text, true
		}
	}
	return "", false
}

// Window returns the last limit turns. A non-positive limit returns the whole
// transcript.
func (t Transcript) Window(limit int) Transcript {
	if limit <= 0 || len(t) <= limit {
		return t
	}
	return t[len(t)-limit:]
}

// Format renders the transcript as User:/Assistant: lines suitable for the
// extraction prompt.
func (t Transcript) Format() string {
	var sb strings.Builder
	for _, turn := range t {
		switch turn.Role {
		case RoleUser:
			sb.WriteString("User: ")
		default:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(strings.TrimSpace(turn.Text))
		sb.WriteString("\n")
	}
	return sb.String()
}
