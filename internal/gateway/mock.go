package gateway

import (
	"context"

	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

// Mock returns canned replies so the service can run without credentials.
// It offers a call once the visitor has spoken three times.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

const (
	mockEmptyRecord = `{"fullName":null,"workEmail":null,"company":null,"phone":null,"projectType":null,"timeline":null,"goal":null}`
	mockFollowUp    = "Thanks for sharing that. Could you tell me a little more about what you need?"
	mockCallOffer   = "That gives us a good picture. Would you like to schedule a quick discovery call with the team?"
)

func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Structured {
		return mockEmptyRecord, nil
	}
	users := 0
	for _, t := range req.Turns {
		if t.Role == transcript.RoleUser {
			users++
		}
	}
	if users >= 3 {
		return mockCallOffer, nil
	}
	return mockFollowUp, nil
}
