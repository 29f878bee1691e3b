package gateway

import (
	"context"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/anthropic"
	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

// Anthropic forces structured output by prefilling the assistant turn with
// an opening brace.
type Anthropic struct {
	client *anthropic.Client
}

func NewAnthropic(apiKey, model string, timeout time.Duration) *Anthropic {
	return &Anthropic{client: anthropic.NewClient(apiKey, model, timeout)}
}

// NewAnthropicWithClient wraps an existing client.
func NewAnthropicWithClient(c *anthropic.Client) *Anthropic {
	return &Anthropic{client: c}
}

func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]anthropic.Message, 0, len(req.Turns))
	for _, t := range req.Turns {
		role := "assistant"
		if t.Role == transcript.RoleUser {
			role = "user"
		}
		msgs = append(msgs, anthropic.Message{Role: role, Content: t.Text})
	}
	temp := req.Temperature
	p := anthropic.Params{
		System:      req.System,
		Messages:    msgs,
		MaxTokens:   req.maxTokens(),
		Temperature: &temp,
	}
	if req.Structured {
		p.Prefill = "{"
	}
	return a.client.Complete(ctx, p)
}
