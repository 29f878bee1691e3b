package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

// Ollama runs completions against a local model through langchaingo.
type Ollama struct {
	llm llms.Model
}

// NewOllama connects to an Ollama server. An empty serverURL uses the
// client default (localhost:11434). A zero timeout leaves requests bounded
// only by their context.
func NewOllama(serverURL, model string, timeout time.Duration) (*Ollama, error) {
	opts := []ollama.Option{
		ollama.WithModel(model),
		ollama.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &Ollama{llm: llm}, nil
}

func (o *Ollama) Generate(ctx context.Context, req Request) (string, error) {
	msgs := make([]llms.MessageContent, 0, len(req.Turns)+1)
	if req.System != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, t := range req.Turns {
		role := llms.ChatMessageTypeAI
		if t.Role == transcript.RoleUser {
			role = llms.ChatMessageTypeHuman
		}
		msgs = append(msgs, llms.TextParts(role, t.Text))
	}

	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.maxTokens()),
	}
	if req.Structured {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := o.llm.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("ollama completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("ollama returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
