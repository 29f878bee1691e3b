// Package gateway wraps hosted and local LLM providers behind one
// completion call: a system instruction plus ordered turns in, text out.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

// Providers accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

const defaultMaxTokens = 1024

// Request is one completion call.
type Request struct {
	System      string
	Turns       transcript.Transcript
	Temperature float64
	// Structured asks the provider to return a single JSON object.
	Structured bool
	MaxTokens   int
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

// Gateway generates text. Implementations are safe for concurrent use.
type Gateway interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Options selects and configures a provider.
type Options struct {
	Provider        string
	Model           string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OllamaURL       string
	Timeout         time.Duration
}

// New builds the gateway named by opts.Provider.
func New(opts Options, logger *slog.Logger) (Gateway, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	switch provider {
	case "", ProviderAnthropic:
		if opts.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY")
		}
		model := modelOr(opts.Model, DefaultModel(ProviderAnthropic))
		logger.Info("completion gateway ready", "provider", ProviderAnthropic, "model", model)
		return NewAnthropic(opts.AnthropicAPIKey, model, opts.Timeout), nil
	case ProviderOpenAI:
		if opts.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires OPENAI_API_KEY")
		}
		model := modelOr(opts.Model, DefaultModel(ProviderOpenAI))
		logger.Info("completion gateway ready", "provider", ProviderOpenAI, "model", model)
		return NewOpenAI(opts.OpenAIAPIKey, opts.OpenAIBaseURL, model, opts.Timeout), nil
	case ProviderOllama:
		model := modelOr(opts.Model, DefaultModel(ProviderOllama))
		g, err := NewOllama(opts.OllamaURL, model, opts.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Info("completion gateway ready", "provider", ProviderOllama, "model", model)
		return g, nil
	case ProviderMock:
		logger.Warn("using mock completion gateway")
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", opts.Provider)
	}
}

// DefaultModel is the model a provider uses when none is configured.
func DefaultModel(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderOllama:
		return "llama3.1"
	case ProviderMock:
		return "mock"
	default:
		return ""
	}
}

func modelOr(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
