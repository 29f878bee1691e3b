package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             int
	LogLevel         string
	AllowedOrigins   []string
	MetricsNamespace string
	APIToken         string
	ShutdownTimeout  time.Duration

	LLMProvider       string
	Model             string
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OllamaURL         string
	CompletionTimeout time.Duration
	ChatTemperature   float64
	ExtractTemp       float64
	HistoryLimit      int

	ReadinessPolicy string
	ReadinessRego   string
	MinTurns        int
	StickyFields    bool
	PersonaFile     string

	BriefWebhookURL     string
	BriefWebhookTimeout time.Duration

	DatabaseURL string
	NatsURL     string
	NatsToken   string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables take precedence over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		LogLevel:         envStr("LOG_LEVEL", "info"),
		MetricsNamespace: envStr("INTAKE_METRICS_NAMESPACE", "intake"),
		APIToken:         envStr("INTAKE_API_TOKEN", ""),
		AllowedOrigins:   splitList(envStr("INTAKE_ALLOWED_ORIGINS", "*")),

		LLMProvider:     strings.ToLower(envStr("LLM_PROVIDER", "anthropic")),
		Model:           envStr("INTAKE_MODEL", ""),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envStr("OPENAI_BASE_URL", ""),
		OllamaURL:       envStr("OLLAMA_URL", ""),

		ReadinessPolicy: strings.ToLower(envStr("INTAKE_READINESS_POLICY", "transition")),
		ReadinessRego:   envStr("INTAKE_READINESS_REGO", ""),
		PersonaFile:     envStr("INTAKE_PERSONA_FILE", ""),

		BriefWebhookURL: envStr("BRIEF_WEBHOOK_URL", ""),

		DatabaseURL: envStr("DATABASE_URL", ""),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
	}

	var err error
	if cfg.Port, err = intFromEnv("INTAKE_PORT", 8760); err != nil {
		return Config{}, err
	}
	if cfg.HistoryLimit, err = intFromEnv("INTAKE_HISTORY_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.MinTurns, err = intFromEnv("INTAKE_MIN_TURNS", 6); err != nil {
		return Config{}, err
	}
	if cfg.ChatTemperature, err = floatFromEnv("INTAKE_CHAT_TEMPERATURE", 0.7); err != nil {
		return Config{}, err
	}
	if cfg.ExtractTemp, err = floatFromEnv("INTAKE_EXTRACT_TEMPERATURE", 0.1); err != nil {
		return Config{}, err
	}
	if cfg.CompletionTimeout, err = durationFromEnv("INTAKE_COMPLETION_TIMEOUT", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.BriefWebhookTimeout, err = durationFromEnv("BRIEF_WEBHOOK_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationFromEnv("INTAKE_SHUTDOWN_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StickyFields, err = boolFromEnv("INTAKE_STICKY_FIELDS", true); err != nil {
		return Config{}, err
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("INTAKE_PORT must be between 1 and 65535")
	}
	if cfg.HistoryLimit < 0 {
		return Config{}, fmt.Errorf("INTAKE_HISTORY_LIMIT must be >= 0")
	}
	if cfg.MinTurns <= 0 {
		return Config{}, fmt.Errorf("INTAKE_MIN_TURNS must be positive")
	}
	if cfg.ChatTemperature < 0 || cfg.ChatTemperature > 2 {
		return Config{}, fmt.Errorf("INTAKE_CHAT_TEMPERATURE must be between 0 and 2")
	}
	if cfg.ExtractTemp < 0 || cfg.ExtractTemp > 2 {
		return Config{}, fmt.Errorf("INTAKE_EXTRACT_TEMPERATURE must be between 0 and 2")
	}
	if cfg.CompletionTimeout <= 0 || cfg.BriefWebhookTimeout <= 0 {
		return Config{}, fmt.Errorf("timeouts must be positive")
	}

	return cfg, nil
}

// Validate checks the settings the service cannot start without. A missing
// webhook URL is not an error here; it only disables brief submission.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "ollama", "mock":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.ReadinessPolicy {
	case "threshold", "transition", "rego":
	default:
		return fmt.Errorf("unknown INTAKE_READINESS_POLICY %q", c.ReadinessPolicy)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
