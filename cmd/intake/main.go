package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/intake/internal/api"
	"github.com/MikeSquared-Agency/intake/internal/brief"
	"github.com/MikeSquared-Agency/intake/internal/config"
	"github.com/MikeSquared-Agency/intake/internal/conversation"
	"github.com/MikeSquared-Agency/intake/internal/extractor"
	"github.com/MikeSquared-Agency/intake/internal/gateway"
	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/observability"
	"github.com/MikeSquared-Agency/intake/internal/persona"
	"github.com/MikeSquared-Agency/intake/internal/readiness"
	"github.com/MikeSquared-Agency/intake/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("intake starting", "port", cfg.Port, "provider", cfg.LLMProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	// Brief ledger
	db, err := store.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open brief store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("brief store ready", "backend", store.Backend(db))

	// Completion gateway
	llm, err := gateway.New(gateway.Options{
		Provider:        cfg.LLMProvider,
		Model:           cfg.Model,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		OpenAIBaseURL:   cfg.OpenAIBaseURL,
		OllamaURL:       cfg.OllamaURL,
		Timeout:         cfg.CompletionTimeout,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to create completion gateway", "error", err)
		os.Exit(1)
	}
	model := cfg.Model
	if model == "" {
		model = gateway.DefaultModel(cfg.LLMProvider)
	}

	personas, err := persona.Load(cfg.PersonaFile)
	if err != nil {
		slog.Error("failed to load persona", "path", cfg.PersonaFile, "error", err)
		os.Exit(1)
	}

	policy, err := readiness.New(ctx, cfg.ReadinessPolicy, readiness.Options{
		MinTurns: cfg.MinTurns,
		RegoPath: cfg.ReadinessRego,
	}, slog.Default())
	if err != nil {
		slog.Error("failed to create readiness policy", "error", err)
		os.Exit(1)
	}
	slog.Info("readiness policy ready", "policy", policy.Name())

	// NATS/Hermes (optional, events are dropped without it)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, brief events will not be published")
	}
	// A nil *hermes.Client must not become a non-nil interface.
	var events conversation.Publisher
	if hermesClient != nil {
		events = hermesClient
	}

	ext := extractor.New(llm, cfg.ExtractTemp, metrics, slog.Default())
	orch := conversation.New(llm, ext, policy, personas, events, metrics, conversation.Options{
		ChatTemperature: cfg.ChatTemperature,
		HistoryLimit:    cfg.HistoryLimit,
		StickyFields:    cfg.StickyFields,
	}, slog.Default())

	poster := brief.NewPoster(cfg.BriefWebhookURL, cfg.BriefWebhookTimeout, slog.Default())
	if !poster.Configured() {
		slog.Warn("BRIEF_WEBHOOK_URL not set, brief submission is disabled")
	}
	briefs := brief.NewService(poster, db, events, metrics, slog.Default())

	// HTTP API
	srv := api.NewServer(orch, briefs, metrics, api.Options{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		APIToken:       cfg.APIToken,
		Provider:       cfg.LLMProvider,
		Model:          model,
		StoreBackend:   store.Backend(db),
		MetricsHandler: observability.MetricsHandler(prometheus.DefaultGatherer),
	}, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Announce registration
	if events != nil {
		if err := events.Publish(hermes.SubjectRegistered, map[string]any{
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
			"port":             cfg.Port,
			"provider":         cfg.LLMProvider,
			"readiness_policy": policy.Name(),
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("intake ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("intake stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
