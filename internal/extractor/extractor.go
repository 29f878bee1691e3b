package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/gateway"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/observability"
	"github.com/MikeSquared-Agency/intake/internal/transcript"
)

const maxTokens = 512

type Extractor struct {
	llm         gateway.Gateway
	temperature float64
	metrics     *observability.Metrics
	logger      *slog.Logger
}

func New(llm gateway.Gateway, temperature float64, metrics *observability.Metrics, logger *slog.Logger) *Extractor {
	return &Extractor{llm: llm, temperature: temperature, metrics: metrics, logger: logger}
}

// Extract derives a lead record from the whole transcript. It never fails:
// a gateway error or unparseable output yields the empty record.
func (e *Extractor) Extract(ctx context.Context, t transcript.Transcript) lead.Record {
	if len(t) == 0 {
		e.metrics.ObserveExtraction(observability.ExtractionSkipped)
		return lead.Empty()
	}

	formatted := t.Format()
	e.logger.Debug("extracting lead fields", "turns", len(t), "transcript_len", len(formatted))

	start := time.Now()
	raw, err := e.llm.Generate(ctx, gateway.Request{
		System:      systemPrompt,
		Turns:       transcript.Transcript{{Role: transcript.RoleUser, Text: fmt.Sprintf(extractionUserPrompt, formatted)}},
		Temperature: e.temperature,
		Structured:  true,
		MaxTokens:   maxTokens,
	})
	e.metrics.ObserveCompletion("extract", time.Since(start), err)
	if err != nil {
		e.logger.Warn("lead extraction failed", "error", err)
		e.metrics.ObserveExtraction(observability.ExtractionGatewayError)
		return lead.Empty()
	}

	rec, err := parseRecord(raw)
	if err != nil {
		e.logger.Warn("failed to parse extraction response", "error", err, "raw", raw)
		e.metrics.ObserveExtraction(observability.ExtractionParseError)
		return lead.Empty()
	}

	// Model values win; heuristics only fill what the model left empty.
	rec = lead.Merge(heuristics(t), lead.Normalize(rec))

	e.logger.Debug("extraction complete", "fields", rec.FilledCount())
	e.metrics.ObserveExtraction(observability.ExtractionOK)
	return rec
}
