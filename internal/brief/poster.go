package brief

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

const defaultTimeout = 10 * time.Second

// Poster delivers briefs to an incoming-webhook URL that accepts the Slack
// message format.
type Poster struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

func NewPoster(webhookURL string, timeout time.Duration, logger *slog.Logger) *Poster {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Poster{
		webhookURL: strings.TrimSpace(webhookURL),
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Configured reports whether a webhook URL is set.
func (p *Poster) Configured() bool {
	return p != nil && p.webhookURL != ""
}

// Post sends one brief. Any non-2xx status is an error, as is a JSON body
// carrying "ok": false.
func (p *Poster) Post(ctx context.Context, s Submission) error {
	if !p.Configured() {
		return ErrWebhookNotConfigured
	}
	text := formatBrief(s)

	body, err := json.Marshal(map[string]any{
		"text": text,
		"blocks": []map[string]any{
			{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": "New project brief",
				},
			},
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": formatContext(s),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// Slack webhooks answer with plain "ok"; API-style endpoints answer JSON.
	var apiResp struct {
		OK    *bool  `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if json.Unmarshal(respBody, &apiResp) == nil && apiResp.OK != nil && !*apiResp.OK {
		return fmt.Errorf("webhook error: %s", apiResp.Error)
	}

	p.logger.Info("posted brief to webhook", "conversation_id", s.ConversationID)
	return nil
}

func formatBrief(s Submission) string {
	var sb strings.Builder
	r := s.Lead

	line := func(label string, v *string) {
		val := "_not provided_"
		if lead.Present(v) {
			val = *v
		}
		fmt.Fprintf(&sb, "*%s:* %s\n", label, val)
	}
	line("Name", r.FullName)
	line("Email", r.WorkEmail)
	line("Company", r.Company)
	line("Phone", r.Phone)
	line("Project", r.ProjectType)
	line("Timeline", r.Timeline)
	line("Goal", r.Goal)

	return strings.TrimRight(sb.String(), "\n")
}

func formatContext(s Submission) string {
	parts := []string{"Conversation " + s.ConversationID}
	if !s.Timestamp.IsZero() {
		parts = append(parts, s.Timestamp.UTC().Format(time.RFC3339))
	}
	if s.SourceURL != "" {
		parts = append(parts, s.SourceURL)
	}
	return strings.Join(parts, " | ")
}
