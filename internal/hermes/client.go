package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

// Subjects published by the intake service.
const (
	SubjectRegistered     = "swarm.agent.intake.registered"
	SubjectBriefReady     = "intake.brief.ready"
	SubjectBriefSubmitted = "intake.brief.submitted"
)

// BriefReady is emitted when a chat turn decides the lead is ready to submit.
type BriefReady struct {
	ConversationID string      `json:"conversation_id"`
	Phase          string      `json:"phase"`
	Policy         string      `json:"policy"`
	TurnCount      int         `json:"turn_count"`
	Lead           lead.Record `json:"lead"`
	Timestamp      string      `json:"timestamp"`
}

// BriefSubmitted is emitted after a brief has been delivered to the webhook.
type BriefSubmitted struct {
	BriefID        string      `json:"brief_id"`
	ConversationID string      `json:"conversation_id"`
	Lead           lead.Record `json:"lead"`
	SourceURL      string      `json:"source_url,omitempty"`
	Timestamp      string      `json:"timestamp"`
}

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("intake"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

// Publish sends data as JSON. Delivery is fire-and-forget.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (c *Client) Close() {
	if err := c.conn.Drain(); err != nil {
		c.logger.Warn("nats drain failed", "error", err)
		c.conn.Close()
	}
}
