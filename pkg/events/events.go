package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event subjects, appended to the configured prefix.
const (
	SubjectEnrollmentCreated = "enrollment.created"
	SubjectMaterialUploaded  = "material.uploaded"
	SubjectCourseDeleted     = "course.deleted"
)

// Publisher sends domain events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// NATSPublisher publishes JSON envelopes on core NATS.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNATSPublisher connects to url. Reconnects are handled by the client.
func NewNATSPublisher(url, prefix string, logger *zap.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("learnloop"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	logger.Info("nats publisher initialized", zap.String("url", url), zap.String("prefix", prefix))

	return &NATSPublisher{conn: nc, prefix: prefix, logger: logger}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, payload interface{}) error {
	full := subject
	if p.prefix != "" {
		full = p.prefix + "." + subject
	}

	body, err := json.Marshal(Envelope{Type: subject, OccurredAt: time.Now().UTC(), Data: payload})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", subject, err)
	}

	if err := p.conn.Publish(full, body); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}

	p.logger.Debug("event published", zap.String("subject", full))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NopPublisher{}
)

// NopPublisher discards events. Used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NopPublisher) Close() error { return nil }
