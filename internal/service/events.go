package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/idgen"
)

// Event types published after state changes.
const (
	EventActivityModerated = "activity.moderated"
	EventCredentialIssued  = "credential.issued"
)

// Event is the envelope published for downstream consumers.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	ActivityID string                 `json:"activity_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// EventPublisher delivers events. Delivery is best-effort; callers log and continue on error.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher publishes events on <subject>.<event type>.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:    conn,
		subject: strings.TrimSuffix(strings.TrimSpace(subject), "."),
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event = completeEvent(event)
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := event.Type
	if p.subject != "" {
		subject = p.subject + "." + event.Type
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		return err
	}

	p.logger.Debug().Str("subject", subject).Str("event_id", event.ID).Msg("event published")
	return nil
}

type noopPublisher struct {
	logger zerolog.Logger
}

// NewNoopPublisher returns a publisher that only logs, used when NATS is not configured.
func NewNoopPublisher(logger zerolog.Logger) EventPublisher {
	return &noopPublisher{logger: logger.With().Str("component", "event_publisher").Logger()}
}

func (p *noopPublisher) Publish(_ context.Context, event Event) error {
	p.logger.Debug().Str("type", event.Type).Str("activity_id", event.ActivityID).Msg("event dropped, no broker configured")
	return nil
}

func completeEvent(event Event) Event {
	if event.ID == "" {
		if id, err := idgen.WithPrefix("evt-"); err == nil {
			event.ID = id
		}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}
