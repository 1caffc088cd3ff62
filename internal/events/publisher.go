// Package events publishes flagged-case lifecycle events for downstream
// notification consumers. Events carry the anonymized case identifier only;
// raw student identifiers never appear on the wire.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// ActionCreated is emitted when a screening opens a new flagged case.
	ActionCreated = "created"
	// ActionUpdated is emitted when a screening merges into an existing case.
	ActionUpdated = "updated"
	// ActionAssigned is emitted when a counsellor is assigned.
	ActionAssigned = "assigned"
	// ActionStatusChanged is emitted for administrative status overwrites.
	ActionStatusChanged = "status_changed"
)

// CaseEvent describes one flagged-case lifecycle transition.
type CaseEvent struct {
	ID           string    `json:"id"`
	Action       string    `json:"action"`
	AnonymizedID string    `json:"anonymized_id"`
	RiskLevel    string    `json:"risk_level"`
	FlaggedFor   []string  `json:"flagged_for,omitempty"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers case events to interested consumers.
type Publisher interface {
	PublishCaseEvent(ctx context.Context, event CaseEvent) error
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

// PublishCaseEvent implements Publisher.
func (NoopPublisher) PublishCaseEvent(context.Context, CaseEvent) error { return nil }

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher connects to the broker and returns a publisher plus a
// close function for shutdown.
func NewNATSPublisher(url, subjectPrefix string, logger zerolog.Logger) (Publisher, func(), error) {
	if url == "" {
		return nil, nil, fmt.Errorf("nats url must not be empty")
	}
	if subjectPrefix == "" {
		subjectPrefix = "campuswell.cases"
	}

	conn, err := nats.Connect(url, nats.Name("campuswell-api"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	publisher := &natsPublisher{
		conn:    conn,
		subject: subjectPrefix,
		logger:  logger.With().Str("component", "case_event_publisher").Logger(),
	}

	return publisher, conn.Close, nil
}

func (p *natsPublisher) PublishCaseEvent(_ context.Context, event CaseEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode case event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subject, event.Action)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish case event: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Str("case", event.AnonymizedID).Msg("case event published")

	return nil
}
