// Package events publishes evaluation lifecycle events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/debrief/internal/debrief"
	"github.com/fyrsmithlabs/debrief/internal/logging"
	"github.com/fyrsmithlabs/debrief/internal/validator"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event kinds, used as the last subject token.
const (
	KindStarted   = "started"
	KindCompleted = "completed"
	KindFailed    = "failed"
)

// Event is the JSON payload of every lifecycle message.
type Event struct {
	SessionID    string                       `json:"session_id"`
	IncidentType string                       `json:"incident_type"`
	Kind         string                       `json:"kind"`
	StartedAt    time.Time                    `json:"started_at"`
	Timestamp    time.Time                    `json:"timestamp"`
	Verdicts     map[string]validator.Verdict `json:"verdicts,omitempty"`
	Error        string                       `json:"error,omitempty"`
}

// Publisher implements debrief.Observer over a NATS connection.
//
// Events are published to:
//
//	{prefix}.{session_id}.started
//	{prefix}.{session_id}.completed
//	{prefix}.{session_id}.failed
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

var _ debrief.Observer = (*Publisher)(nil)

// NewPublisher creates a publisher on an existing connection.
func NewPublisher(nc *nats.Conn, prefix string, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = "debrief"
	}
	return &Publisher{nc: nc, prefix: prefix, logger: logger}
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, prefix string, logger *logging.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("debrief"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	return NewPublisher(nc, prefix, logger), nil
}

// Subject returns the subject for an event of kind in session.
func (p *Publisher) Subject(sessionID, kind string) string {
	return fmt.Sprintf("%s.%s.%s", p.prefix, sessionID, kind)
}

// Started publishes the started event.
func (p *Publisher) Started(ctx context.Context, s debrief.Session) error {
	return p.publish(ctx, s, Event{Kind: KindStarted})
}

// Completed publishes the completed event with every section verdict.
func (p *Publisher) Completed(ctx context.Context, s debrief.Session, r *debrief.Report) error {
	return p.publish(ctx, s, Event{Kind: KindCompleted, Verdicts: r.Verdicts()})
}

// Failed publishes the failed event with the error text.
func (p *Publisher) Failed(ctx context.Context, s debrief.Session, err error) error {
	return p.publish(ctx, s, Event{Kind: KindFailed, Error: err.Error()})
}

func (p *Publisher) publish(ctx context.Context, s debrief.Session, ev Event) error {
	ev.SessionID = s.ID
	ev.IncidentType = s.IncidentType
	ev.StartedAt = s.StartedAt
	ev.Timestamp = time.Now()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Kind, err)
	}

	subject := p.Subject(s.ID, ev.Kind)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Kind, err)
	}
	p.logger.Debug(ctx, "lifecycle event published", zap.String("subject", subject))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
