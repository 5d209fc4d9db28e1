// Package events publishes classification results to NATS for
// downstream consumers such as dashboards and dispatch integrations.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ClassifiedEvent is emitted after a complaint is classified and routed.
type ClassifiedEvent struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Confidence  float64   `json:"confidence"`
	IsUrgent    bool      `json:"is_urgent"`
	ServiceName string    `json:"service_name"`
	Timestamp   time.Time `json:"ts"`
}

// Publisher emits complaint lifecycle events.
type Publisher interface {
	PublishClassified(ctx context.Context, event ClassifiedEvent) error
	Close()
}

// NATSPublisher publishes events to a NATS subject.
type NATSPublisher struct {
	conn          *nats.Conn
	subjectPrefix string
	logger        *zap.Logger
}

// NewNATSPublisher connects to NATS. Connection problems after startup
// are handled by the client's automatic reconnect.
func NewNATSPublisher(url, subjectPrefix string, logger *zap.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if subjectPrefix == "" {
		subjectPrefix = "zvernennia"
	}

	conn, err := nats.Connect(url,
		nats.Name("zvernennia"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}

	return &NATSPublisher{conn: conn, subjectPrefix: subjectPrefix, logger: logger}, nil
}

// PublishClassified emits a classification event on
// "<prefix>.classified".
func (p *NATSPublisher) PublishClassified(ctx context.Context, event ClassifiedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding classified event: %w", err)
	}

	subject := p.subjectPrefix + ".classified"
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	p.logger.Debug("classified event published",
		zap.String("subject", subject),
		zap.String("complaint_id", event.ID),
		zap.String("category", event.CategoryID),
	)
	return nil
}

// Close drains the connection so buffered events are flushed.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("draining nats connection", zap.Error(err))
	}
}

// NopPublisher discards events. Used when eventing is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishClassified(context.Context, ClassifiedEvent) error { return nil }
func (NopPublisher) Close()                                                   {}
