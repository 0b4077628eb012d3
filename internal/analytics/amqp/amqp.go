// Package amqp publishes analytics events as JSON envelopes to a RabbitMQ
// topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/edgard/telesco/internal/analytics"
)

// Config describes the broker and topology events are published to.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	Producer   string
	Dialer     func(url string) (*amqp.Connection, error)
}

// Meta is the envelope header.
type Meta struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Time     time.Time `json:"time"`
	Producer string    `json:"producer,omitempty"`
}

// Envelope wraps one event payload.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// Payload is the event body carried in Envelope.Data.
type Payload struct {
	UserID     int64          `json:"user_id"`
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties"`
}

// Sink publishes to one exchange over a single channel. Channels are not
// safe for concurrent publishing, so sends are serialized.
type Sink struct {
	cfg  Config
	log  *slog.Logger
	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to the broker and declares the exchange.
func Dial(cfg Config, logger *slog.Logger) (*Sink, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = amqp.Dial
	}

	s := &Sink{cfg: cfg, log: logger.With("component", "analytics_amqp")}
	if err := s.connect(); err != nil {
		return nil, err
	}

	host := ""
	if u, err := url.Parse(cfg.URL); err == nil {
		host = u.Host
	}
	s.log.Info("Connected to analytics broker", "host", host, "exchange", cfg.Exchange)
	return s, nil
}

// connect (re)establishes the connection and channel. Callers hold mu or own s exclusively.
func (s *Sink) connect() error {
	if s.conn == nil || s.conn.IsClosed() {
		conn, err := s.cfg.Dialer(s.cfg.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		s.conn = conn
	}

	ch, err := s.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(s.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange %q: %w", s.cfg.Exchange, err)
	}
	s.ch = ch
	return nil
}

// Name implements analytics.Sink.
func (s *Sink) Name() string { return "amqp" }

// Send implements analytics.Sink.
func (s *Sink) Send(ctx context.Context, event analytics.Event) error {
	env := NewEnvelope(event, s.cfg.Producer)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ch == nil || s.ch.IsClosed() {
		if err := s.connect(); err != nil {
			return err
		}
	}

	return s.ch.PublishWithContext(ctx, s.cfg.Exchange, RoutingKey(s.cfg.RoutingKey, event.Name), false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    env.Meta.ID,
		Type:         env.Meta.Type,
		Timestamp:    env.Meta.Time,
		AppId:        s.cfg.Producer,
	})
}

// Close closes the channel and connection.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.ch != nil {
		if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewEnvelope wraps an event for publishing.
func NewEnvelope(event analytics.Event, producer string) Envelope {
	return Envelope{
		Meta: Meta{
			ID:       event.ID,
			Type:     EventType(event.Name),
			Time:     event.Time,
			Producer: producer,
		},
		Data: Payload{
			UserID:     event.UserID,
			Event:      event.Name,
			Properties: event.Properties,
		},
	}
}

// EventType returns the versioned envelope type for an event name.
func EventType(name string) string {
	return "videonote." + name + ".v1"
}

// RoutingKey appends the event name to the configured prefix.
func RoutingKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
