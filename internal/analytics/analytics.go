// Package analytics emits fire-and-forget usage events. Track never blocks
// the caller on a sink and sink failures are only logged.
package analytics

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names emitted by the bot.
const (
	EventStart   = "start"
	EventHelp    = "help"
	EventConvert = "convert"
	EventError   = "error"
)

// Event is one tracked occurrence.
type Event struct {
	ID         string
	UserID     int64
	Name       string
	Properties map[string]any
	Time       time.Time
}

// Sink delivers events to one backend.
type Sink interface {
	Name() string
	Send(ctx context.Context, event Event) error
}

// Tracker records events without blocking the caller.
type Tracker interface {
	Track(ctx context.Context, userID int64, name string, props map[string]any)
}

// Noop discards every event. It is used when analytics is disabled.
type Noop struct{}

// Track does nothing.
func (Noop) Track(context.Context, int64, string, map[string]any) {}

// Client fans each event out to every sink on its own goroutine.
type Client struct {
	sinks   []Sink
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time

	// mu orders wg.Add in Track against Close.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewClient creates a Client. Each sink send is bounded by timeout.
func NewClient(logger *slog.Logger, timeout time.Duration, sinks ...Sink) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		sinks:   sinks,
		timeout: timeout,
		log:     logger.With("component", "analytics"),
		now:     time.Now,
	}
}

// Track stamps the event and dispatches it to all sinks asynchronously.
// The caller's cancellation does not abort delivery; the per-sink timeout does.
// Events tracked after Close has started are dropped.
func (c *Client) Track(ctx context.Context, userID int64, name string, props map[string]any) {
	if len(c.sinks) == 0 {
		return
	}

	event := Event{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Properties: maps.Clone(props),
		Time:       c.now().UTC(),
	}
	if event.Properties == nil {
		event.Properties = map[string]any{}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.log.DebugContext(ctx, "Analytics closed, dropping event", "event", name, "user_id", userID)
		return
	}
	c.wg.Add(len(c.sinks))
	c.mu.Unlock()

	base := context.WithoutCancel(ctx)
	for _, sink := range c.sinks {
		go func(sink Sink) {
			defer c.wg.Done()

			sendCtx, cancel := context.WithTimeout(base, c.timeout)
			defer cancel()

			if err := sink.Send(sendCtx, event); err != nil {
				c.log.WarnContext(sendCtx, "Failed to deliver analytics event",
					"sink", sink.Name(), "event", name, "user_id", userID, "error", err)
				return
			}
			c.log.DebugContext(sendCtx, "Analytics event delivered", "sink", sink.Name(), "event", name, "event_id", event.ID)
		}(sink)
	}
}

// Close stops accepting events and waits for in-flight sends to finish or
// ctx to expire.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sinks returns the names of the configured sinks.
func (c *Client) Sinks() []string {
	names := make([]string, 0, len(c.sinks))
	for _, s := range c.sinks {
		names = append(names, s.Name())
	}
	return names
}
