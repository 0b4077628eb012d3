package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/edgard/telesco/internal/analytics"
)

// EventSink writes analytics events into the local event log.
type EventSink struct {
	store Store
}

// NewEventSink returns an analytics.Sink backed by store.
func NewEventSink(store Store) *EventSink {
	return &EventSink{store: store}
}

// Name implements analytics.Sink.
func (s *EventSink) Name() string { return "store" }

// Send implements analytics.Sink.
func (s *EventSink) Send(ctx context.Context, event analytics.Event) error {
	props, err := json.Marshal(event.Properties)
	if err != nil {
		return fmt.Errorf("marshal event properties: %w", err)
	}
	return s.store.SaveEvent(ctx, &Event{
		ID:         event.ID,
		UserID:     event.UserID,
		Name:       event.Name,
		Properties: string(props),
		CreatedAt:  event.Time,
	})
}
