// Package mixpanel delivers analytics events to Mixpanel.
package mixpanel

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	mp "github.com/dukex/mixpanel"

	"github.com/edgard/telesco/internal/analytics"
)

// DefaultAPIURL is Mixpanel's ingestion endpoint.
const DefaultAPIURL = "https://api.mixpanel.com"

// Sink tracks events under the user's id as Mixpanel distinct id.
type Sink struct {
	client mp.Mixpanel
}

// New creates a Sink for the given project token. An empty apiURL selects
// DefaultAPIURL.
func New(token, apiURL string, timeout time.Duration) *Sink {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Sink{
		client: mp.NewFromClient(&http.Client{Timeout: timeout}, token, apiURL),
	}
}

// Name implements analytics.Sink.
func (s *Sink) Name() string { return "mixpanel" }

// Send implements analytics.Sink. The Mixpanel client has no context
// support; its HTTP timeout bounds the call.
func (s *Sink) Send(ctx context.Context, event analytics.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ts := event.Time
	props := make(map[string]interface{}, len(event.Properties)+1)
	for k, v := range event.Properties {
		props[k] = v
	}
	props["$insert_id"] = event.ID

	err := s.client.Track(strconv.FormatInt(event.UserID, 10), event.Name, &mp.Event{
		Timestamp:  &ts,
		Properties: props,
	})
	if err != nil {
		return fmt.Errorf("mixpanel track %s: %w", event.Name, err)
	}
	return nil
}
