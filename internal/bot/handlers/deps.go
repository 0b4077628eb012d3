package handlers

import (
	"context"
	"log/slog"

	"github.com/edgard/telesco/internal/analytics"
	"github.com/edgard/telesco/internal/config"
	"github.com/edgard/telesco/internal/database"
	"github.com/edgard/telesco/internal/delivery"
)

// Delivery runs the conversion pipeline for media, video note and relay updates.
// *delivery.Orchestrator implements it.
type Delivery interface {
	Deliver(ctx context.Context, a *delivery.Attempt) delivery.Outcome
	Revert(ctx context.Context, a *delivery.Attempt) delivery.Outcome
	Relay(ctx context.Context, tap delivery.RelayTap) delivery.RelayOutcome
}

// HandlerDeps provides dependencies for Telegram update handlers.
// Store may be nil when the event log is disabled.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Tracker  analytics.Tracker
	Delivery Delivery
}

func (d HandlerDeps) messages(languageCode string) config.Messages {
	return d.Config.Messages.For(languageCode)
}

func (d HandlerDeps) track(ctx context.Context, userID int64, event string, props map[string]any) {
	if d.Tracker == nil {
		return
	}
	d.Tracker.Track(ctx, userID, event, props)
}
