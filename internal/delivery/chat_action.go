package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"
)

// keepChatAction re-sends action every interval until ctx is done. Telegram
// clears a chat action after about five seconds, so long downloads and
// uploads need it refreshed. The first action is sent by the caller.
func keepChatAction(ctx context.Context, p Platform, log *slog.Logger, chatID int64, action models.ChatAction, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.SendChatAction(ctx, chatID, action); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.DebugContext(ctx, "Chat action refresh failed", "action", string(action), "error", err)
			}
		}
	}
}

// startChatAction runs keepChatAction in the background. The returned func
// stops it and waits for it to exit. A non-positive interval does nothing.
func (o *Orchestrator) startChatAction(ctx context.Context, log *slog.Logger, chatID int64, action models.ChatAction) func() {
	if o.actionInterval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepChatAction(ctx, o.platform, log, chatID, action, o.actionInterval)
	}()
	return func() {
		cancel()
		<-done
	}
}
