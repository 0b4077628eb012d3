package handlers

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const (
	statsWindow  = 24 * time.Hour
	statsTimeout = 10 * time.Second
)

// NewStatsHandler returns a handler for the admin /stats command. It reports
// per-event counts from the local event log for the last 24 hours.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps: deps, now: time.Now}.Handle
}

type statsHandler struct {
	deps HandlerDeps
	now  func() time.Time
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Stats handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID
	msgs := h.deps.messages(update.Message.From.LanguageCode)

	var counts map[string]int
	if h.deps.Store == nil {
		log.WarnContext(ctx, "Event log is disabled, reporting no events")
	} else {
		queryCtx, cancel := context.WithTimeout(ctx, statsTimeout)
		defer cancel()

		var err error
		counts, err = h.deps.Store.CountEventsSince(queryCtx, h.now().Add(-statsWindow))
		if err != nil {
			log.ErrorContext(ctx, "Failed to count events", "error", err)
			if _, sendErr := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: msgs.Error}); sendErr != nil {
				log.ErrorContext(ctx, "Failed to send error message", "error", sendErr)
			}
			return
		}
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: formatStats(msgs.Stats, counts)})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send stats", "error", err, "chat_id", chatID)
	}
}

// formatStats renders one "name: count" line per event, sorted by name.
func formatStats(header string, counts map[string]int) string {
	var sb strings.Builder
	sb.WriteString(header)
	if len(counts) == 0 {
		sb.WriteString("\n0")
		return sb.String()
	}
	for _, name := range slices.Sorted(maps.Keys(counts)) {
		fmt.Fprintf(&sb, "\n%s: %d", name, counts[name])
	}
	return sb.String()
}
