package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/analytics"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

// helpHandler processes the /help command using injected dependencies.
type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	from := update.Message.From
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /help command", "chat_id", chatID, "user_id", from.ID)

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      h.deps.messages(from.LanguageCode).Help,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", chatID)
	} else {
		log.DebugContext(ctx, "Successfully sent help message", "chat_id", chatID)
	}

	h.deps.track(ctx, from.ID, analytics.EventHelp, map[string]any{"language": from.LanguageCode})
}
