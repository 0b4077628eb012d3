package handlers

import (
	"context"
	"fmt"
	"html"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/analytics"
)

// videoMessagesURL is linked from the greeting.
const videoMessagesURL = "https://telegram.org/update"

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler greets the user in their language.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	from := update.Message.From
	chatID := update.Message.Chat.ID

	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", from.ID)

	welcome := fmt.Sprintf(h.deps.messages(from.LanguageCode).Start, html.EscapeString(from.FirstName), videoMessagesURL)
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             chatID,
		Text:               welcome,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
	} else {
		log.DebugContext(ctx, "Successfully sent welcome message", "chat_id", chatID)
	}

	h.deps.track(ctx, from.ID, analytics.EventStart, map[string]any{"language": from.LanguageCode})
}
