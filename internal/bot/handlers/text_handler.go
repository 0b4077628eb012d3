package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTextHandler returns the default handler. It answers plain text, including
// unknown commands, with a usage hint, acknowledges unrouted callback queries
// so the client stops its spinner, and ignores every other update.
func NewTextHandler(deps HandlerDeps) bot.HandlerFunc {
	return textHandler{deps}.Handle
}

type textHandler struct {
	deps HandlerDeps
}

func (h textHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "text")

	if cq := update.CallbackQuery; cq != nil {
		log.DebugContext(ctx, "Answering unrouted callback query", "data", cq.Data, "user_id", cq.From.ID)
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
			log.WarnContext(ctx, "Failed to answer callback query", "error", err)
		}
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		log.DebugContext(ctx, "Ignoring unhandled update", "update_id", update.ID)
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   h.deps.messages(msg.From.LanguageCode).Text,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send text hint", "error", err, "chat_id", msg.Chat.ID)
	}
}
