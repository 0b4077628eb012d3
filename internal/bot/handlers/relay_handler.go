package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/delivery"
)

// NewRelayHandler returns the callback handler for relay offer taps.
func NewRelayHandler(deps HandlerDeps) bot.HandlerFunc {
	return relayHandler{deps}.Handle
}

type relayHandler struct {
	deps HandlerDeps
}

func (h relayHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	tap := delivery.RelayTap{
		CallbackID:   cq.ID,
		UserID:       cq.From.ID,
		LanguageCode: cq.From.LanguageCode,
		Data:         cq.Data,
	}
	// An inaccessible message leaves the file id empty, which fails the relay.
	if m := cq.Message.Message; m != nil && m.VideoNote != nil {
		tap.VideoNoteFileID = m.VideoNote.FileID
	}

	h.deps.Delivery.Relay(ctx, tap)
}
