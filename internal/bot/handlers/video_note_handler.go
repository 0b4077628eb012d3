package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/delivery"
	"github.com/edgard/telesco/internal/media"
)

// NewVideoNoteHandler returns a handler that sends an inbound video note back
// as a regular video.
func NewVideoNoteHandler(deps HandlerDeps) bot.HandlerFunc {
	return videoNoteHandler{deps}.Handle
}

// IsVideoNoteMessage matches messages carrying a video note.
func IsVideoNoteMessage(update *models.Update) bool {
	return update.Message != nil && update.Message.VideoNote != nil
}

type videoNoteHandler struct {
	deps HandlerDeps
}

func (h videoNoteHandler) Handle(ctx context.Context, _ *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.VideoNote == nil {
		h.deps.Logger.WarnContext(ctx, "Video note handler received update without a video note", "handler", "video_note", "update_id", update.ID)
		return
	}

	h.deps.Delivery.Revert(ctx, &delivery.Attempt{
		MessageID:    msg.ID,
		ChatID:       msg.Chat.ID,
		UserID:       msg.From.ID,
		LanguageCode: msg.From.LanguageCode,
		Descriptor: media.Descriptor{
			FileID:          msg.VideoNote.FileID,
			SizeBytes:       int64(msg.VideoNote.FileSize),
			DurationSeconds: msg.VideoNote.Duration,
			WidthPx:         msg.VideoNote.Length,
			HeightPx:        msg.VideoNote.Length,
			Kind:            media.KindVideo,
		},
	})
}
