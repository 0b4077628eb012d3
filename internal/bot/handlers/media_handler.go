package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/delivery"
	"github.com/edgard/telesco/internal/media"
)

// NewMediaHandler returns the content-type gate for video, document and
// animation messages. Videos go to the delivery pipeline; everything else
// gets a fixed notice.
func NewMediaHandler(deps HandlerDeps) bot.HandlerFunc {
	return mediaHandler{deps}.Handle
}

// IsMediaMessage matches the updates NewMediaHandler serves.
func IsMediaMessage(update *models.Update) bool {
	msg := update.Message
	return msg != nil && (msg.Video != nil || msg.Document != nil || msg.Animation != nil)
}

type mediaHandler struct {
	deps HandlerDeps
}

func (h mediaHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "media")

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.WarnContext(ctx, "Media handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	d := describe(msg)
	class := media.Classify(d.Kind, d.MimeType)
	log = log.With("chat_id", msg.Chat.ID, "user_id", msg.From.ID, "kind", d.Kind.String(), "mime_type", d.MimeType)

	msgs := h.deps.messages(msg.From.LanguageCode)
	var text string
	var mode models.ParseMode

	switch class {
	case media.ClassConvertible:
		h.deps.Delivery.Deliver(ctx, &delivery.Attempt{
			MessageID:    msg.ID,
			ChatID:       msg.Chat.ID,
			UserID:       msg.From.ID,
			LanguageCode: msg.From.LanguageCode,
			Descriptor:   d,
		})
		return
	case media.ClassWebm:
		text, mode = msgs.Webm, models.ParseModeHTML
		log.InfoContext(ctx, "Rejected webm document")
	default:
		text = msgs.ContentError
		log.InfoContext(ctx, "Rejected unsupported content", "animated", d.Kind == media.KindAnimation || media.IsAnimatedDocument(d.MimeType))
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: text, ParseMode: mode})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send content notice", "error", err)
	}
}

// describe builds the media descriptor for a message. Animations are checked
// before documents because the platform sets both for them.
func describe(msg *models.Message) media.Descriptor {
	switch {
	case msg.Video != nil:
		v := msg.Video
		return media.Descriptor{
			FileID:          v.FileID,
			SizeBytes:       int64(v.FileSize),
			DurationSeconds: v.Duration,
			WidthPx:         v.Width,
			HeightPx:        v.Height,
			Kind:            media.KindVideo,
			MimeType:        v.MimeType,
		}
	case msg.Animation != nil:
		a := msg.Animation
		return media.Descriptor{
			FileID:          a.FileID,
			SizeBytes:       int64(a.FileSize),
			DurationSeconds: a.Duration,
			WidthPx:         a.Width,
			HeightPx:        a.Height,
			Kind:            media.KindAnimation,
			MimeType:        a.MimeType,
		}
	default:
		doc := msg.Document
		return media.Descriptor{
			FileID:    doc.FileID,
			SizeBytes: int64(doc.FileSize),
			Kind:      media.KindDocument,
			MimeType:  doc.MimeType,
		}
	}
}
