// Package logger provides structured logging for the bot.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewLogger creates a new slog Logger with the specified level and format.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware creates a logging middleware for the Telegram bot.
// It logs every incoming update with its content kind and processing time.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)

			var updateType string
			switch {
			case update.Message != nil:
				updateType = "message"
				msg := update.Message
				logEntry = logEntry.With(
					"message_id", msg.ID,
					"chat_id", msg.Chat.ID,
					"content_kind", ContentKind(msg),
				)
				if msg.From != nil {
					logEntry = logEntry.With("user_id", msg.From.ID, "language", msg.From.LanguageCode)
				}
				if msg.Text != "" {
					logEntry = logEntry.With("text_preview", truncateString(msg.Text, 50))
				}
			case update.CallbackQuery != nil:
				updateType = "callback_query"
				cq := update.CallbackQuery
				logEntry = logEntry.With(
					"callback_query_id", cq.ID,
					"user_id", cq.From.ID,
					"data", cq.Data,
				)

				switch {
				case cq.Message.Message != nil:
					logEntry = logEntry.With("chat_id", cq.Message.Message.Chat.ID, "message_accessible", true)
				case cq.Message.InaccessibleMessage != nil:
					logEntry = logEntry.With("chat_id", cq.Message.InaccessibleMessage.Chat.ID, "message_accessible", false)
				}
			default:
				updateType = "other"
			}
			logEntry = logEntry.With("update_type", updateType)

			logEntry.DebugContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// ContentKind names the payload of a message the way handlers route on it.
func ContentKind(msg *models.Message) string {
	switch {
	case msg == nil:
		return "none"
	case msg.VideoNote != nil:
		return "video_note"
	case msg.Video != nil:
		return "video"
	case msg.Animation != nil:
		// Animations also carry a Document; check them first.
		return "animation"
	case msg.Document != nil:
		return "document"
	case msg.Text != "":
		return "text"
	default:
		return "other"
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
