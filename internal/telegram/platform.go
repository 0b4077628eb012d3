package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/delivery"
)

const (
	videoNoteFilename = "video_note.mp4"
	videoFilename     = "video.mp4"
)

// Platform adapts *bot.Bot to the outbound surface used by the delivery
// pipeline and to the chat title lookup used by the destination resolver.
type Platform struct {
	bot             *bot.Bot
	client          *http.Client
	downloadTimeout time.Duration
	logger          *slog.Logger
}

// NewPlatform wraps b. Each file download is bounded by downloadTimeout.
func NewPlatform(b *bot.Bot, downloadTimeout time.Duration, logger *slog.Logger) *Platform {
	if logger == nil {
		logger = slog.Default()
	}
	return &Platform{
		bot:             b,
		client:          &http.Client{},
		downloadTimeout: downloadTimeout,
		logger:          logger.With("component", "telegram_platform"),
	}
}

// SendNotice sends a text message. An empty mode sends plain text.
func (p *Platform) SendNotice(ctx context.Context, chatID int64, text string, mode models.ParseMode) error {
	_, err := p.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: mode,
	})
	if err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

func (p *Platform) SendChatAction(ctx context.Context, chatID int64, action models.ChatAction) error {
	_, err := p.bot.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: action})
	if err != nil {
		return fmt.Errorf("send chat action %s: %w", action, err)
	}
	return nil
}

// DownloadFile resolves fileID to a download link and fetches its bytes.
func (p *Platform) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if p.downloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.downloadTimeout)
		defer cancel()
	}

	file, err := p.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.bot.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}

	p.logger.DebugContext(ctx, "File downloaded", "file_id", fileID, "bytes", len(data))
	return data, nil
}

// SendVideoNote uploads data as a video note. A zero length lets Telegram pick.
func (p *Platform) SendVideoNote(ctx context.Context, chatID int64, data []byte, length int) (*delivery.SentMessage, error) {
	msg, err := p.bot.SendVideoNote(ctx, &bot.SendVideoNoteParams{
		ChatID:    chatID,
		VideoNote: &models.InputFileUpload{Filename: videoNoteFilename, Data: bytes.NewReader(data)},
		Length:    length,
	})
	if err != nil {
		return nil, fmt.Errorf("send video note to %d: %w", chatID, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("send video note to %d: %w", chatID, delivery.ErrEmptyReply)
	}
	return &delivery.SentMessage{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		IsVideoNote: msg.VideoNote != nil,
	}, nil
}

// ResendVideoNote sends an already uploaded video note by its file id.
func (p *Platform) ResendVideoNote(ctx context.Context, chatID int64, fileID string) error {
	_, err := p.bot.SendVideoNote(ctx, &bot.SendVideoNoteParams{
		ChatID:    chatID,
		VideoNote: &models.InputFileString{Data: fileID},
	})
	if err != nil {
		return fmt.Errorf("resend video note to %d: %w", chatID, err)
	}
	return nil
}

func (p *Platform) SendVideo(ctx context.Context, chatID int64, data []byte) error {
	_, err := p.bot.SendVideo(ctx, &bot.SendVideoParams{
		ChatID: chatID,
		Video:  &models.InputFileUpload{Filename: videoFilename, Data: bytes.NewReader(data)},
	})
	if err != nil {
		return fmt.Errorf("send video to %d: %w", chatID, err)
	}
	return nil
}

// AttachKeyboard replaces the inline keyboard of a sent message.
func (p *Platform) AttachKeyboard(ctx context.Context, chatID int64, messageID int, keyboard *models.InlineKeyboardMarkup) error {
	_, err := p.bot.EditMessageReplyMarkup(ctx, &bot.EditMessageReplyMarkupParams{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		return fmt.Errorf("edit reply markup of %d/%d: %w", chatID, messageID, err)
	}
	return nil
}

func (p *Platform) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if _, err := p.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID}); err != nil {
		return fmt.Errorf("delete message %d/%d: %w", chatID, messageID, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query with a toast.
func (p *Platform) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := p.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}
	return nil
}

// ChatTitle returns the title of a group or channel.
func (p *Platform) ChatTitle(ctx context.Context, chatID int64) (string, error) {
	chat, err := p.bot.GetChat(ctx, &bot.GetChatParams{ChatID: chatID})
	if err != nil {
		return "", fmt.Errorf("get chat %d: %w", chatID, err)
	}
	return chat.Title, nil
}
