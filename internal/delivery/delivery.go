// Package delivery drives a single inbound video through validation,
// conversion into a video note and the optional relay offer, and handles
// taps on that offer.
package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/directory"
	"github.com/edgard/telesco/internal/media"
)

var (
	// ErrNotVideoNote is returned when the platform accepted the upload but
	// did not produce a video note.
	ErrNotVideoNote = errors.New("platform reply is not a video note")

	// ErrEmptyReply is returned when the platform reports success for an
	// upload but returns no message.
	ErrEmptyReply = errors.New("platform returned no message")

	// ErrInvalidRelayToken wraps callback data that does not name a destination.
	ErrInvalidRelayToken = errors.New("invalid relay token")

	// ErrNoVideoNote is returned for a relay tap on a message without a video note.
	ErrNoVideoNote = errors.New("tapped message has no video note")
)

// SentMessage is the platform's view of a message the bot just sent.
type SentMessage struct {
	ChatID      int64
	MessageID   int
	IsVideoNote bool
}

// Platform is the outbound messaging surface used by the orchestrator.
type Platform interface {
	SendNotice(ctx context.Context, chatID int64, text string, mode models.ParseMode) error
	SendChatAction(ctx context.Context, chatID int64, action models.ChatAction) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	SendVideoNote(ctx context.Context, chatID int64, data []byte, length int) (*SentMessage, error)
	ResendVideoNote(ctx context.Context, chatID int64, fileID string) error
	SendVideo(ctx context.Context, chatID int64, data []byte) error
	AttachKeyboard(ctx context.Context, chatID int64, messageID int, keyboard *models.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// DestinationResolver lists the chats a user may relay into.
type DestinationResolver interface {
	Resolve(ctx context.Context, userID int64, now time.Time) []directory.Destination
}

// Outcome is the terminal classification of an Attempt.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeConverted
	OutcomeRejected
	OutcomeConversionFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeConverted:
		return "converted"
	case OutcomeRejected:
		return "rejectedByValidator"
	case OutcomeConversionFailed:
		return "conversionFailed"
	default:
		return "unknown"
	}
}

// State is a step of the delivery state machine.
type State int

const (
	StateReceived State = iota
	StateValidating
	StateRejected
	StateConverting
	StateConverted
	StateOffering
	StateConversionFailed
	StateCleanup
	StateDone
)

var stateNames = [...]string{
	StateReceived:         "received",
	StateValidating:       "validating",
	StateRejected:         "rejected",
	StateConverting:       "converting",
	StateConverted:        "converted",
	StateOffering:         "offering",
	StateConversionFailed: "conversionFailed",
	StateCleanup:          "cleanup",
	StateDone:             "done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Attempt is the transient record of one inbound media message.
type Attempt struct {
	MessageID    int
	ChatID       int64
	UserID       int64
	LanguageCode string
	Descriptor   media.Descriptor
	Verdict      media.Verdict
	Outcome      Outcome
}

// RelayTap is a tap on a relay offer button.
type RelayTap struct {
	CallbackID      string
	UserID          int64
	LanguageCode    string
	Data            string
	VideoNoteFileID string
}

// RelayOutcome is the result of a relay tap.
type RelayOutcome int

const (
	RelaySucceeded RelayOutcome = iota
	RelayFailed
)

func (r RelayOutcome) String() string {
	if r == RelaySucceeded {
		return "relaySucceeded"
	}
	return "relayFailed"
}
