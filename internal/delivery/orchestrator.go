package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/telesco/internal/analytics"
	"github.com/edgard/telesco/internal/config"
	"github.com/edgard/telesco/internal/media"
	"github.com/edgard/telesco/internal/relay"
)

// Deps holds the collaborators of an Orchestrator.
type Deps struct {
	Platform Platform
	Limits   media.Limits
	Resolver DestinationResolver
	Tracker  analytics.Tracker
	Catalog  config.Catalog
	Logger   *slog.Logger
	Now      func() time.Time
	// ActionInterval refreshes the chat action while media is transferred.
	// Zero sends it once.
	ActionInterval time.Duration
}

// Orchestrator runs the delivery and relay state machines.
// It is safe for concurrent use; attempts share only the resolver caches.
type Orchestrator struct {
	platform Platform
	limits   media.Limits
	resolver DestinationResolver
	tracker  analytics.Tracker
	catalog  config.Catalog
	logger   *slog.Logger
	now      func() time.Time

	actionInterval time.Duration
}

// NewOrchestrator creates an Orchestrator. Tracker, Catalog, Logger and Now
// default to a no-op tracker, the built-in catalog, slog.Default and time.Now.
func NewOrchestrator(deps Deps) *Orchestrator {
	o := &Orchestrator{
		platform: deps.Platform,
		limits:   deps.Limits,
		resolver: deps.Resolver,
		tracker:  deps.Tracker,
		catalog:  deps.Catalog,
		logger:   deps.Logger,
		now:      deps.Now,

		actionInterval: deps.ActionInterval,
	}
	if o.tracker == nil {
		o.tracker = analytics.Noop{}
	}
	if o.catalog == nil {
		o.catalog = config.DefaultCatalog()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "delivery")
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// Deliver validates the attempt's media, converts it into a video note and
// offers the relay keyboard. It always reaches a terminal state and records
// the outcome on the attempt.
func (o *Orchestrator) Deliver(ctx context.Context, a *Attempt) Outcome {
	log := o.logger.With("chat_id", a.ChatID, "user_id", a.UserID, "message_id", a.MessageID)
	msgs := o.catalog.For(a.LanguageCode)
	a.Outcome = OutcomePending

	o.enter(ctx, log, StateReceived)
	o.enter(ctx, log, StateValidating)
	a.Verdict = o.limits.Validate(a.Descriptor)

	if !a.Verdict.Accepted {
		o.enter(ctx, log, StateRejected)
		for _, rule := range a.Verdict.Violations {
			text, mode := rejectionNotice(msgs, rule)
			if err := o.platform.SendNotice(ctx, a.ChatID, text, mode); err != nil {
				log.WarnContext(ctx, "Failed to send rejection notice", "rule", rule.String(), "error", err)
			}
		}
		log.InfoContext(ctx, "Video rejected",
			"rule", a.Verdict.FailedRule.String(),
			"violations", len(a.Verdict.Violations),
			"size", a.Descriptor.SizeBytes,
			"width", a.Descriptor.WidthPx,
			"height", a.Descriptor.HeightPx,
			"duration", a.Descriptor.DurationSeconds)
		return o.finish(ctx, log, a, OutcomeRejected)
	}

	o.enter(ctx, log, StateConverting)
	sent, err := o.convert(ctx, log, a)
	if err != nil {
		o.enter(ctx, log, StateConversionFailed)
		o.notify(ctx, log, a.ChatID, msgs.Error)

		if errors.Is(err, ErrNotVideoNote) && sent != nil {
			log.WarnContext(ctx, "Platform did not produce a video note", "sent_message_id", sent.MessageID)
			o.enter(ctx, log, StateCleanup)
			if delErr := o.platform.DeleteMessage(ctx, sent.ChatID, sent.MessageID); delErr != nil {
				log.DebugContext(ctx, "Failed to delete malformed reply", "error", delErr)
			}
			return o.finish(ctx, log, a, OutcomeConversionFailed)
		}

		log.ErrorContext(ctx, "Video conversion failed", "error", err)
		o.tracker.Track(ctx, a.UserID, analytics.EventError, map[string]any{"error": err.Error()})
		o.enter(ctx, log, StateCleanup)
		return o.finish(ctx, log, a, OutcomeConversionFailed)
	}

	o.enter(ctx, log, StateConverted)
	o.enter(ctx, log, StateOffering)
	o.offer(ctx, log, a, sent)

	o.tracker.Track(ctx, a.UserID, analytics.EventConvert, map[string]any{"language": a.LanguageCode})
	log.InfoContext(ctx, "Video converted", "video_note_message_id", sent.MessageID)
	return o.finish(ctx, log, a, OutcomeConverted)
}

// convert downloads the source media and re-sends it as a video note.
// On ErrNotVideoNote the returned message is the malformed reply.
func (o *Orchestrator) convert(ctx context.Context, log *slog.Logger, a *Attempt) (*SentMessage, error) {
	if err := o.platform.SendChatAction(ctx, a.ChatID, models.ChatActionRecordVideoNote); err != nil {
		return nil, fmt.Errorf("send chat action: %w", err)
	}
	stop := o.startChatAction(ctx, log, a.ChatID, models.ChatActionRecordVideoNote)
	defer stop()

	data, err := o.platform.DownloadFile(ctx, a.Descriptor.FileID)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", a.Descriptor.FileID, err)
	}

	sent, err := o.platform.SendVideoNote(ctx, a.ChatID, data, o.limits.NoteLength(a.Descriptor))
	if err != nil {
		return nil, fmt.Errorf("send video note: %w", err)
	}
	if sent == nil {
		return nil, fmt.Errorf("send video note: %w", ErrEmptyReply)
	}
	if !sent.IsVideoNote {
		return sent, ErrNotVideoNote
	}
	return sent, nil
}

// offer attaches the relay keyboard to the converted message, if the user
// has any destinations. Failures are logged and do not change the outcome.
func (o *Orchestrator) offer(ctx context.Context, log *slog.Logger, a *Attempt, sent *SentMessage) {
	if o.resolver == nil {
		return
	}

	keyboard := relay.BuildOffer(o.resolver.Resolve(ctx, a.UserID, o.now()))
	if keyboard == nil {
		return
	}

	if err := o.platform.AttachKeyboard(ctx, sent.ChatID, sent.MessageID, keyboard); err != nil {
		log.WarnContext(ctx, "Failed to attach relay keyboard", "error", err)
		return
	}
	log.DebugContext(ctx, "Relay keyboard attached", "destinations", len(keyboard.InlineKeyboard))
}

// Revert turns an inbound video note back into a regular video.
func (o *Orchestrator) Revert(ctx context.Context, a *Attempt) Outcome {
	log := o.logger.With("chat_id", a.ChatID, "user_id", a.UserID, "message_id", a.MessageID)
	a.Outcome = OutcomePending

	if err := o.platform.SendChatAction(ctx, a.ChatID, models.ChatActionUploadVideo); err != nil {
		log.DebugContext(ctx, "Failed to send chat action", "error", err)
	}
	stop := o.startChatAction(ctx, log, a.ChatID, models.ChatActionUploadVideo)
	err := o.revert(ctx, a)
	stop()
	if err != nil {
		log.ErrorContext(ctx, "Video note revert failed", "error", err)
		o.notify(ctx, log, a.ChatID, o.catalog.For(a.LanguageCode).Error)
		o.tracker.Track(ctx, a.UserID, analytics.EventError, map[string]any{"error": err.Error()})
		a.Outcome = OutcomeConversionFailed
		return a.Outcome
	}

	log.InfoContext(ctx, "Video note reverted")
	a.Outcome = OutcomeConverted
	return a.Outcome
}

func (o *Orchestrator) revert(ctx context.Context, a *Attempt) error {
	data, err := o.platform.DownloadFile(ctx, a.Descriptor.FileID)
	if err != nil {
		return fmt.Errorf("download %s: %w", a.Descriptor.FileID, err)
	}
	if err := o.platform.SendVideo(ctx, a.ChatID, data); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return nil
}

// Relay re-sends the tapped message's video note to the chat named by the
// tap's token and acknowledges the tap with a toast. It never edits the
// tapped message.
func (o *Orchestrator) Relay(ctx context.Context, tap RelayTap) RelayOutcome {
	log := o.logger.With("user_id", tap.UserID, "callback_id", tap.CallbackID)
	msgs := o.catalog.For(tap.LanguageCode)

	outcome, toast := RelaySucceeded, msgs.RelaySent
	if err := o.relay(ctx, tap); err != nil {
		log.WarnContext(ctx, "Relay failed", "data", tap.Data, "error", err)
		outcome, toast = RelayFailed, msgs.RelayFailed
	} else {
		log.InfoContext(ctx, "Video note relayed", "data", tap.Data)
	}

	if err := o.platform.AnswerCallback(ctx, tap.CallbackID, toast); err != nil {
		log.WarnContext(ctx, "Failed to answer callback", "error", err)
	}
	return outcome
}

func (o *Orchestrator) relay(ctx context.Context, tap RelayTap) error {
	chatID, err := relay.DecodeToken(tap.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRelayToken, err)
	}
	if tap.VideoNoteFileID == "" {
		return ErrNoVideoNote
	}
	if err := o.platform.ResendVideoNote(ctx, chatID, tap.VideoNoteFileID); err != nil {
		return fmt.Errorf("resend video note to %d: %w", chatID, err)
	}
	return nil
}

func (o *Orchestrator) notify(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	if err := o.platform.SendNotice(ctx, chatID, text, ""); err != nil {
		log.WarnContext(ctx, "Failed to send error notice", "error", err)
	}
}

func (o *Orchestrator) enter(ctx context.Context, log *slog.Logger, s State) {
	log.DebugContext(ctx, "Delivery state", "state", s.String())
}

func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, a *Attempt, outcome Outcome) Outcome {
	a.Outcome = outcome
	o.enter(ctx, log, StateDone)
	log.DebugContext(ctx, "Delivery finished", "outcome", outcome.String())
	return outcome
}

// rejectionNotice picks the localized notice and parse mode for a rule.
func rejectionNotice(msgs config.Messages, rule media.Rule) (string, models.ParseMode) {
	switch rule {
	case media.RuleTooLarge:
		return msgs.Size, models.ParseModeMarkdownV1
	case media.RuleTooLong:
		return msgs.Duration, models.ParseModeMarkdownV1
	case media.RuleNotSquare:
		return msgs.NotSquare, ""
	default:
		return msgs.Dimensions, ""
	}
}
