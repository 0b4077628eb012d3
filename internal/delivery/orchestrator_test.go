package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/telesco/internal/analytics"
	"github.com/edgard/telesco/internal/config"
	"github.com/edgard/telesco/internal/directory"
	"github.com/edgard/telesco/internal/media"
)

type notice struct {
	chatID int64
	text   string
	mode   models.ParseMode
}

type keyboardEdit struct {
	chatID    int64
	messageID int
	keyboard  *models.InlineKeyboardMarkup
}

type resend struct {
	chatID int64
	fileID string
}

// fakePlatform records every outbound call.
type fakePlatform struct {
	mu sync.Mutex

	downloadErr  error
	sendNoteErr  error
	sendVideoErr error
	resendErr    error
	attachErr    error
	deleteErr    error
	notVideoNote bool
	emptyReply   bool

	notices     []notice
	actions     []models.ChatAction
	downloads   []string
	noteLengths []int
	videos      int
	edits       []keyboardEdit
	deletes     []int
	resends     []resend
	answers     map[string]string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{answers: map[string]string{}}
}

func (f *fakePlatform) SendNotice(_ context.Context, chatID int64, text string, mode models.ParseMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice{chatID, text, mode})
	return nil
}

func (f *fakePlatform) SendChatAction(_ context.Context, _ int64, action models.ChatAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

func (f *fakePlatform) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, fileID)
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return []byte("video-bytes"), nil
}

func (f *fakePlatform) SendVideoNote(_ context.Context, chatID int64, _ []byte, length int) (*SentMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteLengths = append(f.noteLengths, length)
	if f.sendNoteErr != nil {
		return nil, f.sendNoteErr
	}
	if f.emptyReply {
		return nil, nil
	}
	return &SentMessage{ChatID: chatID, MessageID: 500, IsVideoNote: !f.notVideoNote}, nil
}

func (f *fakePlatform) ResendVideoNote(_ context.Context, chatID int64, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resendErr != nil {
		return f.resendErr
	}
	f.resends = append(f.resends, resend{chatID, fileID})
	return nil
}

func (f *fakePlatform) SendVideo(context.Context, int64, []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendVideoErr != nil {
		return f.sendVideoErr
	}
	f.videos++
	return nil
}

func (f *fakePlatform) AttachKeyboard(_ context.Context, chatID int64, messageID int, kb *models.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return f.attachErr
	}
	f.edits = append(f.edits, keyboardEdit{chatID, messageID, kb})
	return nil
}

func (f *fakePlatform) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, messageID)
	return f.deleteErr
}

func (f *fakePlatform) AnswerCallback(_ context.Context, callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers[callbackID] = text
	return nil
}

type tracked struct {
	userID int64
	name   string
	props  map[string]any
}

type fakeTracker struct {
	mu     sync.Mutex
	events []tracked
}

func (f *fakeTracker) Track(_ context.Context, userID int64, name string, props map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, tracked{userID, name, props})
}

type fakeResolver struct {
	dests map[int64][]directory.Destination
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, userID int64, _ time.Time) []directory.Destination {
	f.calls++
	return f.dests[userID]
}

func squareVideo() media.Descriptor {
	return media.Descriptor{
		FileID:          "file-1",
		SizeBytes:       1000,
		DurationSeconds: 10,
		WidthPx:         640,
		HeightPx:        640,
		Kind:            media.KindVideo,
	}
}

func newTestOrchestrator(p *fakePlatform, r DestinationResolver, tr analytics.Tracker) *Orchestrator {
	return NewOrchestrator(Deps{
		Platform: p,
		Limits:   media.DefaultLimits(),
		Resolver: r,
		Tracker:  tr,
		Catalog:  config.DefaultCatalog(),
		Now:      func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
}

func TestDeliverConvertsWithoutOfferForUnknownUser(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	tr := &fakeTracker{}
	o := newTestOrchestrator(p, &fakeResolver{}, tr)

	a := &Attempt{MessageID: 1, ChatID: 10, UserID: 7, LanguageCode: "en", Descriptor: squareVideo()}
	outcome := o.Deliver(context.Background(), a)

	assert.Equal(t, OutcomeConverted, outcome)
	assert.Equal(t, OutcomeConverted, a.Outcome)
	assert.Empty(t, p.notices)
	assert.Empty(t, p.edits, "no keyboard edit without destinations")
	assert.Equal(t, []models.ChatAction{models.ChatActionRecordVideoNote}, p.actions)
	assert.Equal(t, []string{"file-1"}, p.downloads)
	require.Len(t, tr.events, 1)
	assert.Equal(t, analytics.EventConvert, tr.events[0].name)
	assert.Equal(t, "en", tr.events[0].props["language"])
}

func TestDeliverAttachesRelayOffer(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	r := &fakeResolver{dests: map[int64][]directory.Destination{
		42: {{ChatID: 100, Title: "Family"}, {ChatID: 200, Title: "200"}},
	}}
	o := newTestOrchestrator(p, r, &fakeTracker{})

	outcome := o.Deliver(context.Background(), &Attempt{ChatID: 10, UserID: 42, Descriptor: squareVideo()})

	require.Equal(t, OutcomeConverted, outcome)
	require.Len(t, p.edits, 1)
	assert.Equal(t, 500, p.edits[0].messageID)
	rows := p.edits[0].keyboard.InlineKeyboard
	require.Len(t, rows, 2)
	assert.Equal(t, "Family", rows[0][0].Text)
	assert.Equal(t, "send-100", rows[0][0].CallbackData)
	assert.Equal(t, "send-200", rows[1][0].CallbackData)
}

func TestDeliverRejections(t *testing.T) {
	t.Parallel()

	en := config.DefaultCatalog().For("en")

	tests := []struct {
		name    string
		mutate  func(*media.Descriptor)
		rule    media.Rule
		notices []string
	}{
		{
			name:    "too wide",
			mutate:  func(d *media.Descriptor) { d.HeightPx = 641 },
			rule:    media.RuleTooWide,
			notices: []string{en.Dimensions},
		},
		{
			name:    "too large",
			mutate:  func(d *media.Descriptor) { d.SizeBytes = 8_389_000 },
			rule:    media.RuleTooLarge,
			notices: []string{en.Size},
		},
		{
			name:    "too long",
			mutate:  func(d *media.Descriptor) { d.DurationSeconds = 61 },
			rule:    media.RuleTooLong,
			notices: []string{en.Duration},
		},
		{
			name: "every violation notifies in order",
			mutate: func(d *media.Descriptor) {
				d.SizeBytes = 9_000_000
				d.DurationSeconds = 90
				d.WidthPx = 1280
				d.HeightPx = 720
			},
			rule:    media.RuleTooLarge,
			notices: []string{en.Size, en.NotSquare, en.Dimensions, en.Duration},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newFakePlatform()
			tr := &fakeTracker{}
			o := newTestOrchestrator(p, &fakeResolver{}, tr)

			d := squareVideo()
			tt.mutate(&d)
			a := &Attempt{ChatID: 10, UserID: 7, Descriptor: d}

			assert.Equal(t, OutcomeRejected, o.Deliver(context.Background(), a))
			assert.Equal(t, tt.rule, a.Verdict.FailedRule)

			texts := make([]string, 0, len(p.notices))
			for _, n := range p.notices {
				texts = append(texts, n.text)
			}
			assert.Equal(t, tt.notices, texts)
			assert.Empty(t, p.downloads, "rejected media is never downloaded")
			assert.Empty(t, tr.events, "validator rejections are not tracked")
		})
	}
}

func TestDeliverRejectionParseModes(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	o := newTestOrchestrator(p, nil, nil)

	d := squareVideo()
	d.SizeBytes = 9_000_000
	d.WidthPx = 400
	o.Deliver(context.Background(), &Attempt{ChatID: 1, Descriptor: d})

	require.Len(t, p.notices, 2)
	assert.Equal(t, models.ParseModeMarkdownV1, p.notices[0].mode)
	assert.Equal(t, models.ParseMode(""), p.notices[1].mode)
}

func TestDeliverDownloadFailure(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	p.downloadErr = errors.New("connection reset")
	tr := &fakeTracker{}
	o := newTestOrchestrator(p, &fakeResolver{}, tr)

	a := &Attempt{ChatID: 10, UserID: 7, LanguageCode: "ru", Descriptor: squareVideo()}
	assert.Equal(t, OutcomeConversionFailed, o.Deliver(context.Background(), a))

	require.Len(t, p.notices, 1)
	assert.Equal(t, config.DefaultCatalog().For("ru").Error, p.notices[0].text)
	require.Len(t, tr.events, 1)
	assert.Equal(t, analytics.EventError, tr.events[0].name)
	assert.Contains(t, tr.events[0].props["error"], "connection reset")

	p.downloadErr = nil
	assert.Equal(t, OutcomeConverted, o.Deliver(context.Background(), &Attempt{ChatID: 10, UserID: 7, Descriptor: squareVideo()}),
		"later messages are still served")
}

func TestDeliverUploadFailure(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	p.sendNoteErr = errors.New("request entity too large")
	tr := &fakeTracker{}
	o := newTestOrchestrator(p, &fakeResolver{}, tr)

	assert.Equal(t, OutcomeConversionFailed, o.Deliver(context.Background(), &Attempt{ChatID: 10, Descriptor: squareVideo()}))
	assert.Len(t, p.notices, 1)
	require.Len(t, tr.events, 1)
	assert.Equal(t, analytics.EventError, tr.events[0].name)
}

func TestDeliverMalformedReply(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	p.notVideoNote = true
	p.deleteErr = errors.New("message can't be deleted")
	tr := &fakeTracker{}
	r := &fakeResolver{dests: map[int64][]directory.Destination{7: {{ChatID: 1, Title: "x"}}}}
	o := newTestOrchestrator(p, r, tr)

	outcome := o.Deliver(context.Background(), &Attempt{ChatID: 10, UserID: 7, Descriptor: squareVideo()})

	assert.Equal(t, OutcomeConversionFailed, outcome)
	assert.Len(t, p.notices, 1)
	assert.Equal(t, []int{500}, p.deletes)
	assert.Empty(t, p.edits)
	assert.Zero(t, r.calls)
	assert.Empty(t, tr.events)
}

func TestDeliverEmptyReply(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	p.emptyReply = true
	tr := &fakeTracker{}
	o := newTestOrchestrator(p, &fakeResolver{}, tr)

	a := &Attempt{ChatID: 10, UserID: 7, Descriptor: squareVideo()}
	var outcome Outcome
	require.NotPanics(t, func() { outcome = o.Deliver(context.Background(), a) })

	assert.Equal(t, OutcomeConversionFailed, outcome)
	assert.Equal(t, OutcomeConversionFailed, a.Outcome)
	assert.Len(t, p.notices, 1)
	assert.Empty(t, p.deletes, "nothing to clean up without a reply")
	require.Len(t, tr.events, 1)
	assert.Equal(t, analytics.EventError, tr.events[0].name)
	assert.Contains(t, tr.events[0].props["error"], ErrEmptyReply.Error())
}

func TestDeliverKeyboardFailureStillTracksConvert(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	p.attachErr = errors.New("message is not modified")
	tr := &fakeTracker{}
	r := &fakeResolver{dests: map[int64][]directory.Destination{7: {{ChatID: 1, Title: "x"}}}}
	o := newTestOrchestrator(p, r, tr)

	assert.Equal(t, OutcomeConverted, o.Deliver(context.Background(), &Attempt{ChatID: 10, UserID: 7, Descriptor: squareVideo()}))
	assert.Empty(t, p.notices)
	require.Len(t, tr.events, 1)
	assert.Equal(t, analytics.EventConvert, tr.events[0].name)
}

func TestDeliverNoteLength(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	o := newTestOrchestrator(p, nil, nil)

	small := squareVideo()
	small.WidthPx, small.HeightPx = 480, 480
	o.Deliver(context.Background(), &Attempt{ChatID: 1, Descriptor: small})
	o.Deliver(context.Background(), &Attempt{ChatID: 1, Descriptor: squareVideo()})

	assert.Equal(t, []int{480, 0}, p.noteLengths)
}

func TestRelay(t *testing.T) {
	t.Parallel()

	en := config.DefaultCatalog().For("en")

	tests := []struct {
		name      string
		tap       RelayTap
		resendErr error
		want      RelayOutcome
		toast     string
		resends   int
	}{
		{
			name:    "success",
			tap:     RelayTap{CallbackID: "cb", Data: "send-100", VideoNoteFileID: "note-1"},
			want:    RelaySucceeded,
			toast:   en.RelaySent,
			resends: 1,
		},
		{
			name:      "unreachable destination",
			tap:       RelayTap{CallbackID: "cb", Data: "send-100", VideoNoteFileID: "note-1"},
			resendErr: errors.New("Forbidden: bot is not a member of the group chat"),
			want:      RelayFailed,
			toast:     en.RelayFailed,
		},
		{
			name:  "bad token",
			tap:   RelayTap{CallbackID: "cb", Data: "send-abc", VideoNoteFileID: "note-1"},
			want:  RelayFailed,
			toast: en.RelayFailed,
		},
		{
			name:  "no video note",
			tap:   RelayTap{CallbackID: "cb", Data: "send-100"},
			want:  RelayFailed,
			toast: en.RelayFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newFakePlatform()
			p.resendErr = tt.resendErr
			o := newTestOrchestrator(p, nil, nil)

			assert.Equal(t, tt.want, o.Relay(context.Background(), tt.tap))
			assert.Equal(t, tt.toast, p.answers["cb"])
			assert.Len(t, p.resends, tt.resends)
			assert.Empty(t, p.edits, "relay never edits the tapped message")
			assert.Empty(t, p.deletes)
		})
	}
}

func TestRelayResendsByFileID(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	o := newTestOrchestrator(p, nil, nil)

	o.Relay(context.Background(), RelayTap{CallbackID: "cb", LanguageCode: "ru", Data: "send--100123", VideoNoteFileID: "note-1"})

	require.Len(t, p.resends, 1)
	assert.Equal(t, resend{chatID: -100123, fileID: "note-1"}, p.resends[0])
	assert.Empty(t, p.downloads, "relay does not re-download")
	assert.Equal(t, config.DefaultCatalog().For("ru").RelaySent, p.answers["cb"])
}

func TestRevert(t *testing.T) {
	t.Parallel()

	p := newFakePlatform()
	tr := &fakeTracker{}
	o := newTestOrchestrator(p, nil, tr)

	a := &Attempt{ChatID: 10, UserID: 7, Descriptor: media.Descriptor{FileID: "note-1"}}
	assert.Equal(t, OutcomeConverted, o.Revert(context.Background(), a))
	assert.Equal(t, []models.ChatAction{models.ChatActionUploadVideo}, p.actions)
	assert.Equal(t, 1, p.videos)
	assert.Empty(t, tr.events)

	p.sendVideoErr = errors.New("upload failed")
	assert.Equal(t, OutcomeConversionFailed, o.Revert(context.Background(), a))
	assert.Len(t, p.notices, 1)
	require.Len(t, tr.events, 1)
	assert.Equal(t, analytics.EventError, tr.events[0].name)
}

func TestOutcomeAndStateNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rejectedByValidator", OutcomeRejected.String())
	assert.Equal(t, "conversionFailed", OutcomeConversionFailed.String())
	assert.Equal(t, "offering", StateOffering.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, "relayFailed", RelayFailed.String())
}
