package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/telesco/internal/bot/handlers"
	"github.com/edgard/telesco/internal/delivery"
)

const testToken = "123456:TEST-token"

// apiCall is one request received by the fake Bot API.
type apiCall struct {
	method string
	form   map[string]string
	files  []string
}

// fakeAPI is a minimal Bot API server. Responses are keyed by method name;
// missing methods answer {"ok":true,"result":true}.
type fakeAPI struct {
	mu        sync.Mutex
	calls     []apiCall
	responses map[string]string
	fileBody  string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *bot.Bot) {
	t.Helper()

	api := &fakeAPI{responses: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)

	b, err := NewTelegramBot(testToken, nil, bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	return api, b
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/file/") {
		_, _ = io.WriteString(w, a.fileBody)
		return
	}

	call := apiCall{method: path.Base(r.URL.Path), form: map[string]string{}}
	if err := r.ParseMultipartForm(10 << 20); err == nil {
		for k, v := range r.MultipartForm.Value {
			call.form[k] = v[0]
		}
		for k := range r.MultipartForm.File {
			call.files = append(call.files, k)
		}
	}

	a.mu.Lock()
	a.calls = append(a.calls, call)
	body, ok := a.responses[call.method]
	a.mu.Unlock()

	if !ok {
		body = `{"ok":true,"result":true}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func (a *fakeAPI) last(method string) (apiCall, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := len(a.calls) - 1; i >= 0; i-- {
		if a.calls[i].method == method {
			return a.calls[i], true
		}
	}
	return apiCall{}, false
}

func messageJSON(chatID int64, messageID int, extra string) string {
	return fmt.Sprintf(`{"ok":true,"result":{"message_id":%d,"date":1700000000,"chat":{"id":%d,"type":"private"}%s}}`, messageID, chatID, extra)
}

func TestSendVideoNoteClassifiesReply(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)

	api.responses["sendVideoNote"] = messageJSON(10, 77, `,"video_note":{"file_id":"vn","file_unique_id":"u","length":240,"duration":3}`)
	sent, err := p.SendVideoNote(context.Background(), 10, []byte("data"), 240)
	require.NoError(t, err)
	assert.Equal(t, 77, sent.MessageID)
	assert.Equal(t, int64(10), sent.ChatID)
	assert.True(t, sent.IsVideoNote)

	call, ok := api.last("sendVideoNote")
	require.True(t, ok)
	assert.Equal(t, "240", call.form["length"])
	assert.Contains(t, call.files, "video_note")

	api.responses["sendVideoNote"] = messageJSON(10, 78, `,"video":{"file_id":"v","file_unique_id":"u","width":1,"height":1,"duration":3}`)
	sent, err = p.SendVideoNote(context.Background(), 10, []byte("data"), 0)
	require.NoError(t, err)
	assert.False(t, sent.IsVideoNote)
}

func TestSendVideoNoteEmptyResult(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)
	api.responses["sendVideoNote"] = `{"ok":true,"result":null}`

	sent, err := p.SendVideoNote(context.Background(), 10, []byte("data"), 240)
	assert.Nil(t, sent)
	assert.ErrorIs(t, err, delivery.ErrEmptyReply)
}

func TestResendVideoNoteUsesFileID(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)
	api.responses["sendVideoNote"] = messageJSON(-100, 5, `,"video_note":{"file_id":"vn","file_unique_id":"u","length":240,"duration":3}`)

	require.NoError(t, p.ResendVideoNote(context.Background(), -100, "vn"))

	call, ok := api.last("sendVideoNote")
	require.True(t, ok)
	assert.Equal(t, "vn", call.form["video_note"])
	assert.Equal(t, "-100", call.form["chat_id"])
	assert.Empty(t, call.files)
}

func TestResendVideoNoteForbidden(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)
	api.responses["sendVideoNote"] = `{"ok":false,"error_code":403,"description":"Forbidden: bot is not a member of the group chat"}`

	assert.Error(t, p.ResendVideoNote(context.Background(), -100, "vn"))
}

func TestDownloadFile(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)
	api.responses["getFile"] = `{"ok":true,"result":{"file_id":"f1","file_unique_id":"u1","file_size":5,"file_path":"videos/file_1.mp4"}}`
	api.fileBody = "bytes"

	data, err := p.DownloadFile(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)

	call, ok := api.last("getFile")
	require.True(t, ok)
	assert.Equal(t, "f1", call.form["file_id"])
}

func TestDownloadFileGetFileError(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)
	api.responses["getFile"] = `{"ok":false,"error_code":400,"description":"Bad Request: file is too big"}`

	_, err := p.DownloadFile(context.Background(), "f1")
	assert.Error(t, err)
}

func TestChatTitle(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)
	api.responses["getChat"] = `{"ok":true,"result":{"id":-100,"type":"supergroup","title":"Family","accent_color_id":0,"max_reaction_count":11}}`

	title, err := p.ChatTitle(context.Background(), -100)
	require.NoError(t, err)
	assert.Equal(t, "Family", title)

	api.responses["getChat"] = `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`
	_, err = p.ChatTitle(context.Background(), -100)
	assert.Error(t, err)
}

func TestNoticeKeyboardAndCallback(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	p := NewPlatform(b, time.Second, nil)
	api.responses["sendMessage"] = messageJSON(10, 1, "")
	api.responses["editMessageReplyMarkup"] = messageJSON(10, 77, "")

	require.NoError(t, p.SendNotice(context.Background(), 10, "*big*", models.ParseModeMarkdownV1))
	call, _ := api.last("sendMessage")
	assert.Equal(t, "Markdown", call.form["parse_mode"])
	assert.Equal(t, "*big*", call.form["text"])

	kb := &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{{{Text: "Family", CallbackData: "send-100"}}}}
	require.NoError(t, p.AttachKeyboard(context.Background(), 10, 77, kb))
	call, _ = api.last("editMessageReplyMarkup")
	assert.Equal(t, "77", call.form["message_id"])
	assert.Contains(t, call.form["reply_markup"], "send-100")

	require.NoError(t, p.AnswerCallback(context.Background(), "cb-1", "Sent"))
	call, _ = api.last("answerCallbackQuery")
	assert.Equal(t, "cb-1", call.form["callback_query_id"])
	assert.Equal(t, "Sent", call.form["text"])

	require.NoError(t, p.SendChatAction(context.Background(), 10, models.ChatActionRecordVideoNote))
	call, _ = api.last("sendChatAction")
	assert.Equal(t, "record_video_note", call.form["action"])

	require.NoError(t, p.DeleteMessage(context.Background(), 10, 77))
	_, ok := api.last("deleteMessage")
	assert.True(t, ok)
}

func TestNewTelegramBotRequiresToken(t *testing.T) {
	t.Parallel()

	_, err := NewTelegramBot("", nil)
	assert.Error(t, err)
}

func TestPublishCommandsListsDescribedCommands(t *testing.T) {
	t.Parallel()

	api, b := newFakeAPI(t)
	noop := func(context.Context, *bot.Bot, *models.Update) {}
	registered := map[string]handlers.RegisteredHandler{
		"/start": {HandlerType: bot.HandlerTypeMessageText, Pattern: "start", Handler: noop, Description: "Start the bot"},
		"/help":  {HandlerType: bot.HandlerTypeMessageText, Pattern: "help", Handler: noop, Description: "Help"},
		"/stats": {HandlerType: bot.HandlerTypeMessageText, Pattern: "stats", Handler: noop},
		"relay":  {HandlerType: bot.HandlerTypeCallbackQueryData, Pattern: "send-", Handler: noop, Description: "ignored"},
	}

	require.NoError(t, PublishCommands(context.Background(), b, registered))

	call, ok := api.last("setMyCommands")
	require.True(t, ok)
	var commands []models.BotCommand
	require.NoError(t, json.Unmarshal([]byte(call.form["commands"]), &commands))
	assert.Equal(t, []models.BotCommand{
		{Command: "help", Description: "Help"},
		{Command: "start", Description: "Start the bot"},
	}, commands)
}
