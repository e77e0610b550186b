package notify

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/clientadmin/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	path string
	form url.Values
}

func newFakeTelegram(t *testing.T, status int, body string) (*httptest.Server, *[]sentMessage) {
	t.Helper()
	var mu sync.Mutex
	var sent []sentMessage

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(raw))

		mu.Lock()
		sent = append(sent, sentMessage{path: r.URL.Path, form: form})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts, &sent
}

const okReply = `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`

func TestTelegramNotifier_SendsMessage(t *testing.T) {
	ts, sent := newFakeTelegram(t, http.StatusOK, okReply)

	var buf bytes.Buffer
	n := NewTelegramNotifier(TelegramOptions{
		Token:   "123:abc",
		ChatID:  "-1001",
		BaseURL: ts.URL + "/",
	}, logging.NewJSONLogger(&buf, slog.LevelDebug))

	n.Notify(context.Background(), "✅ users.json saved")

	require.Len(t, *sent, 1)
	got := (*sent)[0]
	assert.Equal(t, "/bot123:abc/sendMessage", got.path)
	assert.Equal(t, "-1001", got.form.Get("chat_id"))
	assert.Equal(t, "✅ users.json saved", got.form.Get("text"))
	assert.NotContains(t, buf.String(), "notification failed")
}

func TestTelegramNotifier_ChannelUsername(t *testing.T) {
	ts, sent := newFakeTelegram(t, http.StatusOK, okReply)

	n := NewTelegramNotifier(TelegramOptions{Token: "t", ChatID: "@ops", BaseURL: ts.URL}, logging.Discard())
	n.Notify(context.Background(), "hi")

	require.Len(t, *sent, 1)
	assert.Equal(t, "@ops", (*sent)[0].form.Get("chat_id"))
}

func TestTelegramNotifier_FailureIsLoggedOnly(t *testing.T) {
	ts, sent := newFakeTelegram(t, http.StatusBadRequest,
		`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)

	var buf bytes.Buffer
	n := NewTelegramNotifier(TelegramOptions{Token: "t", ChatID: "1", BaseURL: ts.URL},
		logging.NewJSONLogger(&buf, slog.LevelDebug))

	n.Notify(context.Background(), "❌ save failed")

	assert.Len(t, *sent, 1)
	assert.Contains(t, buf.String(), "notification failed")
	assert.Contains(t, buf.String(), "notify error")
}

func TestTelegramNotifier_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(ts.Close)

	var buf bytes.Buffer
	n := NewTelegramNotifier(TelegramOptions{
		Token: "t", ChatID: "1", BaseURL: ts.URL, Timeout: 50 * time.Millisecond,
	}, logging.NewJSONLogger(&buf, slog.LevelDebug))

	start := time.Now()
	n.Notify(context.Background(), "slow")

	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, buf.String(), "notification failed")
}

func TestTelegramNotifier_Unreachable(t *testing.T) {
	var buf bytes.Buffer
	n := NewTelegramNotifier(TelegramOptions{Token: "t", ChatID: "1", BaseURL: "http://127.0.0.1:1"},
		logging.NewJSONLogger(&buf, slog.LevelDebug))

	assert.NotPanics(t, func() { n.Notify(context.Background(), "x") })
	assert.Contains(t, buf.String(), "notification failed")
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	n.Notify(context.Background(), "ignored")
}
