package slack

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type received struct {
	channel, user, text string
}

func newTestHandler() (*Handler, *[]received) {
	var got []received
	h := NewHandler(testSecret, func(channelID, userID, text string) {
		got = append(got, received{channelID, userID, text})
	})
	h.dispatch = func(f func()) { f() } // synchronous for tests
	return h, &got
}

func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader([]byte(body)))

	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte("v0:" + ts + ":" + body))

	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestChallengeEchoedWithoutTurn(t *testing.T) {
	h, got := newTestHandler()

	body := `{"type": "url_verification", "token": "tok", "challenge": "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P", rec.Body.String())
	require.Empty(t, *got)
}

func TestUserMessageDispatched(t *testing.T) {
	h, got := newTestHandler()

	body := `{
		"type": "event_callback",
		"team_id": "T123",
		"event": {"type": "message", "team": "T123", "user": "U42", "channel": "C1", "text": "list issues for octocat/hello-world"}
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"received"}`, rec.Body.String())
	require.Equal(t, []received{{"C1", "U42", "list issues for octocat/hello-world"}}, *got)
}

func TestBotEventFiltered(t *testing.T) {
	h, got := newTestHandler()

	body := `{
		"type": "event_callback",
		"event": {"type": "message", "bot_id": "B99", "user": "U42", "channel": "C1", "text": "echoed reply"}
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"received"}`, rec.Body.String())
	require.Empty(t, *got)
}

func TestMessageSubtypeFiltered(t *testing.T) {
	h, got := newTestHandler()

	body := `{
		"type": "event_callback",
		"event": {"type": "message", "subtype": "message_changed", "user": "U42", "channel": "C1", "text": "edited"}
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, *got)
}

func TestMissingFieldsAcknowledgedAndDropped(t *testing.T) {
	h, got := newTestHandler()

	body := `{
		"type": "event_callback",
		"event": {"type": "message", "user": "U42", "channel": "", "text": ""}
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, body))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, *got)
}

func TestBadSignatureRejected(t *testing.T) {
	h, got := newTestHandler()

	body := `{"type": "event_callback", "event": {"type": "message", "user": "U42", "channel": "C1", "text": "hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader([]byte(body)))
	req.Header.Set("X-Slack-Request-Timestamp", fmt.Sprintf("%d", time.Now().Unix()))
	req.Header.Set("X-Slack-Signature", "v0=deadbeef")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, *got)
}

func TestNonPostRejected(t *testing.T) {
	h, _ := newTestHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slack/events", nil))

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
