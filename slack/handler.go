package slack

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	slacklib "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// MessageHandler receives one inbound user message. It runs detached from
// the request/response cycle; failures are the handler's to log.
type MessageHandler func(channelID, userID, text string)

// Handler is the Events API endpoint. It verifies the request signature,
// answers URL-verification handshakes, drops bot-originated events, and
// hands user messages to the MessageHandler without blocking the ack.
type Handler struct {
	signingSecret string
	onMessage     MessageHandler
	dispatch      func(func())
}

func NewHandler(signingSecret string, onMessage MessageHandler) *Handler {
	return &Handler{
		signingSecret: signingSecret,
		onMessage:     onMessage,
		dispatch:      func(f func()) { go f() },
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	verifier, err := slacklib.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		log.Printf("[slack] failed to create secrets verifier: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := verifier.Write(body); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := verifier.Ensure(); err != nil {
		log.Printf("[slack] signature verification failed: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		// Signed but unparseable: acknowledge so Slack stops retrying.
		log.Printf("[slack] dropping unparseable event: %v", err)
		h.acknowledge(w)
		return
	}

	if event.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))
		return
	}

	if event.Type == slackevents.CallbackEvent {
		h.handleCallback(event)
	}

	h.acknowledge(w)
}

func (h *Handler) handleCallback(event slackevents.EventsAPIEvent) {
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Bot messages and message subtypes (edits, joins, bot_message)
		// never start a turn; replying to ourselves would loop forever.
		if ev.BotID != "" || ev.SubType != "" {
			return
		}
		if ev.Channel == "" || ev.Text == "" {
			log.Printf("[slack] dropping message event with missing fields (channel=%q)", ev.Channel)
			return
		}
		h.dispatch(func() { h.onMessage(ev.Channel, ev.User, ev.Text) })

	case *slackevents.AppMentionEvent:
		if ev.BotID != "" {
			return
		}
		h.dispatch(func() { h.onMessage(ev.Channel, ev.User, ev.Text) })

	default:
		log.Printf("[slack] ignoring inner event type %T", event.InnerEvent.Data)
	}
}

func (h *Handler) acknowledge(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"received"}`))
}
