// Package bot relays Slack messages through the agent and posts the
// answer back to the originating channel.
package bot

import (
	"context"
	"log"

	"github.com/hackbay/sembot/agent"
)

const fallbackReply = "I couldn't complete that request. Please try again."

// Agent is the turn orchestrator the bot drives.
type Agent interface {
	SessionFor(ctx context.Context, key string) (*agent.Session, error)
	Execute(ctx context.Context, session *agent.Session, prompt string) (string, error)
}

// Messenger posts replies to the chat platform.
type Messenger interface {
	PostMessage(channelID, text string) error
}

type Bot struct {
	agent     Agent
	messenger Messenger
}

func New(a Agent, m Messenger) *Bot {
	return &Bot{agent: a, messenger: m}
}

// HandleMessage runs one conversational turn for a channel and posts the
// result there. It is invoked detached from the inbound HTTP ack, so every
// failure ends up either in the channel or in the log, never as an HTTP
// error.
func (b *Bot) HandleMessage(channelID, userID, text string) {
	ctx := context.Background()

	session, err := b.agent.SessionFor(ctx, channelID)
	if err != nil {
		log.Printf("[bot] failed to open session channel=%s user=%s: %v", channelID, userID, err)
		b.reply(channelID, fallbackReply)
		return
	}

	answer, err := b.agent.Execute(ctx, session, text)
	if err != nil {
		log.Printf("[bot] turn failed channel=%s user=%s: %v", channelID, userID, err)
		b.reply(channelID, fallbackReply)
		return
	}

	log.Printf("[bot] turn completed channel=%s user=%s", channelID, userID)
	b.reply(channelID, answer)
}

func (b *Bot) reply(channelID, text string) {
	if err := b.messenger.PostMessage(channelID, text); err != nil {
		log.Printf("[bot] failed to post reply channel=%s: %v", channelID, err)
	}
}
