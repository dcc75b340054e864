package slack

import (
	"fmt"

	slacklib "github.com/slack-go/slack"
)

type Client struct {
	api *slacklib.Client
}

func NewClient(botToken string) *Client {
	return &Client{api: slacklib.New(botToken)}
}

func (c *Client) PostMessage(channelID, text string) error {
	_, _, err := c.api.PostMessage(channelID, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

// GetUserIDByEmail resolves a workspace member's user ID from their email.
func (c *Client) GetUserIDByEmail(email string) (string, error) {
	user, err := c.api.GetUserByEmail(email)
	if err != nil {
		return "", fmt.Errorf("failed to look up user by email: %w", err)
	}
	return user.ID, nil
}
