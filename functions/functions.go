// Package functions relays review decisions to a Supabase Edge Function.
package functions

import (
	"context"
	"log/slog"
	"strings"

	supafn "github.com/supabase-community/functions-go"
	"github.com/wanderersguide/review-bot/review"
)

// DefaultFunction is the name of the backend function that records decisions.
const DefaultFunction = "update-content-update"

// Client invokes a named edge function for every decision.
type Client struct {
	Logger *slog.Logger

	cli      *supafn.Client
	function string
	secret   string
}

// New returns a Client for the project at baseURL. key authenticates to the
// project; secret is the shared relay secret sent in every payload.
func New(logger *slog.Logger, baseURL, key, function, secret string) *Client {
	if function == "" {
		function = DefaultFunction
	}
	url := strings.TrimSuffix(baseURL, "/") + "/functions/v1"
	return &Client{
		Logger:   logger,
		cli:      supafn.NewClient(url, key, map[string]string{"apikey": key}),
		function: function,
		secret:   secret,
	}
}

// payload is the request body of the decision function.
type payload struct {
	AuthToken       string `json:"auth_token"`
	DiscordMsgID    string `json:"discord_msg_id"`
	DiscordUserID   string `json:"discord_user_id"`
	DiscordUserName string `json:"discord_user_name"`
	State           string `json:"state"`
}

// Relay sends d to the backend. It reports true when the function returned
// a payload. Failures are logged and never retried. The functions client
// takes no context, so ctx is not observed.
func (c *Client) Relay(_ context.Context, d review.Decision) bool {
	data, err := c.cli.Invoke(c.function, payload{
		AuthToken:       c.secret,
		DiscordMsgID:    d.MessageID,
		DiscordUserID:   d.UserID,
		DiscordUserName: d.UserName,
		State:           string(d.Kind),
	})
	if err != nil {
		c.Logger.Error("Could not update content update", "message_id", d.MessageID, "state", string(d.Kind), "error", err.Error())
		return false
	}
	c.Logger.Debug("Content update response", "message_id", d.MessageID, "body", data)
	data = strings.TrimSpace(data)
	return data != "" && data != "null"
}
