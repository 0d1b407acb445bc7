package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedAction is returned for proposals that are not UPDATE actions.
	ErrUnsupportedAction = errors.New("unsupported action")
	// ErrChannelUnavailable is returned when the review channel cannot be
	// resolved or cannot hold text messages.
	ErrChannelUnavailable = errors.New("review channel unavailable")
)

// A Sender posts messages and reactions to the chat platform.
type Sender interface {
	Channel(ctx context.Context, channelID string) (Channel, error)
	SendMessage(ctx context.Context, channelID, content string) (Message, error)
	AddReaction(ctx context.Context, channelID, messageID string, emoji Emoji) error
}

// Poster renders proposals as review cards in the review channel.
type Poster struct {
	Logger    *slog.Logger
	Sender    Sender
	ChannelID string
	// LinkBase, when set, adds a "<LinkBase>/<update id>" line to each card.
	LinkBase string
}

// Post sends the review card for p and returns the id of the new message.
// The message id is the key downstream systems use for the review record.
func (p *Poster) Post(ctx context.Context, prop Proposal) (string, error) {
	ch, err := p.Sender.Channel(ctx, p.ChannelID)
	if err != nil {
		return "", fmt.Errorf("fetch channel: %w: %w", ErrChannelUnavailable, err)
	}
	if !ch.TextBased {
		return "", ErrChannelUnavailable
	}

	if prop.Update.Action != ActionUpdate {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAction, prop.Update.Action)
	}

	msg, err := p.Sender.SendMessage(ctx, ch.ID, p.card(prop))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	p.adorn(ctx, msg)
	return msg.ID, nil
}

// adorn attaches the reviewer affordances to msg. Adornment is best effort:
// the message counts as posted once it is sent, so attach failures are only
// logged.
func (p *Poster) adorn(ctx context.Context, msg Message) {
	for _, e := range Affordances {
		if err := p.Sender.AddReaction(ctx, msg.ChannelID, msg.ID, e); err != nil {
			p.Logger.Error("Could not add reaction", "message_id", msg.ID, "emoji", string(e), "error", err.Error())
		}
	}
}

func (p *Poster) card(prop Proposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Update Request from %s (#%s)**\n", prop.Username, prop.Update.UserID)
	fmt.Fprintf(&b, "> _To change `%s` from the %s._", prop.Update.ObjectName(), prop.Source)
	if p.LinkBase != "" {
		b.WriteString("\n> " + strings.TrimSuffix(p.LinkBase, "/") + "/" + strconv.Itoa(prop.Update.ID))
	}
	return b.String()
}
