package review

import (
	"context"
	"log/slog"
)

// A ReactionStore exposes the live reaction set of a message. The reaction
// set is the only state a review has.
type ReactionStore interface {
	ListReactions(ctx context.Context, channelID, messageID string) ([]Reaction, error)
	// HasEmoji reports whether anyone reacted with emoji.
	HasEmoji(ctx context.Context, channelID, messageID string, emoji Emoji) (bool, error)
	// RemoveReaction removes one user's reaction.
	RemoveReaction(ctx context.Context, channelID, messageID string, emoji Emoji, userID string) error
	// RemoveEmoji removes every reaction of the given emoji.
	RemoveEmoji(ctx context.Context, channelID, messageID string, emoji Emoji) error
}

// A Platform is the chat platform as seen by the normalizer.
type Platform interface {
	ReactionStore

	// SelfID returns the bot's own user id.
	SelfID() string
	Message(ctx context.Context, channelID, messageID string) (Message, error)
	User(ctx context.Context, userID string) (User, error)
	HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error)
}

// A Relay forwards decisions to the backend. It reports whether the backend
// acknowledged the decision.
type Relay interface {
	Relay(ctx context.Context, d Decision) bool
}

// Normalizer turns raw reaction events on review cards into decisions.
type Normalizer struct {
	Logger   *slog.Logger
	Platform Platform
	Relay    Relay
	// ReviewerRoleID gates approve and reject.
	ReviewerRoleID string
}

// HandleReactionAdd processes one reaction-add event. It returns the relayed
// decision and true, or false when the event produced no decision.
func (n *Normalizer) HandleReactionAdd(ctx context.Context, ev ReactionEvent) (Decision, bool) {
	if ev.UserID == n.Platform.SelfID() || (ev.User != nil && ev.User.Bot) {
		return Decision{}, false
	}

	msg, err := n.Platform.Message(ctx, ev.ChannelID, ev.MessageID)
	if err != nil {
		n.Logger.Error("Could not fetch message", "message_id", ev.MessageID, "error", err.Error())
		return Decision{}, false
	}
	if msg.AuthorID != n.Platform.SelfID() {
		return Decision{}, false
	}

	switch ev.Emoji {
	case EmojiApprove:
		return n.binary(ctx, ev, msg, KindApprove, EmojiReject)
	case EmojiReject:
		return n.binary(ctx, ev, msg, KindReject, EmojiApprove)
	case EmojiUpvote:
		return n.tally(ctx, ev, msg, KindUpvote, EmojiDownvote)
	case EmojiDownvote:
		return n.tally(ctx, ev, msg, KindDownvote, EmojiUpvote)
	}
	return Decision{}, false
}

// binary handles approve and reject. Authorized reviewers replace the opposite
// verdict; anyone else has their reaction retracted.
func (n *Normalizer) binary(ctx context.Context, ev ReactionEvent, msg Message, kind Kind, opposite Emoji) (Decision, bool) {
	user, ok := n.resolveUser(ctx, ev)
	if !ok {
		return Decision{}, false
	}

	if !n.authorized(ctx, ev) {
		if err := n.Platform.RemoveReaction(ctx, msg.ChannelID, msg.ID, ev.Emoji, user.ID); err != nil {
			n.Logger.Error("Could not retract reaction", "message_id", msg.ID, "user_id", user.ID, "error", err.Error())
		}
		n.Logger.Debug("Retracted unauthorized reaction", "message_id", msg.ID, "user_id", user.ID, "emoji", string(ev.Emoji))
		return Decision{}, false
	}

	present, err := n.Platform.HasEmoji(ctx, msg.ChannelID, msg.ID, opposite)
	if err != nil {
		n.Logger.Error("Could not list reactions", "message_id", msg.ID, "error", err.Error())
	}
	if present {
		if err := n.Platform.RemoveEmoji(ctx, msg.ChannelID, msg.ID, opposite); err != nil {
			n.Logger.Error("Could not remove opposing reaction", "message_id", msg.ID, "emoji", string(opposite), "error", err.Error())
		}
	}

	return n.emit(ctx, user, msg, kind)
}

// tally handles upvote and downvote. A user holds at most one of the two.
func (n *Normalizer) tally(ctx context.Context, ev ReactionEvent, msg Message, kind Kind, opposite Emoji) (Decision, bool) {
	user, ok := n.resolveUser(ctx, ev)
	if !ok {
		return Decision{}, false
	}

	if n.present(ctx, msg, func(r Reaction) bool { return r.Emoji == opposite && r.UserID == ev.UserID }) {
		if err := n.Platform.RemoveReaction(ctx, msg.ChannelID, msg.ID, opposite, ev.UserID); err != nil {
			n.Logger.Error("Could not remove opposing vote", "message_id", msg.ID, "user_id", ev.UserID, "emoji", string(opposite), "error", err.Error())
		}
	}

	return n.emit(ctx, user, msg, kind)
}

func (n *Normalizer) emit(ctx context.Context, user User, msg Message, kind Kind) (Decision, bool) {
	d := Decision{
		MessageID: msg.ID,
		UserID:    user.ID,
		UserName:  user.Name,
		Kind:      kind,
	}
	if !n.Relay.Relay(ctx, d) {
		n.Logger.Warn("Decision was not acknowledged", "message_id", d.MessageID, "state", string(d.Kind))
	}
	return d, true
}

func (n *Normalizer) authorized(ctx context.Context, ev ReactionEvent) bool {
	ok, err := n.Platform.HasRole(ctx, ev.GuildID, ev.UserID, n.ReviewerRoleID)
	if err != nil {
		n.Logger.Warn("Could not look up member roles", "user_id", ev.UserID, "error", err.Error())
		return false
	}
	return ok
}

// present reports whether any reaction on msg matches. A listing failure is
// logged and reported as absent.
func (n *Normalizer) present(ctx context.Context, msg Message, match func(Reaction) bool) bool {
	reactions, err := n.Platform.ListReactions(ctx, msg.ChannelID, msg.ID)
	if err != nil {
		n.Logger.Error("Could not list reactions", "message_id", msg.ID, "error", err.Error())
		return false
	}
	for _, r := range reactions {
		if match(r) {
			return true
		}
	}
	return false
}

func (n *Normalizer) resolveUser(ctx context.Context, ev ReactionEvent) (User, bool) {
	if ev.User != nil {
		return *ev.User, true
	}
	u, err := n.Platform.User(ctx, ev.UserID)
	if err != nil {
		n.Logger.Error("Could not fetch user", "user_id", ev.UserID, "error", err.Error())
		return User{}, false
	}
	return u, true
}
