// Package discord adapts a discordgo session to the review platform
// interfaces and feeds reaction events to the normalizer.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/wanderersguide/review-bot/review"
)

// Intents are the gateway intents the bot needs.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions

// reactionPageSize is the largest page the reactions endpoint returns.
const reactionPageSize = 100

// Discord is a logged-in bot session.
type Discord struct {
	Logger *slog.Logger

	s *discordgo.Session
}

// Connect logs in with token and opens the gateway. The session's own user
// is known once Connect returns.
func Connect(logger *slog.Logger, token string) (*Discord, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.Identify.Intents = Intents
	s.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		logger.Info("Ready", "user", r.User.String())
	})
	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("open gateway: %w", err)
	}
	return &Discord{Logger: logger, s: s}, nil
}

// Close closes the gateway connection.
func (d *Discord) Close() error {
	return d.s.Close()
}

// A Handler consumes reaction events.
type Handler interface {
	HandleReactionAdd(ctx context.Context, ev review.ReactionEvent) (review.Decision, bool)
}

// Listen dispatches reaction-add events to h until the returned function is
// called. discordgo runs each event on its own goroutine.
func (d *Discord) Listen(ctx context.Context, h Handler) (remove func()) {
	return d.s.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		h.HandleReactionAdd(ctx, reactionEvent(r))
	})
}

func reactionEvent(r *discordgo.MessageReactionAdd) review.ReactionEvent {
	ev := review.ReactionEvent{
		Emoji:     review.Emoji(r.Emoji.Name),
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		GuildID:   r.GuildID,
	}
	if r.Member != nil && r.Member.User != nil {
		u := user(r.Member.User)
		ev.User = &u
	}
	return ev
}

func user(u *discordgo.User) review.User {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	return review.User{ID: u.ID, Name: name, Bot: u.Bot}
}

// textBased reports whether messages can be sent to channels of type t.
func textBased(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildStageVoice,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	}
	return false
}

// SelfID returns the bot's user id.
func (d *Discord) SelfID() string {
	if d.s.State == nil || d.s.State.User == nil {
		return ""
	}
	return d.s.State.User.ID
}

func (d *Discord) Channel(ctx context.Context, channelID string) (review.Channel, error) {
	ch, err := d.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return review.Channel{}, fmt.Errorf("channel: %w", err)
	}
	return review.Channel{ID: ch.ID, TextBased: textBased(ch.Type)}, nil
}

func (d *Discord) SendMessage(ctx context.Context, channelID, content string) (review.Message, error) {
	m, err := d.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return review.Message{}, fmt.Errorf("send: %w", err)
	}
	return message(m), nil
}

func (d *Discord) AddReaction(ctx context.Context, channelID, messageID string, emoji review.Emoji) error {
	if err := d.s.MessageReactionAdd(channelID, messageID, string(emoji), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("react: %w", err)
	}
	return nil
}

func (d *Discord) Message(ctx context.Context, channelID, messageID string) (review.Message, error) {
	m, err := d.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return review.Message{}, fmt.Errorf("fetch message: %w", err)
	}
	return message(m), nil
}

func message(m *discordgo.Message) review.Message {
	msg := review.Message{ID: m.ID, ChannelID: m.ChannelID}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	return msg
}

func (d *Discord) User(ctx context.Context, userID string) (review.User, error) {
	u, err := d.s.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return review.User{}, fmt.Errorf("fetch user: %w", err)
	}
	return user(u), nil
}

// HasRole reports whether the guild member holds roleID. The state cache is
// consulted first.
func (d *Discord) HasRole(ctx context.Context, guildID, userID, roleID string) (bool, error) {
	if guildID == "" {
		return false, errors.New("not a guild channel")
	}
	m, err := d.s.State.Member(guildID, userID)
	if err != nil {
		m, err = d.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return false, fmt.Errorf("fetch member: %w", err)
		}
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true, nil
		}
	}
	return false, nil
}

// ListReactions returns every (emoji, user) pair on the message.
func (d *Discord) ListReactions(ctx context.Context, channelID, messageID string) ([]review.Reaction, error) {
	m, err := d.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}

	var out []review.Reaction
	for _, mr := range m.Reactions {
		if mr.Emoji == nil {
			continue
		}
		after := ""
		for {
			users, err := d.s.MessageReactions(channelID, messageID, mr.Emoji.APIName(), reactionPageSize, "", after, discordgo.WithContext(ctx))
			if err != nil {
				return nil, fmt.Errorf("list %s reactions: %w", mr.Emoji.Name, err)
			}
			for _, u := range users {
				out = append(out, review.Reaction{Emoji: review.Emoji(mr.Emoji.Name), UserID: u.ID})
			}
			if len(users) < reactionPageSize {
				break
			}
			after = users[len(users)-1].ID
		}
	}
	return out, nil
}

// HasEmoji reports whether the message carries at least one emoji reaction.
// It reads the counts on the message and does not page through users.
func (d *Discord) HasEmoji(ctx context.Context, channelID, messageID string, emoji review.Emoji) (bool, error) {
	m, err := d.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("fetch message: %w", err)
	}
	for _, mr := range m.Reactions {
		if mr.Emoji != nil && review.Emoji(mr.Emoji.Name) == emoji && mr.Count > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (d *Discord) RemoveReaction(ctx context.Context, channelID, messageID string, emoji review.Emoji, userID string) error {
	if err := d.s.MessageReactionRemove(channelID, messageID, string(emoji), userID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove reaction: %w", err)
	}
	return nil
}

func (d *Discord) RemoveEmoji(ctx context.Context, channelID, messageID string, emoji review.Emoji) error {
	if err := d.s.MessageReactionsRemoveEmoji(channelID, messageID, string(emoji), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("remove reactions: %w", err)
	}
	return nil
}
