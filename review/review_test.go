package review

import (
	"context"
	"errors"
	"slices"
	"sync"
)

const (
	botID     = "bot"
	channelID = "chan"
	guildID   = "guild"
	roleID    = "reviewer"
)

// fakePlatform is an in-memory chat platform. Reactions per message are the
// only mutable state, as on the real platform.
type fakePlatform struct {
	mu sync.Mutex

	channel    Channel
	channelErr error
	messages   map[string]Message
	users      map[string]User
	reviewers  map[string]bool
	reactions  map[string][]Reaction

	sendErr     error
	addErr      error
	removeErr   error
	listErr     error
	userErr     error
	roleErr     error
	nextMessage string

	sent       []string
	listCalls  int
	emojiCalls int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channel:     Channel{ID: channelID, TextBased: true},
		messages:    map[string]Message{},
		users:       map[string]User{},
		reviewers:   map[string]bool{},
		reactions:   map[string][]Reaction{},
		nextMessage: "m1",
	}
}

// card registers a message authored by authorID carrying reactions.
func (f *fakePlatform) card(id, authorID string, reactions ...Reaction) {
	f.messages[id] = Message{ID: id, ChannelID: channelID, AuthorID: authorID}
	f.reactions[id] = reactions
}

func (f *fakePlatform) SelfID() string { return botID }

func (f *fakePlatform) Channel(_ context.Context, id string) (Channel, error) {
	if f.channelErr != nil {
		return Channel{}, f.channelErr
	}
	return f.channel, nil
}

func (f *fakePlatform) SendMessage(_ context.Context, chID, content string) (Message, error) {
	if f.sendErr != nil {
		return Message{}, f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, content)
	msg := Message{ID: f.nextMessage, ChannelID: chID, AuthorID: botID}
	f.messages[msg.ID] = msg
	return msg, nil
}

func (f *fakePlatform) AddReaction(_ context.Context, _, messageID string, e Emoji) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = append(f.reactions[messageID], Reaction{Emoji: e, UserID: botID})
	return nil
}

func (f *fakePlatform) Message(_ context.Context, _, messageID string) (Message, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return Message{}, errors.New("unknown message")
	}
	return msg, nil
}

func (f *fakePlatform) User(_ context.Context, userID string) (User, error) {
	if f.userErr != nil {
		return User{}, f.userErr
	}
	u, ok := f.users[userID]
	if !ok {
		return User{}, errors.New("unknown user")
	}
	return u, nil
}

func (f *fakePlatform) HasRole(_ context.Context, gID, userID, rID string) (bool, error) {
	if f.roleErr != nil {
		return false, f.roleErr
	}
	return gID == guildID && rID == roleID && f.reviewers[userID], nil
}

func (f *fakePlatform) ListReactions(_ context.Context, _, messageID string) ([]Reaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return slices.Clone(f.reactions[messageID]), nil
}

func (f *fakePlatform) HasEmoji(_ context.Context, _, messageID string, e Emoji) (bool, error) {
	if f.listErr != nil {
		return false, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emojiCalls++
	return slices.ContainsFunc(f.reactions[messageID], func(r Reaction) bool { return r.Emoji == e }), nil
}

func (f *fakePlatform) RemoveReaction(_ context.Context, _, messageID string, e Emoji, userID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = slices.DeleteFunc(f.reactions[messageID], func(r Reaction) bool {
		return r.Emoji == e && r.UserID == userID
	})
	return nil
}

func (f *fakePlatform) RemoveEmoji(_ context.Context, _, messageID string, e Emoji) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = slices.DeleteFunc(f.reactions[messageID], func(r Reaction) bool {
		return r.Emoji == e
	})
	return nil
}

// testrelay records every decision it is given.
type testrelay struct {
	mu        sync.Mutex
	ok        bool
	decisions []Decision
}

func (r *testrelay) Relay(_ context.Context, d Decision) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, d)
	return r.ok
}
