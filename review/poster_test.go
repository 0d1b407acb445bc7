package review

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/neilotoole/slogt"
)

func TestContentUpdate_ObjectName(t *testing.T) {
	tests := []struct {
		name   string
		update ContentUpdate
		want   string
	}{
		{
			name:   "Name",
			update: ContentUpdate{Type: "spell", Data: map[string]any{"name": "Fireball"}},
			want:   "Fireball",
		},
		{
			name:   "NilData",
			update: ContentUpdate{Type: "spell"},
			want:   "spell",
		},
		{
			name:   "EmptyName",
			update: ContentUpdate{Type: "item", Data: map[string]any{"name": ""}},
			want:   "item",
		},
		{
			name:   "NonStringName",
			update: ContentUpdate{Type: "creature", Data: map[string]any{"name": 12}},
			want:   "creature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.update.ObjectName(); got != tt.want {
				t.Errorf("Got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPoster_Post(t *testing.T) {
	fireball := Proposal{
		Username: "alice",
		Source:   "web form",
		Update: ContentUpdate{
			ID:     8,
			UserID: "42",
			Type:   "spell",
			Action: ActionUpdate,
			Data:   map[string]any{"name": "Fireball"},
		},
	}

	tests := []struct {
		name          string
		platform      func(*fakePlatform)
		proposal      Proposal
		linkBase      string
		wantErr       error
		wantID        string
		wantContent   []string
		wantReactions []Reaction
	}{
		{
			name:     "OK",
			proposal: fireball,
			wantID:   "m1",
			wantContent: []string{
				"Update Request from alice (#42)",
				"Fireball",
				"from the web form",
			},
			wantReactions: []Reaction{
				{Emoji: EmojiApprove, UserID: botID},
				{Emoji: EmojiReject, UserID: botID},
				{Emoji: EmojiUpvote, UserID: botID},
				{Emoji: EmojiDownvote, UserID: botID},
			},
		},
		{
			name:        "Link",
			proposal:    fireball,
			linkBase:    "https://wanderersguide.app/content-update/",
			wantID:      "m1",
			wantContent: []string{"> https://wanderersguide.app/content-update/8"},
		},
		{
			name:     "ChannelError",
			proposal: fireball,
			platform: func(f *fakePlatform) { f.channelErr = errors.New("unknown channel") },
			wantErr:  ErrChannelUnavailable,
		},
		{
			name:     "ChannelNotText",
			proposal: fireball,
			platform: func(f *fakePlatform) { f.channel.TextBased = false },
			wantErr:  ErrChannelUnavailable,
		},
		{
			name: "Delete",
			proposal: Proposal{
				Username: "alice",
				Update:   ContentUpdate{UserID: "42", Type: "spell", Action: ActionDelete},
			},
			wantErr: ErrUnsupportedAction,
		},
		{
			name: "Create",
			proposal: Proposal{
				Username: "alice",
				Update:   ContentUpdate{UserID: "42", Type: "spell", Action: ActionCreate},
			},
			wantErr: ErrUnsupportedAction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakePlatform()
			if tt.platform != nil {
				tt.platform(f)
			}
			p := &Poster{
				Logger:    slogt.New(t),
				Sender:    f,
				ChannelID: channelID,
				LinkBase:  tt.linkBase,
			}

			id, err := p.Post(context.Background(), tt.proposal)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Got error %v, want %v", err, tt.wantErr)
				}
				if len(f.sent) != 0 {
					t.Errorf("Got %d messages sent, want none", len(f.sent))
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if id != tt.wantID {
				t.Errorf("Got message id %q, want %q", id, tt.wantID)
			}
			if len(f.sent) != 1 {
				t.Fatalf("Got %d messages sent, want 1", len(f.sent))
			}
			for _, want := range tt.wantContent {
				if !strings.Contains(f.sent[0], want) {
					t.Errorf("Content %q does not contain %q", f.sent[0], want)
				}
			}
			if tt.wantReactions != nil {
				if diff := cmp.Diff(tt.wantReactions, f.reactions[id]); diff != "" {
					t.Errorf("Reactions mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestPoster_PostAdornmentFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	f := newFakePlatform()
	f.addErr = errors.New("rate limited")
	p := &Poster{
		Logger:    slog.New(slog.NewTextHandler(buf, nil)),
		Sender:    f,
		ChannelID: channelID,
	}

	id, err := p.Post(context.Background(), Proposal{
		Username: "alice",
		Update:   ContentUpdate{UserID: "42", Type: "spell", Action: ActionUpdate},
	})
	if err != nil {
		t.Fatalf("Got error %v, want message posted", err)
	}
	if id != "m1" {
		t.Errorf("Got message id %q, want m1", id)
	}
	if got := strings.Count(buf.String(), "Could not add reaction"); got != 4 {
		t.Errorf("Got %d adornment failures logged, want 4", got)
	}
}
