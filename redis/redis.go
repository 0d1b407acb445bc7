// Package redis publishes review decisions on a Redis pub/sub channel so
// other services can follow reviews as they happen. Nothing is stored.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wanderersguide/review-bot/review"
)

// DefaultChannel is the pub/sub channel decisions are published on.
const DefaultChannel = "content-update-decisions"

// Redis publishes decisions.
type Redis struct {
	Logger *slog.Logger

	cli     *redis.Client
	channel string
}

// Connect connects to the Redis server and pings the server to ensure the
// connection is working.
func Connect(ctx context.Context, logger *slog.Logger, addr, channel string) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(logger, cli, channel), nil
}

// New wraps an existing client.
func New(logger *slog.Logger, cli *redis.Client, channel string) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{
		Logger:  logger,
		cli:     cli,
		channel: channel,
	}
}

// event is the published form of a decision.
type event struct {
	MessageID string    `json:"discord_msg_id"`
	UserID    string    `json:"discord_user_id"`
	UserName  string    `json:"discord_user_name"`
	State     string    `json:"state"`
	DecidedAt time.Time `json:"decided_at"`
}

func encode(d review.Decision, at time.Time) ([]byte, error) {
	return json.Marshal(event{
		MessageID: d.MessageID,
		UserID:    d.UserID,
		UserName:  d.UserName,
		State:     string(d.Kind),
		DecidedAt: at.UTC(),
	})
}

// Relay publishes d. It reports whether the publish succeeded.
func (r *Redis) Relay(ctx context.Context, d review.Decision) bool {
	b, err := encode(d, time.Now())
	if err != nil {
		r.Logger.Error("Could not encode decision", "error", err.Error())
		return false
	}
	if err := r.cli.Publish(ctx, r.channel, b).Err(); err != nil {
		r.Logger.Error("Could not publish decision", "message_id", d.MessageID, "channel", r.channel, "error", err.Error())
		return false
	}
	return true
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.cli.Close()
}
