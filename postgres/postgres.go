// Package postgres relays review decisions by calling the backend's decision
// routine directly in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/wanderersguide/review-bot/review"
)

// Postgres invokes a stored function for every decision. The function owns
// all decision storage; nothing is written here.
type Postgres struct {
	Logger *slog.Logger

	bun      *bun.DB
	function string
	secret   string
}

// Connect connects to the database and ping the DB to ensure the connection is
// working.
func Connect(ctx context.Context, logger *slog.Logger, connStr, function, secret string) (*Postgres, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(logger, sqlDB, function, secret), nil
}

// New wraps an open database handle.
func New(logger *slog.Logger, sqlDB *sql.DB, function, secret string) *Postgres {
	return &Postgres{
		Logger:   logger,
		bun:      bun.NewDB(sqlDB, pgdialect.New()),
		function: function,
		secret:   secret,
	}
}

// Relay calls the decision routine as
// fn(auth_token, discord_msg_id, discord_user_id, discord_user_name, state).
// It reports true when the routine returned a non-null result.
func (pg *Postgres) Relay(ctx context.Context, d review.Decision) bool {
	var out sql.NullString
	err := pg.bun.NewRaw("SELECT ?0(?1, ?2, ?3, ?4, ?5)::text",
		bun.Ident(pg.function), pg.secret, d.MessageID, d.UserID, d.UserName, string(d.Kind),
	).Scan(ctx, &out)
	if err != nil {
		pg.Logger.Error("Could not update content update", "message_id", d.MessageID, "state", string(d.Kind), "error", err.Error())
		return false
	}
	pg.Logger.Debug("Content update response", "message_id", d.MessageID, "body", out.String)
	return out.Valid && out.String != ""
}

// Close closes the database.
func (pg *Postgres) Close() error {
	return pg.bun.Close()
}
