// Command reviewbot posts content update proposals to Discord and relays
// reviewer reactions to the backend.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wanderersguide/review-bot/api"
	"github.com/wanderersguide/review-bot/api/validator"
	"github.com/wanderersguide/review-bot/config"
	"github.com/wanderersguide/review-bot/discord"
	"github.com/wanderersguide/review-bot/functions"
	"github.com/wanderersguide/review-bot/postgres"
	"github.com/wanderersguide/review-bot/redis"
	"github.com/wanderersguide/review-bot/review"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Exiting", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay, closeRelay, err := setupRelay(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closeRelay()

	// The session must be open before any channel operation.
	dc, err := discord.Connect(logger, cfg.DiscordToken)
	if err != nil {
		return err
	}
	defer dc.Close()

	normalizer := &review.Normalizer{
		Logger:         logger,
		Platform:       dc,
		Relay:          relay,
		ReviewerRoleID: cfg.RoleID,
	}
	removeHandler := dc.Listen(ctx, normalizer)
	defer removeHandler()

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: &api.API{
			Logger: logger,
			Val:    validator.New(),
			Poster: &review.Poster{
				Logger:    logger,
				Sender:    dc,
				ChannelID: cfg.ChannelID,
				LinkBase:  cfg.LinkBase,
			},
		},
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// setupRelay builds the decision relay: the configured backend, mirrored to
// Redis when REDIS_ADDR is set.
func setupRelay(ctx context.Context, logger *slog.Logger, cfg config.Config) (review.Relay, func(), error) {
	var (
		primary review.Relay
		closers []func() error
	)

	switch cfg.RelayBackend {
	case config.BackendPostgres:
		pg, err := postgres.Connect(ctx, logger, cfg.DatabaseURL, cfg.RelayFunction, cfg.RelaySecret)
		if err != nil {
			return nil, nil, err
		}
		primary = pg
		closers = append(closers, pg.Close)
	default:
		primary = functions.New(logger, cfg.SupabaseURL, cfg.SupabaseKey, cfg.RelayFunction, cfg.RelaySecret)
	}

	tee := review.Tee{Primary: primary}
	if cfg.RedisAddr != "" {
		rd, err := redis.Connect(ctx, logger, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			for _, c := range closers {
				_ = c()
			}
			return nil, nil, err
		}
		tee.Mirrors = append(tee.Mirrors, rd)
		closers = append(closers, rd.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Error("Could not close relay", "error", err.Error())
			}
		}
	}
	return tee, closeAll, nil
}
