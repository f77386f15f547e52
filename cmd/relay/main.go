// Command relay runs the Telegram bot for the first active bot token: it
// long-polls updates, answers commands and records traffic in the shared
// store.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/config"
	"github.com/tbourn/go-telegram-gateway/internal/event"
	"github.com/tbourn/go-telegram-gateway/internal/gateway"
	"github.com/tbourn/go-telegram-gateway/internal/observability"
	"github.com/tbourn/go-telegram-gateway/internal/services"
	"github.com/tbourn/go-telegram-gateway/internal/store"
	"github.com/tbourn/go-telegram-gateway/internal/sysutil"
	"github.com/tbourn/go-telegram-gateway/internal/telegram"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		if errors.Is(err, gateway.ErrNoActiveBotToken) {
			log.Error().Msg("no active bot token found; add one in the dashboard and restart")
		} else {
			log.Error().Err(err).Msg("relay exited with error")
		}
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, "relay")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(sctx)
	}()

	st, err := store.OpenConfigured(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	pub := event.NewPublisher(cfg.NATSURL)
	defer pub.Close()

	// Long polls hold the request open for PollTimeout seconds.
	pollWait := time.Duration(cfg.Telegram.PollTimeout) * time.Second
	dialer := telegram.NewDialer(cfg.Telegram.Timeout+pollWait, cfg.Telegram.Debug)
	dial := func(ctx context.Context, token string) (gateway.Bot, error) {
		c, err := dialer.Dial(ctx, token)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	gw := gateway.New(st, services.NewLogService(st, pub), dial, cfg.Telegram.PollTimeout)
	return gw.Run(ctx)
}
