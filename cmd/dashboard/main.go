// Command dashboard serves the management API for bot credentials, settings,
// message logs and chats.
//
// @title       Telegram Gateway API
// @version     1.0
// @description Dashboard API for bot credentials, settings, message logs and chats.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-telegram-gateway/internal/config"
	"github.com/tbourn/go-telegram-gateway/internal/event"
	httpapi "github.com/tbourn/go-telegram-gateway/internal/http"
	"github.com/tbourn/go-telegram-gateway/internal/http/handlers"
	"github.com/tbourn/go-telegram-gateway/internal/observability"
	"github.com/tbourn/go-telegram-gateway/internal/services"
	"github.com/tbourn/go-telegram-gateway/internal/store"
	"github.com/tbourn/go-telegram-gateway/internal/sysutil"
	"github.com/tbourn/go-telegram-gateway/internal/telegram"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("dashboard exited with error")
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty, "dashboard")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	st, err := store.OpenConfigured(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	pub := event.NewPublisher(cfg.NATSURL)
	defer pub.Close()

	relay := services.TelegramRelay(telegram.NewDialer(cfg.Telegram.Timeout, cfg.Telegram.Debug))
	logs := services.NewLogService(st, pub)
	svcs := handlers.Services{
		Tokens:    services.NewBotTokenService(st),
		Settings:  services.NewSettingService(st),
		Logs:      logs,
		Chats:     services.NewChatReconciler(st, relay, pub, cfg.LogScanLimit),
		Messenger: services.NewMessengerService(st, relay, logs),
		Replays:   services.NewReplayService(st, cfg.IdempotencyTTL),
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, svcs, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Driver).
			Str("base_path", cfg.APIBasePath).
			Bool("swagger", cfg.SwaggerEnabled).
			Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down dashboard")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	log.Info().Msg("dashboard exited")
	return nil
}
