package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bisttrading/algowire/params"
	"github.com/bisttrading/algowire/pkg/order"
	"github.com/bisttrading/algowire/pkg/util"
	"github.com/bisttrading/algowire/pkg/ws"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	logFile := os.Getenv("LOG_FILE")
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	var logger *zap.Logger
	var err error
	if logFile != "" {
		logger, err = util.NewLoggerWithFile(logFile, logLevel)
	} else {
		logger, err = util.NewLogger(logLevel)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("feedd starting",
		zap.String("listen", cfg.Server.ListenAddr),
		zap.String("feed_url", cfg.Feed.URL))

	hub := ws.NewHub(logger)

	validator := order.NewValidator(cfg.Trading.MinQuantityIncrement, util.RealClock{})
	server := ws.NewServer(hub, validator, cfg.Server.SendBuffer, cfg.Server.AllowedOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Upstream feed (optional) ----
	// Without FEED_URL the daemon still serves order entry and lets
	// producers publish through the relay.
	var feed *ws.FeedClient
	if cfg.Feed.URL != "" {
		relay := ws.NewEnvelopeRelay(hub, logger)
		feed = ws.NewFeedClient(cfg.Feed.URL,
			cfg.Feed.HeartbeatTimeout, cfg.Feed.ReconnectDelay, cfg.Feed.MaxReconnects,
			relay, logger)
		if err := feed.Connect(); err != nil {
			logger.Fatal("feed connect failed", zap.Error(err))
		}
		defer feed.Close()

		if channels := os.Getenv("FEED_CHANNELS"); channels != "" {
			if err := feed.Subscribe(strings.Split(channels, ",")...); err != nil {
				logger.Warn("initial subscribe failed", zap.Error(err))
			}
		}
	} else {
		logger.Info("feed disabled - no FEED_URL configured")
	}

	go func() {
		if err := server.Start(cfg.Server.ListenAddr); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Liveness logging loop
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			if feed != nil {
				logger.Debug("feed liveness",
					zap.Duration("since_heartbeat", time.Since(feed.LastHeartbeat())))
			}
		}
	}
}
