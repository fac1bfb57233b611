package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/matchday-vote/cache"
	"github.com/danielhkuo/matchday-vote/cliparse"
	"github.com/danielhkuo/matchday-vote/events"
	"github.com/danielhkuo/matchday-vote/handlers"
	"github.com/danielhkuo/matchday-vote/live"
	"github.com/danielhkuo/matchday-vote/metrics"
	"github.com/danielhkuo/matchday-vote/middleware"
	"github.com/danielhkuo/matchday-vote/router"
	"github.com/danielhkuo/matchday-vote/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Vote store connects on first use
	if cfg.DatabaseURL == "" {
		slog.Warn("no database connection string configured; vote requests will fail until one is set")
	}
	votes := store.NewHandleFromConfig(cfg)
	defer func() {
		if !votes.Connected() {
			return
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("closing vote store")
		if err := votes.Close(closeCtx); err != nil {
			slog.Error("failed to close vote store", "error", err)
		}
	}()

	// Tally cache
	tallyCache := cache.NewRedisTallyCache(cfg.RedisURL, cfg.TallyCacheTTL)
	defer tallyCache.Close()

	// Vote events
	var publisher events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			slog.Warn("vote events disabled", "error", err)
		} else {
			slog.Info("publishing vote events", "queue", cfg.AMQPQueue)
			defer amqpPublisher.Close()
			publisher = amqpPublisher
		}
	}

	// Live results
	hub := live.NewHub()
	go hub.Run(ctx)

	m := metrics.New()
	m.LiveClients(hub.Clients)

	// Create router
	mux := router.NewRouter(handlers.Deps{
		Votes:     votes,
		Cache:     tallyCache,
		Publisher: publisher,
		Hub:       hub,
		Metrics:   m,
	}, cfg)

	// Create server
	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening",
		"port", cfg.Port,
		"database_type", cfg.DatabaseType,
		"teams", []string{cfg.HomeTeam, cfg.AwayTeam},
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
