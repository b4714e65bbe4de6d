package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/keystreak/xpboard/internal/config"
	"github.com/keystreak/xpboard/internal/domain"
	"github.com/keystreak/xpboard/internal/leaderboard"
	"github.com/keystreak/xpboard/internal/logging"
	"github.com/keystreak/xpboard/internal/redis"
	"github.com/keystreak/xpboard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	clock := clockwork.NewRealClock()

	var (
		store     domain.LeaderboardStore
		scheduler domain.Scheduler
		pinger    *redis.Client
	)

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to create redis client", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				slog.Error("Failed to close redis client", "error", err)
			}
		}()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := client.Ping(pingCtx); err != nil {
			slog.Warn("Redis unreachable at startup, continuing degraded", "error", err)
		}
		cancel()

		store = redis.NewLeaderboardStore(client)
		scheduler = redis.NewLaterQueue(client, clock)
		pinger = client
	} else {
		// Development fallback: single-process state, nothing survives a restart.
		slog.Warn("REDIS_URL not set, using in-memory leaderboard store")
		store = leaderboard.NewInMemoryStore()
		scheduler = leaderboard.NewInMemoryScheduler(clock)
	}

	engine := leaderboard.NewEngine(store, scheduler, clock)

	var srv *server.Server
	if pinger != nil {
		srv = server.NewServer(cfg, engine, pinger)
	} else {
		srv = server.NewServer(cfg, engine, nil)
	}

	done := runGracefulShutdown(srv)

	slog.Info("Starting weekly XP leaderboard service", "port", cfg.Port, "enabled", cfg.WeeklyXpEnabled)
	if err := srv.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}
