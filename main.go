// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/pollbox/admission"
	"github.com/danielhkuo/pollbox/auth"
	"github.com/danielhkuo/pollbox/cliparse"
	"github.com/danielhkuo/pollbox/db"
	"github.com/danielhkuo/pollbox/logging"
	"github.com/danielhkuo/pollbox/router"
	"github.com/danielhkuo/pollbox/throttle"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		slog.Error("Error parsing log level", "error", err)
		os.Exit(1)
	}
	logFile := logging.Configure(level, cfg.LogFile)
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database
	store, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Create schema (tables)
	if err := store.CreateSchema(ctx); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "driver", store.Driver())

	budgets, err := throttle.BudgetsFromConfig(cfg)
	if err != nil {
		slog.Error("invalid throttle budget", "error", err)
		os.Exit(1)
	}
	gate := throttle.NewGate(budgetStore(ctx, cfg.RedisURL), budgets)

	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	var engineOpts []admission.Option
	if store.SerializesWrites() {
		engineOpts = append(engineOpts, admission.WithPollLocks())
	}
	engine := admission.NewEngine(store, engineOpts...)

	// Create server
	server := http.Server{
		Handler: router.NewRouter(store, gate, issuer, engine, cfg),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "voter_identity", cfg.VoterIdentity)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// budgetStore keeps throttle budgets in Redis when configured and reachable,
// in process memory otherwise.
func budgetStore(ctx context.Context, redisURL string) throttle.Store {
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err == nil {
			client := redis.NewClient(opts)
			if err = client.Ping(ctx).Err(); err == nil {
				slog.Info("Throttle budgets in redis", "addr", opts.Addr)
				return throttle.NewRedisStore(client)
			}
			client.Close()
		}
		slog.Warn("redis unavailable, throttle budgets kept in memory", "error", err)
	}

	mem := throttle.NewMemoryStore()
	go mem.Run(ctx, time.Minute)
	return mem
}
