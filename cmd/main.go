/*
Package main is the entry point of the GM Pro server.

It loads configuration, initializes logging, selects the chat store and roster cache
backends (PostgreSQL and Redis when configured, in-memory otherwise), starts the chat
and session managers, serves HTTP and shuts everything down on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gmpro/internal/app/chat"
	"gmpro/internal/app/db"
	"gmpro/internal/app/events"
	"gmpro/internal/app/meet"
	"gmpro/internal/app/session"
	"gmpro/internal/app/storage"
	"gmpro/internal/configs"
	"gmpro/internal/handler"
	"gmpro/internal/pkg/logx"
)

const upstreamTimeout = 15 * time.Second

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("poll_interval", cfg.PollInterval).
		Dur("message_retention", cfg.MessageRetention).
		Bool("postgres", cfg.DatabaseDSN != "").
		Bool("redis", cfg.RedisURL != "").
		Bool("attachments", cfg.AttachmentsEnabled()).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openMessageStore(ctx, cfg)
	defer closeStore()

	cache := openRosterCache(ctx, cfg)
	defer func() {
		if err := cache.Close(); err != nil {
			logx.Warn("Failed to close roster cache", "error", err.Error())
		}
	}()

	var files storage.StorageService
	if cfg.AttachmentsEnabled() {
		files, err = storage.NewStorageService(ctx, storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize attachment storage")
		}
	}

	httpClient := &http.Client{Timeout: upstreamTimeout}
	source := meet.NewSource(meet.NewGoogleAPIFactory(httpClient))

	channel := chat.NewChannel(store, cfg.MessageRetention)
	chatManager := chat.NewManager(channel, cfg.JWTSecret)
	sessions := session.NewManager(source, channel, cfg.PollInterval, cfg.SessionIdleTimeout)
	limiters := handler.NewLimiters()

	deps := &handler.AppDeps{
		Config:        cfg,
		Chat:          chatManager,
		Sessions:      sessions,
		Source:        source,
		Cache:         cache,
		Subscriptions: events.NewSubscriptionServiceFactory(httpClient),
		Storage:       files,
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler.Router(deps, limiters),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("GM Pro Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	chatManager.Shutdown()
	sessions.Shutdown()
	limiters.Stop()

	logx.Info("Server gracefully stopped.")
}

// openMessageStore returns the PostgreSQL store when DATABASE_URL is set and the
// in-memory store otherwise, with the func releasing it.
func openMessageStore(ctx context.Context, cfg *configs.AppConfig) (chat.Store, func()) {
	if cfg.DatabaseDSN == "" {
		logx.Info("DATABASE_URL not set, chat messages are kept in memory")
		store := chat.NewMemoryStore()
		return store, func() { _ = store.Close() }
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to connect to PostgreSQL")
	}
	logx.Info("Chat messages are stored in PostgreSQL")

	store := chat.NewPostgresStore(pool)
	return store, func() {
		_ = store.Close()
		pool.Close()
	}
}

func openRosterCache(ctx context.Context, cfg *configs.AppConfig) events.RosterCache {
	if cfg.RedisURL == "" {
		return events.NewMemoryCache()
	}

	cache, err := events.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		logx.Fatal(err, "Failed to connect to Redis")
	}
	logx.Info("Roster cache is shared through Redis")
	return cache
}
