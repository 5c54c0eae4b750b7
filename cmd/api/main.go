package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/api"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/auth"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/cache"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/config"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/database"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/ollama"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/queue"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, cfg.Database); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	st := store.New(pool)

	if cfg.Bootstrap.CreateAdmin {
		users := auth.NewUserService(st)
		if err := users.EnsureAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			slog.Error("bootstrap admin failed", "error", err)
			os.Exit(1)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, cache and model pulls degraded", "error", err)
	}
	defer rdb.Close()

	queueClient := queue.NewClient(cfg.Redis)
	defer queueClient.Close()

	router := api.NewRouter(api.Deps{
		Cfg:    cfg,
		Store:  st,
		Cache:  cache.NewCache(rdb),
		Ollama: ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Timeout),
		Queue:  queueClient,
		Log:    logger,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Ollama.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
