package main

import (
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/cache"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/config"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/ollama"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/queue"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// Model pulls saturate disk and network; keep them serial-ish.
			Concurrency: 2,
		},
	)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	client := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Timeout)
	pullWorker := workers.NewModelPullWorker(client, cache.NewCache(rdb))

	registry := queue.NewHandlersRegistry()
	registry.Register(queue.TypeModelPull, asynq.HandlerFunc(pullWorker.ProcessTask))

	slog.Info("starting worker", "ollama", cfg.Ollama.BaseURL)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
