package main

import (
	"context"
	"log"
	"strings"
	"time"

	"observatorio/internal/activities"
	"observatorio/internal/config"
	"observatorio/internal/logging"
	"observatorio/internal/storage"
	"observatorio/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New("observatorio-worker", cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal("dial temporal", zap.Error(err))
	}
	defer c.Close()

	var db *storage.DB
	if strings.TrimSpace(cfg.PostgresURL) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		db, err = storage.NewDB(ctx, cfg.PostgresURL)
		cancel()
		if err != nil {
			logger.Warn("ask stats disabled", zap.Error(err))
			db = nil
		} else {
			defer db.Close()
		}
	}

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg, db, logger.Named("activities")))

	logger.Info("worker listening",
		zap.String("temporal", cfg.TemporalAddress),
		zap.String("queue", cfg.TemporalTaskQueue),
		zap.String("data_repo_dir", cfg.DataRepoDir))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}
