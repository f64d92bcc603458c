package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"observatorio/internal/api"
	"observatorio/internal/app"
	"observatorio/internal/config"
	"observatorio/internal/logging"
	"observatorio/internal/watcher"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New("observatorio-api", cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{ConnectAudit: true})
	if err != nil {
		logger.Fatal("init app", zap.Error(err))
	}
	defer a.Close()

	if cfg.WatchCatalog {
		w, err := watcher.New(a.Catalog, a.Catalog.Roots(), watcher.DefaultDebounce, logger.Named("watcher"))
		if err != nil {
			logger.Warn("catalog watcher disabled", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			logger.Warn("catalog watcher disabled", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	deps := api.Deps{Store: a.Store, Catalog: a.Catalog, Agent: a.Agent, Logger: logger.Named("http")}
	if a.Audit != nil {
		deps.Audit = a.Audit
	}
	srv := api.NewServer(cfg, deps)
	httpServer := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Chat waits on the generator.
		WriteTimeout: cfg.Generation.Timeout + 15*time.Second,
	}

	go func() {
		logger.Info("api listening",
			zap.String("addr", cfg.APIAddr),
			zap.String("llm_providers", cfg.LLMProviders),
			zap.Bool("generator_configured", a.Agent.Configured()),
			zap.Bool("ask_audit", a.Audit != nil))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
