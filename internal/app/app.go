// Package app assembles the store, catalog, generator chain and agent from
// a loaded configuration. The api server and legisctl share it.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"observatorio/internal/agent"
	"observatorio/internal/config"
	"observatorio/internal/providers"
	"observatorio/internal/retrieval"
	"observatorio/internal/storage"
	"observatorio/internal/store"

	"go.uber.org/zap"
)

const dbConnectTimeout = 5 * time.Second

type App struct {
	Config    config.Config
	Store     *store.Store
	Catalog   *retrieval.Holder
	Providers *providers.Manager
	Agent     *agent.Agent
	// DB and Audit are nil unless LEGIS_POSTGRES_URL is set and reachable.
	DB     *storage.DB
	Audit  *storage.AskAuditRepo
	Logger *zap.Logger
}

type Options struct {
	// ConnectAudit opens the Postgres ask-audit log when a URL is configured.
	ConnectAudit bool
	// SkipRebuild leaves the catalog empty until Catalog.Rebuild is called.
	SkipRebuild bool
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}

	a := &App{
		Config:    cfg,
		Store:     store.New(cfg.DataRepoDir, cfg.KomDir, logger.Named("store")),
		Providers: pm,
		Logger:    logger,
	}
	a.Catalog = retrieval.NewHolder(retrieval.CatalogOptions{
		Root:        cfg.DataRepoDir,
		ProfileRoot: cfg.KomDir,
		Structured:  cfg.CatalogStructured,
		Logger:      logger.Named("catalog"),
	})

	if opts.ConnectAudit && strings.TrimSpace(cfg.PostgresURL) != "" {
		dctx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
		db, err := storage.NewDB(dctx, cfg.PostgresURL)
		if err == nil {
			repo := storage.NewAskAuditRepo(db)
			if err = repo.EnsureSchema(dctx); err == nil {
				a.DB, a.Audit = db, repo
			} else {
				db.Close()
			}
		}
		cancel()
		if err != nil {
			logger.Warn("ask audit disabled", zap.Error(err))
		}
	}

	deps := agent.Deps{
		Generator:  providers.NewRateLimited(pm, cfg.Generation.RequestsPerSec, cfg.Generation.Burst),
		Configured: pm.Configured(),
		Catalog:    a.Catalog,
		Retriever:  retrieval.NewRetriever(retrieval.NewFileReader(logger.Named("reader")), RetrievalOptions(cfg), logger.Named("retrieval")),
		Logger:     logger.Named("agent"),
		Options: agent.Options{
			Timeout:         cfg.Generation.Timeout,
			Temperature:     cfg.Generation.Temperature,
			MaxOutputTokens: cfg.Generation.MaxOutputTokens,
		},
	}
	if a.Audit != nil {
		deps.Audit = a.Audit
	}
	a.Agent = agent.New(deps)

	if !opts.SkipRebuild {
		cat := a.Catalog.Rebuild(ctx)
		logger.Info("catalog ready",
			zap.Int("documents", cat.Len()),
			zap.Int("entities", len(cat.Entities())),
			zap.Bool("structured", cfg.CatalogStructured))
	}
	if !pm.Configured() {
		logger.Warn("no generator credential; chat answers will report the missing configuration",
			zap.String("providers", cfg.LLMProviders))
	}
	return a, nil
}

// RetrievalOptions maps the configured knobs onto the retriever.
func RetrievalOptions(cfg config.Config) retrieval.Options {
	r := cfg.Retrieval
	return retrieval.Options{
		TopK:           r.TopK,
		CandidateLimit: r.CandidateLimit,
		MaxReadChars:   r.MaxReadChars,
		MaxSnippets:    r.MaxSnippets,
		SnippetRadius:  r.SnippetRadius,
		EntityMinLen:   r.EntityMinLen,
		ReadParallel:   r.ReadParallel,
	}
}

func (a *App) Close() {
	a.DB.Close()
}
