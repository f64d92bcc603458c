package activities

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"observatorio/internal/config"
	"observatorio/internal/models"
	"observatorio/internal/retrieval"
	"observatorio/internal/storage"
	"observatorio/internal/store"
	"observatorio/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

const auditsDir = "audits"

// AskCounter is the slice of the ask audit log the stats activity reads.
type AskCounter interface {
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error)
}

type Activities struct {
	cfg    config.Config
	store  *store.Store
	asks   AskCounter
	logger *zap.Logger
}

// New wires the activities to the repository on disk. db may be nil, in which
// case ask statistics are reported as unavailable.
func New(cfg config.Config, db *storage.DB, logger *zap.Logger) *Activities {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Activities{
		cfg:    cfg,
		store:  store.New(cfg.DataRepoDir, cfg.KomDir, logger),
		logger: logger,
	}
	if db != nil {
		a.asks = storage.NewAskAuditRepo(db)
	}
	return a
}

func (a *Activities) ScanCatalogActivity(ctx context.Context, in ScanCatalogInput) (ScanCatalogOutput, error) {
	if _, err := os.Stat(a.cfg.DataRepoDir); err != nil {
		return ScanCatalogOutput{}, fmt.Errorf("data repo dir: %w", err)
	}
	cat := retrieval.BuildCatalog(ctx, retrieval.CatalogOptions{
		Root:        a.cfg.DataRepoDir,
		ProfileRoot: a.cfg.KomDir,
		Structured:  in.Structured,
		Logger:      a.logger,
	})
	if err := ctx.Err(); err != nil {
		return ScanCatalogOutput{}, err
	}
	byKind := map[string]int{}
	for k, n := range cat.CountByKind() {
		byKind[string(k)] = n
	}
	return ScanCatalogOutput{Documents: cat.Len(), ByKind: byKind, Entities: cat.Entities()}, nil
}

func (a *Activities) ListCommissionsActivity(ctx context.Context, in ListCommissionsInput) (ListCommissionsOutput, error) {
	_ = ctx
	groups := in.Groups
	if len(groups) == 0 {
		groups = store.Groups
	}
	out := ListCommissionsOutput{Commissions: []CommissionKey{}}
	for _, g := range groups {
		for _, c := range a.store.ListCommissions(g, "") {
			out.Commissions = append(out.Commissions, CommissionKey{Group: g, Name: c.Name})
		}
	}
	return out, nil
}

func (a *Activities) AuditCommissionActivity(ctx context.Context, in CommissionKey) (models.CommissionAudit, error) {
	_ = ctx
	if !util.ValidName(in.Name) || !util.ValidName(in.Group) {
		return models.CommissionAudit{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("invalid commission %q/%q", in.Group, in.Name), "InvalidCommission", nil)
	}
	return a.store.AuditCommission(in.Group, in.Name), nil
}

func (a *Activities) AskStatsActivity(ctx context.Context, in AskStatsInput) (AskStatsOutput, error) {
	if a.asks == nil {
		return AskStatsOutput{}, nil
	}
	hours := in.WindowHours
	if hours <= 0 {
		hours = 24
	}
	counts, err := a.asks.CountByOutcome(ctx, time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return AskStatsOutput{}, fmt.Errorf("count asks: %w", err)
	}
	return AskStatsOutput{Available: true, Outcomes: counts}, nil
}

// WriteAuditManifestActivity writes the run manifest and refreshes latest.json
// next to it.
func (a *Activities) WriteAuditManifestActivity(ctx context.Context, in WriteAuditManifestInput) (WriteAuditManifestOutput, error) {
	_ = ctx
	if !util.ValidName(in.RunID) {
		return WriteAuditManifestOutput{}, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("invalid run id %q", in.RunID), "InvalidRunID", nil)
	}
	runID := strings.TrimSpace(in.RunID)
	in.Manifest.DataRepoDir = a.cfg.DataRepoDir
	path := filepath.Join(a.cfg.DataOutRoot, auditsDir, runID, "manifest.json")
	if err := util.WriteJSONAtomic(path, in.Manifest); err != nil {
		return WriteAuditManifestOutput{}, err
	}
	if err := util.WriteJSONAtomic(filepath.Join(a.cfg.DataOutRoot, auditsDir, "latest.json"), in.Manifest); err != nil {
		return WriteAuditManifestOutput{}, err
	}
	return WriteAuditManifestOutput{Path: path}, nil
}
