package workflows

import (
	"time"

	"observatorio/internal/activities"
	"observatorio/internal/models"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetAuditProgress = "GetAuditProgress"

// CatalogAuditWorkflow scans the repository, audits every commission in
// batches and writes a manifest under the data output root. A failing
// commission is recorded and skipped; only the scan and the manifest write
// fail the run.
func CatalogAuditWorkflow(ctx workflow.Context, input CatalogAuditInput) (CatalogAuditResult, error) {
	runID := input.RunID
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.RunID
	}
	progress := CatalogAuditProgress{RunID: runID, Step: "init", PerCommission: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetAuditProgress, func() (CatalogAuditProgress, error) {
		return progress, nil
	}); err != nil {
		return CatalogAuditResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	progress.Step = "scan_catalog"
	var scan activities.ScanCatalogOutput
	if err := workflow.ExecuteActivity(ctx, "ScanCatalogActivity", activities.ScanCatalogInput{Structured: input.Structured}).Get(ctx, &scan); err != nil {
		return CatalogAuditResult{}, err
	}

	progress.Step = "list_commissions"
	var list activities.ListCommissionsOutput
	if err := workflow.ExecuteActivity(ctx, "ListCommissionsActivity", activities.ListCommissionsInput{Groups: input.Groups}).Get(ctx, &list); err != nil {
		return CatalogAuditResult{}, err
	}
	progress.Total = len(list.Commissions)

	progress.Step = "audit_commissions"
	batch := input.MaxConcurrent
	if batch <= 0 {
		batch = 4
	}
	audits := make([]models.CommissionAudit, 0, len(list.Commissions))
	var failed []string
	for i := 0; i < len(list.Commissions); i += batch {
		end := i + batch
		if end > len(list.Commissions) {
			end = len(list.Commissions)
		}
		keys := list.Commissions[i:end]
		futures := make([]workflow.Future, 0, len(keys))
		for _, k := range keys {
			progress.PerCommission[commissionKey(k)] = "processing"
			futures = append(futures, workflow.ExecuteActivity(ctx, "AuditCommissionActivity", k))
		}
		for j, f := range futures {
			key := commissionKey(keys[j])
			var audit models.CommissionAudit
			if err := f.Get(ctx, &audit); err != nil {
				logger.Warn("commission audit failed", "commission", key, "error", err)
				progress.PerCommission[key] = "failed"
				progress.Failed++
				failed = append(failed, key)
				continue
			}
			progress.PerCommission[key] = "done"
			progress.Done++
			audits = append(audits, audit)
		}
	}

	progress.Step = "ask_stats"
	var stats activities.AskStatsOutput
	if err := workflow.ExecuteActivity(ctx, "AskStatsActivity", activities.AskStatsInput{WindowHours: input.StatsWindowH}).Get(ctx, &stats); err != nil {
		logger.Warn("ask stats unavailable", "error", err)
		stats = activities.AskStatsOutput{}
	}

	manifest := activities.AuditManifest{
		RunID:             runID,
		GeneratedAt:       workflow.Now(ctx).UTC(),
		Catalog:           scan,
		Commissions:       audits,
		FailedCommissions: failed,
		Asks:              stats,
	}
	for _, a := range audits {
		manifest.MissingTranscripts += len(a.MissingTranscripts)
		manifest.OrphanTranscripts += len(a.OrphanTranscripts)
	}

	progress.Step = "write_manifest"
	var written activities.WriteAuditManifestOutput
	if err := workflow.ExecuteActivity(ctx, "WriteAuditManifestActivity", activities.WriteAuditManifestInput{RunID: runID, Manifest: manifest}).Get(ctx, &written); err != nil {
		return CatalogAuditResult{}, err
	}
	progress.Step = "done"

	return CatalogAuditResult{
		RunID:              runID,
		ManifestPath:       written.Path,
		Documents:          scan.Documents,
		Commissions:        len(audits),
		Failed:             progress.Failed,
		MissingTranscripts: manifest.MissingTranscripts,
		OrphanTranscripts:  manifest.OrphanTranscripts,
	}, nil
}

func commissionKey(k activities.CommissionKey) string {
	return k.Group + "/" + k.Name
}
