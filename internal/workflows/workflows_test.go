package workflows

import (
	"context"
	"errors"
	"testing"

	"observatorio/internal/activities"
	"observatorio/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerAuditActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "ScanCatalogActivity", func(context.Context, activities.ScanCatalogInput) (activities.ScanCatalogOutput, error) {
		return activities.ScanCatalogOutput{}, nil
	})
	registerActivityName(env, "ListCommissionsActivity", func(context.Context, activities.ListCommissionsInput) (activities.ListCommissionsOutput, error) {
		return activities.ListCommissionsOutput{}, nil
	})
	registerActivityName(env, "AuditCommissionActivity", func(context.Context, activities.CommissionKey) (models.CommissionAudit, error) {
		return models.CommissionAudit{}, nil
	})
	registerActivityName(env, "AskStatsActivity", func(context.Context, activities.AskStatsInput) (activities.AskStatsOutput, error) {
		return activities.AskStatsOutput{}, nil
	})
	registerActivityName(env, "WriteAuditManifestActivity", func(context.Context, activities.WriteAuditManifestInput) (activities.WriteAuditManifestOutput, error) {
		return activities.WriteAuditManifestOutput{}, nil
	})
}

func TestCatalogAuditWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CatalogAuditWorkflow)
	registerAuditActivities(env)

	agri := activities.CommissionKey{Group: "Permanentes", Name: "Agricultura"}
	mixta := activities.CommissionKey{Group: "Unidas", Name: "Mixta"}
	pesca := activities.CommissionKey{Group: "Otras", Name: "Pesca"}

	env.OnActivity("ScanCatalogActivity", mock.Anything, activities.ScanCatalogInput{Structured: true}).
		Return(activities.ScanCatalogOutput{Documents: 9, ByKind: map[string]int{"transcript": 7}}, nil)
	env.OnActivity("ListCommissionsActivity", mock.Anything, mock.Anything).
		Return(activities.ListCommissionsOutput{Commissions: []activities.CommissionKey{agri, mixta, pesca}}, nil)
	env.OnActivity("AuditCommissionActivity", mock.Anything, agri).
		Return(models.CommissionAudit{Group: "Permanentes", Commission: "Agricultura", MissingTranscripts: []string{"174", "175"}, OrphanTranscripts: []string{"200"}}, nil)
	env.OnActivity("AuditCommissionActivity", mock.Anything, mixta).
		Return(models.CommissionAudit{Group: "Unidas", Commission: "Mixta", MissingTranscripts: []string{"4"}}, nil)
	env.OnActivity("AuditCommissionActivity", mock.Anything, pesca).
		Return(models.CommissionAudit{}, temporal.NewNonRetryableApplicationError("unreadable", "InvalidCommission", nil))
	env.OnActivity("AskStatsActivity", mock.Anything, mock.Anything).
		Return(activities.AskStatsOutput{}, errors.New("dial tcp: connection refused"))

	var manifest activities.AuditManifest
	env.OnActivity("WriteAuditManifestActivity", mock.Anything, mock.Anything).
		Return(func(_ context.Context, in activities.WriteAuditManifestInput) (activities.WriteAuditManifestOutput, error) {
			manifest = in.Manifest
			return activities.WriteAuditManifestOutput{Path: "/out/audits/" + in.RunID + "/manifest.json"}, nil
		})

	env.ExecuteWorkflow(CatalogAuditWorkflow, CatalogAuditInput{RunID: "run-7", Structured: true, MaxConcurrent: 2})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out CatalogAuditResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, CatalogAuditResult{
		RunID:              "run-7",
		ManifestPath:       "/out/audits/run-7/manifest.json",
		Documents:          9,
		Commissions:        2,
		Failed:             1,
		MissingTranscripts: 3,
		OrphanTranscripts:  1,
	}, out)

	require.Equal(t, []string{"Otras/Pesca"}, manifest.FailedCommissions)
	require.False(t, manifest.Asks.Available)
	require.Len(t, manifest.Commissions, 2)

	val, err := env.QueryWorkflow(QueryGetAuditProgress)
	require.NoError(t, err)
	var progress CatalogAuditProgress
	require.NoError(t, val.Get(&progress))
	require.Equal(t, "done", progress.Step)
	require.Equal(t, 3, progress.Total)
	require.Equal(t, 2, progress.Done)
	require.Equal(t, "failed", progress.PerCommission["Otras/Pesca"])
}

func TestCatalogAuditWorkflowScanFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CatalogAuditWorkflow)
	registerAuditActivities(env)

	env.OnActivity("ScanCatalogActivity", mock.Anything, mock.Anything).
		Return(activities.ScanCatalogOutput{}, temporal.NewNonRetryableApplicationError("data repo dir: no such file", "Missing", nil))

	env.ExecuteWorkflow(CatalogAuditWorkflow, CatalogAuditInput{RunID: "run-8"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}

func TestCatalogAuditWorkflowDefaultsRunID(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(CatalogAuditWorkflow)
	registerAuditActivities(env)

	env.OnActivity("ScanCatalogActivity", mock.Anything, mock.Anything).Return(activities.ScanCatalogOutput{}, nil)
	env.OnActivity("ListCommissionsActivity", mock.Anything, mock.Anything).Return(activities.ListCommissionsOutput{}, nil)
	env.OnActivity("AskStatsActivity", mock.Anything, mock.Anything).Return(activities.AskStatsOutput{Available: true}, nil)
	env.OnActivity("WriteAuditManifestActivity", mock.Anything, mock.Anything).Return(activities.WriteAuditManifestOutput{Path: "p"}, nil)

	env.ExecuteWorkflow(CatalogAuditWorkflow, CatalogAuditInput{})
	require.NoError(t, env.GetWorkflowError())
	var out CatalogAuditResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.NotEmpty(t, out.RunID)
	require.Zero(t, out.Commissions)
}
