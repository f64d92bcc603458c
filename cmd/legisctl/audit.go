package main

import (
	"encoding/json"
	"fmt"

	"observatorio/internal/workflows"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

var (
	auditWait       bool
	auditStructured bool
	auditParallel   int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Start the catalog audit workflow on the Temporal worker",
	Long: `Starts CatalogAuditWorkflow on LEGIS_TEMPORAL_TASK_QUEUE. The worker writes
the manifest to <LEGIS_DATA_OUT>/audits/<run id>/manifest.json.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditWait, "wait", false, "wait for the workflow and print its result")
	auditCmd.Flags().BoolVar(&auditStructured, "structured", true, "include rosters, histories and profiles in the catalog scan")
	auditCmd.Flags().IntVar(&auditParallel, "parallel", 4, "commissions audited concurrently")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	c, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		return fmt.Errorf("dial temporal: %w", err)
	}
	defer c.Close()

	runID := uuid.NewString()
	we, err := c.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                    "catalog-audit-" + runID,
		TaskQueue:             cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, workflows.CatalogAuditWorkflow, workflows.CatalogAuditInput{
		RunID:         runID,
		Structured:    auditStructured,
		MaxConcurrent: auditParallel,
	})
	if err != nil {
		return fmt.Errorf("start audit workflow: %w", err)
	}
	cmd.Printf("workflow %s started (run %s)\n", we.GetID(), we.GetRunID())
	if !auditWait {
		return nil
	}

	var res workflows.CatalogAuditResult
	if err := we.Get(ctx, &res); err != nil {
		return fmt.Errorf("audit workflow: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
