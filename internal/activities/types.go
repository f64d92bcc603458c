package activities

import (
	"time"

	"observatorio/internal/models"
)

type ScanCatalogInput struct {
	Structured bool `json:"structured"`
}

type ScanCatalogOutput struct {
	Documents int            `json:"documents"`
	ByKind    map[string]int `json:"by_kind"`
	Entities  []string       `json:"entities"`
}

type ListCommissionsInput struct {
	Groups []string `json:"groups,omitempty"`
}

type CommissionKey struct {
	Group string `json:"group"`
	Name  string `json:"commission_name"`
}

type ListCommissionsOutput struct {
	Commissions []CommissionKey `json:"commissions"`
}

type AskStatsInput struct {
	WindowHours int `json:"window_hours"`
}

type AskStatsOutput struct {
	Available bool           `json:"available"`
	Outcomes  map[string]int `json:"outcomes,omitempty"`
}

// AuditManifest is the document written at the end of a catalog audit run.
type AuditManifest struct {
	RunID              string                   `json:"run_id"`
	GeneratedAt        time.Time                `json:"generated_at"`
	DataRepoDir        string                   `json:"data_repo_dir"`
	Catalog            ScanCatalogOutput        `json:"catalog"`
	Commissions        []models.CommissionAudit `json:"commissions"`
	FailedCommissions  []string                 `json:"failed_commissions,omitempty"`
	MissingTranscripts int                      `json:"missing_transcripts"`
	OrphanTranscripts  int                      `json:"orphan_transcripts"`
	Asks               AskStatsOutput           `json:"asks"`
}

type WriteAuditManifestInput struct {
	RunID    string        `json:"run_id"`
	Manifest AuditManifest `json:"manifest"`
}

type WriteAuditManifestOutput struct {
	Path string `json:"path"`
}
