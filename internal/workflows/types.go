package workflows

type CatalogAuditInput struct {
	RunID         string   `json:"run_id"`
	Groups        []string `json:"groups,omitempty"`
	Structured    bool     `json:"structured"`
	MaxConcurrent int      `json:"max_concurrent"`
	StatsWindowH  int      `json:"stats_window_hours,omitempty"`
}

type CatalogAuditProgress struct {
	RunID         string            `json:"run_id"`
	Step          string            `json:"step"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerCommission map[string]string `json:"per_commission_status"`
}

type CatalogAuditResult struct {
	RunID              string `json:"run_id"`
	ManifestPath       string `json:"manifest_path"`
	Documents          int    `json:"documents"`
	Commissions        int    `json:"commissions"`
	Failed             int    `json:"failed"`
	MissingTranscripts int    `json:"missing_transcripts"`
	OrphanTranscripts  int    `json:"orphan_transcripts"`
}
