package models

type DocKind string

const (
	KindTranscript DocKind = "transcript"
	KindRoster     DocKind = "roster"
	KindHistory    DocKind = "history"
	KindProfile    DocKind = "profile"
)

// DocumentReference identifies one evidence file without holding its content.
type DocumentReference struct {
	Path    string  `json:"path"`
	Group   string  `json:"group"`
	Entity  string  `json:"entity"`
	ShortID string  `json:"short_id"`
	Kind    DocKind `json:"kind"`
}

type ScoredDocument struct {
	Doc      DocumentReference `json:"doc"`
	Score    int               `json:"score"`
	Snippets []string          `json:"snippets"`
}

type RetrievalResult struct {
	Documents    []ScoredDocument `json:"documents"`
	Searched     []string         `json:"searched"`
	Keywords     []string         `json:"keywords"`
	EntityFilter string           `json:"entity_filter,omitempty"`
}

type Commission struct {
	Name          string `json:"commission_name"`
	Nombre        string `json:"nombre"`
	Group         string `json:"group"`
	TotalSessions int    `json:"total_sessions"`
}

type Session struct {
	ID            string `json:"ID"`
	Year          string `json:"Año"`
	YearNum       *int   `json:"anio"`
	Month         string `json:"Mes"`
	Date          string `json:"Fecha"`
	Status        string `json:"Estado"`
	Citation      string `json:"Citacion"`
	Minutes       string `json:"Acta"`
	Account       string `json:"Cuenta"`
	HasTranscript bool   `json:"transcript"`
}

type CommissionSessions struct {
	Group          string               `json:"group"`
	CommissionName string               `json:"commission_name"`
	Meta           map[string]string    `json:"meta"`
	Years          []int                `json:"years"`
	SessionsByYear map[string][]Session `json:"sessions_by_year"`
}

type Politician struct {
	ID       string `json:"id"`
	Nombre   string `json:"nombre"`
	Cargo    string `json:"cargo"`
	Chamber  string `json:"chamber"`
	URLFicha string `json:"url_ficha"`
}

type ActivityItem struct {
	Group      string `json:"group"`
	Commission string `json:"commission_name"`
	Year       string `json:"Año"`
	Month      string `json:"Mes"`
	SessionID  string `json:"session_id"`
	Date       string `json:"fecha"`
	Status     string `json:"estado"`
	Citation   string `json:"citacion"`
}

type NewsItem struct {
	Title      string `json:"titulo"`
	Date       string `json:"fecha"`
	URL        string `json:"url"`
	EditionURL string `json:"edicion_url"`
	CVE        string `json:"cve"`
	Edition    string `json:"edition"`
	Tab        string `json:"tab"`
	Source     string `json:"source"`
}

type KomProfile struct {
	ID        string   `json:"id"`
	Chamber   string   `json:"chamber"`
	Tags      []string `json:"tags"`
	Notes     string   `json:"notas"`
	Links     []string `json:"links"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// CommissionAudit compares a commission's session history with the
// transcripts present on disk.
type CommissionAudit struct {
	Group              string   `json:"group"`
	Commission         string   `json:"commission_name"`
	HasHistory         bool     `json:"has_history"`
	HasRoster          bool     `json:"has_roster"`
	Sessions           int      `json:"sessions"`
	Transcripts        int      `json:"transcripts"`
	MissingTranscripts []string `json:"missing_transcripts"`
	OrphanTranscripts  []string `json:"orphan_transcripts"`
}
