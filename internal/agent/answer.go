package agent

import (
	"strings"

	"observatorio/internal/models"
	"observatorio/internal/providers"
)

type Kind string

const (
	KindAnswered         Kind = "answered"
	KindNotConfigured    Kind = "not_configured"
	KindNoEvidence       Kind = "no_evidence"
	KindGenerationFailed Kind = "generation_failed"
)

const (
	NotConfiguredMessage = "⚠️ El generador no está configurado. Revisa GEMINI_API_KEY (o LEGIS_LLM_PROVIDERS) y reinicia el servicio."

	generationErrorPrefix = "❌ Error del generador: "
	maxSearchedListed     = 12
)

// Answer is the result of one Ask. Only KindAnswered carries model text;
// the other kinds are rendered by String.
type Answer struct {
	Kind      Kind                    `json:"kind"`
	Text      string                  `json:"text,omitempty"`
	Detail    string                  `json:"detail,omitempty"`
	ErrorType providers.ErrorType     `json:"error_type,omitempty"`
	Searched  []string                `json:"searched,omitempty"`
	Documents []models.ScoredDocument `json:"documents,omitempty"`
	Provider  providers.ProviderInfo  `json:"provider"`
	RequestID string                  `json:"request_id"`
}

func (a Answer) OK() bool {
	return a.Kind == KindAnswered
}

// String renders the user-facing text for every kind of answer.
func (a Answer) String() string {
	switch a.Kind {
	case KindAnswered:
		return a.Text
	case KindNotConfigured:
		return NotConfiguredMessage
	case KindNoEvidence:
		return NoEvidenceMessage(a.Searched)
	case KindGenerationFailed:
		return generationErrorPrefix + a.Detail
	default:
		return a.Text
	}
}

// NoEvidenceMessage lists up to twelve of the searched entity names.
func NoEvidenceMessage(searched []string) string {
	comms := "N/A"
	if len(searched) > 0 {
		if len(searched) > maxSearchedListed {
			searched = searched[:maxSearchedListed]
		}
		comms = strings.Join(searched, ", ")
	}
	return "🔍 No encontré evidencia en los documentos disponibles para responder.\n\n" +
		"Comisiones revisadas (muestra): " + comms + "\n" +
		"Tip: prueba mencionar la comisión exacta o el ID de sesión (por ejemplo 173) y el tema."
}
