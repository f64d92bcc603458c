// Package prompt assembles the grounded generation prompt from retrieved
// evidence.
package prompt

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"observatorio/internal/models"
)

const (
	maxBullets    = 6
	sourcesMarker = "FUENTES (usa SOLO esto):\n"
)

const SystemInstruction = "" +
	"Eres un analista legislativo del Observatorio Político Chile. " +
	"REGLA CRÍTICA: SOLO puedes usar la información contenida en las FUENTES entregadas en el mensaje del usuario. " +
	"NO uses conocimiento general. NO inventes datos, fechas, nombres ni cifras. " +
	"Si las FUENTES no contienen la respuesta, dilo explícitamente.\n" +
	"Siempre:\n" +
	"1) Cita al menos una fuente (DOCUMENTO + Comisión + ID si aplica).\n" +
	"2) Incluye fechas/números EXACTOS si aparecen en las fuentes."

const instructions = "" +
	"INSTRUCCIONES:\n" +
	"- Responde en español, directo y con viñetas si ayuda.\n" +
	"- Cada afirmación debe estar respaldada por una fuente.\n" +
	"- Cita fuentes en formato: Fuente: <DOCUMENTO> (Comisión <X>).\n" +
	"- Usa fechas y números EXACTOS tal como aparecen.\n" +
	"- Si falta un dato específico, dilo y sugiere qué buscar.\n"

// Header identifies one evidence block of a built prompt.
type Header struct {
	Document string
	Entity   string
	Group    string
	Score    int
}

var headerRe = regexp.MustCompile(`(?m)^DOCUMENTO: (.+?) \| COMISIÓN: (.*?) \| GRUPO: (.*?) \| SCORE: (-?\d+)$`)

// DocumentName is the file name shown to the model for a document.
func DocumentName(d models.DocumentReference) string {
	if name := filepath.Base(d.Path); d.Path != "" && name != "." {
		return name
	}
	return d.ShortID + ".txt"
}

func FormatHeader(h Header) string {
	return fmt.Sprintf("DOCUMENTO: %s | COMISIÓN: %s | GRUPO: %s | SCORE: %d", h.Document, h.Entity, h.Group, h.Score)
}

// Block renders one document: header line followed by its bulleted snippets.
func Block(d models.ScoredDocument) string {
	var b strings.Builder
	b.WriteString(FormatHeader(Header{
		Document: DocumentName(d.Doc),
		Entity:   d.Doc.Entity,
		Group:    d.Doc.Group,
		Score:    d.Score,
	}))
	snippets := d.Snippets
	if len(snippets) > maxBullets {
		snippets = snippets[:maxBullets]
	}
	for _, s := range snippets {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String()
}

// Build returns the user-role prompt: question, evidence blocks in rank order
// and the fixed answering instructions. The question is flattened to one line
// so it can never start a header line of its own.
func Build(question string, docs []models.ScoredDocument) string {
	blocks := make([]string, 0, len(docs))
	for _, d := range docs {
		blocks = append(blocks, Block(d))
	}
	return "" +
		"PREGUNTA DEL USUARIO:\n" + singleLine(question) + "\n\n" +
		sourcesMarker +
		strings.Join(blocks, "\n\n") + "\n\n" +
		instructions
}

// ParseHeaders recovers the evidence headers of a prompt in order. Only the
// text after the sources marker is considered.
func ParseHeaders(prompt string) []Header {
	i := strings.Index(prompt, sourcesMarker)
	if i < 0 {
		return nil
	}
	var out []Header
	for _, m := range headerRe.FindAllStringSubmatch(prompt[i+len(sourcesMarker):], -1) {
		score, err := strconv.Atoi(m[4])
		if err != nil {
			continue
		}
		out = append(out, Header{Document: m[1], Entity: m[2], Group: m[3], Score: score})
	}
	return out
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
