package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"observatorio/internal/models"
	"observatorio/internal/providers"
	"observatorio/internal/retrieval"
	"observatorio/internal/storage"

	"github.com/stretchr/testify/require"
)

type countingSource struct {
	cat   *retrieval.Catalog
	calls atomic.Int32
}

func (c *countingSource) Current() *retrieval.Catalog {
	c.calls.Add(1)
	return c.cat
}

type countingReader struct {
	texts map[string]string
	calls atomic.Int32
}

func (c *countingReader) ReadText(path string, _ int) string {
	c.calls.Add(1)
	return c.texts[path]
}

type fakeGenerator struct {
	text  string
	err   error
	panic bool
	delay time.Duration
	calls int
	last  providers.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	f.calls++
	f.last = req
	if f.panic {
		panic("provider exploded")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return providers.GenerateResponse{}, providers.ProviderInfo{Name: "fake"}, ctx.Err()
		}
	}
	return providers.GenerateResponse{Text: f.text}, providers.ProviderInfo{Name: "fake", Model: "f1"}, f.err
}

type memAudit struct {
	mu   sync.Mutex
	rows []storage.AskRecord
}

func (m *memAudit) Insert(_ context.Context, rec storage.AskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rec)
	return nil
}

func fixture() (*countingSource, *countingReader) {
	docs := []models.DocumentReference{
		{Path: "/r/Permanentes/Agricultura/transcripts/173.txt", Group: "Permanentes", Entity: "Agricultura", ShortID: "173", Kind: models.KindTranscript},
		{Path: "/r/Permanentes/Hacienda/transcripts/12.txt", Group: "Permanentes", Entity: "Hacienda", ShortID: "12", Kind: models.KindTranscript},
	}
	src := &countingSource{cat: retrieval.NewCatalog(docs)}
	rd := &countingReader{texts: map[string]string{
		docs[0].Path: "En la sesión 173 la Comisión de Agricultura discutió el proyecto de riego.",
		docs[1].Path: "Presupuesto de la nación.",
	}}
	return src, rd
}

func newAgent(gen providers.Generator, configured bool, src *countingSource, rd *countingReader, audit AuditRecorder) *Agent {
	return New(Deps{
		Generator:  gen,
		Configured: configured,
		Catalog:    src,
		Retriever:  retrieval.NewRetriever(rd, retrieval.DefaultOptions(), nil),
		Audit:      audit,
		Options:    Options{Timeout: time.Second, Temperature: 0.2, MaxOutputTokens: 1200},
	})
}

func TestAskNotConfiguredTouchesNothing(t *testing.T) {
	src, rd := fixture()
	gen := &fakeGenerator{text: "x"}
	a := newAgent(gen, false, src, rd, nil)

	ans := a.Ask(context.Background(), "¿Qué se discutió en la sesión 173 de Agricultura?")
	require.Equal(t, KindNotConfigured, ans.Kind)
	require.Equal(t, NotConfiguredMessage, ans.String())
	require.False(t, ans.OK())
	require.Zero(t, src.calls.Load())
	require.Zero(t, rd.calls.Load())
	require.Zero(t, gen.calls)
	require.NotEmpty(t, ans.RequestID)
}

func TestAskNoEvidenceSkipsGenerator(t *testing.T) {
	src, rd := fixture()
	gen := &fakeGenerator{text: "x"}
	audit := &memAudit{}
	a := newAgent(gen, true, src, rd, audit)

	ans := a.Ask(context.Background(), "pesca artesanal en la costa")
	require.Equal(t, KindNoEvidence, ans.Kind)
	require.Zero(t, gen.calls)
	require.Equal(t, []string{"Agricultura", "Hacienda"}, ans.Searched)
	msg := ans.String()
	require.Contains(t, msg, "No encontré evidencia")
	require.Contains(t, msg, "Agricultura, Hacienda")
	require.Contains(t, msg, "ID de sesión")

	require.Len(t, audit.rows, 1)
	require.Equal(t, "no_evidence", audit.rows[0].Outcome)
	require.Equal(t, ans.RequestID, audit.rows[0].RequestID)
}

func TestAskAnswersWithGroundedPrompt(t *testing.T) {
	src, rd := fixture()
	gen := &fakeGenerator{text: "  Se discutió el riego.\nFuente: 173.txt (Comisión Agricultura)  \n"}
	a := newAgent(gen, true, src, rd, nil)

	ans := a.Ask(context.Background(), "¿Qué se discutió en la sesión 173 de Agricultura?")
	require.True(t, ans.OK())
	require.Equal(t, "Se discutió el riego.\nFuente: 173.txt (Comisión Agricultura)", ans.String())
	require.Equal(t, 1, gen.calls)
	require.Equal(t, "fake", ans.Provider.Name)

	require.Contains(t, gen.last.Prompt, "DOCUMENTO: 173.txt | COMISIÓN: Agricultura | GRUPO: Permanentes")
	require.NotContains(t, gen.last.Prompt, "Hacienda")
	require.NotEmpty(t, gen.last.SystemInstruction)
	require.Equal(t, 0.2, gen.last.Temperature)
	require.Equal(t, 1200, gen.last.MaxOutputTokens)
}

func TestAskGenerationFailure(t *testing.T) {
	src, rd := fixture()
	gen := &fakeGenerator{err: errors.New("gemini generate failed: 429 rate limit")}
	audit := &memAudit{}
	a := newAgent(gen, true, src, rd, audit)

	ans := a.Ask(context.Background(), "riego en Agricultura")
	require.Equal(t, KindGenerationFailed, ans.Kind)
	require.Equal(t, providers.ErrorRate, ans.ErrorType)
	require.True(t, strings.HasPrefix(ans.String(), generationErrorPrefix))
	require.Contains(t, ans.String(), "429 rate limit")
	require.Equal(t, "rate", audit.rows[0].ErrorType)
}

func TestAskEmptyGenerationIsFailure(t *testing.T) {
	src, rd := fixture()
	a := newAgent(&fakeGenerator{text: "   "}, true, src, rd, nil)
	ans := a.Ask(context.Background(), "riego en Agricultura")
	require.Equal(t, KindGenerationFailed, ans.Kind)
}

func TestAskRecoversFromPanics(t *testing.T) {
	src, rd := fixture()
	a := newAgent(&fakeGenerator{panic: true}, true, src, rd, nil)
	require.NotPanics(t, func() {
		ans := a.Ask(context.Background(), "riego en Agricultura")
		require.Equal(t, KindGenerationFailed, ans.Kind)
		require.Contains(t, ans.Detail, "provider exploded")
	})
}

func TestAskTimesOutSlowGenerator(t *testing.T) {
	src, rd := fixture()
	gen := &fakeGenerator{text: "tarde", delay: time.Minute}
	a := New(Deps{
		Generator:  gen,
		Configured: true,
		Catalog:    src,
		Retriever:  retrieval.NewRetriever(rd, retrieval.DefaultOptions(), nil),
		Options:    Options{Timeout: 20 * time.Millisecond},
	})
	ans := a.Ask(context.Background(), "riego en Agricultura")
	require.Equal(t, KindGenerationFailed, ans.Kind)
	require.Equal(t, providers.ErrorTimeout, ans.ErrorType)
}

func TestNoEvidenceMessageTruncates(t *testing.T) {
	var names []string
	for i := 0; i < 20; i++ {
		names = append(names, string(rune('A'+i)))
	}
	msg := NoEvidenceMessage(names)
	require.Contains(t, msg, "A, B, C, D, E, F, G, H, I, J, K, L\n")
	require.NotContains(t, msg, "M")
	require.Contains(t, NoEvidenceMessage(nil), "(muestra): N/A")
}
