// Package agent answers questions about the legislative repository using only
// retrieved evidence.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"observatorio/internal/prompt"
	"observatorio/internal/providers"
	"observatorio/internal/retrieval"
	"observatorio/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout         = 60 * time.Second
	DefaultTemperature     = 0.2
	DefaultMaxOutputTokens = 1200

	auditTimeout = 3 * time.Second
)

// CatalogSource hands out the current catalog snapshot.
type CatalogSource interface {
	Current() *retrieval.Catalog
}

// AuditRecorder persists one row per ask. storage.AskAuditRepo implements it.
type AuditRecorder interface {
	Insert(ctx context.Context, rec storage.AskRecord) error
}

type Options struct {
	Timeout         time.Duration
	Temperature     float64
	MaxOutputTokens int
}

type Deps struct {
	Generator providers.Generator
	// Configured is false when no generator credential is present; Ask then
	// answers with a warning without touching the catalog.
	Configured bool
	Catalog    CatalogSource
	Retriever  *retrieval.Retriever
	Audit      AuditRecorder
	Logger     *zap.Logger
	Options    Options
}

type Agent struct {
	gen        providers.Generator
	configured bool
	catalog    CatalogSource
	retriever  *retrieval.Retriever
	audit      AuditRecorder
	logger     *zap.Logger
	opts       Options
}

func New(d Deps) *Agent {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Options.Timeout <= 0 {
		d.Options.Timeout = DefaultTimeout
	}
	if d.Options.MaxOutputTokens <= 0 {
		d.Options.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if d.Options.Temperature < 0 {
		d.Options.Temperature = DefaultTemperature
	}
	return &Agent{
		gen:        d.Generator,
		configured: d.Configured && d.Generator != nil,
		catalog:    d.Catalog,
		retriever:  d.Retriever,
		audit:      d.Audit,
		logger:     d.Logger,
		opts:       d.Options,
	}
}

func (a *Agent) Configured() bool {
	return a.configured
}

// Ask never returns an error and never panics; every failure is folded into
// the returned Answer.
func (a *Agent) Ask(ctx context.Context, question string) (ans Answer) {
	started := time.Now()
	reqID := uuid.NewString()
	var entityFilter string

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("ask panicked", zap.String("request_id", reqID), zap.Any("panic", r))
			ans = Answer{Kind: KindGenerationFailed, Detail: fmt.Sprintf("error interno: %v", r), ErrorType: providers.ErrorPermanent}
		}
		ans.RequestID = reqID
		a.record(ctx, question, ans, entityFilter, time.Since(started))
	}()

	if !a.configured {
		return Answer{Kind: KindNotConfigured}
	}

	res := a.retriever.Retrieve(ctx, a.catalog.Current(), question)
	entityFilter = res.EntityFilter
	if len(res.Documents) == 0 {
		return Answer{Kind: KindNoEvidence, Searched: res.Searched}
	}

	gctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()
	resp, info, err := a.gen.Generate(gctx, providers.GenerateRequest{
		Operation:         "legis_answer",
		Prompt:            prompt.Build(question, res.Documents),
		SystemInstruction: prompt.SystemInstruction,
		Temperature:       a.opts.Temperature,
		MaxOutputTokens:   a.opts.MaxOutputTokens,
	})
	if err != nil {
		return Answer{
			Kind:      KindGenerationFailed,
			Detail:    err.Error(),
			ErrorType: providers.ClassifyError(err),
			Searched:  res.Searched,
			Documents: res.Documents,
			Provider:  info,
		}
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return Answer{
			Kind:      KindGenerationFailed,
			Detail:    "el generador devolvió una respuesta vacía",
			ErrorType: providers.ErrorPermanent,
			Searched:  res.Searched,
			Documents: res.Documents,
			Provider:  info,
		}
	}
	return Answer{
		Kind:      KindAnswered,
		Text:      text,
		Searched:  res.Searched,
		Documents: res.Documents,
		Provider:  info,
	}
}

func (a *Agent) record(ctx context.Context, question string, ans Answer, entityFilter string, latency time.Duration) {
	fields := []zap.Field{
		zap.String("request_id", ans.RequestID),
		zap.String("kind", string(ans.Kind)),
		zap.Int("documents", len(ans.Documents)),
		zap.String("entity_filter", entityFilter),
		zap.Duration("latency", latency),
	}
	if ans.Kind == KindGenerationFailed {
		a.logger.Warn("ask failed", append(fields, zap.String("error_type", string(ans.ErrorType)), zap.String("detail", ans.Detail))...)
	} else {
		a.logger.Info("ask finished", fields...)
	}
	if a.audit == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
	defer cancel()
	err := a.audit.Insert(actx, storage.AskRecord{
		RequestID:    ans.RequestID,
		Question:     question,
		Outcome:      string(ans.Kind),
		ErrorType:    string(ans.ErrorType),
		ProviderName: ans.Provider.Name,
		Model:        ans.Provider.Model,
		EntityFilter: entityFilter,
		DocCount:     len(ans.Documents),
		Latency:      latency,
	})
	if err != nil {
		a.logger.Warn("ask audit insert failed", zap.String("request_id", ans.RequestID), zap.Error(err))
	}
}
