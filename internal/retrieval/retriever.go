package retrieval

import (
	"context"
	"sort"
	"time"

	"observatorio/internal/models"

	"go.uber.org/zap"
)

type Options struct {
	TopK           int
	CandidateLimit int
	MaxReadChars   int
	MaxSnippets    int
	SnippetRadius  int
	EntityMinLen   int
	ReadParallel   int
}

func DefaultOptions() Options {
	return Options{
		TopK:           DefaultTopK,
		CandidateLimit: DefaultCandidateLimit,
		MaxReadChars:   DefaultMaxReadChars,
		MaxSnippets:    DefaultMaxSnippets,
		SnippetRadius:  DefaultSnippetRadius,
		EntityMinLen:   DefaultEntityMinLen,
		ReadParallel:   DefaultReadParallel,
	}
}

type Retriever struct {
	reader TextReader
	opts   Options
	logger *zap.Logger
}

func NewRetriever(reader TextReader, opts Options, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{reader: reader, opts: opts, logger: logger}
}

// Retrieve runs the lexical pipeline over one catalog snapshot.
func (r *Retriever) Retrieve(ctx context.Context, cat *Catalog, question string) models.RetrievalResult {
	started := time.Now()
	keywords := ExtractKeywords(question)
	filter, filtered := DetectEntityFilter(question, cat.Entities(), r.opts.EntityMinLen)

	pool := cat.Docs()
	if filtered {
		pool = filterByEntity(pool, filter)
	}

	candidates := RankByMetadata(pool, keywords, question, r.opts.CandidateLimit)
	ranked := RankByContent(ctx, candidates, keywords, r.reader, ContentOptions{
		TopK:         r.opts.TopK,
		MaxReadChars: r.opts.MaxReadChars,
		Parallel:     r.opts.ReadParallel,
	})

	docs := make([]models.ScoredDocument, 0, len(ranked))
	for _, rk := range ranked {
		docs = append(docs, models.ScoredDocument{
			Doc:      rk.Doc,
			Score:    rk.Score,
			Snippets: ExtractSnippets(rk.Text, keywords, r.opts.MaxSnippets, r.opts.SnippetRadius),
		})
	}

	res := models.RetrievalResult{
		Documents:    docs,
		Searched:     searchedEntities(candidates),
		Keywords:     keywords,
		EntityFilter: filter,
	}
	r.logger.Debug("retrieval finished",
		zap.Strings("keywords", keywords),
		zap.String("entity_filter", filter),
		zap.Int("pool", len(pool)),
		zap.Int("candidates", len(candidates)),
		zap.Int("documents", len(docs)),
		zap.Duration("elapsed", time.Since(started)))
	return res
}

func filterByEntity(pool []models.DocumentReference, entity string) []models.DocumentReference {
	out := make([]models.DocumentReference, 0, len(pool))
	for _, d := range pool {
		if d.Entity == entity {
			out = append(out, d)
		}
	}
	return out
}

func searchedEntities(candidates []models.DocumentReference) []string {
	set := map[string]struct{}{}
	for _, d := range candidates {
		set[d.Entity] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for e := range set {
		if e != "" {
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}
