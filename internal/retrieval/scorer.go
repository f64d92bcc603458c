package retrieval

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"observatorio/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultCandidateLimit = 60
	DefaultTopK           = 6
	DefaultReadParallel   = 8

	metadataKeywordWeight = 3
	sessionIDBonus        = 8
	perKeywordCap         = 30
)

var bareNumberRe = regexp.MustCompile(`\b\d{2,}\b`)

// RankByMetadata shortlists candidates by matching keywords against the
// "group entity shortId" string of each document, plus a bonus when a number
// in the question appears in the short id. With no metadata signal at all it
// falls back to the first limit documents of the pool.
func RankByMetadata(pool []models.DocumentReference, keywords KeywordSet, question string, limit int) []models.DocumentReference {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}
	nums := bareNumberRe.FindAllString(normalizeText(question), -1)

	type prelim struct {
		score int
		doc   models.DocumentReference
	}
	var ranked []prelim
	for _, d := range pool {
		if s := metadataScore(d, keywords, nums); s > 0 {
			ranked = append(ranked, prelim{score: s, doc: d})
		}
	}

	if len(ranked) == 0 {
		return headDocs(pool, limit)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]models.DocumentReference, len(ranked))
	for i, p := range ranked {
		out[i] = p.doc
	}
	return out
}

func metadataScore(d models.DocumentReference, keywords KeywordSet, nums []string) int {
	ptxt := normalizeText(d.Group + " " + d.Entity + " " + d.ShortID)
	s := 0
	for _, w := range keywords {
		if strings.Contains(ptxt, w) {
			s += metadataKeywordWeight
		}
	}
	for _, n := range nums {
		if strings.Contains(d.ShortID, n) {
			s += sessionIDBonus
			break
		}
	}
	return s
}

func headDocs(pool []models.DocumentReference, limit int) []models.DocumentReference {
	if len(pool) > limit {
		pool = pool[:limit]
	}
	out := make([]models.DocumentReference, len(pool))
	copy(out, pool)
	return out
}

// ScoreText sums, over the keywords, the number of case-insensitive literal
// occurrences in text, each keyword contributing at most 30.
func ScoreText(text string, keywords KeywordSet) int {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	return scoreNormalized(normalizeText(text), keywords)
}

func scoreNormalized(low string, keywords KeywordSet) int {
	score := 0
	for _, w := range keywords {
		if len([]rune(w)) < minKeywordRunes {
			continue
		}
		c := strings.Count(low, w)
		if c > perKeywordCap {
			c = perKeywordCap
		}
		score += c
	}
	return score
}

// Ranked is a content-scored document together with the text that was read.
type Ranked struct {
	Doc   models.DocumentReference
	Score int
	Text  string
}

type ContentOptions struct {
	TopK         int
	MaxReadChars int
	Parallel     int
}

// RankByContent reads each candidate through reader and keeps the topK
// documents with a positive keyword score, best first. Ties keep candidate
// order. Reads run with bounded parallelism; a cancelled context returns nil.
func RankByContent(ctx context.Context, candidates []models.DocumentReference, keywords KeywordSet, reader TextReader, opts ContentOptions) []Ranked {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxReadChars <= 0 {
		opts.MaxReadChars = DefaultMaxReadChars
	}
	if opts.Parallel <= 0 {
		opts.Parallel = DefaultReadParallel
	}
	if len(candidates) == 0 || len(keywords) == 0 {
		return nil
	}

	results := make([]Ranked, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i, d := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text := reader.ReadText(d.Path, opts.MaxReadChars)
			results[i] = Ranked{Doc: d, Score: ScoreText(text, keywords), Text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil
	}

	scored := results[:0]
	for _, r := range results {
		if r.Score > 0 {
			scored = append(scored, r)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}
	return scored
}
