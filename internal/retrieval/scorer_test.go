package retrieval

import (
	"context"
	"strings"
	"testing"

	"observatorio/internal/models"

	"github.com/stretchr/testify/require"
)

func TestScoreTextCapsPerKeyword(t *testing.T) {
	kws := KeywordSet{"agua"}
	require.Equal(t, 30, ScoreText(strings.Repeat("agua ", 50), kws))
	require.Equal(t, 2, ScoreText("El AGUA y el Agua", kws))
	require.Equal(t, 0, ScoreText("", kws))
	require.Equal(t, 0, ScoreText("agua", nil))

	// Each keyword is capped on its own.
	text := strings.Repeat("agua ", 40) + strings.Repeat("riego ", 3)
	require.Equal(t, 33, ScoreText(text, KeywordSet{"agua", "riego"}))
}

func TestScoreTextMatchesComposedAccents(t *testing.T) {
	// "sesión" written with a combining acute accent.
	decomposed := "Sesio\u0301n ordinaria"
	require.Equal(t, 1, ScoreText(decomposed, KeywordSet{"sesión"}))
}

func TestRankByMetadata(t *testing.T) {
	agri173 := models.DocumentReference{Path: "/a/173.txt", Group: "Permanentes", Entity: "Agricultura", ShortID: "173"}
	agri90 := models.DocumentReference{Path: "/a/90.txt", Group: "Permanentes", Entity: "Agricultura", ShortID: "90"}
	hac := models.DocumentReference{Path: "/h/12.txt", Group: "Permanentes", Entity: "Hacienda", ShortID: "12"}
	pool := []models.DocumentReference{hac, agri90, agri173}

	q := "¿Qué se discutió en la sesión 173 de Agricultura?"
	got := RankByMetadata(pool, ExtractKeywords(q), q, 60)
	require.Equal(t, []models.DocumentReference{agri173, agri90}, got)
}

func TestRankByMetadataFallsBackToPoolHead(t *testing.T) {
	pool := []models.DocumentReference{
		{Path: "/1", Entity: "Uno", ShortID: "1"},
		{Path: "/2", Entity: "Dos", ShortID: "2"},
		{Path: "/3", Entity: "Tres", ShortID: "3"},
	}
	got := RankByMetadata(pool, KeywordSet{"presupuesto"}, "presupuesto", 2)
	require.Equal(t, pool[:2], got)

	got = RankByMetadata(nil, KeywordSet{"presupuesto"}, "presupuesto", 2)
	require.Empty(t, got)
}

func TestRankByMetadataRespectsLimit(t *testing.T) {
	var pool []models.DocumentReference
	for i := 0; i < 100; i++ {
		pool = append(pool, models.DocumentReference{Path: string(rune('a'+i%26)) + strings.Repeat("x", i), Entity: "Hacienda"})
	}
	got := RankByMetadata(pool, KeywordSet{"hacienda"}, "hacienda", 60)
	require.Len(t, got, 60)
	require.Equal(t, pool[0], got[0])
}

func TestRankByContent(t *testing.T) {
	docs := []models.DocumentReference{
		{Path: "/none"},
		{Path: "/low"},
		{Path: "/high"},
		{Path: "/tie"},
	}
	reader := mapReader{texts: map[string]string{
		"/none": "nada relevante",
		"/low":  "riego",
		"/high": "riego riego riego",
		"/tie":  "riego",
	}}
	got := RankByContent(context.Background(), docs, KeywordSet{"riego"}, reader, ContentOptions{TopK: 6})
	require.Len(t, got, 3)
	require.Equal(t, "/high", got[0].Doc.Path)
	require.Equal(t, 3, got[0].Score)
	require.Equal(t, "riego riego riego", got[0].Text)
	// ties keep candidate order
	require.Equal(t, "/low", got[1].Doc.Path)
	require.Equal(t, "/tie", got[2].Doc.Path)

	top1 := RankByContent(context.Background(), docs, KeywordSet{"riego"}, reader, ContentOptions{TopK: 1})
	require.Len(t, top1, 1)
	require.Equal(t, "/high", top1[0].Doc.Path)
}

func TestRankByContentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs := []models.DocumentReference{{Path: "/a"}}
	got := RankByContent(ctx, docs, KeywordSet{"riego"}, mapReader{texts: map[string]string{"/a": "riego"}}, ContentOptions{})
	require.Nil(t, got)
}
