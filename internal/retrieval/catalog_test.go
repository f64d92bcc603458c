package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"observatorio/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedRepo(t *testing.T) (root, kom string) {
	t.Helper()
	base := t.TempDir()
	root = filepath.Join(base, "data")
	kom = filepath.Join(base, "kom")
	writeFile(t, root, "Permanentes/Agricultura/transcripts/173.txt", "sesión 173")
	writeFile(t, root, "Permanentes/Agricultura/txt/174.txt", "sesión 174")
	writeFile(t, root, "Unidas/Hacienda/transcripts/12.pdf", "%PDF-1.4")
	writeFile(t, root, "Permanentes/Agricultura/integrantes.json", `{"integrantes":[]}`)
	writeFile(t, root, "Permanentes/Agricultura/historial.csv", "ID,Fecha\n173,01-02-2024\n")
	writeFile(t, root, "notes.txt", "loose")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Permanentes/Agricultura/transcripts/dir.txt"), 0o755))
	writeFile(t, kom, "a.json", `{"tags":[]}`)
	writeFile(t, kom, "profiles/diputados/p1.json", `{"notas":"x"}`)
	return root, kom
}

func shortIDs(docs []models.DocumentReference) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ShortID
	}
	return out
}

func TestBuildCatalogTranscripts(t *testing.T) {
	root, _ := seedRepo(t)
	c := BuildCatalog(context.Background(), CatalogOptions{Root: root, Logger: zap.NewNop()})

	require.Equal(t, []string{"173", "12", "174"}, shortIDs(c.Docs()))
	require.Equal(t, []string{"Agricultura", "Hacienda"}, c.Entities())
	for _, d := range c.Docs() {
		require.True(t, filepath.IsAbs(d.Path))
		require.Equal(t, models.KindTranscript, d.Kind)
	}
	require.Equal(t, "Unidas", c.Docs()[1].Group)
}

func TestBuildCatalogStructured(t *testing.T) {
	root, kom := seedRepo(t)
	c := BuildCatalog(context.Background(), CatalogOptions{Root: root, ProfileRoot: kom, Structured: true})

	require.Equal(t, []string{"173", "12", "174", "integrantes", "historial", "a", "p1"}, shortIDs(c.Docs()))
	require.Equal(t, []string{"Agricultura", "Hacienda", "KOM"}, c.Entities())
	counts := c.CountByKind()
	require.Equal(t, 3, counts[models.KindTranscript])
	require.Equal(t, 1, counts[models.KindRoster])
	require.Equal(t, 1, counts[models.KindHistory])
	require.Equal(t, 2, counts[models.KindProfile])
}

func TestBuildCatalogMissingRoot(t *testing.T) {
	c := BuildCatalog(context.Background(), CatalogOptions{Root: filepath.Join(t.TempDir(), "nope")})
	require.Equal(t, 0, c.Len())
	require.Empty(t, c.Entities())
}

func TestTranscriptRefRejectsShallowPaths(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "Permanentes/173.txt", "x")
	_, reason := transcriptRef(root, p)
	require.Equal(t, "path too shallow", reason)
}

func TestNewCatalogDedupesPaths(t *testing.T) {
	c := NewCatalog([]models.DocumentReference{
		{Path: "/a", ShortID: "old", Entity: "Agua"},
		{Path: "/b", ShortID: "b", Entity: "Hacienda"},
		{Path: "/a", ShortID: "new", Entity: "Agua"},
	})
	require.Equal(t, []string{"new", "b"}, shortIDs(c.Docs()))
	require.Equal(t, []string{"Agua", "Hacienda"}, c.Entities())
}

func TestHolderRebuildPublishesNewSnapshot(t *testing.T) {
	root := t.TempDir()
	h := NewHolder(CatalogOptions{Root: root})
	require.Equal(t, 0, h.Current().Len())

	writeFile(t, root, "Permanentes/Agricultura/transcripts/1.txt", "x")
	before := h.Current()
	after := h.Rebuild(context.Background())
	require.Equal(t, 1, after.Len())
	require.Same(t, after, h.Current())
	require.Equal(t, 0, before.Len(), "old snapshot must not change")
	require.Equal(t, []string{root}, h.Roots())
}

func TestHolderRebuildCancelledKeepsSnapshot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Permanentes/Agricultura/transcripts/1.txt", "x")
	h := NewHolder(CatalogOptions{Root: root})
	first := h.Rebuild(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Same(t, first, h.Rebuild(ctx))
}
