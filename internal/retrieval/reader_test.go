package retrieval

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileReaderPlainTextIsBounded(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", "ñandú corre")
	r := NewFileReader(nil)
	require.Equal(t, "ñan", r.ReadText(p, 3))
	require.Equal(t, "ñandú corre", r.ReadText(p, 0))
}

func TestFileReaderMissingFile(t *testing.T) {
	r := NewFileReader(nil)
	require.Equal(t, "", r.ReadText(filepath.Join(t.TempDir(), "missing.txt"), 100))
	require.Equal(t, "", r.ReadText(filepath.Join(t.TempDir(), "missing.pdf"), 100))
}

func TestFileReaderJSONIsCompact(t *testing.T) {
	p := writeFile(t, t.TempDir(), "integrantes.json", "{\n  \"b\": \"<x>\",\n  \"a\": 1\n}")
	require.Equal(t, `{"a":1,"b":"<x>"}`, NewFileReader(nil).ReadText(p, 1000))
}

func TestFileReaderHistoryNormalizesAliases(t *testing.T) {
	p := writeFile(t, t.TempDir(), "historial.csv", "\xEF\xBB\xBFano,Id,Fecha\n2024,173,01-02-2024\n")
	text := NewFileReader(nil).ReadText(p, 10_000)
	require.Contains(t, text, `"Año":"2024"`)
	require.Contains(t, text, `"ID":"173"`)
	require.Contains(t, text, `"Fecha":"01-02-2024"`)
}
