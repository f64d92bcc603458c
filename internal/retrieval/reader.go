package retrieval

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"observatorio/internal/store"
	"observatorio/internal/util"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// DefaultMaxReadChars bounds how much of one document the content pass reads.
const DefaultMaxReadChars = 250_000

// historyRowLimit caps how many session rows of a history file become text.
const historyRowLimit = 200

// TextReader renders a catalog document as plain text. It never fails: any
// read problem yields an empty string.
type TextReader interface {
	ReadText(path string, maxChars int) string
}

// FileReader reads documents from the local filesystem, rendering structured
// files (roster JSON, history CSV, profile JSON) as compact JSON text.
type FileReader struct {
	logger *zap.Logger
}

func NewFileReader(logger *zap.Logger) *FileReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileReader{logger: logger}
}

func (r *FileReader) ReadText(path string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxReadChars
	}
	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text = r.readPDF(path)
	case ".json":
		text = r.readJSON(path)
	case ".csv":
		text = r.readHistory(path)
	default:
		text = r.readPlain(path, maxChars)
	}
	return truncateRunes(text, maxChars)
}

func (r *FileReader) readPlain(path string, maxChars int) string {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Debug("read text failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	defer f.Close()
	// a rune is at most 4 bytes, so this always covers maxChars runes
	b, err := io.ReadAll(io.LimitReader(f, int64(maxChars)*utf8.UTFMax))
	if err != nil {
		r.logger.Debug("read text failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	return strings.ToValidUTF8(string(b), "")
}

func (r *FileReader) readPDF(path string) string {
	f, rd, err := pdf.Open(path)
	if err != nil {
		r.logger.Debug("open pdf failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	defer f.Close()
	plain, err := rd.GetPlainText()
	if err != nil {
		r.logger.Debug("extract pdf text failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, plain); err != nil {
		r.logger.Debug("read extracted pdf text failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	text := util.SanitizeText(buf.String())
	if strings.TrimSpace(text) == "" {
		r.logger.Debug("pdf skipped", zap.String("path", path), zap.Error(util.ErrNoExtractableText))
	}
	return text
}

func (r *FileReader) readJSON(path string) string {
	v, ok := store.ReadJSONFile(path)
	if !ok {
		r.logger.Debug("unreadable json document", zap.String("path", path))
		return ""
	}
	return compactJSON(v)
}

func (r *FileReader) readHistory(path string) string {
	rows := store.ReadCSV(path)
	if len(rows) == 0 {
		return ""
	}
	if len(rows) > historyRowLimit {
		rows = rows[:historyRowLimit]
	}
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, store.NormalizeRow(row, store.HistoryAliases))
	}
	return compactJSON(out)
}

func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
