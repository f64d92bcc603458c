package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"observatorio/internal/models"

	"go.uber.org/zap"
)

const (
	NewsSourceDiarioOficial = "diario_oficial"
	DefaultNewsLimit        = 200

	newsExportDir = "DIARIO_OFICIAL_EXPORT"
)

// NewsFeed reads the newest Diario Oficial export that sits next to the KOM
// directory. JSON exports win over CSV; files whose name mentions "log" are
// ignored. Only the diario_oficial source exists.
func (s *Store) NewsFeed(source, q string, limit int) []models.NewsItem {
	if source == "" {
		source = NewsSourceDiarioOficial
	}
	if source != NewsSourceDiarioOficial {
		return []models.NewsItem{}
	}
	if limit <= 0 {
		limit = DefaultNewsLimit
	}

	dir := filepath.Join(filepath.Dir(filepath.Clean(s.KomDir)), newsExportDir)
	path, ok := latestExport(dir)
	if !ok {
		s.logger.Debug("no news export found", zap.String("dir", dir))
		return []models.NewsItem{}
	}

	var rows []map[string]string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		for _, r := range ReadCSV(path) {
			rows = append(rows, NormalizeRow(r, NewsAliases))
		}
	} else {
		for _, obj := range readJSONRecords(path) {
			rows = append(rows, NormalizeObject(obj, NewsAliases))
		}
	}

	ql := strings.ToLower(strings.TrimSpace(q))
	items := []models.NewsItem{}
	for _, r := range rows {
		if ql != "" {
			hay := strings.ToLower(r["titulo"] + " " + r["tab"] + " " + r["cve"])
			if !strings.Contains(hay, ql) {
				continue
			}
		}
		items = append(items, models.NewsItem{
			Title:      r["titulo"],
			Date:       r["fecha"],
			URL:        r["pdf_url"],
			EditionURL: r["edicion_url"],
			CVE:        r["cve"],
			Edition:    r["edition"],
			Tab:        r["tab"],
			Source:     source,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return newsDate(items[i].Date).After(newsDate(items[j].Date))
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func newsDate(raw string) time.Time {
	t, err := time.Parse("02-01-2006", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}

func latestExport(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	pick := func(ext string) (string, bool) {
		var best string
		var bestMod time.Time
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ext) {
				continue
			}
			if strings.Contains(strings.ToLower(name), "log") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if best == "" || info.ModTime().After(bestMod) {
				best, bestMod = filepath.Join(dir, name), info.ModTime()
			}
		}
		return best, best != ""
	}
	if p, ok := pick(".json"); ok {
		return p, true
	}
	return pick(".csv")
}

// readJSONRecords accepts either a JSON array of objects or JSON lines.
func readJSONRecords(path string) []map[string]any {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []map[string]any
		if err := json.Unmarshal(trimmed, &arr); err == nil {
			return arr
		}
		return nil
	}
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err == nil {
			out = append(out, obj)
		}
	}
	return out
}
