// Package store reads the collaborator-maintained commission tree and the
// KOM profile directory. Scans are tolerant: unreadable or malformed files
// are skipped and logged, never surfaced as errors.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"observatorio/internal/models"
	"observatorio/internal/util"

	"go.uber.org/zap"
)

const (
	HistoryFile = "historial.csv"
	RosterFile  = "integrantes.json"
)

// Groups are the commission groups under the data repo root.
var Groups = []string{"Permanentes", "Otras", "Unidas"}

var (
	ErrHistoryNotFound    = errors.New("historial.csv not found")
	ErrTranscriptNotFound = errors.New("transcript not found")
)

var yearTokenRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

type Store struct {
	DataRepoDir string
	KomDir      string

	logger *zap.Logger
	now    func() time.Time
}

func New(dataRepoDir, komDir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{DataRepoDir: dataRepoDir, KomDir: komDir, logger: logger, now: time.Now}
}

func (s *Store) commissionDir(group, commission string) (string, bool) {
	g, ok := util.SafeName(group)
	if !ok {
		return "", false
	}
	return util.SafeJoin(filepath.Join(s.DataRepoDir, g), commission)
}

// ListCommissions lists commission directories of group whose name contains q
// (case-insensitive), with the number of rows in their session history.
func (s *Store) ListCommissions(group, q string) []models.Commission {
	base, ok := util.SafeJoin(s.DataRepoDir, group)
	if !ok {
		return []models.Commission{}
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		s.logger.Debug("commission group unreadable", zap.String("group", group), zap.Error(err))
		return []models.Commission{}
	}
	ql := strings.ToLower(strings.TrimSpace(q))
	out := []models.Commission{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := e.Name()
		if ql != "" && !strings.Contains(strings.ToLower(name), ql) {
			continue
		}
		total := len(ReadCSV(filepath.Join(base, name, HistoryFile)))
		out = append(out, models.Commission{Name: name, Nombre: name, Group: group, TotalSessions: total})
	}
	return out
}

// CommissionSessions groups the commission history by year. The current year
// is always present so clients can render an empty bucket.
func (s *Store) CommissionSessions(group, commission string) (models.CommissionSessions, error) {
	dir, ok := s.commissionDir(group, commission)
	if !ok {
		return models.CommissionSessions{}, ErrHistoryNotFound
	}
	hist := filepath.Join(dir, HistoryFile)
	if _, err := os.Stat(hist); err != nil {
		return models.CommissionSessions{}, ErrHistoryNotFound
	}

	byYear := map[string][]models.Session{}
	years := map[int]struct{}{s.now().Year(): {}}
	for _, raw := range ReadCSV(hist) {
		row := NormalizeRow(raw, HistoryAliases)
		sid, fecha := row["ID"], row["Fecha"]
		if sid == "" && fecha == "" {
			continue
		}
		yearStr := row["Año"]
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			year = 0
			if m := yearTokenRe.FindString(fecha); m != "" {
				year, _ = strconv.Atoi(m)
				yearStr = m
			}
		}
		var yearNum *int
		if year > 0 {
			years[year] = struct{}{}
			y := year
			yearNum = &y
		}
		_, hasTranscript := s.FindTranscriptPath(group, commission, sid)
		sess := models.Session{
			ID:            sid,
			Year:          yearStr,
			YearNum:       yearNum,
			Month:         row["Mes"],
			Date:          fecha,
			Status:        row["Estado"],
			Citation:      row["Citacion"],
			Minutes:       row["Acta"],
			Account:       row["Cuenta"],
			HasTranscript: sid != "" && hasTranscript,
		}
		key := "unknown"
		if year > 0 {
			key = strconv.Itoa(year)
		}
		byYear[key] = append(byYear[key], sess)
	}

	yearList := make([]int, 0, len(years))
	for y := range years {
		yearList = append(yearList, y)
		key := strconv.Itoa(y)
		if _, ok := byYear[key]; !ok {
			byYear[key] = []models.Session{}
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(yearList)))

	return models.CommissionSessions{
		Group:          group,
		CommissionName: commission,
		Meta:           s.commissionMeta(dir),
		Years:          yearList,
		SessionsByYear: byYear,
	}, nil
}

func (s *Store) commissionMeta(dir string) map[string]string {
	meta := map[string]string{}
	obj, ok := readJSONObject(filepath.Join(dir, RosterFile))
	if !ok {
		return meta
	}
	for k, v := range obj {
		if str, ok := v.(string); ok {
			meta[k] = str
		}
	}
	return meta
}

// FindTranscriptPath looks for <sid>.txt under transcripts/ then txt/.
func (s *Store) FindTranscriptPath(group, commission, sid string) (string, bool) {
	name, ok := util.SafeName(sid)
	if !ok {
		return "", false
	}
	dir, ok := s.commissionDir(group, commission)
	if !ok {
		return "", false
	}
	for _, sub := range []string{"transcripts", "txt"} {
		p := filepath.Join(dir, sub, name+".txt")
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
	}
	return "", false
}

func (s *Store) ReadTranscript(group, commission, sid string) (string, error) {
	p, ok := s.FindTranscriptPath(group, commission, sid)
	if !ok {
		return "", ErrTranscriptNotFound
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return "", ErrTranscriptNotFound
	}
	return strings.ToValidUTF8(string(b), ""), nil
}

// AllChambers is the chamber filter value that disables filtering.
const AllChambers = "all"

// ListPoliticians collects named commission members across every group,
// deduplicated by id in first-seen order. chamber "" or "all" keeps every
// chamber.
func (s *Store) ListPoliticians(q, chamber string) []models.Politician {
	ql := strings.ToLower(strings.TrimSpace(q))
	cl := strings.ToLower(strings.TrimSpace(chamber))
	if cl == AllChambers {
		cl = ""
	}
	seen := map[string]struct{}{}
	out := []models.Politician{}

	for _, group := range Groups {
		entries, err := os.ReadDir(filepath.Join(s.DataRepoDir, group))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			for _, m := range readRosterMembers(filepath.Join(s.DataRepoDir, group, e.Name(), RosterFile)) {
				p := models.Politician{
					ID:       m["id"],
					Nombre:   m["nombre"],
					Cargo:    m["cargo"],
					Chamber:  m["chamber"],
					URLFicha: m["url_ficha"],
				}
				if strings.TrimSpace(p.Nombre) == "" {
					continue
				}
				if p.ID == "" {
					p.ID = p.Nombre
				}
				if _, dup := seen[p.ID]; dup {
					continue
				}
				if ql != "" && !strings.Contains(strings.ToLower(p.Nombre), ql) {
					continue
				}
				if cl != "" && strings.ToLower(p.Chamber) != cl {
					continue
				}
				seen[p.ID] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out
}

func readRosterMembers(path string) []map[string]string {
	v, ok := ReadJSONFile(path)
	if !ok {
		return nil
	}
	var list []any
	switch x := v.(type) {
	case []any:
		list = x
	case map[string]any:
		for _, k := range rosterListKeys {
			if l, ok := x[k].([]any); ok {
				list = l
				break
			}
		}
	}
	out := make([]map[string]string, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, NormalizeObject(obj, MemberAliases))
		}
	}
	return out
}
