package store

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"observatorio/internal/models"
	"observatorio/internal/util"

	"go.uber.org/zap"
)

const DefaultActivityDays = 90

type ActivityQuery struct {
	Group    string
	Status   string
	Q        string
	DaysBack int
}

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

// ParseSessionDate understands the date spellings found in historial.csv:
// 02-01-2006, 02/01/2006, 2006-01-02 and "2 de enero de 2006".
func ParseSessionDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"02-01-2006", "02/01/2006", "2006-01-02", "2-1-2006", "2/1/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return parseLongSpanishDate(raw)
}

func parseLongSpanishDate(raw string) (time.Time, bool) {
	s := strings.ToLower(raw)
	if i := strings.Index(s, ","); i >= 0 {
		// "martes, 2 de enero de 2024"
		s = s[i+1:]
	}
	s = strings.ReplaceAll(s, "de ", "")
	f := strings.Fields(s)
	if len(f) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(f[0])
	month, ok := spanishMonths[f[1]]
	year, err2 := strconv.Atoi(f[2])
	if err1 != nil || err2 != nil || !ok || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

// ActivityFeed lists sessions from every commission history, newest first.
// Sessions older than DaysBack are dropped. Sessions without a usable date are
// kept and listed last.
func (s *Store) ActivityFeed(q ActivityQuery) []models.ActivityItem {
	if q.DaysBack <= 0 {
		q.DaysBack = DefaultActivityDays
	}
	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -q.DaysBack)
	status := strings.ToLower(strings.TrimSpace(q.Status))
	name := strings.ToLower(strings.TrimSpace(q.Q))

	groups := Groups
	if g := strings.TrimSpace(q.Group); g != "" {
		groups = []string{g}
	}

	type dated struct {
		when time.Time
		item models.ActivityItem
	}
	var rows []dated
	for _, group := range groups {
		g, ok := util.SafeName(group)
		if !ok {
			continue
		}
		base := filepath.Join(s.DataRepoDir, g)
		entries, err := os.ReadDir(base)
		if err != nil {
			s.logger.Debug("activity group unreadable", zap.String("group", group), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			commission := e.Name()
			if name != "" && !strings.Contains(strings.ToLower(commission), name) {
				continue
			}
			for _, raw := range ReadCSV(filepath.Join(base, commission, HistoryFile)) {
				row := NormalizeRow(raw, HistoryAliases)
				if status != "" && !strings.Contains(strings.ToLower(row["Estado"]), status) {
					continue
				}
				if blankRow(row) {
					continue
				}
				when, keep := activityDate(row, cutoff)
				if !keep {
					continue
				}
				rows = append(rows, dated{when: when, item: models.ActivityItem{
					Group:      group,
					Commission: commission,
					Year:       row["Año"],
					Month:      row["Mes"],
					SessionID:  row["ID"],
					Date:       row["Fecha"],
					Status:     row["Estado"],
					Citation:   row["Citacion"],
				}})
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].when.After(rows[j].when) })
	out := make([]models.ActivityItem, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out
}

// activityDate resolves the sort key of a history row and whether it survives
// the cutoff. An unparseable Fecha is only dropped when it carries a year token
// older than the cutoff year. Undated rows get the zero time and sort last.
func activityDate(row map[string]string, cutoff time.Time) (time.Time, bool) {
	fecha := row["Fecha"]
	if when, ok := ParseSessionDate(fecha); ok {
		return when, !when.Before(cutoff)
	}
	if y := yearTokenRe.FindString(fecha); y != "" {
		yn, _ := strconv.Atoi(y)
		if yn < cutoff.Year() {
			return time.Time{}, false
		}
		return time.Date(yn, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, true
}

func blankRow(row map[string]string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
