package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"observatorio/internal/models"
)

var transcriptDirs = []string{"transcripts", "txt"}

// TranscriptIDs lists the session ids that have a .txt or .pdf transcript,
// sorted and deduplicated across both transcript folders.
func (s *Store) TranscriptIDs(group, commission string) []string {
	dir, ok := s.commissionDir(group, commission)
	if !ok {
		return []string{}
	}
	seen := map[string]struct{}{}
	for _, sub := range transcriptDirs {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext != ".txt" && ext != ".pdf" {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AuditCommission reports history sessions without a transcript and
// transcripts that no history row mentions.
func (s *Store) AuditCommission(group, commission string) models.CommissionAudit {
	audit := models.CommissionAudit{
		Group:              group,
		Commission:         commission,
		MissingTranscripts: []string{},
		OrphanTranscripts:  []string{},
	}
	transcripts := s.TranscriptIDs(group, commission)
	audit.Transcripts = len(transcripts)

	if dir, ok := s.commissionDir(group, commission); ok {
		if st, err := os.Stat(filepath.Join(dir, RosterFile)); err == nil && st.Mode().IsRegular() {
			audit.HasRoster = true
		}
	}

	have := make(map[string]struct{}, len(transcripts))
	for _, id := range transcripts {
		have[id] = struct{}{}
	}
	listed := map[string]struct{}{}
	sessions, err := s.CommissionSessions(group, commission)
	if err == nil {
		audit.HasHistory = true
		for _, list := range sessions.SessionsByYear {
			for _, sess := range list {
				if sess.ID == "" {
					continue
				}
				audit.Sessions++
				if _, dup := listed[sess.ID]; dup {
					continue
				}
				listed[sess.ID] = struct{}{}
				if _, ok := have[sess.ID]; !ok {
					audit.MissingTranscripts = append(audit.MissingTranscripts, sess.ID)
				}
			}
		}
	}
	for _, id := range transcripts {
		if _, ok := listed[id]; !ok {
			audit.OrphanTranscripts = append(audit.OrphanTranscripts, id)
		}
	}
	sort.Strings(audit.MissingTranscripts)
	return audit
}
