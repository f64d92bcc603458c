package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"observatorio/internal/models"
	"observatorio/internal/util"
)

var ErrInvalidProfileKey = errors.New("invalid chamber or pid")

func (s *Store) profilePath(chamber, pid string) (string, bool) {
	dir, ok := util.SafeJoin(filepath.Join(s.KomDir, "profiles"), chamber)
	if !ok {
		return "", false
	}
	name, ok := util.SafeName(pid)
	if !ok {
		return "", false
	}
	return filepath.Join(dir, name+".json"), true
}

const defaultChamber = "camara"

func normalizeProfileKey(chamber, pid string) (string, string) {
	chamber = strings.ToLower(strings.TrimSpace(chamber))
	if chamber == "" {
		chamber = defaultChamber
	}
	return chamber, strings.TrimSpace(pid)
}

// GetProfile returns the stored KOM profile, or an empty default (exists is
// false) when none has been saved yet.
func (s *Store) GetProfile(chamber, pid string) (p models.KomProfile, exists bool, err error) {
	chamber, pid = normalizeProfileKey(chamber, pid)
	path, ok := s.profilePath(chamber, pid)
	if !ok {
		return models.KomProfile{}, false, ErrInvalidProfileKey
	}
	p = models.KomProfile{ID: pid, Chamber: chamber, Tags: []string{}, Links: []string{}}
	obj, ok := readJSONObject(path)
	if !ok {
		return p, false, nil
	}
	p.Tags = stringList(obj["tags"])
	p.Links = stringList(obj["links"])
	if n, ok := obj["notas"].(string); ok {
		p.Notes = n
	} else if n, ok := obj["notes"].(string); ok {
		p.Notes = n
	}
	if u, ok := obj["updated_at"].(string); ok {
		p.UpdatedAt = u
	}
	return p, true, nil
}

// SaveProfile overwrites the profile; id, chamber and updated_at are always
// set by the server.
func (s *Store) SaveProfile(chamber, pid string, in models.KomProfile) (models.KomProfile, error) {
	chamber, pid = normalizeProfileKey(chamber, pid)
	path, ok := s.profilePath(chamber, pid)
	if !ok {
		return models.KomProfile{}, ErrInvalidProfileKey
	}
	out := in
	out.ID = pid
	out.Chamber = chamber
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Links == nil {
		out.Links = []string{}
	}
	out.UpdatedAt = s.now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
	if err := util.WriteJSONAtomic(path, out); err != nil {
		return models.KomProfile{}, fmt.Errorf("save profile %s/%s: %w", chamber, pid, err)
	}
	return out, nil
}

func stringList(v any) []string {
	out := []string{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, x := range arr {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
