package retrieval

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"observatorio/internal/models"

	"go.uber.org/zap"
)

// Transcript folders scanned under every <group>/<entity> directory.
var transcriptFolders = []string{"transcripts", "txt"}

var transcriptExts = []string{".txt", ".pdf"}

const (
	rosterFile  = "integrantes.json"
	historyFile = "historial.csv"

	profileGroup  = "perfiles"
	profileEntity = "KOM"
)

// minTranscriptDepth is group/entity/folder/file.
const minTranscriptDepth = 4

type CatalogOptions struct {
	Root        string
	ProfileRoot string
	// Structured adds roster, history and profile documents to the transcripts.
	Structured bool
	Logger     *zap.Logger
}

// Catalog is an immutable snapshot of the discoverable evidence documents.
type Catalog struct {
	docs     []models.DocumentReference
	entities []string
	builtAt  time.Time
}

// NewCatalog builds a snapshot from already known references, collapsing
// duplicate paths (the later reference wins, the first position is kept).
func NewCatalog(docs []models.DocumentReference) *Catalog {
	index := make(map[string]int, len(docs))
	out := make([]models.DocumentReference, 0, len(docs))
	for _, d := range docs {
		if i, ok := index[d.Path]; ok {
			out[i] = d
			continue
		}
		index[d.Path] = len(out)
		out = append(out, d)
	}
	return &Catalog{docs: out, entities: distinctEntities(out), builtAt: time.Now()}
}

// Docs returns the documents in discovery order. Callers must not modify it.
func (c *Catalog) Docs() []models.DocumentReference {
	if c == nil {
		return nil
	}
	return c.docs
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.docs)
}

// Entities returns the sorted distinct entity names of the snapshot.
func (c *Catalog) Entities() []string {
	if c == nil {
		return nil
	}
	return c.entities
}

func (c *Catalog) BuiltAt() time.Time {
	if c == nil {
		return time.Time{}
	}
	return c.builtAt
}

// CountByKind reports how many documents of each kind the snapshot holds.
func (c *Catalog) CountByKind() map[models.DocKind]int {
	out := map[models.DocKind]int{}
	for _, d := range c.Docs() {
		out[d.Kind]++
	}
	return out
}

// BuildCatalog scans the repository layout. A missing or unreadable root
// yields an empty catalog; malformed paths are skipped and logged.
func BuildCatalog(ctx context.Context, opts CatalogOptions) *Catalog {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var docs []models.DocumentReference

	if isDir(opts.Root) {
		docs = append(docs, scanTranscripts(opts.Root, log)...)
		if opts.Structured && ctx.Err() == nil {
			docs = append(docs, scanEntityFiles(opts.Root, rosterFile, models.KindRoster, log)...)
			docs = append(docs, scanEntityFiles(opts.Root, historyFile, models.KindHistory, log)...)
		}
	} else {
		log.Warn("catalog root unavailable", zap.String("root", opts.Root))
	}

	if opts.Structured && opts.ProfileRoot != "" && ctx.Err() == nil {
		docs = append(docs, scanProfiles(opts.ProfileRoot, log)...)
	}

	if err := ctx.Err(); err != nil {
		log.Warn("catalog scan cancelled", zap.Error(err))
		return NewCatalog(nil)
	}
	c := NewCatalog(docs)
	log.Info("catalog built",
		zap.String("root", opts.Root),
		zap.Int("documents", c.Len()),
		zap.Int("entities", len(c.Entities())))
	return c
}

func scanTranscripts(root string, log *zap.Logger) []models.DocumentReference {
	var out []models.DocumentReference
	for _, folder := range transcriptFolders {
		for _, ext := range transcriptExts {
			matches, err := filepath.Glob(filepath.Join(root, "*", "*", folder, "*"+ext))
			if err != nil {
				log.Debug("bad transcript pattern", zap.String("folder", folder), zap.Error(err))
				continue
			}
			for _, p := range matches {
				ref, reason := transcriptRef(root, p)
				if reason != "" {
					log.Debug("skip transcript", zap.String("path", p), zap.String("reason", reason))
					continue
				}
				out = append(out, ref)
			}
		}
	}
	return out
}

func transcriptRef(root, path string) (models.DocumentReference, string) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return models.DocumentReference{}, "outside root"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < minTranscriptDepth {
		return models.DocumentReference{}, "path too shallow"
	}
	if !isFile(path) {
		return models.DocumentReference{}, "not a regular file"
	}
	return models.DocumentReference{
		Path:    absPath(path),
		Group:   parts[0],
		Entity:  parts[1],
		ShortID: stripExt(parts[len(parts)-1]),
		Kind:    models.KindTranscript,
	}, ""
}

func scanEntityFiles(root, name string, kind models.DocKind, log *zap.Logger) []models.DocumentReference {
	matches, err := filepath.Glob(filepath.Join(root, "*", "*", name))
	if err != nil {
		return nil
	}
	out := make([]models.DocumentReference, 0, len(matches))
	for _, p := range matches {
		if !isFile(p) {
			log.Debug("skip entity file", zap.String("path", p), zap.String("reason", "not a regular file"))
			continue
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		out = append(out, models.DocumentReference{
			Path:    absPath(p),
			Group:   parts[0],
			Entity:  parts[1],
			ShortID: stripExt(name),
			Kind:    kind,
		})
	}
	return out
}

func scanProfiles(profileRoot string, log *zap.Logger) []models.DocumentReference {
	if !isDir(profileRoot) {
		log.Debug("profile root unavailable", zap.String("root", profileRoot))
		return nil
	}
	var out []models.DocumentReference
	top, _ := filepath.Glob(filepath.Join(profileRoot, "*.json"))
	for _, p := range top {
		out = append(out, profileRef(p))
	}
	nested := filepath.Join(profileRoot, "profiles")
	if !isDir(nested) {
		return out
	}
	var found []string
	_ = filepath.WalkDir(nested, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug("skip profile path", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".json") {
			found = append(found, p)
		}
		return nil
	})
	sort.Strings(found)
	for _, p := range found {
		out = append(out, profileRef(p))
	}
	return out
}

func profileRef(path string) models.DocumentReference {
	return models.DocumentReference{
		Path:    absPath(path),
		Group:   profileGroup,
		Entity:  profileEntity,
		ShortID: stripExt(filepath.Base(path)),
		Kind:    models.KindProfile,
	}
}

func distinctEntities(docs []models.DocumentReference) []string {
	set := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if d.Entity != "" {
			set[d.Entity] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func isDir(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.Mode().IsRegular()
}

// Holder publishes the current catalog snapshot. Readers never block; a
// rebuild builds a fresh snapshot and swaps it in atomically.
type Holder struct {
	opts    CatalogOptions
	current atomic.Pointer[Catalog]
	mu      sync.Mutex
}

func NewHolder(opts CatalogOptions) *Holder {
	h := &Holder{opts: opts}
	h.current.Store(NewCatalog(nil))
	return h
}

// Current returns the last published snapshot (empty before the first Rebuild).
func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

// Rebuild rescans the repository and publishes the result. Concurrent calls
// are serialized.
func (h *Holder) Rebuild(ctx context.Context) *Catalog {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := BuildCatalog(ctx, h.opts)
	if ctx.Err() != nil {
		return h.current.Load()
	}
	h.current.Store(c)
	return c
}

// Roots returns the directories the holder scans.
func (h *Holder) Roots() []string {
	roots := []string{h.opts.Root}
	if h.opts.Structured && h.opts.ProfileRoot != "" {
		roots = append(roots, h.opts.ProfileRoot)
	}
	return roots
}
