package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeName reduces a client-supplied name to a single path element. ok is
// false when nothing usable remains.
func SafeName(name string) (string, bool) {
	base := filepath.Base(strings.TrimSpace(name))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", false
	}
	return base, true
}

// ValidName reports whether name is already a single usable path element,
// so SafeName would return it unchanged.
func ValidName(name string) bool {
	base, ok := SafeName(name)
	return ok && base == strings.TrimSpace(name)
}

// SafeJoin joins root with the single path element of name.
func SafeJoin(root, name string) (string, bool) {
	base, ok := SafeName(name)
	if !ok {
		return "", false
	}
	return filepath.Join(root, base), true
}
