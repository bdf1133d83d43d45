// Package paths maps walked directories between trees and guards against
// overlapping source and destination trees.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrDestinationInSource means the destination is the source or lies beneath it.
	ErrDestinationInSource = errors.New("destination within source")
	// ErrSourceInDestination means the source lies beneath the destination.
	ErrSourceInDestination = errors.New("source within destination")
)

// Relative returns dir expressed relative to base, or "" when dir is base.
// dir must be base or a descendant of it, as produced by walking base.
func Relative(base, dir string) string {
	rel, err := filepath.Rel(base, dir)
	if err != nil || rel == "." {
		return ""
	}
	return rel
}

// CheckOverlap rejects source/destination pairs where either tree contains the other.
//
// Both paths are made absolute and resolved through symlinks (for the part of
// the path that exists), so an alias cannot hide an overlap. Containment is
// segment-wise: /a/bc is not inside /a/b.
func CheckOverlap(source, destination string) error {
	src, err := resolve(source)
	if err != nil {
		return fmt.Errorf("resolve source %s: %w", source, err)
	}
	dst, err := resolve(destination)
	if err != nil {
		return fmt.Errorf("resolve destination %s: %w", destination, err)
	}

	if within(dst, src) {
		return fmt.Errorf("%w: %s is inside %s", ErrDestinationInSource, destination, source)
	}
	if within(src, dst) {
		return fmt.Errorf("%w: %s is inside %s", ErrSourceInDestination, source, destination)
	}
	return nil
}

// within reports whether p is base or a descendant of base.
func within(p, base string) bool {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// resolve returns the absolute, symlink-free form of p.
// Trailing components that do not exist yet are appended unresolved.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	existing := abs
	var missing []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		missing = append([]string{filepath.Base(existing)}, missing...)
		existing = parent
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{resolved}, missing...)...), nil
}
