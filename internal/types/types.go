// Package types provides shared types used across the dupecopy codebase.
package types

import (
	"cmp"
	"slices"
	"time"
)

// Fingerprint is the lowercase hex digest of a file's full content.
// Two files with equal fingerprints are treated as duplicates.
type Fingerprint string

// StagingSuffix ends the hidden temporary name a file is copied under before
// being renamed into place.
const StagingSuffix = ".dupecopy.tmp"

// FileInfo holds metadata for a file about to be fingerprinted.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	Dev     uint64
	Ino     uint64
}

// Sorted is an ordered collection that maintains sort order by a key function.
// T is the element type, K is the comparable key type.
// Once constructed, items are guaranteed to be sorted by key.
type Sorted[T any, K cmp.Ordered] struct {
	items   []T
	keyFunc func(T) K
}

// NewSorted creates a sorted collection from items using keyFunc for ordering.
// Items are copied and sorted at construction time.
func NewSorted[T any, K cmp.Ordered](items []T, keyFunc func(T) K) Sorted[T, K] {
	sorted := make([]T, len(items))
	copy(sorted, items)
	slices.SortFunc(sorted, func(a, b T) int {
		return cmp.Compare(keyFunc(a), keyFunc(b))
	})
	return Sorted[T, K]{items: sorted, keyFunc: keyFunc}
}

// Items returns the sorted items.
func (s Sorted[T, K]) Items() []T { return s.items }

// First returns the first item (smallest key), or zero value if empty.
func (s Sorted[T, K]) First() T {
	if len(s.items) == 0 {
		var zero T
		return zero
	}
	return s.items[0]
}

// Len returns the number of items.
func (s Sorted[T, K]) Len() int { return len(s.items) }

// Index maps a fingerprint to the path of one file known to carry that content.
//
// The first path added for a fingerprint wins; later Adds for the same
// fingerprint are ignored for the lifetime of the index.
// Not safe for concurrent use.
type Index struct {
	paths map[Fingerprint]string
}

// NewIndex creates an empty fingerprint index.
func NewIndex() *Index {
	return &Index{paths: make(map[Fingerprint]string)}
}

// Lookup returns the representative path for fp, if any.
func (x *Index) Lookup(fp Fingerprint) (string, bool) {
	p, ok := x.paths[fp]
	return p, ok
}

// Add records path as the representative of fp.
// Returns false (and leaves the index unchanged) if fp is already present.
func (x *Index) Add(fp Fingerprint, path string) bool {
	if _, ok := x.paths[fp]; ok {
		return false
	}
	x.paths[fp] = path
	return true
}

// Len returns the number of distinct fingerprints.
func (x *Index) Len() int { return len(x.paths) }
