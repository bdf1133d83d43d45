package types

import (
	"io"
	"os"
	"path/filepath"
)

// DirEntry is one directory visited during a walk: its absolute path and
// its immediate children in lexical name order.
type DirEntry struct {
	Dir      string
	Children Sorted[os.DirEntry, string]
}

// NewDirEntry creates a DirEntry with children sorted by name.
func NewDirEntry(dir string, children []os.DirEntry) DirEntry {
	return DirEntry{
		Dir:      dir,
		Children: NewSorted(children, func(e os.DirEntry) string { return e.Name() }),
	}
}

// Path returns the absolute path of a child.
func (d DirEntry) Path(child os.DirEntry) string {
	return filepath.Join(d.Dir, child.Name())
}

// Subdirs returns absolute paths of child directories, in name order.
// Symlinks to directories are not included.
func (d DirEntry) Subdirs() []string {
	var subdirs []string
	for _, e := range d.Children.Items() {
		if e.IsDir() {
			subdirs = append(subdirs, d.Path(e))
		}
	}
	return subdirs
}

// ReadDirEntry lists a single directory.
//
// Uses batched ReadDir (1000 entries per batch) to bound memory when listing
// directories with millions of files. Children are returned sorted by name.
func ReadDirEntry(dirPath string) (DirEntry, error) {
	dir, err := os.Open(dirPath)
	if err != nil {
		return DirEntry{}, err
	}
	defer func() { _ = dir.Close() }()

	const batchSize = 1000
	var children []os.DirEntry
	for {
		entries, err := dir.ReadDir(batchSize)
		children = append(children, entries...)
		if len(entries) == 0 {
			if err != nil && err != io.EOF {
				return NewDirEntry(dirPath, children), err
			}
			break
		}
	}

	return NewDirEntry(dirPath, children), nil
}
