// Package indexer builds the initial fingerprint index from an existing
// destination tree.
//
// # Overview
//
// Before any file is copied, the destination is walked once and every regular
// file found there is fingerprinted. The resulting index represents "content
// already present at the destination", which makes repeated migrations into
// the same destination copy nothing they already copied.
//
// # Walk Rules
//
//   - Missing root → empty index, no error
//   - Directories → descended (lexical order, files before subdirectories)
//   - Regular files → fingerprinted and added (first path per fingerprint wins)
//   - Symlinks, devices, sockets, etc. → ignored, never followed
//   - Staging files from an interrupted copy → ignored
//   - Files vanishing between listing and hashing → skipped silently
//   - Other per-file or per-directory errors → reported on errCh, skipped
package indexer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ivoronin/dupecopy/internal/hasher"
	"github.com/ivoronin/dupecopy/internal/progress"
	"github.com/ivoronin/dupecopy/internal/types"
)

// Indexer fingerprints every regular file below a destination root.
//
// The indexer is designed for single-use: create with New(), call Run() once.
type Indexer struct {
	// Config (immutable, set by New)
	root         string         // Destination root to index
	hasher       *hasher.Hasher // Fingerprint source
	showProgress bool           // Whether to display progress spinner
	errCh        chan error     // Non-fatal errors (permission denied, etc.)

	// Runtime (initialized in Run)
	index *types.Index
	stats *Stats
	bar   *progress.Bar
}

// New creates an Indexer for the destination tree at root.
func New(root string, h *hasher.Hasher, showProgress bool, errCh chan error) *Indexer {
	if h == nil {
		h = hasher.New(nil)
	}
	return &Indexer{
		root:         root,
		hasher:       h,
		showProgress: showProgress,
		errCh:        errCh,
	}
}

// Stats summarizes an indexing pass.
type Stats struct {
	Files      int64 // Regular files fingerprinted
	Bytes      int64 // Bytes covered by those files
	Duplicates int64 // Files whose content was already indexed under another path
	Failed     int64 // Files or directories that could not be read
	startTime  time.Time
}

func (s *Stats) String() string {
	return fmt.Sprintf("Indexed %d destination files (%s), %d already duplicated, in %.1fs",
		s.Files, humanize.IBytes(uint64(s.Bytes)), s.Duplicates, time.Since(s.startTime).Seconds())
}

// Run walks the destination and returns the populated index.
func (x *Indexer) Run() (*types.Index, Stats) {
	x.index = types.NewIndex()
	x.stats = &Stats{startTime: time.Now()}
	x.bar = progress.New(x.showProgress)

	info, err := os.Stat(x.root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return x.index, *x.stats
	case err != nil:
		x.stats.Failed++
		x.sendError(err)
		return x.index, *x.stats
	case !info.IsDir():
		x.stats.Failed++
		x.sendError(fmt.Errorf("%s: not a directory", x.root))
		return x.index, *x.stats
	}

	x.bar.Describe(x.stats)
	x.walkDirectory(x.root)
	x.bar.Finish(x.stats)

	return x.index, *x.stats
}

// walkDirectory indexes the files of one directory, then recurses into its subdirectories.
func (x *Indexer) walkDirectory(dir string) {
	entry, err := types.ReadDirEntry(dir)
	if err != nil {
		x.stats.Failed++
		x.sendError(err)
		if entry.Children.Len() == 0 {
			return
		}
	}

	for _, child := range entry.Children.Items() {
		if !child.Type().IsRegular() {
			continue
		}
		x.indexFile(entry.Path(child))
	}
	x.bar.Describe(x.stats)

	for _, sub := range entry.Subdirs() {
		x.walkDirectory(sub)
	}
}

// indexFile fingerprints one file and records it in the index.
func (x *Indexer) indexFile(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	fp, err := x.hasher.Hash(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		x.stats.Failed++
		x.sendError(err)
		return
	}

	x.stats.Files++
	x.stats.Bytes += info.Size()
	if !x.index.Add(fp, path) {
		x.stats.Duplicates++
	}
}

// sendError sends an error to the errors channel if it's not nil.
func (x *Indexer) sendError(err error) {
	if x.errCh != nil {
		x.errCh <- err
	}
}
