// Package migrator copies a source tree into a destination tree, skipping
// files whose content is already present.
//
// # Overview
//
// The migrator is the last stage of a run. It receives a fingerprint index
// seeded from the destination and walks the source, deciding copy-or-skip for
// every entry by content fingerprint.
//
// # Processing Pipeline
//
//	For each source directory (depth-first, lexical, files before subdirs):
//	    │
//	    ├──► Mirror directory under destination (MkdirAll)
//	    │
//	    └──► For each non-directory entry:
//	             │
//	             ├──► Stat (follows links) not a regular file → non-regular
//	             ├──► Lstat is a symlink                      → symlink (never followed)
//	             ├──► Fingerprint already indexed             → duplicate
//	             └──► Otherwise copy, then index fp → copied-to path
//
// # Invariants
//
//   - First file encountered per fingerprint wins; content is never copied twice
//   - Index is updated only after a copy is renamed into place
//   - Existing destination files are never overwritten
//   - Per-file failures are reported and counted, never abort the walk
//
// Everything runs on the calling goroutine; the index needs no locking.
package migrator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/ivoronin/dupecopy/internal/hasher"
	"github.com/ivoronin/dupecopy/internal/paths"
	"github.com/ivoronin/dupecopy/internal/progress"
	"github.com/ivoronin/dupecopy/internal/types"
)

// Options configures a Migrator.
type Options struct {
	Source       string          // Source root (validated by the caller)
	Destination  string          // Destination root (validated by the caller)
	Index        *types.Index    // Fingerprints already present; nil = empty
	Hasher       *hasher.Hasher  // Fingerprint source; nil = uncached
	DryRun       bool            // Decide and count, but don't create or copy anything
	Verbose      bool            // Print one line per entry to Out
	ShowProgress bool            // Whether to display progress spinner
	Out          io.Writer       // Verbose output; nil = stdout
	Logger       *zerolog.Logger // Per-directory debug logging; nil = disabled
	ErrCh        chan error      // Non-fatal errors (permission denied, etc.)
}

// Migrator copies unique content from source to destination.
//
// The migrator is designed for single-use: create with New(), call Run() once.
type Migrator struct {
	// Config (immutable, set by New)
	source       string
	destination  string
	index        *types.Index
	hasher       *hasher.Hasher
	dryRun       bool
	verbose      bool
	showProgress bool
	out          io.Writer
	log          zerolog.Logger
	errCh        chan error

	// Runtime (initialized in Run)
	stats *Stats
	bar   *progress.Bar
}

// New creates a Migrator from opts.
func New(opts Options) *Migrator {
	m := &Migrator{
		source:       opts.Source,
		destination:  opts.Destination,
		index:        opts.Index,
		hasher:       opts.Hasher,
		dryRun:       opts.DryRun,
		verbose:      opts.Verbose,
		showProgress: opts.ShowProgress,
		out:          opts.Out,
		log:          zerolog.Nop(),
		errCh:        opts.ErrCh,
	}
	if m.index == nil {
		m.index = types.NewIndex()
	}
	if m.hasher == nil {
		m.hasher = hasher.New(nil)
	}
	if m.out == nil {
		m.out = os.Stdout
	}
	if opts.Logger != nil {
		m.log = *opts.Logger
	}
	return m
}

// Stats holds the run counters. Every entry seen lands in exactly one of
// Copied, Duplicates, Symlinks, NonRegular or Failed.
type Stats struct {
	Seen        int64 // Non-directory entries encountered
	Copied      int64 // Files copied (or that would be, in dry-run)
	Duplicates  int64 // Files skipped because their content was already indexed
	Symlinks    int64 // Symlinks to regular files, skipped
	NonRegular  int64 // Directories via symlink, devices, sockets, broken links, etc.
	Failed      int64 // Files that could not be hashed or copied
	CopiedBytes int64 // Bytes written to the destination
	startTime   time.Time
}

func (s *Stats) String() string {
	return fmt.Sprintf("Seen %d files, copied %d (%s), skipped %d duplicates, %d failed in %.1fs",
		s.Seen, s.Copied, humanize.IBytes(uint64(s.CopiedBytes)), s.Duplicates, s.Failed,
		time.Since(s.startTime).Seconds())
}

// Elapsed returns the time since the run started.
func (s *Stats) Elapsed() time.Duration { return time.Since(s.startTime) }

// Run walks the source tree and returns the final counters.
func (m *Migrator) Run() Stats {
	m.stats = &Stats{startTime: time.Now()}
	m.bar = progress.New(m.showProgress)
	m.bar.Describe(m.stats)

	m.walkDirectory(m.source)

	m.bar.Finish(m.stats)
	return *m.stats
}

// walkDirectory processes the files of one source directory, then recurses
// into its subdirectories in name order.
func (m *Migrator) walkDirectory(dir string) {
	entry, err := types.ReadDirEntry(dir)
	if err != nil {
		m.sendError(fmt.Errorf("read %s: %w", dir, err))
		if entry.Children.Len() == 0 {
			return
		}
	}

	dstDir := filepath.Join(m.destination, paths.Relative(m.source, dir))
	m.log.Debug().Str("source", dir).Str("destination", dstDir).Int("entries", entry.Children.Len()).Msg("directory")

	dirErr := m.ensureDir(dstDir)
	if dirErr != nil {
		m.sendError(fmt.Errorf("create %s: %w", dstDir, dirErr))
	}

	for _, child := range entry.Children.Items() {
		if child.IsDir() {
			continue
		}
		m.report(m.processEntry(entry.Path(child), filepath.Join(dstDir, child.Name()), dirErr))
	}
	m.bar.Describe(m.stats)

	for _, sub := range entry.Subdirs() {
		m.walkDirectory(sub)
	}
}

// ensureDir creates the mirrored destination directory (no-op in dry-run).
func (m *Migrator) ensureDir(dir string) error {
	if m.dryRun {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// processEntry decides copy-or-skip for one source entry and updates counters.
func (m *Migrator) processEntry(src, dst string, dirErr error) *Result {
	m.stats.Seen++

	info, err := os.Stat(src)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return m.fail(src, err)
	}
	if err != nil || !info.Mode().IsRegular() {
		m.stats.NonRegular++
		return &Result{Source: src, Action: ActionNonRegular}
	}

	linfo, err := os.Lstat(src)
	if err != nil {
		return m.fail(src, err)
	}
	if linfo.Mode()&os.ModeSymlink != 0 {
		m.stats.Symlinks++
		return &Result{Source: src, Action: ActionSymlink}
	}

	fp, err := m.hasher.Hash(src)
	if err != nil {
		return m.fail(src, err)
	}

	if original, ok := m.index.Lookup(fp); ok {
		m.stats.Duplicates++
		return &Result{Source: src, Destination: original, Action: ActionDuplicate}
	}

	if dirErr != nil {
		return m.fail(src, dirErr)
	}

	written := info.Size()
	if !m.dryRun {
		if written, err = CopyFile(src, dst); err != nil {
			return m.fail(src, err)
		}
	}

	m.index.Add(fp, dst)
	m.stats.Copied++
	m.stats.CopiedBytes += written
	return &Result{Source: src, Destination: dst, Action: ActionCopied, DryRun: m.dryRun, Bytes: written}
}

// fail counts a per-file failure and reports it on the error channel.
func (m *Migrator) fail(src string, err error) *Result {
	m.stats.Failed++
	m.sendError(fmt.Errorf("%s: %w", src, err))
	return &Result{Source: src, Action: ActionFailed, Err: err}
}

// report prints a result in verbose mode. Failures are reported via errCh instead.
func (m *Migrator) report(r *Result) {
	if !m.verbose || r.Action == ActionFailed {
		return
	}
	m.bar.Clear()
	_, _ = fmt.Fprintln(m.out, r)
}

// sendError sends an error to the errors channel if it's not nil.
func (m *Migrator) sendError(err error) {
	if m.errCh != nil {
		m.errCh <- err
	}
}
