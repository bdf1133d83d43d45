package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ivoronin/dupecopy/internal/cache"
	"github.com/ivoronin/dupecopy/internal/config"
	"github.com/ivoronin/dupecopy/internal/hasher"
	"github.com/ivoronin/dupecopy/internal/indexer"
	"github.com/ivoronin/dupecopy/internal/migrator"
	"github.com/ivoronin/dupecopy/internal/paths"
)

// copyOptions holds CLI flags for the copy command.
type copyOptions struct {
	dryRun     bool
	verbose    bool
	noProgress bool
	cacheFile  string
	configFile string
}

// newCopyCmd creates the root command.
func newCopyCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &copyOptions{}

	cmd := &cobra.Command{
		Use:   "dupecopy [flags] SOURCE DESTINATION",
		Short: "Copy a directory tree, skipping files with duplicate content",
		Long: `Copies every regular file under SOURCE to the same relative path under
DESTINATION, unless a file with identical content was already copied or is
already present anywhere under DESTINATION. Identity is decided by content
fingerprint (BLAKE3), never by name.

Directories are walked in lexical order, files before subdirectories; the first
file seen with a given content is the one that is copied. Symlinks and special
files are never copied. Re-running against the same DESTINATION copies nothing
that is already there.

Use --dry-run to preview without making changes.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 2 {
				return &usageError{fmt.Errorf("requires SOURCE and DESTINATION, received %d argument(s)", len(args))}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, opts)
			return runCopy(args[0], args[1], opts, stdout, stderr)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "Preview changes without copying")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Show the decision for every file")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "Disable progress output")
	cmd.Flags().StringVar(&opts.cacheFile, "cache-file", "", "Path to fingerprint cache file (enables caching)")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to config file (default $XDG_CONFIG_HOME/dupecopy/config.toml)")

	return cmd
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, opts *copyOptions) {
	if !cmd.Flags().Changed("dry-run") && defaults.DryRun != nil {
		opts.dryRun = *defaults.DryRun
	}
	if !cmd.Flags().Changed("verbose") && defaults.Verbose != nil {
		opts.verbose = *defaults.Verbose
	}
	if !cmd.Flags().Changed("no-progress") && defaults.NoProgress != nil {
		opts.noProgress = *defaults.NoProgress
	}
	if !cmd.Flags().Changed("cache-file") && defaults.CacheFile != nil {
		opts.cacheFile = *defaults.CacheFile
	}
}

// drainErrors consumes errors from a channel and logs them.
// Clears progress bar line before logging to avoid visual collision.
func drainErrors(errs <-chan error, logger zerolog.Logger, stderr io.Writer, clearLine bool, done chan<- struct{}) {
	for err := range errs {
		if clearLine {
			fmt.Fprint(stderr, "\r\033[K")
		}
		logger.Error().Err(err).Msg("skipped")
	}
	close(done)
}

// runCopy executes the migration: validate → index destination → copy source.
func runCopy(source, destination string, opts *copyOptions, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, opts.verbose)
	showProgress := !opts.noProgress && isTerminal(stderr)

	// Validate before anything touches the filesystem
	if err := paths.CheckOverlap(source, destination); err != nil {
		return err
	}
	src, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(destination)
	if err != nil {
		return err
	}
	if info, err := os.Stat(src); err != nil {
		return fmt.Errorf("source: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("source %s: not a directory", source)
	}

	hashCache, err := cache.Open(opts.cacheFile)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = hashCache.Close() }()
	h := hasher.New(hashCache)

	errCh := make(chan error, 100)
	drained := make(chan struct{})
	go drainErrors(errCh, logger, stderr, showProgress, drained)

	// Phase 1: Index content already at the destination
	index, ist := indexer.New(dst, h, showProgress, errCh).Run()
	logger.Info().Int64("files", ist.Files).Int("fingerprints", index.Len()).Msg("destination indexed")

	// Phase 2: Copy unique source content
	st := migrator.New(migrator.Options{
		Source:       src,
		Destination:  dst,
		Index:        index,
		Hasher:       h,
		DryRun:       opts.dryRun,
		Verbose:      opts.verbose,
		ShowProgress: showProgress,
		Out:          stdout,
		Logger:       &logger,
		ErrCh:        errCh,
	}).Run()

	close(errCh)
	<-drained

	printSummary(stdout, st, opts.dryRun)
	return nil
}
