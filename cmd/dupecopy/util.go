package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/ivoronin/dupecopy/internal/migrator"
	"github.com/ivoronin/dupecopy/internal/paths"
)

// Exit codes.
const (
	exitOK                  = 0
	exitError               = 1
	exitUsage               = 2
	exitDestinationInSource = 3
	exitSourceInDestination = 4
)

// usageError marks errors caused by invalid invocation.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitCode maps the command outcome to a process exit code.
func exitCode(err error) int {
	var usage *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &usage):
		return exitUsage
	case errors.Is(err, paths.ErrDestinationInSource):
		return exitDestinationInSource
	case errors.Is(err, paths.ErrSourceInDestination):
		return exitSourceInDestination
	default:
		return exitError
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// newLogger creates a console logger on stderr: info by default, debug when verbose.
func newLogger(stderr io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{
		Out:        stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(stderr),
	}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// printSummary writes the final run counters.
func printSummary(w io.Writer, st migrator.Stats, dryRun bool) {
	copied := "Files copied"
	if dryRun {
		copied = "Would copy"
	}
	_, _ = fmt.Fprintf(w, "%-17s: %d\n", "Files seen", st.Seen)
	_, _ = fmt.Fprintf(w, "%-17s: %d (%s)\n", copied, st.Copied, humanize.IBytes(uint64(st.CopiedBytes)))
	_, _ = fmt.Fprintf(w, "%-17s: %d\n", "Duplicates", st.Duplicates)
	_, _ = fmt.Fprintf(w, "%-17s: %d\n", "Symlinks skipped", st.Symlinks)
	_, _ = fmt.Fprintf(w, "%-17s: %d\n", "Non-regular", st.NonRegular)
	_, _ = fmt.Fprintf(w, "%-17s: %d\n", "Failed", st.Failed)
	_, _ = fmt.Fprintf(w, "%-17s: %s\n", "Elapsed", st.Elapsed().Truncate(time.Millisecond))
}
