package migrator

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ActionType describes the decision taken for a source entry.
type ActionType int

const (
	ActionCopied     ActionType = iota
	ActionDuplicate             // Content already present at the destination
	ActionSymlink               // Never followed or copied
	ActionNonRegular            // Devices, sockets, links to directories, etc.
	ActionFailed                // Hash or copy failed
)

// Result describes the outcome for a single source entry.
type Result struct {
	Source      string     // Source entry
	Destination string     // Copied-to path, or representative of the duplicate content
	Action      ActionType // Decision taken
	DryRun      bool       // Copy was only simulated
	Bytes       int64      // Bytes written (0 unless copied)
	Err         error      // Non-nil if failed
}

// String formats the result for display.
func (r *Result) String() string {
	switch r.Action {
	case ActionCopied:
		verb := "copied"
		if r.DryRun {
			verb = "would copy"
		}
		return fmt.Sprintf("%s %s -> %s (%s)", verb, r.Source, r.Destination, humanize.IBytes(uint64(r.Bytes)))
	case ActionDuplicate:
		return fmt.Sprintf("duplicate %s (same content as %s)", r.Source, r.Destination)
	case ActionSymlink:
		return fmt.Sprintf("skipped symlink %s", r.Source)
	case ActionNonRegular:
		return fmt.Sprintf("skipped non-regular %s", r.Source)
	default:
		return fmt.Sprintf("failed %s: %v", r.Source, r.Err)
	}
}
