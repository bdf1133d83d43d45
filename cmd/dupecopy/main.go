package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and maps the outcome to a process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newCopyCmd(stdout, stderr)
	root.Version = version + " (" + commit + ")"
	root.SetArgs(append([]string{}, args...)) // nil would make cobra fall back to os.Args
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			fmt.Fprint(stderr, root.UsageString())
		}
	}
	return exitCode(err)
}
