// Package main provides the bedanno command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usageLine = "Usage: bedanno <BedFile> <VepFile> [Transcripts]"

// ArgumentError reports a wrong number of positional arguments.
type ArgumentError struct {
	Got int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("expected 2 or 3 arguments, got %d", e.Got)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer a.sync()

	// cobra falls back to os.Args on a nil slice.
	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		var argErr *ArgumentError
		if errors.As(err, &argErr) {
			fmt.Fprintln(stderr, usageLine)
			return ExitError
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}
