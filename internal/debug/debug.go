// Package debug provides verbosity-gated logging for the todosync CLI.
package debug

import (
	"fmt"
	"io"
	"os"
)

var (
	enabled     = os.Getenv("TODOSYNC_DEBUG") != ""
	verboseMode = false
	quietMode   = false

	// Swapped out by tests.
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

// Logf prints debug output when TODOSYNC_DEBUG or --verbose is set.
func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(stderr, format, args...)
	}
}

// PrintNormal prints output unless quiet mode is enabled
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Fprintf(stdout, format, args...)
	}
}
