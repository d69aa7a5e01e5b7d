// Package diag is the rewrite tool's diagnostic logging. It follows the
// ambient style of the surrounding codebase: a single package-level
// verbosity switch gating plain fmt.Fprintf calls to stderr, rather than a
// structured logging library — there is exactly one sink (stderr) and one
// process lifetime, so no handler-fanout or leveled-logger dependency has
// anything to attach to here.
package diag

import (
	"fmt"
	"os"
)

// Verbose gates Debugf output. Set once by the driver at startup.
var Verbose = false

// Debugf prints a debug-level diagnostic line to stderr when Verbose is set.
func Debugf(format string, args ...any) {
	if !Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "DEBUG: "+format+"\n", args...)
}

// Infof prints an info-level diagnostic line to stderr unconditionally.
func Infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
