// Package fwerr classifies the rewrite tool's fatal errors into the fixed
// set of kinds the driver maps to process exit codes. It follows the same
// closed-enum-with-String() shape used for compiler diagnostics elsewhere
// in this codebase, replacing the syntax/semantic/codegen categories with
// this domain's six kinds.
package fwerr

import (
	"errors"
	"fmt"
)

// Kind is one of the fixed fatal-error categories.
type Kind int

const (
	Usage Kind = iota
	Format
	Contract
	OutOfRange
	Incompressible
	CapacityExceeded
)

func (k Kind) String() string {
	switch k {
	case Usage:
		return "usage"
	case Format:
		return "format"
	case Contract:
		return "contract"
	case OutOfRange:
		return "out of range"
	case Incompressible:
		return "incompressible"
	case CapacityExceeded:
		return "capacity exceeded"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit status for a Kind. Usage is
// conventionally 2; the rest are enumerated from 3 so callers can
// distinguish them in scripts.
func (k Kind) ExitCode() int {
	switch k {
	case Usage:
		return 2
	case Format:
		return 3
	case Contract:
		return 4
	case OutOfRange:
		return 5
	case Incompressible:
		return 6
	case CapacityExceeded:
		return 7
	default:
		return 1
	}
}

// fwError pairs a Kind with an underlying error for errors.Is/As matching.
type fwError struct {
	kind Kind
	err  error
}

func (e *fwError) Error() string { return fmt.Sprintf("%s: %v", e.kind, e.err) }
func (e *fwError) Unwrap() error { return e.err }

// New wraps err under the given Kind.
func New(k Kind, format string, args ...any) error {
	return &fwError{kind: k, err: fmt.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &fwError{kind: k, err: err}
}

// KindOf extracts the Kind from err, defaulting to Format if err was never
// classified (e.g. an unexpected stdlib error bubbling up unwrapped).
func KindOf(err error) Kind {
	var fe *fwError
	if errors.As(err, &fe) {
		return fe.kind
	}
	return Format
}
