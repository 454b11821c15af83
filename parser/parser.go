// Package parser produces the structural outline of a spec file,
// either by invoking an external parser process or through the
// embedded tree-sitter extractor.
package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/lexcodex/specnav/outline"
)

// Func turns source text into a forest of root outline nodes. The
// returned nodes carry no parent links; outline.Build derives those.
type Func func(ctx context.Context, source string) ([]*outline.Node, error)

// ErrFrameworkNotDetected reports that the parser ran but the file
// does not use the target testing framework. Callers present this as
// "nothing to outline", not as a fault.
var ErrFrameworkNotDetected = errors.New("structural test framework not detected")

// frameworkNotDetectedMarker is the diagnostic the external parser
// prints when a file does not opt into the framework.
const frameworkNotDetectedMarker = "framework not detected"

// ExecError carries the diagnostics of a failed external parser run.
type ExecError struct {
	Command  string
	ExitCode int
	Stderr   string
	cause    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("parser %q exited with code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *ExecError) Unwrap() error { return e.cause }
