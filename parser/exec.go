package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	"github.com/lexcodex/specnav/outline"
)

// ExecParser runs an external structural parser. The source text is
// written to the process's stdin; on success the process prints a JSON
// array of root node records to stdout.
type ExecParser struct {
	Command string
	Args    []string
}

// Parse invokes the external command. There is no internal timeout: a
// hung parser hangs the requesting read unless ctx is cancelled.
func (p *ExecParser) Parse(ctx context.Context, source string) ([]*outline.Node, error) {
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if strings.Contains(diag, frameworkNotDetectedMarker) {
			return nil, ErrFrameworkNotDetected
		}
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return nil, &ExecError{
			Command:  p.commandLine(),
			ExitCode: code,
			Stderr:   diag,
			cause:    err,
		}
	}

	var roots []*outline.Node
	if err := json.Unmarshal(stdout.Bytes(), &roots); err != nil {
		return nil, &ExecError{
			Command:  p.commandLine(),
			ExitCode: 0,
			Stderr:   "malformed outline JSON: " + err.Error(),
			cause:    err,
		}
	}
	return roots, nil
}

// Func adapts the parser to the injectable fetch signature.
func (p *ExecParser) Func() Func {
	return p.Parse
}

func (p *ExecParser) commandLine() string {
	if len(p.Args) == 0 {
		return p.Command
	}
	return p.Command + " " + strings.Join(p.Args, " ")
}
