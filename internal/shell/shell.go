// Package shell runs the external programs some targets delegate to
// (brew, docker, sudo purge) and locates them on PATH.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"
)

const maxOutput = 200

// Runner executes external commands.
type Runner interface {
	// Run executes name with args and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// LookPath reports where name is installed.
	LookPath(name string) (string, error)
}

// ExitError describes a command that ran and exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Output  string
}

func (e *ExitError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s exited with code %d", e.Command, e.Code)
	}
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.Code, e.Output)
}

// ExecRunner runs commands with os/exec. Stdin is inherited so that sudo
// can ask for a password on the controlling terminal.
type ExecRunner struct {
	Stdin *os.File
}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdin: os.Stdin}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if r.Stdin != nil {
		cmd.Stdin = r.Stdin
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, wrapExitError(ctx, name, args, err, output)
	}
	return output, nil
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func wrapExitError(ctx context.Context, name string, args []string, err error, output []byte) error {
	command := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", command, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Command: command,
			Code:    exitErr.ExitCode(),
			Output:  truncate(strings.TrimSpace(string(output))),
		}
	}
	return fmt.Errorf("%s: %w", command, err)
}

// truncate shortens s at a valid UTF-8 boundary.
func truncate(s string) string {
	if len(s) <= maxOutput {
		return s
	}
	s = s[:maxOutput]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "..."
}
