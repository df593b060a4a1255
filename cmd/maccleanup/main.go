package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"maccleanup/internal/exitcodes"
	"maccleanup/internal/runner"
)

func main() {
	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	os.Exit(exitCode(err, os.Stderr))
}

// usageError marks invalid flags or arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// exitCode prints err and maps it onto the process exit status.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitcodes.Success
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)

	var usage *usageError
	var fatal *runner.FatalConfigError
	switch {
	case errors.As(err, &usage):
		fmt.Fprintln(stderr, "Run 'maccleanup --help' for usage.")
		return exitcodes.Usage
	case errors.As(err, &fatal):
		return exitcodes.InvalidConfig
	default:
		return exitcodes.RuntimeError
	}
}
