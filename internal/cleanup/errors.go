package cleanup

import (
	"fmt"
)

// Failure is one entry of a result's error list.
type Failure struct {
	Path string // candidate path, scan root, or the command line for command targets
	Err  error
}

func (f Failure) Error() string { return f.Err.Error() }

func (f Failure) Unwrap() error { return f.Err }

// DeletionError reports a single candidate that could not be removed.
type DeletionError struct {
	Path string
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete %s: %v", e.Path, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// PrivilegeError reports an elevated command that failed or whose
// authentication was declined.
type PrivilegeError struct {
	Command string
	Err     error
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("privileged command %q failed: %v", e.Command, e.Err)
}

func (e *PrivilegeError) Unwrap() error { return e.Err }

// CommandError reports a non-elevated external command that failed.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
