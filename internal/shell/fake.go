package shell

import (
	"context"
	"os/exec"
	"strings"
)

// FakeRunner records invocations and returns canned results. Used in tests.
type FakeRunner struct {
	Calls   []string
	Fail    map[string]error  // keyed by "name args..."
	Output  map[string][]byte // keyed by "name args..."
	Present map[string]string // LookPath results by program name
}

func (f *FakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.Calls = append(f.Calls, key)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.Fail[key]; ok {
		return f.Output[key], err
	}
	return f.Output[key], nil
}

func (f *FakeRunner) LookPath(name string) (string, error) {
	if p, ok := f.Present[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}
