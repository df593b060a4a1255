package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"maccleanup/internal/fsops"
	"maccleanup/internal/safety"
	"maccleanup/internal/scan"
	"maccleanup/internal/shell"
	"maccleanup/internal/target"
)

type fakePrompter struct {
	answer bool
	err    error
	asked  []string
}

func (p *fakePrompter) Confirm(plan scan.Plan) (bool, error) {
	p.asked = append(p.asked, plan.Target.ID)
	return p.answer, p.err
}

type fakeMeasurer struct{ after int64 }

func (m fakeMeasurer) Measure(target.Target) (int64, []*scan.ScanError) { return m.after, nil }

func testPlan(root string, names ...string) scan.Plan {
	t := target.Target{ID: "caches", Name: "Caches", RootPaths: []string{root}, MaxDepth: 1}
	plan := scan.Plan{Target: t}
	for i, name := range names {
		c := scan.Candidate{Path: filepath.Join(root, name), Size: int64(100 * (i + 1))}
		plan.Candidates = append(plan.Candidates, c)
		plan.EstimatedBytes += c.Size
	}
	return plan
}

func newTestExecutor(root string, deleter fsops.Deleter) *Executor {
	e := NewExecutor(zerolog.Nop())
	e.SetDeleter(deleter)
	e.SetValidator(safety.NewValidator([]string{root}, nil))
	e.SetRunner(&shell.FakeRunner{})
	return e
}

// TestDryRunNeverDeletes proves the dry-run contract:
// When mode is DryRun, ZERO delete calls occur and the counters stay zero.
func TestDryRunNeverDeletes(t *testing.T) {
	tmpDir := t.TempDir()
	plan := testPlan(tmpDir, "a.cache", "b.cache", "c.cache")
	plan.Candidates[2].IsDir = true

	fakeDeleter := &fsops.FakeDeleter{}
	res := newTestExecutor(tmpDir, fakeDeleter).Execute(context.Background(), plan, DryRun)

	if len(fakeDeleter.Calls) != 0 {
		t.Errorf("DRY-RUN VIOLATION: Expected 0 delete calls, got %d: %v", len(fakeDeleter.Calls), fakeDeleter.Calls)
	}
	if res.FilesRemoved != 0 || res.BytesFreed != 0 {
		t.Errorf("dry run reported removed=%d freed=%d, want zeros", res.FilesRemoved, res.BytesFreed)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unexpected errors: %v", res.Errors)
	}
}

func TestDryRunNeverRunsCommands(t *testing.T) {
	runner := &shell.FakeRunner{}
	e := newTestExecutor(t.TempDir(), &fsops.FakeDeleter{})
	e.SetRunner(runner)

	plan := scan.Plan{Target: target.Target{
		ID:                        "memory",
		Name:                      "RAM",
		Command:                   &target.Command{Name: "sudo", Args: []string{"purge"}},
		RequiresElevatedPrivilege: true,
	}}
	res := e.Execute(context.Background(), plan, DryRun)

	if len(runner.Calls) != 0 {
		t.Errorf("expected no command invocations, got %v", runner.Calls)
	}
	if res.Attempted != 0 {
		t.Errorf("Attempted = %d, want 0", res.Attempted)
	}
}

// TestForceCallsDeleter proves that Force mode DOES call the deleter once per candidate
func TestForceCallsDeleter(t *testing.T) {
	tmpDir := t.TempDir()
	plan := testPlan(tmpDir, "a.cache", "b.cache")

	fakeDeleter := &fsops.FakeDeleter{}
	res := newTestExecutor(tmpDir, fakeDeleter).Execute(context.Background(), plan, Force)

	want := []string{"rm:" + plan.Candidates[0].Path, "rm:" + plan.Candidates[1].Path}
	if strings.Join(fakeDeleter.Calls, ",") != strings.Join(want, ",") {
		t.Errorf("Calls = %v, want %v", fakeDeleter.Calls, want)
	}
	if res.FilesRemoved != 2 || res.BytesFreed != 300 {
		t.Errorf("removed=%d freed=%d, want 2 and 300", res.FilesRemoved, res.BytesFreed)
	}
	if res.Target != "Caches" || res.TargetID != "caches" {
		t.Errorf("result target = %q/%q", res.Target, res.TargetID)
	}
}

func TestDirectoryCandidatesAreRemovedRecursively(t *testing.T) {
	tmpDir := t.TempDir()
	plan := testPlan(tmpDir, "node_modules", "link")
	plan.Candidates[0].IsDir = true
	plan.Candidates[1].IsDir = true
	plan.Candidates[1].IsSymlink = true

	fakeDeleter := &fsops.FakeDeleter{}
	newTestExecutor(tmpDir, fakeDeleter).Execute(context.Background(), plan, Force)

	want := []string{"rmall:" + plan.Candidates[0].Path, "rm:" + plan.Candidates[1].Path}
	if strings.Join(fakeDeleter.Calls, ",") != strings.Join(want, ",") {
		t.Errorf("Calls = %v, want %v", fakeDeleter.Calls, want)
	}
}

// TestPartialFailureIsolation proves one failing candidate never stops the others.
func TestPartialFailureIsolation(t *testing.T) {
	tmpDir := t.TempDir()
	plan := testPlan(tmpDir, "a", "b", "c", "d")
	failing := plan.Candidates[1].Path

	fakeDeleter := &fsops.FakeDeleter{Fail: map[string]error{failing: fs.ErrPermission}}
	res := newTestExecutor(tmpDir, fakeDeleter).Execute(context.Background(), plan, Force)

	if res.Attempted != len(plan.Candidates) {
		t.Errorf("Attempted = %d, want %d", res.Attempted, len(plan.Candidates))
	}
	if len(fakeDeleter.Calls) != len(plan.Candidates) {
		t.Errorf("expected every candidate to reach the deleter, got %v", fakeDeleter.Calls)
	}
	if res.FilesRemoved != 3 {
		t.Errorf("FilesRemoved = %d, want 3", res.FilesRemoved)
	}
	if res.FilesRemoved > len(plan.Candidates) {
		t.Errorf("removed more than planned")
	}
	if res.BytesFreed != 100+300+400 {
		t.Errorf("BytesFreed = %d, want 800", res.BytesFreed)
	}
	if len(res.Errors) != 1 || res.Errors[0].Path != failing {
		t.Fatalf("Errors = %v, want one failure for %s", res.Errors, failing)
	}
	var delErr *DeletionError
	if !errors.As(res.Errors[0], &delErr) {
		t.Errorf("expected *DeletionError, got %T", res.Errors[0].Err)
	}
	if !errors.Is(res.Errors[0], fs.ErrPermission) {
		t.Errorf("expected cause to be preserved, got %v", res.Errors[0])
	}
}

// TestSafetyValidatorBlocksDeletion proves validator integration works
func TestSafetyValidatorBlocksDeletion(t *testing.T) {
	tmpDir := t.TempDir()
	plan := testPlan(tmpDir, "ok.log")
	plan.Candidates = append(plan.Candidates, scan.Candidate{Path: "/etc/passwd", Size: 1024})

	fakeDeleter := &fsops.FakeDeleter{}
	res := newTestExecutor(tmpDir, fakeDeleter).Execute(context.Background(), plan, Force)

	for _, call := range fakeDeleter.Calls {
		if strings.HasSuffix(call, "/etc/passwd") {
			t.Errorf("SAFETY VIOLATION: validator should have blocked protected path, got call %s", call)
		}
	}
	if res.FilesRemoved != 1 {
		t.Errorf("FilesRemoved = %d, want 1", res.FilesRemoved)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], safety.ErrProtectedPath) {
		t.Errorf("Errors = %v, want one ErrProtectedPath", res.Errors)
	}
}

// TestInteractiveDecline: a declined target has zero counters and no errors.
func TestInteractiveDecline(t *testing.T) {
	tmpDir := t.TempDir()
	plan := testPlan(tmpDir, "a", "b")

	fakeDeleter := &fsops.FakeDeleter{}
	prompter := &fakePrompter{answer: false}
	e := newTestExecutor(tmpDir, fakeDeleter)
	e.SetPrompter(prompter)

	res := e.Execute(context.Background(), plan, Interactive)

	if !res.Declined {
		t.Error("expected Declined")
	}
	if res.FilesRemoved != 0 || res.BytesFreed != 0 || len(res.Errors) != 0 {
		t.Errorf("declined result = %+v, want empty", res)
	}
	if len(fakeDeleter.Calls) != 0 {
		t.Errorf("declined target reached the deleter: %v", fakeDeleter.Calls)
	}
	if len(prompter.asked) != 1 {
		t.Errorf("expected exactly one prompt, got %v", prompter.asked)
	}
}

func TestInteractiveAcceptBehavesLikeForce(t *testing.T) {
	tmpDir := t.TempDir()
	plan := testPlan(tmpDir, "a", "b")

	fakeDeleter := &fsops.FakeDeleter{}
	e := newTestExecutor(tmpDir, fakeDeleter)
	e.SetPrompter(&fakePrompter{answer: true})

	res := e.Execute(context.Background(), plan, Interactive)
	if res.FilesRemoved != 2 || res.Declined {
		t.Errorf("result = %+v, want 2 removed", res)
	}
}

func TestInteractivePromptErrorDeclines(t *testing.T) {
	tmpDir := t.TempDir()
	fakeDeleter := &fsops.FakeDeleter{}
	e := newTestExecutor(tmpDir, fakeDeleter)
	e.SetPrompter(&fakePrompter{answer: true, err: errors.New("EOF")})

	res := e.Execute(context.Background(), testPlan(tmpDir, "a"), Interactive)
	if !res.Declined || len(fakeDeleter.Calls) != 0 {
		t.Errorf("prompt failure should decline, got %+v calls=%v", res, fakeDeleter.Calls)
	}
}

func TestEmptyPlanIsNotPrompted(t *testing.T) {
	tmpDir := t.TempDir()
	prompter := &fakePrompter{answer: true}
	e := newTestExecutor(tmpDir, &fsops.FakeDeleter{})
	e.SetPrompter(prompter)

	res := e.Execute(context.Background(), testPlan(tmpDir), Interactive)
	if len(prompter.asked) != 0 {
		t.Errorf("empty plan should not prompt, asked %v", prompter.asked)
	}
	if res.Declined || res.Attempted != 0 {
		t.Errorf("result = %+v, want untouched", res)
	}
}

func TestCanceledContextStopsBetweenCandidates(t *testing.T) {
	tmpDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fakeDeleter := &fsops.FakeDeleter{}
	res := newTestExecutor(tmpDir, fakeDeleter).Execute(ctx, testPlan(tmpDir, "a", "b"), Force)
	if res.Attempted != 0 || len(fakeDeleter.Calls) != 0 {
		t.Errorf("canceled run attempted %d deletions", res.Attempted)
	}
}

func TestElevatedCommandFailureIsPrivilegeError(t *testing.T) {
	cancelled := errors.New("sudo: a password is required")
	runner := &shell.FakeRunner{Fail: map[string]error{"sudo purge": cancelled}}
	e := newTestExecutor(t.TempDir(), &fsops.FakeDeleter{})
	e.SetRunner(runner)

	plan := scan.Plan{Target: target.Target{
		ID:                        "memory",
		Name:                      "RAM",
		Command:                   &target.Command{Name: "sudo", Args: []string{"purge"}},
		RequiresElevatedPrivilege: true,
	}}
	res := e.Execute(context.Background(), plan, Force)

	if len(res.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one target-level error", res.Errors)
	}
	var privErr *PrivilegeError
	if !errors.As(res.Errors[0], &privErr) {
		t.Fatalf("expected *PrivilegeError, got %T", res.Errors[0].Err)
	}
	if privErr.Command != "sudo purge" || !errors.Is(privErr, cancelled) {
		t.Errorf("PrivilegeError = %+v", privErr)
	}
	if res.FilesRemoved != 0 || res.BytesFreed != 0 {
		t.Errorf("failed command reported progress: %+v", res)
	}
}

func TestCommandFailureIsCommandError(t *testing.T) {
	runner := &shell.FakeRunner{Fail: map[string]error{"brew cleanup -s": &shell.ExitError{Command: "brew cleanup -s", Code: 1}}}
	e := newTestExecutor(t.TempDir(), &fsops.FakeDeleter{})
	e.SetRunner(runner)

	plan := scan.Plan{Target: target.Target{
		ID:      "homebrew",
		Name:    "Homebrew",
		Command: &target.Command{Name: "brew", Args: []string{"cleanup", "-s"}},
	}}
	res := e.Execute(context.Background(), plan, Force)

	var cmdErr *CommandError
	if len(res.Errors) != 1 || !errors.As(res.Errors[0], &cmdErr) {
		t.Fatalf("Errors = %v, want one *CommandError", res.Errors)
	}
}

func TestCommandFreedBytesFromRemeasure(t *testing.T) {
	runner := &shell.FakeRunner{}
	e := newTestExecutor(t.TempDir(), &fsops.FakeDeleter{})
	e.SetRunner(runner)
	e.SetMeasurer(fakeMeasurer{after: 100})

	plan := scan.Plan{
		Target: target.Target{
			ID:        "homebrew",
			Name:      "Homebrew",
			RootPaths: []string{"/Library/Caches/Homebrew"},
			Command:   &target.Command{Name: "brew", Args: []string{"cleanup", "-s"}},
		},
		EstimatedBytes: 400,
	}
	res := e.Execute(context.Background(), plan, Force)

	if len(runner.Calls) != 1 || runner.Calls[0] != "brew cleanup -s" {
		t.Errorf("Calls = %v", runner.Calls)
	}
	if res.BytesFreed != 300 {
		t.Errorf("BytesFreed = %d, want 300", res.BytesFreed)
	}
	if res.FilesRemoved != 0 || res.Attempted != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestElevatedCommandReportsMemoryFreed(t *testing.T) {
	readings := []uint64{1 << 30, 3 << 30}
	readMemory := func() (uint64, error) {
		v := readings[0]
		readings = readings[1:]
		return v, nil
	}
	e := newTestExecutor(t.TempDir(), &fsops.FakeDeleter{})
	e.SetMemoryProbe(readMemory, 0)

	plan := scan.Plan{Target: target.Target{
		ID:                        "memory",
		Name:                      "RAM",
		Command:                   &target.Command{Name: "sudo", Args: []string{"purge"}},
		RequiresElevatedPrivilege: true,
	}}
	res := e.Execute(context.Background(), plan, Force)

	if res.Detail != "freed approximately 2.0 GiB of memory" {
		t.Errorf("Detail = %q", res.Detail)
	}
}

// TestMemoryReportNeedsBothReadings: a failed first reading must not be
// treated as zero available memory.
func TestMemoryReportNeedsBothReadings(t *testing.T) {
	calls := 0
	readMemory := func() (uint64, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("host_statistics64 failed")
		}
		return 8 << 30, nil
	}
	runner := &shell.FakeRunner{}
	e := newTestExecutor(t.TempDir(), &fsops.FakeDeleter{})
	e.SetRunner(runner)
	e.SetMemoryProbe(readMemory, 0)

	plan := scan.Plan{Target: target.Target{
		ID:                        "memory",
		Name:                      "RAM",
		Command:                   &target.Command{Name: "sudo", Args: []string{"purge"}},
		RequiresElevatedPrivilege: true,
	}}
	res := e.Execute(context.Background(), plan, Force)

	if strings.Contains(res.Detail, "freed") {
		t.Errorf("Detail = %q, want no memory figure", res.Detail)
	}
	if res.Detail != "sudo purge completed" {
		t.Errorf("Detail = %q", res.Detail)
	}
	if len(res.Errors) != 0 {
		t.Errorf("unreadable memory is not a cleanup failure: %v", res.Errors)
	}
}

// TestScanErrorsBecomeFailures: unreadable roots are reported in every mode,
// missing roots are not.
func TestScanErrorsBecomeFailures(t *testing.T) {
	tmpDir := t.TempDir()
	denied := filepath.Join(tmpDir, "locked")
	withErrors := func(plan scan.Plan) scan.Plan {
		plan.ScanErrors = []*scan.ScanError{
			{Root: denied, Err: &fs.PathError{Op: "open", Path: denied, Err: fs.ErrPermission}},
			{Root: filepath.Join(tmpDir, "absent"), Err: fs.ErrNotExist},
		}
		return plan
	}

	tests := []struct {
		name     string
		plan     scan.Plan
		mode     Mode
		declined bool
	}{
		{"empty plan", withErrors(testPlan(tmpDir)), Force, false},
		{"dry run", withErrors(testPlan(tmpDir, "a")), DryRun, false},
		{"declined", withErrors(testPlan(tmpDir, "a")), Interactive, true},
		{"force", withErrors(testPlan(tmpDir, "a")), Force, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExecutor(tmpDir, &fsops.FakeDeleter{})
			e.SetPrompter(&fakePrompter{answer: false})

			res := e.Execute(context.Background(), tt.plan, tt.mode)

			if res.Declined != tt.declined {
				t.Errorf("Declined = %v, want %v", res.Declined, tt.declined)
			}
			if len(res.Errors) != 1 {
				t.Fatalf("Errors = %v, want only the unreadable root", res.Errors)
			}
			var se *scan.ScanError
			if !errors.As(res.Errors[0], &se) || se.Root != denied {
				t.Errorf("failure = %v, want scan error for %s", res.Errors[0], denied)
			}
			if !errors.Is(res.Errors[0], fs.ErrPermission) || res.Errors[0].Path != denied {
				t.Errorf("failure = %+v", res.Errors[0])
			}
		})
	}
}

// TestRealDeletion runs against the OS filesystem with a per-target validator.
func TestRealDeletion(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "old.log")
	dir := filepath.Join(root, "bundle")
	if err := os.WriteFile(file, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "x"), []byte("xyz"), 0644); err != nil {
		t.Fatal(err)
	}

	plan := scan.Plan{
		Target: target.Target{ID: "logs", Name: "Logs", RootPaths: []string{root}, MaxDepth: 1},
		Candidates: []scan.Candidate{
			{Path: file, Size: 4},
			{Path: dir, Size: 3, IsDir: true},
			{Path: filepath.Join(root, "vanished"), Size: 10},
		},
	}

	e := NewExecutor(zerolog.Nop())
	e.Protect(nil, []string{root})
	res := e.Execute(context.Background(), plan, Force)

	if res.FilesRemoved != 2 || res.BytesFreed != 7 {
		t.Errorf("removed=%d freed=%d, want 2 and 7", res.FilesRemoved, res.BytesFreed)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], fs.ErrNotExist) {
		t.Errorf("Errors = %v, want one not-exist failure", res.Errors)
	}
	for _, p := range []string{file, dir} {
		if _, err := os.Lstat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists", p)
		}
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root should survive: %v", err)
	}
}

func TestModeFor(t *testing.T) {
	tests := []struct {
		dryRun, force bool
		want          Mode
	}{
		{false, false, Interactive},
		{true, false, DryRun},
		{false, true, Force},
		{true, true, DryRun},
	}
	for _, tt := range tests {
		if got := ModeFor(tt.dryRun, tt.force); got != tt.want {
			t.Errorf("ModeFor(%v, %v) = %v, want %v", tt.dryRun, tt.force, got, tt.want)
		}
	}
}
