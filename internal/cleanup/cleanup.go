package cleanup

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"maccleanup/internal/fsops"
	"maccleanup/internal/safety"
	"maccleanup/internal/scan"
	"maccleanup/internal/shell"
	"maccleanup/internal/target"
)

// Result is the outcome of executing one plan.
type Result struct {
	Target       string
	TargetID     string
	FilesRemoved int
	BytesFreed   int64
	Attempted    int
	Errors       []Failure
	Declined     bool
	Detail       string
}

// Prompter asks the user whether a plan should be executed.
type Prompter interface {
	Confirm(plan scan.Plan) (bool, error)
}

// Measurer re-measures a command target's roots after the command ran.
type Measurer interface {
	Measure(t target.Target) (int64, []*scan.ScanError)
}

// MemoryProbe returns the currently available memory in bytes.
type MemoryProbe func() (uint64, error)

// Executor performs the deletions described by a plan.
type Executor struct {
	logger         zerolog.Logger
	deleter        fsops.Deleter
	runner         shell.Runner
	prompter       Prompter
	measurer       Measurer
	memory         MemoryProbe
	settle         time.Duration
	validator      *safety.Validator
	protectedTrees []string
	protectedPaths []string
}

// NewExecutor creates an executor that deletes through the OS filesystem and
// runs commands with os/exec.
func NewExecutor(logger zerolog.Logger) *Executor {
	return &Executor{
		logger:  logger.With().Str("component", "executor").Logger(),
		deleter: fsops.NewOSDeleter(),
		runner:  shell.NewExecRunner(),
		settle:  2 * time.Second,
	}
}

func (e *Executor) SetDeleter(d fsops.Deleter) { e.deleter = d }

func (e *Executor) SetRunner(r shell.Runner) { e.runner = r }

func (e *Executor) SetPrompter(p Prompter) { e.prompter = p }

func (e *Executor) SetMeasurer(m Measurer) { e.measurer = m }

// SetMemoryProbe enables the before/after memory report of elevated commands.
// settle is how long to wait before the second reading.
func (e *Executor) SetMemoryProbe(p MemoryProbe, settle time.Duration) {
	e.memory = p
	e.settle = settle
}

// SetValidator pins a single validator for every plan. Without it a validator
// is built per plan from the target's roots.
func (e *Executor) SetValidator(v *safety.Validator) { e.validator = v }

// Protect registers trees that may never be touched and paths that may never
// be removed themselves.
func (e *Executor) Protect(trees, paths []string) {
	e.protectedTrees = append(e.protectedTrees, trees...)
	e.protectedPaths = append(e.protectedPaths, paths...)
}

// Execute runs a plan in the given mode. It never returns early on a single
// candidate failure; every failure is recorded in Result.Errors. Scan errors
// other than a missing root are recorded as failures in every mode.
func (e *Executor) Execute(ctx context.Context, plan scan.Plan, mode Mode) Result {
	t := plan.Target
	res := Result{Target: t.Name, TargetID: t.ID}
	log := e.logger.With().Str("target", t.ID).Str("mode", mode.String()).Logger()

	for _, se := range plan.ScanErrors {
		if se.NotExist() {
			continue
		}
		log.Warn().Str("root", se.Root).Err(se.Err).Msg("Scan failed")
		res.Errors = append(res.Errors, Failure{Path: se.Root, Err: se})
	}

	if plan.Empty() {
		log.Info().Msg("Nothing to clean")
		return res
	}

	switch mode {
	case DryRun:
		e.logDryRun(log, plan)
		return res
	case Interactive:
		if !e.confirm(log, plan) {
			log.Info().Msg("Declined by user")
			res.Declined = true
			return res
		}
	}

	if t.IsCommand() {
		e.runCommand(ctx, log, plan, &res)
	} else {
		e.deleteCandidates(ctx, log, plan, &res)
	}

	log.Info().
		Int("attempted", res.Attempted).
		Int("removed", res.FilesRemoved).
		Int64("bytes_freed", res.BytesFreed).
		Int("errors", len(res.Errors)).
		Msg("Cleanup complete")

	return res
}

func (e *Executor) confirm(log zerolog.Logger, plan scan.Plan) bool {
	if e.prompter == nil {
		return false
	}
	ok, err := e.prompter.Confirm(plan)
	if err != nil {
		log.Warn().Err(err).Msg("Prompt failed, treating as declined")
		return false
	}
	return ok
}

func (e *Executor) logDryRun(log zerolog.Logger, plan scan.Plan) {
	if plan.Target.IsCommand() {
		log.Info().Str("command", plan.Target.Command.String()).Msg("[DRY RUN] Would run command")
		return
	}
	for _, c := range plan.Candidates {
		log.Debug().
			Str("path", c.Path).
			Int64("size", c.Size).
			Str("reason", c.Reason.ToLogString()).
			Msg("[DRY RUN] Would delete")
	}
	log.Info().
		Int("candidates", len(plan.Candidates)).
		Int64("estimated_bytes", plan.EstimatedBytes).
		Msg("[DRY RUN] Plan reported")
}

func (e *Executor) deleteCandidates(ctx context.Context, log zerolog.Logger, plan scan.Plan, res *Result) {
	validator := e.validatorFor(plan.Target)

	for _, c := range plan.Candidates {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(plan.Candidates)-res.Attempted).Msg("Interrupted")
			return
		}
		res.Attempted++

		if err := validator.ValidateDeleteTarget(c.Path); err != nil {
			log.Warn().Str("path", c.Path).Err(err).Msg("Refused by safety check")
			res.Errors = append(res.Errors, Failure{Path: c.Path, Err: &DeletionError{Path: c.Path, Err: err}})
			continue
		}

		var err error
		if c.IsDir && !c.IsSymlink {
			err = e.deleter.RemoveAll(c.Path)
		} else {
			err = e.deleter.Remove(c.Path)
		}
		if err != nil {
			log.Error().Str("path", c.Path).Err(err).Msg("Failed to delete")
			res.Errors = append(res.Errors, Failure{Path: c.Path, Err: &DeletionError{Path: c.Path, Err: err}})
			continue
		}

		log.Debug().
			Str("path", c.Path).
			Int64("size", c.Size).
			Bool("dir", c.IsDir).
			Str("reason", c.Reason.ToLogString()).
			Msg("Deleted")

		res.FilesRemoved++
		res.BytesFreed += c.Size
	}
}

func (e *Executor) runCommand(ctx context.Context, log zerolog.Logger, plan scan.Plan, res *Result) {
	t := plan.Target
	line := t.Command.String()
	res.Attempted = 1

	measureMemory := t.RequiresElevatedPrivilege && e.memory != nil
	var memBefore uint64
	if measureMemory {
		var err error
		if memBefore, err = e.memory(); err != nil {
			log.Warn().Err(err).Msg("Could not read available memory, skipping memory report")
			measureMemory = false
		}
	}

	log.Info().Str("command", line).Bool("elevated", t.RequiresElevatedPrivilege).Msg("Running command")
	if _, err := e.runner.Run(ctx, t.Command.Name, t.Command.Args...); err != nil {
		var wrapped error = &CommandError{Command: line, Err: err}
		if t.RequiresElevatedPrivilege {
			wrapped = &PrivilegeError{Command: line, Err: err}
		}
		log.Error().Err(err).Str("command", line).Msg("Command failed")
		res.Errors = append(res.Errors, Failure{Path: line, Err: wrapped})
		return
	}

	if len(t.RootPaths) > 0 && e.measurer != nil {
		after, _ := e.measurer.Measure(t)
		if freed := plan.EstimatedBytes - after; freed > 0 {
			res.BytesFreed = freed
		}
	}

	if measureMemory {
		if e.settle > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(e.settle):
			}
		}
		memAfter, err := e.memory()
		if err != nil {
			log.Warn().Err(err).Msg("Could not read available memory after command")
		} else if memAfter > memBefore {
			res.Detail = "freed approximately " + humanize.IBytes(memAfter-memBefore) + " of memory"
		}
	}
	if res.Detail == "" {
		res.Detail = line + " completed"
	}
}

func (e *Executor) validatorFor(t target.Target) *safety.Validator {
	if e.validator != nil {
		return e.validator
	}
	return safety.NewValidator(t.RootPaths, e.protectedTrees).WithProtectedPaths(e.protectedPaths...)
}
