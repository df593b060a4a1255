// Package runner drives one cleanup run: probe tools, plan every available
// target, execute the plans in catalog order and report the totals.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"maccleanup/internal/catalog"
	"maccleanup/internal/cleanup"
	"maccleanup/internal/metrics"
	"maccleanup/internal/probe"
	"maccleanup/internal/report"
	"maccleanup/internal/scan"
	"maccleanup/internal/stats"
	"maccleanup/internal/sysinfo"
	"maccleanup/internal/target"
)

// State is the lifecycle phase of a run.
type State int

const (
	Init State = iota
	Probing
	Planning
	Executing
	Summarizing
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Probing:
		return "probing"
	case Planning:
		return "planning"
	case Executing:
		return "executing"
	case Summarizing:
		return "summarizing"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FatalConfigError stops a run before anything is executed.
type FatalConfigError struct {
	Err error
}

func (e *FatalConfigError) Error() string {
	return "fatal configuration error: " + e.Err.Error()
}

func (e *FatalConfigError) Unwrap() error { return e.Err }

var errNoCatalog = errors.New("no target catalog")

// ToolProber detects optional tools.
type ToolProber interface {
	DetectAll(ctx context.Context) probe.Results
}

// Planner builds a deletion plan for one target.
type Planner interface {
	Plan(t target.Target) scan.Plan
}

// Executor carries out a plan.
type Executor interface {
	Execute(ctx context.Context, plan scan.Plan, mode cleanup.Mode) cleanup.Result
}

// Options selects what a run does.
type Options struct {
	Mode        cleanup.Mode
	RAMOnly     bool
	DiskPath    string // filesystem sampled before and after, "/" when empty
	MetricsFile string // prometheus text file written after the run, if set
}

// Runner owns the components of a run. Catalog, Prober, Planner, Executor
// and Reporter are required; System and Metrics are optional.
type Runner struct {
	Catalog  *catalog.Catalog
	Prober   ToolProber
	Planner  Planner
	Executor Executor
	Reporter *report.Reporter
	System   sysinfo.Probe
	Metrics  *metrics.Metrics

	logger zerolog.Logger
	state  State
}

func New(logger zerolog.Logger) *Runner {
	return &Runner{logger: logger.With().Str("component", "runner").Logger()}
}

// State returns the phase the run reached.
func (r *Runner) State() State { return r.state }

func (r *Runner) enter(s State) {
	r.logger.Debug().Str("from", r.state.String()).Str("to", s.String()).Msg("State change")
	r.state = s
}

// Run performs one cleanup run and returns its totals. Per-candidate and
// per-command failures never end the run; they are part of the summary.
// A canceled ctx skips the remaining targets and is returned as the error.
func (r *Runner) Run(ctx context.Context, opts Options) (stats.Summary, error) {
	start := time.Now()
	if opts.DiskPath == "" {
		opts.DiskPath = "/"
	}

	agg := stats.NewAggregator()
	if r.Metrics != nil {
		agg = stats.NewAggregator(r.Metrics)
	}

	if err := r.check(); err != nil {
		r.enter(Aborted)
		return agg.Summary(), err
	}

	r.enter(Probing)
	results := r.Prober.DetectAll(ctx)
	targets := r.Catalog.AvailableTargets(results, opts.RAMOnly)
	r.logger.Info().Int("targets", len(targets)).Bool("ram_only", opts.RAMOnly).Msg("Targets available")

	r.Reporter.Banner()
	r.Reporter.ModeBanner(opts.Mode, opts.RAMOnly)
	before := r.sampleDisk(ctx, opts.DiskPath, "before")
	if opts.RAMOnly {
		r.showMemory(ctx)
	} else if before != nil {
		r.Reporter.DiskStatus("💾 Current Disk Status", *before)
	}

	if opts.Mode == cleanup.Interactive && !r.Reporter.Menu(targets) {
		r.logger.Info().Msg("Cleanup cancelled at menu")
		r.Reporter.Cancelled()
		r.Reporter.Totals(agg.Summary())
		r.enter(Done)
		return agg.Summary(), nil
	}

	r.enter(Planning)
	plans, err := r.planAll(ctx, targets)
	if err != nil {
		r.Reporter.Interrupted()
		r.enter(Aborted)
		return agg.Summary(), err
	}
	var total int64
	for _, p := range plans {
		total += p.EstimatedBytes
	}
	r.Reporter.Potential(total, before)

	r.enter(Executing)
	interrupted := r.executeAll(ctx, plans, opts.Mode, agg)

	r.enter(Summarizing)
	after := r.sampleDisk(ctx, opts.DiskPath, "after")
	summary := agg.Summary()
	r.Reporter.Summary(summary, opts.Mode, before, after)

	r.logger.Info().
		Str("mode", opts.Mode.String()).
		Int("files_removed", summary.FilesRemoved).
		Int64("bytes_freed", summary.BytesFreed).
		Int("errors", summary.ErrorCount).
		Dur("duration", time.Since(start)).
		Msg("Run complete")

	if err := r.writeMetrics(opts, time.Since(start)); err != nil {
		r.enter(Done)
		return summary, err
	}

	r.enter(Done)
	if interrupted != nil {
		return summary, interrupted
	}
	return summary, nil
}

func (r *Runner) check() error {
	switch {
	case r.Catalog == nil:
		return &FatalConfigError{Err: errNoCatalog}
	case r.Prober == nil, r.Planner == nil, r.Executor == nil, r.Reporter == nil:
		return errors.New("runner is missing a component")
	}
	return nil
}

// planAll plans every target before anything is executed so the total
// potential can be shown up front.
func (r *Runner) planAll(ctx context.Context, targets []target.Target) ([]scan.Plan, error) {
	plans := make([]scan.Plan, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Planner.Plan(t)
		if r.Metrics != nil {
			r.Metrics.RecordPlan(t.ID, len(p.Candidates), p.EstimatedBytes)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func (r *Runner) executeAll(ctx context.Context, plans []scan.Plan, mode cleanup.Mode, agg *stats.Aggregator) error {
	for i, p := range plans {
		if err := ctx.Err(); err != nil {
			r.logger.Warn().Int("skipped", len(plans)-i).Msg("Interrupted, skipping remaining targets")
			r.Reporter.Interrupted()
			return err
		}
		r.Reporter.TargetHeader(p.Target)
		r.Reporter.Plan(p, mode)
		res := r.Executor.Execute(ctx, p, mode)
		agg.Record(res)
		r.Reporter.Result(res)
	}
	return nil
}

func (r *Runner) sampleDisk(ctx context.Context, path, phase string) *sysinfo.DiskUsage {
	if r.System == nil {
		return nil
	}
	d, err := r.System.Disk(ctx, path)
	if err != nil {
		r.logger.Warn().Err(err).Str("path", path).Str("phase", phase).Msg("Disk usage unavailable")
		return nil
	}
	if r.Metrics != nil {
		r.Metrics.RecordDisk(path, phase, d.Free, d.Total)
	}
	return &d
}

func (r *Runner) showMemory(ctx context.Context) {
	if r.System == nil {
		return
	}
	m, err := r.System.Memory(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Memory usage unavailable")
		return
	}
	r.Reporter.MemoryStatus(m)
}

func (r *Runner) writeMetrics(opts Options, d time.Duration) error {
	if r.Metrics == nil {
		return nil
	}
	r.Metrics.RecordRun(opts.Mode.String(), d)
	if opts.MetricsFile == "" {
		return nil
	}
	if err := r.Metrics.WriteFile(opts.MetricsFile); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	r.logger.Debug().Str("path", opts.MetricsFile).Msg("Metrics written")
	return nil
}
