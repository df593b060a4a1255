// Package stats accumulates execution results across a run.
package stats

import "maccleanup/internal/cleanup"

// Sink observes every recorded result.
type Sink interface {
	Observe(res cleanup.Result)
}

// TargetStats is the per-target breakdown of a run.
type TargetStats struct {
	Target       string
	TargetID     string
	FilesRemoved int
	BytesFreed   int64
	Errors       []cleanup.Failure
	Declined     bool
	Detail       string
}

// Summary is a snapshot of the accumulated totals.
type Summary struct {
	FilesRemoved int
	BytesFreed   int64
	ErrorCount   int
	Targets      []TargetStats // in record order
}

// Errors returns every recorded failure in record order.
func (s Summary) Errors() []cleanup.Failure {
	var out []cleanup.Failure
	for _, t := range s.Targets {
		out = append(out, t.Errors...)
	}
	return out
}

// Aggregator owns the running totals of a run. It is not safe for concurrent use;
// results are recorded by the single orchestrating goroutine.
type Aggregator struct {
	summary Summary
	sinks   []Sink
}

func NewAggregator(sinks ...Sink) *Aggregator {
	return &Aggregator{sinks: sinks}
}

// Record adds a result to the totals.
func (a *Aggregator) Record(res cleanup.Result) {
	a.summary.FilesRemoved += res.FilesRemoved
	a.summary.BytesFreed += res.BytesFreed
	a.summary.ErrorCount += len(res.Errors)
	a.summary.Targets = append(a.summary.Targets, TargetStats{
		Target:       res.Target,
		TargetID:     res.TargetID,
		FilesRemoved: res.FilesRemoved,
		BytesFreed:   res.BytesFreed,
		Errors:       append([]cleanup.Failure(nil), res.Errors...),
		Declined:     res.Declined,
		Detail:       res.Detail,
	})
	for _, s := range a.sinks {
		s.Observe(res)
	}
}

// Summary returns a copy of the current totals.
func (a *Aggregator) Summary() Summary {
	out := a.summary
	out.Targets = append([]TargetStats(nil), a.summary.Targets...)
	return out
}
