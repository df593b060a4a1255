package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Run-level metrics
type runMetrics struct {
	// duration tracks how long the whole run took
	duration prometheus.Histogram

	// bytesFreed tracks bytes freed per target
	bytesFreed *prometheus.CounterVec

	// filesDeleted tracks entries removed per target
	filesDeleted *prometheus.CounterVec

	errors   *prometheus.CounterVec
	declined *prometheus.CounterVec

	// planCandidates and planBytes hold what each target's plan proposed
	planCandidates *prometheus.GaugeVec
	planBytes      *prometheus.GaugeVec

	// planSize is the distribution of plan sizes across targets
	planSize prometheus.Histogram

	// lastRun records Unix timestamp of the run
	lastRun prometheus.Gauge

	// lastMode tracks the execution mode used (dry_run, interactive, force)
	lastMode *prometheus.GaugeVec
}

func newRunMetrics() runMetrics {
	return runMetrics{
		duration: histogram(
			"maccleanup_run_duration_seconds",
			"Duration of the cleanup run in seconds.",
			runDurationBuckets,
		),
		bytesFreed: perTargetCounter(
			"maccleanup_bytes_freed_total",
			"Bytes freed per cleanup target.",
		),
		filesDeleted: perTargetCounter(
			"maccleanup_files_deleted_total",
			"Entries removed per cleanup target.",
		),
		errors: perTargetCounter(
			"maccleanup_errors_total",
			"Failures recorded per cleanup target.",
		),
		declined: perTargetCounter(
			"maccleanup_targets_declined_total",
			"Targets the user declined to clean.",
		),
		planCandidates: perTargetGauge(
			"maccleanup_plan_candidates",
			"Candidates selected by the plan of each target.",
		),
		planBytes: perTargetGauge(
			"maccleanup_plan_estimated_bytes",
			"Estimated reclaimable bytes per target.",
		),
		planSize: histogram(
			"maccleanup_plan_size_bytes",
			"Distribution of estimated reclaimable bytes across target plans.",
			planSizeBuckets,
		),
		lastRun: gauge(
			"maccleanup_last_run_timestamp",
			"Timestamp of the last cleanup run (Unix epoch seconds).",
		),
		lastMode: gaugeVec(
			"maccleanup_last_mode",
			"Execution mode of the last run (1 for the active mode).",
			"mode",
		),
	}
}

func (r runMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(
		r.duration,
		r.bytesFreed,
		r.filesDeleted,
		r.errors,
		r.declined,
		r.planCandidates,
		r.planBytes,
		r.planSize,
		r.lastRun,
		r.lastMode,
	)
}
