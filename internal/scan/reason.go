package scan

import (
	"fmt"
	"strings"
)

// SelectionReason captures why an entry was selected for deletion.
// Several reasons can apply at once (e.g. a matched pattern that is also old enough).
type SelectionReason struct {
	AgeThreshold *AgeReason
	Pattern      string // Match pattern that selected the entry, if any
	WholeRoot    bool   // Root path selected as a whole (depth 0 targets)
}

// AgeReason indicates the entry passed the target's age threshold.
type AgeReason struct {
	ConfiguredDays int // MinAgeDays of the target
	ActualAgeDays  int // entry age at plan time
}

// Unconditional reports whether no filter contributed to the selection.
func (r SelectionReason) Unconditional() bool {
	return r.AgeThreshold == nil && r.Pattern == "" && !r.WholeRoot
}

// ToLogString formats the reason for structured logging.
// Example: "pattern: node_modules + age_threshold: 40d (min=30d)"
func (r SelectionReason) ToLogString() string {
	if r.Unconditional() {
		return "unconditional"
	}

	var parts []string
	if r.WholeRoot {
		parts = append(parts, "whole_root")
	}
	if r.Pattern != "" {
		parts = append(parts, "pattern: "+r.Pattern)
	}
	if r.AgeThreshold != nil {
		parts = append(parts, fmt.Sprintf(
			"age_threshold: %dd (min=%dd)",
			r.AgeThreshold.ActualAgeDays,
			r.AgeThreshold.ConfiguredDays,
		))
	}
	return strings.Join(parts, " + ")
}

// ToHumanReadable formats the reason for verbose terminal output.
func (r SelectionReason) ToHumanReadable() string {
	if r.AgeThreshold != nil {
		return fmt.Sprintf("%d days old", r.AgeThreshold.ActualAgeDays)
	}
	if r.Pattern != "" {
		return "matches " + r.Pattern
	}
	return ""
}
