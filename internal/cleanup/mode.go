package cleanup

// Mode selects how the executor treats a plan.
type Mode int

const (
	// DryRun reports the plan and never deletes.
	DryRun Mode = iota
	// Interactive asks once per target, then behaves like Force.
	Interactive
	// Force deletes every candidate without asking.
	Force
)

func (m Mode) String() string {
	switch m {
	case DryRun:
		return "dry_run"
	case Interactive:
		return "interactive"
	case Force:
		return "force"
	default:
		return "unknown"
	}
}

// ModeFor maps the command-line flags onto a mode. Dry run wins over force.
func ModeFor(dryRun, force bool) Mode {
	switch {
	case dryRun:
		return DryRun
	case force:
		return Force
	default:
		return Interactive
	}
}
