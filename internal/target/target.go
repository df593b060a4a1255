package target

import "strings"

// Tool identifies an optional external ecosystem a target depends on.
type Tool string

const (
	ToolNone     Tool = ""
	ToolXcode    Tool = "xcode"    // IDE
	ToolHomebrew Tool = "homebrew" // package manager
	ToolDocker   Tool = "docker"   // container runtime
)

// Command is an external program run in place of path deletion.
type Command struct {
	Name string
	Args []string
}

// String renders the command line for logs and prompts.
func (c Command) String() string {
	if c.Name == "" {
		return ""
	}
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Target is a named, independently configured cleanup location.
// Targets are plain data values; they are built once by the catalog and never mutated.
type Target struct {
	ID        string
	Name      string
	RootPaths []string

	// MaxDepth bounds the walk: 0 selects the root path itself, 1 its immediate
	// children, n entries up to n levels below the root.
	MaxDepth int

	// MinAgeDays excludes entries modified more recently. 0 disables the filter.
	MinAgeDays int

	Exclusions []string // never deleted
	Match      []string // when set, only matching names are candidates
	Prune      []string // directory names never descended into

	// Directories selects the candidate granularity: when true a directory that
	// passes the filters is deleted as a whole, otherwise only non-directory
	// entries are candidates and directories are just traversed.
	Directories bool

	RequiresTool              Tool
	RequiresElevatedPrivilege bool

	// Command, when set, replaces path deletion. RootPaths are then only
	// measured to estimate reclaimable space.
	Command *Command

	Prompt string
}

// IsCommand reports whether the target runs an external command instead of deleting paths.
func (t Target) IsCommand() bool {
	return t.Command != nil && t.Command.Name != ""
}

// HasAgeFilter reports whether a minimum age applies.
func (t Target) HasAgeFilter() bool {
	return t.MinAgeDays > 0
}

// Question returns the interactive confirmation text.
func (t Target) Question() string {
	if t.Prompt != "" {
		return t.Prompt
	}
	return "Clean " + strings.ToLower(t.Name) + "?"
}

// WithMinAge returns a copy of the target with a different age threshold.
func (t Target) WithMinAge(days int) Target {
	t.MinAgeDays = days
	return t
}

// WithExtraExclusions returns a copy of the target with patterns appended to its exclusions.
func (t Target) WithExtraExclusions(patterns ...string) Target {
	if len(patterns) == 0 {
		return t
	}
	merged := make([]string, 0, len(t.Exclusions)+len(patterns))
	merged = append(merged, t.Exclusions...)
	merged = append(merged, patterns...)
	t.Exclusions = merged
	return t
}

// WithRoots returns a copy of the target scanning different root paths.
func (t Target) WithRoots(roots []string) Target {
	t.RootPaths = append([]string(nil), roots...)
	return t
}
