package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"maccleanup/internal/target"
)

const day = 24 * time.Hour

var errSymlinkRoot = errors.New("root is a symbolic link")

// ScanError reports a root (or nested directory) that could not be read.
// The path is skipped; scanning continues with the remaining paths.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// NotExist reports whether the path was simply missing.
func (e *ScanError) NotExist() bool {
	return errors.Is(e.Err, fs.ErrNotExist)
}

type Candidate struct {
	Path      string
	Size      int64
	ModTime   time.Time
	IsDir     bool
	IsSymlink bool
	Reason    SelectionReason
}

// Plan is the deletion plan for one target. Plans are transient: built per
// target, handed to the executor, then discarded.
type Plan struct {
	Target         target.Target
	Candidates     []Candidate
	EstimatedBytes int64
	ScanErrors     []*ScanError
}

// Empty reports whether executing the plan could not free anything.
func (p Plan) Empty() bool {
	if p.Target.IsCommand() {
		return false
	}
	return len(p.Candidates) == 0
}

// Planner walks target roots and selects deletion candidates.
type Planner struct {
	fs     afero.Fs
	now    time.Time
	logger zerolog.Logger
}

// NewPlanner creates a planner that evaluates ages relative to now.
// A fixed now makes re-planning an unmodified tree return identical candidates.
func NewPlanner(fsys afero.Fs, now time.Time, logger zerolog.Logger) *Planner {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Planner{
		fs:     fsys,
		now:    now,
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

// Plan builds the deletion plan for a target. Unreadable roots are recorded
// in Plan.ScanErrors and skipped.
func (p *Planner) Plan(t target.Target) Plan {
	plan := Plan{Target: t}

	p.warnBadPatterns(t)

	if t.IsCommand() {
		plan.EstimatedBytes, plan.ScanErrors = p.Measure(t)
		return plan
	}

	for _, root := range t.RootPaths {
		if err := p.planRoot(t, root, &plan); err != nil {
			p.logger.Debug().Str("target", t.ID).Str("root", root).Err(err).Msg("Skipping root")
			plan.ScanErrors = append(plan.ScanErrors, &ScanError{Root: root, Err: err})
		}
	}

	for _, c := range plan.Candidates {
		plan.EstimatedBytes += c.Size
	}

	p.logger.Info().
		Str("target", t.ID).
		Int("candidates", len(plan.Candidates)).
		Int64("estimated_bytes", plan.EstimatedBytes).
		Int("scan_errors", len(plan.ScanErrors)).
		Msg("Plan complete")

	return plan
}

// Measure returns the recursive size of a target's root paths without
// selecting candidates. Used to estimate what external commands reclaim.
func (p *Planner) Measure(t target.Target) (int64, []*ScanError) {
	var total int64
	var errs []*ScanError
	for _, root := range t.RootPaths {
		info, err := lstat(p.fs, root)
		if err != nil {
			errs = append(errs, &ScanError{Root: root, Err: err})
			continue
		}
		if info.IsDir() {
			total += p.dirSize(root)
		} else {
			total += info.Size()
		}
	}
	return total, errs
}

func (p *Planner) planRoot(t target.Target, root string, plan *Plan) error {
	info, err := lstat(p.fs, root)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return errSymlinkRoot
	}

	if t.MaxDepth <= 0 || !info.IsDir() {
		if excluded(t.Exclusions, filepath.Base(root), root) {
			return nil
		}
		if info.IsDir() && !t.Directories {
			return nil
		}
		reason, ok := p.passesAge(t, info)
		if !ok {
			return nil
		}
		reason.WholeRoot = true
		p.addCandidate(plan, root, info, reason)
		return nil
	}

	return p.walkDir(t, root, 1, plan)
}

func (p *Planner) walkDir(t target.Target, dir string, depth int, plan *Plan) error {
	entries, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		return err
	}

	for _, info := range entries {
		name := info.Name()
		path := filepath.Join(dir, name)

		if excluded(t.Exclusions, name, path) {
			continue
		}

		pattern, matched := matchTarget(t.Match, name, path)

		if info.IsDir() {
			if matched && t.Directories {
				if reason, ok := p.passesAge(t, info); ok {
					reason.Pattern = pattern
					p.addCandidate(plan, path, info, reason)
				}
				continue
			}
			if depth >= t.MaxDepth || anyMatch(t.Prune, name, path) {
				continue
			}
			if err := p.walkDir(t, path, depth+1, plan); err != nil {
				p.logger.Debug().Str("target", t.ID).Str("path", path).Err(err).Msg("Skipping directory")
				plan.ScanErrors = append(plan.ScanErrors, &ScanError{Root: path, Err: err})
			}
			continue
		}

		if !matched {
			continue
		}
		if reason, ok := p.passesAge(t, info); ok {
			reason.Pattern = pattern
			p.addCandidate(plan, path, info, reason)
		}
	}

	return nil
}

func (p *Planner) passesAge(t target.Target, info os.FileInfo) (SelectionReason, bool) {
	var reason SelectionReason
	if !t.HasAgeFilter() {
		return reason, true
	}
	ageDays := AgeDays(p.now, info.ModTime())
	if ageDays < t.MinAgeDays {
		return reason, false
	}
	reason.AgeThreshold = &AgeReason{
		ConfiguredDays: t.MinAgeDays,
		ActualAgeDays:  ageDays,
	}
	return reason, true
}

func (p *Planner) addCandidate(plan *Plan, path string, info os.FileInfo, reason SelectionReason) {
	c := Candidate{
		Path:      path,
		ModTime:   info.ModTime(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&os.ModeSymlink != 0,
		Reason:    reason,
	}
	if c.IsDir {
		c.Size = p.dirSize(path)
	} else {
		c.Size = info.Size()
	}
	plan.Candidates = append(plan.Candidates, c)

	p.logger.Debug().
		Str("path", path).
		Int64("size", c.Size).
		Str("reason", reason.ToLogString()).
		Msg("Entry selected for deletion")
}

// dirSize sums entry sizes below dir. Symbolic links count their own size and
// are never traversed; unreadable directories contribute nothing.
func (p *Planner) dirSize(dir string) int64 {
	entries, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		return 0
	}
	var total int64
	for _, info := range entries {
		if info.IsDir() {
			total += p.dirSize(filepath.Join(dir, info.Name()))
			continue
		}
		total += info.Size()
	}
	return total
}

func (p *Planner) warnBadPatterns(t target.Target) {
	for _, group := range [][]string{t.Exclusions, t.Match, t.Prune} {
		for _, pattern := range group {
			if _, err := filepath.Match(pattern, ""); err != nil {
				p.logger.Warn().Str("target", t.ID).Str("pattern", pattern).Err(err).Msg("Invalid pattern")
			}
		}
	}
}

// AgeDays returns the whole number of days between modTime and now.
func AgeDays(now, modTime time.Time) int {
	return int(now.Sub(modTime) / day)
}

// MatchesAny reports whether any pattern matches the entry. Patterns containing
// a path separator are matched against the full path, others against the base name.
func MatchesAny(patterns []string, path string) bool {
	return anyMatch(patterns, filepath.Base(path), path)
}

func excluded(exclusions []string, name, path string) bool {
	return anyMatch(exclusions, name, path)
}

func matchTarget(patterns []string, name, path string) (string, bool) {
	if len(patterns) == 0 {
		return "", true
	}
	for _, pattern := range patterns {
		if matchPattern(pattern, name, path) {
			return pattern, true
		}
	}
	return "", false
}

func anyMatch(patterns []string, name, path string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, name, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, name, path string) bool {
	subject := name
	if strings.ContainsRune(pattern, '/') {
		subject = path
	}
	ok, err := filepath.Match(pattern, subject)
	return err == nil && ok
}

func lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}
