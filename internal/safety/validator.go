package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside allowed roots")
	ErrTraversal      = errors.New("path traversal detected")
	ErrSymlinkEscape  = errors.New("symlink escape detected")
)

// Validator enforces the safety contract for all delete operations
type Validator struct {
	AllowedRoots   []string
	ProtectedPaths []string // the path itself may never be deleted
	ProtectedTrees []string // nothing at or below these may be deleted
}

// NewValidator creates a validator for one target's roots. extraProtected
// paths are protected as whole trees.
func NewValidator(allowed []string, extraProtected []string) *Validator {
	return &Validator{
		AllowedRoots:   normalizeRoots(allowed),
		ProtectedPaths: defaultProtected(),
		ProtectedTrees: defaultProtectedTrees(extraProtected),
	}
}

// WithProtectedPaths returns the validator with extra exact-match protected paths.
func (v *Validator) WithProtectedPaths(paths ...string) *Validator {
	v.ProtectedPaths = append(v.ProtectedPaths, normalizeRoots(paths)...)
	return v
}

// ValidateDeleteTarget is the single-source-of-truth for delete authorization
// Returns typed error on safety violation
func (v *Validator) ValidateDeleteTarget(path string) error {
	// 1. Normalize path to absolute, cleaned form
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	// 2. Block protected paths (system-critical)
	if IsProtectedPath(p, v.ProtectedPaths, v.ProtectedTrees) {
		return ErrProtectedPath
	}

	// 3. Ensure within allowed roots
	if !IsWithinAllowedRoots(p, v.AllowedRoots) {
		return ErrOutsideAllowed
	}

	// 4. Detect path traversal in raw input
	if DetectTraversal(path) {
		return ErrTraversal
	}

	// 5. Detect symlink escape through a linked parent directory
	escaped, err := DetectSymlinkEscape(p, v.AllowedRoots)
	if err != nil {
		// Missing paths fail at delete time and are reported there
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	parts := strings.Split(filepath.ToSlash(raw), "/")
	for _, p := range parts {
		if p == ".." {
			return true
		}
	}
	return false
}

// IsWithinAllowedRoots checks if path is within any allowed root
func IsWithinAllowedRoots(path string, allowedRoots []string) bool {
	p := filepath.Clean(path)
	for _, r := range allowedRoots {
		if hasPathPrefix(p, r) {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves the directory holding path and reports whether
// it lies outside the allowed roots. The entry itself is not resolved: removing
// a symbolic link only removes the link.
func DetectSymlinkEscape(cleanAbs string, allowedRoots []string) (bool, error) {
	dir := filepath.Dir(cleanAbs)
	if isOneOf(cleanAbs, allowedRoots) {
		dir = cleanAbs
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return false, err
	}
	resolvedAbs, err := filepath.Abs(resolved)
	if err != nil {
		return false, err
	}
	return !IsWithinAllowedRoots(filepath.Clean(resolvedAbs), resolveRoots(allowedRoots)), nil
}

// IsProtectedPath checks if path is an exact protected path or lies in a protected tree
func IsProtectedPath(path string, exact []string, trees []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range exact {
		if p == filepath.Clean(prot) {
			return true
		}
	}
	for _, prot := range trees {
		if hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

// HomeProtected returns the per-user directories that must never be removed
// themselves, even when a target's root lies inside them.
func HomeProtected(home string) []string {
	if home == "" {
		return nil
	}
	out := []string{home}
	for _, rel := range []string{
		"Library",
		"Library/Caches",
		"Library/Logs",
		"Library/Containers",
		"Library/Application Support",
		"Library/Preferences",
		"Library/Safari",
		"Documents",
		"Desktop",
		"Downloads",
		"Developer",
		"Projects",
		".Trash",
		".cache",
	} {
		out = append(out, filepath.Join(home, rel))
	}
	return out
}

// hasPathPrefix checks if path has the given prefix
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return strings.HasPrefix(path, prefix)
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

func isOneOf(path string, roots []string) bool {
	for _, r := range roots {
		if filepath.Clean(r) == path {
			return true
		}
	}
	return false
}

// resolveRoots returns roots plus their symlink-resolved forms (/var -> /private/var on macOS)
func resolveRoots(roots []string) []string {
	out := make([]string, 0, len(roots)*2)
	for _, r := range roots {
		out = append(out, r)
		if resolved, err := filepath.EvalSymlinks(r); err == nil && resolved != r {
			out = append(out, filepath.Clean(resolved))
		}
	}
	return out
}

// normalizeRoots converts slice of roots to absolute, cleaned paths
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

// defaultProtected returns directories that may contain targets but must never be removed themselves
func defaultProtected() []string {
	return []string{
		"/",
		"/Library",
		"/Library/Caches",
		"/Library/Logs",
		"/System",
		"/System/Library",
		"/System/Library/Caches",
		"/Users",
		"/var",
		"/var/log",
		"/private",
		"/private/var",
		"/private/var/log",
	}
}

// defaultProtectedTrees returns the base set of protected trees plus any extras
func defaultProtectedTrees(extra []string) []string {
	base := []string{
		"/bin",
		"/sbin",
		"/usr",
		"/etc",
		"/private/etc",
		"/Applications",
		"/System/Applications",
		"/System/Volumes",
		"/Volumes",
		"/cores",
	}
	return append(base, normalizeRoots(extra)...)
}
