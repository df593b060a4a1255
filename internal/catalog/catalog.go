// Package catalog holds the static registry of cleanup targets.
package catalog

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"maccleanup/internal/config"
	"maccleanup/internal/probe"
	"maccleanup/internal/target"
)

// MemoryID identifies the memory-purge target.
const MemoryID = "memory"

var (
	// hidden entries and Finder metadata are never deleted
	defaultExclusions = []string{".DS_Store", ".*"}

	// directories a project search never descends into
	projectPrune = []string{".*", "Library"}
)

// DefaultProjectRoots are searched for node_modules and Python caches.
func DefaultProjectRoots(home string) []string {
	return []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Developer"),
		filepath.Join(home, "Projects"),
	}
}

// Defaults returns the built-in targets in catalog order.
func Defaults(home string, projectRoots []string) []target.Target {
	h := func(rel string) string { return filepath.Join(home, rel) }

	return []target.Target{
		{
			ID:          "user-caches",
			Name:        "User Caches",
			RootPaths:   []string{h("Library/Caches"), h(".cache")},
			MaxDepth:    1,
			MinAgeDays:  1,
			Directories: true,
			// owned by the browser and Homebrew targets
			Exclusions: append(exclusions(), "Google", "com.google.Chrome", "com.apple.Safari", "com.apple.WebKit.PluginProcess", "Homebrew"),
			Prompt:     "Clean user caches?",
		},
		{
			ID:          "system-caches",
			Name:        "System Caches",
			RootPaths:   []string{"/Library/Caches", "/System/Library/Caches"},
			MaxDepth:    1,
			MinAgeDays:  7,
			Directories: true,
			Exclusions:  append(exclusions(), "Homebrew"),
			Prompt:      "Clean system caches older than 7 days?",
		},
		{
			ID:          "logs",
			Name:        "Logs",
			RootPaths:   []string{h("Library/Logs"), h(".npm/_logs"), "/Library/Logs", "/private/var/log"},
			MaxDepth:    1,
			MinAgeDays:  7,
			Directories: true,
			Exclusions:  exclusions(),
			Prompt:      "Clean logs older than 7 days?",
		},
		{
			ID:          "downloads",
			Name:        "Downloads",
			RootPaths:   []string{h("Downloads")},
			MaxDepth:    1,
			MinAgeDays:  30,
			Directories: true,
			Exclusions:  exclusions(),
			Prompt:      "Clean files older than 30 days in Downloads?",
		},
		{
			ID:          "trash",
			Name:        "Trash",
			RootPaths:   []string{h(".Trash")},
			MaxDepth:    1,
			Directories: true,
			Exclusions:  exclusions(),
			Prompt:      "Empty trash?",
		},
		{
			ID:   "xcode",
			Name: "Xcode",
			RootPaths: []string{
				h("Library/Developer/Xcode/DerivedData"),
				h("Library/Developer/Xcode/Archives"),
				h("Library/Developer/CoreSimulator/Caches"),
			},
			MaxDepth:     1,
			Directories:  true,
			Exclusions:   exclusions(),
			RequiresTool: target.ToolXcode,
			Prompt:       "Clean Xcode derived data and archives?",
		},
		{
			ID:           "homebrew",
			Name:         "Homebrew",
			RootPaths:    []string{"/Library/Caches/Homebrew", h("Library/Caches/Homebrew")},
			RequiresTool: target.ToolHomebrew,
			Command:      &target.Command{Name: "brew", Args: []string{"cleanup", "-s"}},
			Prompt:       "Clean Homebrew cache and outdated formulae?",
		},
		{
			ID:          "node-modules",
			Name:        "Node Modules",
			RootPaths:   append([]string(nil), projectRoots...),
			MaxDepth:    4,
			Match:       []string{"node_modules"},
			Prune:       projectPrune,
			Directories: true,
			Exclusions:  exclusions(),
			Prompt:      "Remove all node_modules directories?",
		},
		{
			ID:           "docker",
			Name:         "Docker",
			RequiresTool: target.ToolDocker,
			Command:      &target.Command{Name: "docker", Args: []string{"system", "prune", "-a", "-f", "--volumes"}},
			Prompt:       "Clean Docker unused containers, images and volumes?",
		},
		{
			ID:   "safari",
			Name: "Safari",
			RootPaths: []string{
				h("Library/Caches/com.apple.Safari"),
				h("Library/Safari/History.db"),
				h("Library/Safari/TopSites.plist"),
				h("Library/Caches/com.apple.WebKit.PluginProcess"),
			},
			Directories: true,
			Prompt:      "Clean Safari cache and history?",
		},
		{
			ID:          "chrome-cache",
			Name:        "Chrome Cache",
			RootPaths:   []string{h("Library/Caches/Google/Chrome"), h("Library/Caches/com.google.Chrome")},
			Directories: true,
			Prompt:      "Clean Chrome cache?",
		},
		{
			ID:          "python-cache",
			Name:        "Python Cache",
			RootPaths:   append([]string(nil), projectRoots...),
			MaxDepth:    5,
			Match:       []string{"__pycache__", "*.pyc", "*.pyo"},
			Prune:       projectPrune,
			Directories: true,
			Exclusions:  exclusions(),
			Prompt:      "Clean Python cache files?",
		},
		{
			ID:          "containers",
			Name:        "App Containers",
			RootPaths:   []string{h("Library/Containers")},
			MaxDepth:    1,
			MinAgeDays:  7,
			Directories: true,
			Exclusions:  exclusions(),
			Prompt:      "Clean app containers data?",
		},
		{
			ID:   "cookies",
			Name: "Browser Cookies & Web Data",
			RootPaths: []string{
				h("Library/Cookies"),
				h("Library/HTTPStorages"),
				h("Library/WebKit"),
				h("Library/Safari/LocalStorage"),
				h("Library/Safari/Databases"),
				h("Library/Application Support/Google/Chrome/Default/Cookies"),
				h("Library/Application Support/Google/Chrome/Default/Local Storage"),
			},
			MaxDepth:    1,
			Directories: true,
			Exclusions:  exclusions(),
			Prompt:      "Clean browser cookies and web data?",
		},
		{
			ID:                        MemoryID,
			Name:                      "RAM Memory",
			RequiresElevatedPrivilege: true,
			Command:                   &target.Command{Name: "sudo", Args: []string{"purge"}},
			Prompt:                    "Clean RAM memory (purge inactive memory)?",
		},
	}
}

func exclusions() []string {
	return append([]string(nil), defaultExclusions...)
}

// Catalog is the registry of targets after configuration overrides.
type Catalog struct {
	targets  []target.Target
	disabled map[string]bool
}

// New builds the catalog for home, applying cfg when non-nil. Unknown target
// ids in cfg are logged and ignored.
func New(home string, cfg *config.Config, logger zerolog.Logger) *Catalog {
	roots := DefaultProjectRoots(home)
	if cfg != nil && len(cfg.SearchRoots) > 0 {
		roots = cfg.SearchRoots
	}

	c := &Catalog{disabled: make(map[string]bool)}
	known := make(map[string]bool)
	for _, t := range Defaults(home, roots) {
		known[t.ID] = true
		if cfg != nil {
			if days, ok := cfg.MinAgeOverride(t.ID); ok && !t.IsCommand() {
				t = t.WithMinAge(days)
			}
			if !t.IsCommand() {
				t = t.WithExtraExclusions(cfg.Exclusions...)
			}
			if cfg.Disabled(t.ID) {
				c.disabled[t.ID] = true
			}
		}
		c.targets = append(c.targets, t)
	}

	if cfg != nil {
		for _, id := range cfg.DisabledTargets {
			if !known[id] {
				logger.Warn().Str("target", id).Msg("Unknown target in disabled_targets")
			}
		}
		for id := range cfg.Targets {
			if !known[id] {
				logger.Warn().Str("target", id).Msg("Unknown target in targets")
			}
		}
	}
	return c
}

// All returns every target in catalog order, including disabled ones.
func (c *Catalog) All() []target.Target {
	return append([]target.Target(nil), c.targets...)
}

// Lookup finds a target by id.
func (c *Catalog) Lookup(id string) (target.Target, bool) {
	for _, t := range c.targets {
		if t.ID == id {
			return t, true
		}
	}
	return target.Target{}, false
}

// AvailableTargets filters the catalog by tool availability. With ramOnly it
// returns exactly the memory-purge target regardless of probes.
// The result depends only on its inputs.
func (c *Catalog) AvailableTargets(results probe.Results, ramOnly bool) []target.Target {
	if ramOnly {
		if t, ok := c.Lookup(MemoryID); ok {
			return []target.Target{t}
		}
		return nil
	}

	var out []target.Target
	for _, t := range c.targets {
		if c.disabled[t.ID] || !results.Has(t.RequiresTool) {
			continue
		}
		out = append(out, t)
	}
	return out
}
