// Package probe detects the optional external tools some targets depend on.
package probe

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"maccleanup/internal/shell"
	"maccleanup/internal/target"
)

// XcodeApp is where the Xcode bundle is installed by the App Store.
const XcodeApp = "/Applications/Xcode.app"

const probeTimeout = 5 * time.Second

// Results records tool availability by tool id. Missing keys mean absent.
type Results map[target.Tool]bool

// Has reports whether tool is available. ToolNone is always available.
func (r Results) Has(tool target.Tool) bool {
	if tool == target.ToolNone {
		return true
	}
	return r[tool]
}

// Tools lists every tool the catalog can depend on, in probe order.
var Tools = []target.Tool{target.ToolXcode, target.ToolHomebrew, target.ToolDocker}

// Prober performs read-only presence checks.
type Prober struct {
	fs     afero.Fs
	runner shell.Runner
	logger zerolog.Logger
}

func New(fsys afero.Fs, runner shell.Runner, logger zerolog.Logger) *Prober {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Prober{
		fs:     fsys,
		runner: runner,
		logger: logger.With().Str("component", "prober").Logger(),
	}
}

// Detect reports whether tool is installed. Probe failures mean "absent".
func (p *Prober) Detect(ctx context.Context, tool target.Tool) bool {
	var found bool
	switch tool {
	case target.ToolNone:
		return true
	case target.ToolXcode:
		found = p.exists(XcodeApp) || p.succeeds(ctx, "xcode-select", "-p")
	case target.ToolHomebrew:
		found = p.onPath("brew")
	case target.ToolDocker:
		found = p.onPath("docker")
	}
	p.logger.Debug().Str("tool", string(tool)).Bool("found", found).Msg("Probed tool")
	return found
}

// DetectAll probes every known tool.
func (p *Prober) DetectAll(ctx context.Context) Results {
	results := make(Results, len(Tools))
	for _, tool := range Tools {
		results[tool] = p.Detect(ctx, tool)
	}
	return results
}

func (p *Prober) exists(path string) bool {
	_, err := p.fs.Stat(path)
	return err == nil
}

func (p *Prober) onPath(name string) bool {
	if p.runner == nil {
		return false
	}
	_, err := p.runner.LookPath(name)
	return err == nil
}

func (p *Prober) succeeds(ctx context.Context, name string, args ...string) bool {
	if !p.onPath(name) {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	_, err := p.runner.Run(ctx, name, args...)
	return err == nil
}
