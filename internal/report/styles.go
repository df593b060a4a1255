package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	clrGreen  = lipgloss.AdaptiveColor{Light: "#16a34a", Dark: "#4ade80"}
	clrYellow = lipgloss.AdaptiveColor{Light: "#ca8a04", Dark: "#facc15"}
	clrOrange = lipgloss.AdaptiveColor{Light: "#ea580c", Dark: "#fb923c"}
	clrRed    = lipgloss.AdaptiveColor{Light: "#dc2626", Dark: "#f87171"}
	clrCyan   = lipgloss.AdaptiveColor{Light: "#0891b2", Dark: "#22d3ee"}
	clrBlue   = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	clrMuted  = lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}
)

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	ok       lipgloss.Style
	warn     lipgloss.Style
	bad      lipgloss.Style
	info     lipgloss.Style
	accent   lipgloss.Style
	renderer *lipgloss.Renderer
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:    r.NewStyle().Bold(true).Foreground(clrBlue),
		header:   r.NewStyle().Bold(true).Foreground(clrCyan),
		label:    r.NewStyle().Bold(true),
		muted:    r.NewStyle().Foreground(clrMuted),
		ok:       r.NewStyle().Foreground(clrGreen),
		warn:     r.NewStyle().Foreground(clrYellow),
		bad:      r.NewStyle().Foreground(clrRed),
		info:     r.NewStyle().Foreground(clrBlue),
		accent:   r.NewStyle().Foreground(clrCyan),
		renderer: r,
	}
}

// usageBar renders a ████░░░░ bar colored by severity.
func (s styles) usageBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}

	barColor := clrGreen
	switch {
	case pct >= 90:
		barColor = clrRed
	case pct >= 75:
		barColor = clrOrange
	case pct >= 50:
		barColor = clrYellow
	}

	fStr := s.renderer.NewStyle().Foreground(barColor).Render(strings.Repeat("█", filled))
	eStr := s.muted.Render(strings.Repeat("░", width-filled))
	return fStr + eStr
}
