// Package report renders progress, prompts and the final summary on the terminal.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"maccleanup/internal/cleanup"
	"maccleanup/internal/scan"
	"maccleanup/internal/stats"
	"maccleanup/internal/sysinfo"
	"maccleanup/internal/target"
)

const (
	ruleWidth = 40
	barWidth  = 30
)

// Options configures a Reporter.
type Options struct {
	Out     io.Writer
	In      io.Reader
	Verbose bool
	NoColor bool
}

// Reporter writes human-readable output. Colors are dropped when the output is
// not a terminal or NoColor is set.
type Reporter struct {
	out     io.Writer
	in      *bufio.Reader
	verbose bool
	st      styles
}

func New(opts Options) *Reporter {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	in := opts.In
	if in == nil {
		in = os.Stdin
	}

	r := lipgloss.NewRenderer(out)
	if opts.NoColor || !isTerminal(out) {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Reporter{
		out:     out,
		in:      bufio.NewReader(in),
		verbose: opts.Verbose,
		st:      newStyles(r),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Verbose reports whether per-candidate detail is printed.
func (r *Reporter) Verbose() bool { return r.verbose }

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Reporter) section(title string) {
	r.printf("\n%s\n%s\n", r.st.label.Render(title), r.st.muted.Render(strings.Repeat("─", ruleWidth)))
}

func (r *Reporter) success(msg string) { r.printf("  %s %s\n", r.st.ok.Render("✓"), msg) }

func (r *Reporter) failure(msg string) { r.printf("  %s %s\n", r.st.bad.Render("✗"), msg) }

func (r *Reporter) note(msg string) { r.printf("  %s %s\n", r.st.info.Render("ℹ"), msg) }

func (r *Reporter) action(msg string) { r.printf("  %s %s\n", r.st.ok.Render("→"), msg) }

// Banner prints the program title.
func (r *Reporter) Banner() {
	r.printf("%s\n%s\n", r.st.title.Render("🧹 Mac Cleanup"), r.st.info.Render(strings.Repeat("=", 47)))
}

// ModeBanner announces the execution mode.
func (r *Reporter) ModeBanner(mode cleanup.Mode, ramOnly bool) {
	if ramOnly {
		r.section("🧠 RAM Cleanup Mode")
	}
	switch mode {
	case cleanup.DryRun:
		r.printf("\n%s\n\n", r.st.warn.Render("🔍 Running in DRY RUN mode - nothing will be deleted"))
	case cleanup.Force:
		r.printf("\n%s\n\n", r.st.bad.Render("⚠️  Running in FORCE mode - no confirmation prompts!"))
	default:
		r.printf("\n%s\n\n", r.st.ok.Render("💬 Running in INTERACTIVE mode - will ask before actions"))
	}
}

// DiskStatus prints a usage bar and the used/total/free figures.
func (r *Reporter) DiskStatus(title string, d sysinfo.DiskUsage) {
	r.printf("%s\n", r.st.header.Render(title))
	r.printf("  %s [%s] %.1f%%\n", r.st.label.Render("Disk Usage:"), r.st.usageBar(d.UsedPercent, barWidth), d.UsedPercent)
	r.printf("  %s %s / %s (%s)\n",
		r.st.label.Render("Space:"),
		r.st.bad.Render(humanize.IBytes(d.Used)),
		humanize.IBytes(d.Total),
		r.st.ok.Render(humanize.IBytes(d.Free)+" free"),
	)
}

// MemoryStatus prints a physical memory snapshot.
func (r *Reporter) MemoryStatus(m sysinfo.Memory) {
	r.printf("  %s %s / %s\n", r.st.label.Render("RAM Usage:"), r.st.bad.Render(humanize.IBytes(m.Used)), humanize.IBytes(m.Total))
	r.printf("  %s %s\n", r.st.label.Render("Available:"), r.st.ok.Render(humanize.IBytes(m.Available)))
}

// Menu lists what the run will clean and asks whether to continue.
// Read errors count as a "no".
func (r *Reporter) Menu(targets []target.Target) bool {
	r.printf("\n%s\n", r.st.label.Render("This tool will clean the following:"))
	for _, t := range targets {
		r.printf("  • %s\n", t.Name)
	}
	r.printf("\n%s %s ", r.st.accent.Render("?"), r.st.warn.Bold(true).Render("Continue with cleanup? (y/N):"))
	ok, err := r.readYes()
	if err != nil {
		return false
	}
	return ok
}

// Cancelled reports that the user stopped the run at the menu.
func (r *Reporter) Cancelled() {
	r.printf("\n%s\n", r.st.warn.Render("Cleanup cancelled."))
}

// Interrupted reports that a signal stopped the run early.
func (r *Reporter) Interrupted() {
	r.printf("\n%s\n", r.st.warn.Render("Interrupted, remaining targets skipped."))
}

// Potential prints the total reclaimable estimate and, when a disk sample is
// available, a preview of free space afterwards.
func (r *Reporter) Potential(total int64, disk *sysinfo.DiskUsage) {
	r.printf("\n%s\n", r.st.header.Render("📊 Calculating cleanup potential..."))
	r.printf("  %s\n", r.st.warn.Render("Total potential cleanup: "+humanize.IBytes(uint64(max(total, 0)))))
	if disk != nil {
		r.preview(total, *disk)
	}
}

func (r *Reporter) preview(size int64, d sysinfo.DiskUsage) {
	if size <= 0 || d.Total == 0 {
		return
	}
	s := uint64(size)
	var newPct float64
	if d.Used > s {
		newPct = float64(d.Used-s) / float64(d.Total) * 100
	}
	r.printf("  %s %s → %s (%.1f%% → %.1f%%)\n",
		r.st.muted.Render("Preview:"),
		r.st.muted.Render(humanize.IBytes(d.Free)),
		r.st.ok.Render(humanize.IBytes(d.Free+s)),
		d.UsedPercent,
		newPct,
	)
}

// TargetHeader opens the output section of one target.
func (r *Reporter) TargetHeader(t target.Target) {
	r.section(t.Name)
}

// Plan prints what a plan contains: missing roots (verbose only), the dry-run
// preview and, in verbose mode, every candidate with the reason it was
// selected. Other scan errors reach the output through the result.
func (r *Reporter) Plan(plan scan.Plan, mode cleanup.Mode) {
	if r.verbose {
		for _, se := range plan.ScanErrors {
			if se.NotExist() {
				r.action("Skipping missing " + se.Root)
			}
		}
	}

	if plan.Empty() {
		r.note("Nothing to clean")
		return
	}

	if mode == cleanup.DryRun {
		r.printf("  %s [DRY RUN] Would %s\n", r.st.warn.Render("→"), describe(plan))
	}

	if !r.verbose {
		return
	}
	for _, c := range plan.Candidates {
		line := fmt.Sprintf("%s (%s)", c.Path, humanize.IBytes(uint64(max(c.Size, 0))))
		if why := c.Reason.ToHumanReadable(); why != "" {
			line += ", " + why
		}
		r.printf("    %s\n", r.st.muted.Render(line))
	}
}

// Result prints the outcome of one executed plan.
func (r *Reporter) Result(res cleanup.Result) {
	for _, f := range res.Errors {
		r.failure(f.Error())
	}
	switch {
	case res.Declined:
		r.note("Skipped")
		return
	case res.Attempted == 0:
		return
	}

	if res.Detail != "" {
		r.success(res.Detail)
	}
	if res.FilesRemoved > 0 || res.BytesFreed > 0 {
		r.success(fmt.Sprintf("Removed %d %s, freed %s",
			res.FilesRemoved, plural(res.FilesRemoved, "item", "items"), humanize.IBytes(uint64(res.BytesFreed))))
	}
}

// Summary prints the final report. before and after may be nil when disk
// usage could not be sampled.
func (r *Reporter) Summary(sum stats.Summary, mode cleanup.Mode, before, after *sysinfo.DiskUsage) {
	rule := r.st.ok.Render(strings.Repeat("=", 60))
	r.printf("\n%s\n%s\n%s\n", rule, r.st.ok.Bold(true).Render("✨ Cleanup Complete!"), rule)

	if mode == cleanup.DryRun {
		r.printf("%s\n", r.st.muted.Render("No files were actually deleted (dry run mode)"))
	} else if before != nil && after != nil {
		r.printf("\n%s\n", r.st.header.Render("💾 Disk Space Summary:"))
		r.printf("  %s %s → %s\n",
			r.st.label.Render("Before:"),
			r.st.bad.Render(humanize.IBytes(before.Free)+" available"),
			r.st.ok.Render(humanize.IBytes(after.Free)+" available"),
		)
		r.printf("  %s %s\n", r.st.label.Render("Actual space freed:"), r.st.ok.Bold(true).Render(humanize.IBytes(sysinfo.Freed(*before, *after))))
	}

	r.Totals(sum)
	if mode == cleanup.DryRun {
		return
	}

	if after != nil {
		r.printf("\n")
		r.DiskStatus("📱 Final Disk Status", *after)
		if before != nil && after.Total > 0 {
			if gain := sysinfo.Freed(*before, *after); gain > 0 {
				pct := float64(gain) / float64(after.Total) * 100
				r.printf("\n  %s Disk space improved by %.1f%%! 🎉\n", r.st.ok.Render("✨"), pct)
			}
		}
	}
}

// Totals prints the removal counters, the per-target breakdown in verbose
// mode and every recorded error. Zero totals are printed too.
func (r *Reporter) Totals(sum stats.Summary) {
	r.printf("\n%s\n", r.st.header.Render("📊 Cleanup Statistics:"))
	r.printf("  %s %s\n", r.st.label.Render("Files removed:"), r.st.warn.Render(fmt.Sprint(sum.FilesRemoved)))
	r.printf("  %s %s\n", r.st.label.Render("Reported freed:"), r.st.ok.Render(humanize.IBytes(uint64(max(sum.BytesFreed, 0)))))

	if r.verbose {
		for _, t := range sum.Targets {
			status := fmt.Sprintf("%d removed, %s", t.FilesRemoved, humanize.IBytes(uint64(max(t.BytesFreed, 0))))
			if t.Declined {
				status = "skipped"
			}
			r.printf("    %-28s %s\n", t.Target, r.st.muted.Render(status))
		}
	}

	if errs := sum.Errors(); len(errs) > 0 {
		r.printf("\n%s\n", r.st.bad.Bold(true).Render(fmt.Sprintf("⚠️  %d %s:", len(errs), plural(len(errs), "error", "errors"))))
		for _, f := range errs {
			r.failure(f.Error())
		}
	}
}

func describe(plan scan.Plan) string {
	t := plan.Target
	if t.IsCommand() {
		return "run " + t.Command.String()
	}
	n := len(plan.Candidates)
	return fmt.Sprintf("delete %d %s (%s)", n, plural(n, "item", "items"), humanize.IBytes(uint64(max(plan.EstimatedBytes, 0))))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
