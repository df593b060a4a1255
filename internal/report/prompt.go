package report

import (
	"errors"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"maccleanup/internal/scan"
)

// Confirm asks whether plan should be executed. Only "y" or "yes" accept.
// End of input without an answer is a decline.
func (r *Reporter) Confirm(plan scan.Plan) (bool, error) {
	question := plan.Target.Question()
	if plan.EstimatedBytes > 0 {
		question += " (" + humanize.IBytes(uint64(plan.EstimatedBytes)) + ")"
	}
	r.printf("  %s %s %s ", r.st.accent.Render("?"), question, r.st.warn.Render("Proceed? (y/N):"))
	return r.readYes()
}

func (r *Reporter) readYes() (bool, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	if err != nil && line == "" {
		r.printf("\n")
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
