// Package ui renders run progress and summaries to the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mika/cycheck/internal/model"
	"github.com/mika/cycheck/internal/stats"
)

// Renderer writes plain-text progress output. It implements runner.Progress.
type Renderer struct {
	out     io.Writer
	colors  *Colors
	width   int
	verbose bool
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, enableColors, verbose bool) *Renderer {
	return &Renderer{
		out:     out,
		colors:  NewColors(enableColors),
		width:   GetTerminalWidth(),
		verbose: verbose,
	}
}

// RenderHeader prints the run banner.
func (r *Renderer) RenderHeader(runID, expert, checklist string, pending int) {
	rule := strings.Repeat("=", r.width)
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, r.colors.Bold(fmt.Sprintf("cycheck run %s", runID)))
	fmt.Fprintf(r.out, "expert:    %s\n", expert)
	fmt.Fprintf(r.out, "checklist: %s\n", checklist)
	fmt.Fprintf(r.out, "to run:    %d cases\n", pending)
	fmt.Fprintln(r.out, rule)
}

// CaseStarted prints the case banner before the generator is invoked.
func (r *Renderer) CaseStarted(tc *model.TestCase, index, total int) {
	fmt.Fprintf(r.out, "[%d/%d] %s %s\n", index+1, total, r.colors.Blue("RUN "), tc.ID)
	if r.verbose {
		fmt.Fprintf(r.out, "        %s\n", tc.Description)
	}
}

// CaseFinished prints the outcome, and in verbose mode the captured output.
func (r *Renderer) CaseFinished(tc *model.TestCase, attempt model.Attempt) {
	switch tc.Status {
	case model.StatusPass:
		fmt.Fprintf(r.out, "        %s %s (%dms)\n", "✓", r.colors.Green(string(tc.Status)), attempt.DurationMs)
	case model.StatusFail:
		fmt.Fprintf(r.out, "        %s %s (%dms)  %s\n", "✗", r.colors.Red(string(tc.Status)), attempt.DurationMs, r.colors.Gray(tc.FailureReason))
	}
	if r.verbose && attempt.Output != "" {
		rule := strings.Repeat("-", r.width)
		fmt.Fprintln(r.out, rule)
		fmt.Fprintln(r.out, attempt.Output)
		fmt.Fprintln(r.out, rule)
	}
}

// RenderStats prints the aggregate table for a catalog.
func (r *Renderer) RenderStats(s stats.Stats, order []string) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.colors.Bold("Summary"))
	fmt.Fprintf(r.out, "  total:   %d\n", s.Total)
	fmt.Fprintf(r.out, "  passed:  %s\n", r.colors.Green(fmt.Sprintf("%d", s.Passed)))
	fmt.Fprintf(r.out, "  failed:  %s\n", r.colors.Red(fmt.Sprintf("%d", s.Failed)))
	fmt.Fprintf(r.out, "  pending: %s\n", r.colors.Yellow(fmt.Sprintf("%d", s.Pending)))

	if len(order) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	for _, name := range order {
		cs, ok := s.ByCategory[name]
		if !ok {
			continue
		}
		fmt.Fprintf(r.out, "  %-24s %d/%d passed, %d failed, %d pending\n",
			name, cs.Passed, cs.Total, cs.Failed, cs.Pending)
	}
}
