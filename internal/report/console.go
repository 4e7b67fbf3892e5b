package report

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/relentless-eng/relentless/internal/aggregate"
)

var (
	consoleGreen  = color.New(color.FgGreen).SprintFunc()
	consoleYellow = color.New(color.FgYellow).SprintFunc()
	consoleRed    = color.New(color.FgRed).SprintFunc()
	consoleBold   = color.New(color.Bold).SprintFunc()
)

// DisableColor turns off the console renderer's ANSI output, wired to the
// --no-color flag.
func DisableColor() {
	color.NoColor = true
}

// RenderConsole writes the full report tree to w: a bold worker header,
// one table per worker listing its cases, and a closing pass/fail line.
// measure selects which fan-out levels ("testcases", "configs") get a
// rolled-up summary line beyond the always-shown per-case p50/p99; a nil
// or empty measure prints none.
func RenderConsole(w io.Writer, r *Report, strict bool, measure map[string]bool) {
	for _, wr := range r.Workers {
		renderWorker(w, wr, strict)
		if measure["testcases"] {
			renderAggregateLine(w, "worker", wr.Aggregate(defaultPercentiles))
		}
	}
	if measure["configs"] {
		renderAggregateLine(w, "run", r.Aggregate(defaultPercentiles))
	}
	renderSummary(w, r, strict)
}

// defaultPercentiles is used for the rolled-up --measure summary lines,
// which aggregate across cases that may have been built with different
// --percentile sets; p50/p99 are always meaningful regardless.
var defaultPercentiles = []float64{50, 99}

func renderAggregateLine(w io.Writer, label string, agg *aggregate.Aggregator) {
	p50 := "—"
	p99 := "—"
	if d, ok := agg.Latency.Quantile(50); ok {
		p50 = formatDuration(d)
	}
	if d, ok := agg.Latency.Quantile(99); ok {
		p99 = formatDuration(d)
	}
	rps, _ := agg.Count.RPS()
	fmt.Fprintf(w, "  %s aggregate: %d/%d passed, %.1f rps, p50=%s p99=%s\n",
		label, agg.Pass.Passed, agg.Pass.Total, rps, p50, p99)
}

func renderWorker(w io.Writer, wr *WorkerReport, strict bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, consoleBold(wr.Name))

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Case", "Target", "Status", "Passed", "p50", "p99")
	tbl.WithWriter(w)
	tbl.WithHeaderFormatter(headerFmt)

	for _, c := range wr.Cases {
		p50 := "—"
		p99 := "—"
		if c.Aggregate != nil {
			if d, ok := c.Aggregate.Latency.Quantile(50); ok {
				p50 = formatDuration(d)
			}
			if d, ok := c.Aggregate.Latency.Quantile(99); ok {
				p99 = formatDuration(d)
			}
		}
		tbl.AddRow(
			c.Description,
			c.Target,
			formatCaseStatus(c, strict),
			fmt.Sprintf("%d/%d", c.Passed, c.RepeatTimes),
			p50,
			p99,
		)
	}
	tbl.Print()

	for _, c := range wr.Cases {
		for _, m := range TruncatedMessages(c.Messages) {
			fmt.Fprintf(w, "  %s %s: %s\n", consoleYellow("!"), c.Description, m)
		}
	}
}

func renderSummary(w io.Writer, r *Report, strict bool) {
	fmt.Fprintln(w)
	if r.Allow(strict) {
		fmt.Fprintf(w, "%s run allowed\n", consoleGreen("✓"))
	} else {
		fmt.Fprintf(w, "%s run failed\n", consoleRed("✗"))
	}
}

func formatCaseStatus(c *CaseReport, strict bool) string {
	switch {
	case c.Pass():
		return consoleGreen("✓ PASS")
	case c.Allow(strict):
		return consoleYellow("⚠ ALLOW")
	default:
		return consoleRed("✗ FAIL")
	}
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "—"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
