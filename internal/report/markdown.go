package report

import (
	"fmt"
	"io"

	"github.com/relentless-eng/relentless/internal/aggregate"
)

// RenderMarkdown writes the report tree as a Markdown document
// (--report-format markdown). Table shape mirrors RenderConsole's columns
// so the two renderers stay easy to compare. measure selects which
// rolled-up aggregates get an extra summary line, same convention as
// RenderConsole.
func RenderMarkdown(w io.Writer, r *Report, strict bool, measure map[string]bool) {
	if r.Allow(strict) {
		fmt.Fprintln(w, "# Run allowed")
	} else {
		fmt.Fprintln(w, "# Run failed")
	}

	for _, wr := range r.Workers {
		fmt.Fprintf(w, "\n## %s\n\n", wr.Name)
		fmt.Fprintln(w, "| Case | Target | Status | Passed | p50 | p99 |")
		fmt.Fprintln(w, "|---|---|---|---|---|---|")

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
			fmt.Fprintf(w, "| %s | %s | %s | %d/%d | %s | %s |\n",
				c.Description, c.Target, markdownStatus(c, strict), c.Passed, c.RepeatTimes, p50, p99)
		}

		for _, c := range wr.Cases {
			msgs := TruncatedMessages(c.Messages)
			if len(msgs) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n**%s**\n", c.Description)
			for _, m := range msgs {
				fmt.Fprintf(w, "- %s\n", m)
			}
		}

		if measure["testcases"] {
			fmt.Fprintf(w, "\n_worker aggregate: %s_\n", markdownAggregate(wr.Aggregate(defaultPercentiles)))
		}
	}

	if measure["configs"] {
		fmt.Fprintf(w, "\n_run aggregate: %s_\n", markdownAggregate(r.Aggregate(defaultPercentiles)))
	}
}

func markdownAggregate(agg *aggregate.Aggregator) string {
	p50 := "—"
	p99 := "—"
	if d, ok := agg.Latency.Quantile(50); ok {
		p50 = formatDuration(d)
	}
	if d, ok := agg.Latency.Quantile(99); ok {
		p99 = formatDuration(d)
	}
	rps, _ := agg.Count.RPS()
	return fmt.Sprintf("%d/%d passed, %.1f rps, p50=%s p99=%s", agg.Pass.Passed, agg.Pass.Total, rps, p50, p99)
}

func markdownStatus(c *CaseReport, strict bool) string {
	switch {
	case c.Pass():
		return "PASS"
	case c.Allow(strict):
		return "ALLOW"
	default:
		return "FAIL"
	}
}
