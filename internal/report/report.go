// Package report implements the result tree: a Report holds
// WorkerReports, each holding CaseReports, with pass/allow propagating
// bottom-up (a parent passes iff every child passes). Renderers
// (console.go, markdown.go) turn the tree into the human-facing output.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relentless-eng/relentless/internal/aggregate"
)

// Attr carries the testcase-level exemption flag.
type Attr struct {
	Allow bool
}

// CaseReport is one testcase's outcome: how many of its repeats passed,
// the messages accumulated along the way, and the latency/pass aggregate
// for just this case.
type CaseReport struct {
	Description string
	Target      string
	RepeatTimes int
	Passed      int
	Messages    []string
	Aggregate   *aggregate.Aggregator
	Attr        Attr
}

// Pass reports whether every repeat passed.
func (c *CaseReport) Pass() bool {
	return c.Passed == c.RepeatTimes
}

// Allow collapses to Pass in strict mode; non-strict mode also accepts a
// declaratively-exempted failure.
func (c *CaseReport) Allow(strict bool) bool {
	return c.Pass() || (!strict && c.Attr.Allow)
}

// WorkerReport groups the CaseReports run under one WorkerConfig.
type WorkerReport struct {
	Name  string
	Cases []*CaseReport
}

func (w *WorkerReport) Pass() bool {
	for _, c := range w.Cases {
		if !c.Pass() {
			return false
		}
	}
	return true
}

func (w *WorkerReport) Allow(strict bool) bool {
	for _, c := range w.Cases {
		if !c.Allow(strict) {
			return false
		}
	}
	return true
}

// Aggregate merges every case's aggregator into one.
func (w *WorkerReport) Aggregate(percentiles []float64) *aggregate.Aggregator {
	merged := aggregate.New(percentiles)
	for _, c := range w.Cases {
		if c.Aggregate != nil {
			merged.Merge(c.Aggregate)
		}
	}
	return merged
}

// Report is the root of the tree, one WorkerReport per config file.
type Report struct {
	Workers []*WorkerReport
}

func (r *Report) Pass() bool {
	for _, w := range r.Workers {
		if !w.Pass() {
			return false
		}
	}
	return true
}

func (r *Report) Allow(strict bool) bool {
	for _, w := range r.Workers {
		if !w.Allow(strict) {
			return false
		}
	}
	return true
}

func (r *Report) Aggregate(percentiles []float64) *aggregate.Aggregator {
	merged := aggregate.New(percentiles)
	for _, w := range r.Workers {
		merged.Merge(w.Aggregate(percentiles))
	}
	return merged
}

// TruncatedMessages bounds a message list for display: the first 3, then
// "... and N more".
func TruncatedMessages(msgs []string) []string {
	const shown = 3
	if len(msgs) <= shown {
		return msgs
	}
	out := append([]string(nil), msgs[:shown]...)
	out = append(out, fmt.Sprintf("... and %d more", len(msgs)-shown))
	return out
}

// WriteJSON writes data as an indented JSON document under dir, named
// "<prefix>-<timestamp>.json", returning the path written. Used for
// ad-hoc machine-readable snapshots of a run outside the --output-record
// artifact dump (internal/record).
func WriteJSON(dir string, data any, prefix string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.json", prefix, time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode report json: %w", err)
	}

	return path, nil
}
