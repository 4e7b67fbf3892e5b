// Package runner implements the three-level fan-out scheduler: Control
// spawns one Worker per config, each Worker runs its Cases, each Case
// dispatches one request per destination and folds the result into a
// streaming aggregator.
//
// Each layer is gated by its own "sequential" flag; the Case layer's
// per-destination dispatch is always concurrent regardless of any flag,
// since the whole point of a comparison test is wall-clock comparability.
// Dispatch never fails fast: results are captured by index so positional
// report order survives concurrent completion, and per-child failures are
// carried in the results rather than aborting siblings.
package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relentless-eng/relentless/internal/aggregate"
	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/measure"
	"github.com/relentless-eng/relentless/internal/report"
)

// runConcurrent runs fn(ctx, i) for i in [0,n): sequentially, in order, if
// sequential is true; otherwise concurrently, bounded only by n. Results
// land in a positional slice (input order) for deterministic report
// rendering; onArrival, when non-nil, is invoked for each result as it
// completes (arrival order, not positional), so callers can fold a
// streaming aggregator without waiting on positionally-earlier but slower
// siblings. A fatal condition in one fn call never aborts the others —
// there is no scheduler-level cancellation; callers that need to signal
// failure do so through T itself.
func runConcurrent[T any](ctx context.Context, n int, sequential bool, fn func(ctx context.Context, i int) T, onArrival func(T)) []T {
	out := make([]T, n)

	if sequential {
		for i := 0; i < n; i++ {
			v := fn(ctx, i)
			out[i] = v
			if onArrival != nil {
				onArrival(v)
			}
		}
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			v := fn(gctx, i)
			mu.Lock()
			out[i] = v
			if onArrival != nil {
				onArrival(v)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CaseSpec is everything RunCase needs for one testcase, already stripped
// of protocol-specific types: Call dispatches one already-factory-built,
// measured, (optionally) recorded request to the named destination, and
// Evaluate is the protocol's evaluator closed over the coalesced response
// rule.
type CaseSpec[Res any] struct {
	Description string
	Target      string
	RepeatTimes int
	Attr        report.Attr
	Percentiles []float64

	SequentialRepeats bool

	Destinations []string
	Call         func(ctx context.Context, destination string) measure.Result[Res]
	Evaluate     func(results *destinations.Map[measure.Result[Res]]) (bool, []string)
}

// RunCase runs spec.RepeatTimes repeats (sequentially iff
// spec.SequentialRepeats), dispatching every destination concurrently
// within each repeat, and folds the outcome into a CaseReport.
//
// Aggregator observations are added once per destination request within a
// repeat, with "pass" meaning that specific request produced a Response
// rather than a classified failure. This is distinct from
// CaseReport.Passed, which counts whole-repeat evaluator outcomes; the two
// are different granularities and are kept separate rather than conflating
// a per-request success rate with a per-repeat pass count.
func RunCase[Res any](ctx context.Context, spec CaseSpec[Res]) *report.CaseReport {
	agg := aggregate.New(spec.Percentiles)
	var mu sync.Mutex
	passed := 0
	var messages []string

	runConcurrent(ctx, spec.RepeatTimes, spec.SequentialRepeats, func(ctx context.Context, _ int) struct{} {
		destResults := runConcurrent(ctx, len(spec.Destinations), false,
			func(ctx context.Context, di int) measure.Result[Res] {
				return spec.Call(ctx, spec.Destinations[di])
			},
			func(r measure.Result[Res]) {
				mu.Lock()
				addObservation(agg, r)
				mu.Unlock()
			},
		)

		dm := destinations.FromPairs(spec.Destinations, destResults)
		pass, msgs := spec.Evaluate(dm)

		mu.Lock()
		if pass {
			passed++
		}
		messages = append(messages, msgs...)
		mu.Unlock()

		return struct{}{}
	}, nil)

	return &report.CaseReport{
		Description: spec.Description,
		Target:      spec.Target,
		RepeatTimes: spec.RepeatTimes,
		Passed:      passed,
		Messages:    messages,
		Aggregate:   agg,
		Attr:        spec.Attr,
	}
}

func addObservation[Res any](agg *aggregate.Aggregator, r measure.Result[Res]) {
	latency, hasLatency := r.Latency()
	ts := time.Now()
	if resp, ok := r.Response(); ok {
		ts = resp.StartTimestamp
	}
	agg.Add(r.Kind() == measure.KindResponse, ts, latency, hasLatency)
}

// CaseFunc is one already-built Case, ready to run under a Worker.
type CaseFunc func(ctx context.Context) *report.CaseReport

// RunWorker runs cases under one WorkerConfig, sequentially iff
// sequentialTestcases.
func RunWorker(ctx context.Context, name string, cases []CaseFunc, sequentialTestcases bool) *report.WorkerReport {
	results := runConcurrent(ctx, len(cases), sequentialTestcases,
		func(ctx context.Context, i int) *report.CaseReport { return cases[i](ctx) }, nil)
	return &report.WorkerReport{Name: name, Cases: results}
}

// WorkerFunc is one already-built Worker run, ready to run under Control.
type WorkerFunc func(ctx context.Context) *report.WorkerReport

// RunControl runs one WorkerFunc per config, sequentially iff
// sequentialConfigs.
func RunControl(ctx context.Context, workers []WorkerFunc, sequentialConfigs bool) *report.Report {
	results := runConcurrent(ctx, len(workers), sequentialConfigs,
		func(ctx context.Context, i int) *report.WorkerReport { return workers[i](ctx) }, nil)
	return &report.Report{Workers: results}
}
