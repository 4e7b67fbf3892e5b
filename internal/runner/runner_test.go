package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relentless-eng/relentless/internal/destinations"
	"github.com/relentless-eng/relentless/internal/measure"
	"github.com/relentless-eng/relentless/internal/report"
)

func TestRunCaseRepeatTimeout(t *testing.T) {
	timeout := 50 * time.Millisecond
	spec := CaseSpec[string]{
		Description:       "sleeps longer than the timeout",
		RepeatTimes:       10,
		SequentialRepeats: true,
		Destinations:      []string{"actual"},
		Call: func(ctx context.Context, destination string) measure.Result[string] {
			return measure.Call(ctx, &timeout, nil, func(ctx context.Context, req string) (string, error) {
				select {
				case <-time.After(500 * time.Millisecond):
					return "late", nil
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}, destination)
		},
		Evaluate: func(results *destinations.Map[measure.Result[string]]) (bool, []string) {
			r := results.MustGet("actual")
			if r.Kind() != measure.KindResponse {
				lat, _ := r.Latency()
				return false, []string{"timed out after " + lat.String()}
			}
			return true, nil
		},
	}

	rep := RunCase(context.Background(), spec)
	require.Equal(t, 0, rep.Passed)
	require.Len(t, rep.Messages, 10)
	require.False(t, rep.Pass())
	require.Equal(t, 10, rep.Aggregate.Pass.Total)
	require.Equal(t, 0, rep.Aggregate.Pass.Passed)
	require.Equal(t, timeout, rep.Aggregate.Latency.Min())
	require.Equal(t, timeout, rep.Aggregate.Latency.Max())
}

func TestRunCasePassingRepeats(t *testing.T) {
	spec := CaseSpec[string]{
		RepeatTimes:  3,
		Destinations: []string{"actual", "expect"},
		Call: func(ctx context.Context, destination string) measure.Result[string] {
			return measure.Call[string, string](ctx, nil, nil, func(ctx context.Context, req string) (string, error) {
				return "ok", nil
			}, destination)
		},
		Evaluate: func(results *destinations.Map[measure.Result[string]]) (bool, []string) {
			return true, nil
		},
	}

	rep := RunCase(context.Background(), spec)
	require.Equal(t, 3, rep.Passed)
	require.True(t, rep.Pass())
	require.Equal(t, 6, rep.Aggregate.Pass.Total)
}

func TestReportPropagation(t *testing.T) {
	passing := &report.CaseReport{RepeatTimes: 1, Passed: 1}
	failingAllowed := &report.CaseReport{RepeatTimes: 1, Passed: 0, Attr: report.Attr{Allow: true}}

	worker := &report.WorkerReport{Name: "w", Cases: []*report.CaseReport{passing, failingAllowed}}
	require.False(t, worker.Pass())
	require.True(t, worker.Allow(false))
	require.False(t, worker.Allow(true))

	rep := &report.Report{Workers: []*report.WorkerReport{worker}}
	require.False(t, rep.Pass())
	require.True(t, rep.Allow(false))
	require.False(t, rep.Allow(true))
}
