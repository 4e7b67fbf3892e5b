// Package aggregate implements the streaming pass/count/latency
// aggregator: one Add per request, O(1) and allocation-free, with
// mergeable quantile estimators so a parent (Worker/Control) aggregate can
// be computed from its children without retaining raw samples.
package aggregate

import (
	"math"
	"time"
)

// PassStats is the {total, passed} counter and its derived pass_rate.
type PassStats struct {
	Total, Passed int
}

func (p PassStats) Rate() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Passed) / float64(p.Total)
}

// CountStats tracks the observation window for throughput.
type CountStats struct {
	Count int
	First time.Time
	Last  time.Time
}

// RPS returns count / (last - first); the second return is false when the
// window is degenerate (fewer than two observations, or a zero span).
func (c CountStats) RPS() (float64, bool) {
	if c.Count < 2 {
		return 0, false
	}
	span := c.Last.Sub(c.First).Seconds()
	if span <= 0 {
		return 0, false
	}
	return float64(c.Count) / span, true
}

// LatencyStats tracks min/mean/max and a configurable set of streaming
// quantile estimates. Observations are held in seconds-as-f64 internally
// and reported as Duration.
type LatencyStats struct {
	n              int
	minSeconds     float64
	maxSeconds     float64
	meanSeconds    float64
	quantiles      map[float64]*p2Estimator
	percentileKeys []float64 // insertion order, for deterministic reporting
}

func newLatencyStats(percentiles []float64) LatencyStats {
	q := make(map[float64]*p2Estimator, len(percentiles))
	keys := make([]float64, 0, len(percentiles))
	for _, p := range percentiles {
		frac := p / 100
		if _, ok := q[frac]; !ok {
			q[frac] = newP2Estimator(frac)
			keys = append(keys, frac)
		}
	}
	return LatencyStats{quantiles: q, percentileKeys: keys}
}

func (l *LatencyStats) add(seconds float64) {
	if l.n == 0 {
		l.minSeconds = seconds
		l.maxSeconds = seconds
	} else {
		if seconds < l.minSeconds {
			l.minSeconds = seconds
		}
		if seconds > l.maxSeconds {
			l.maxSeconds = seconds
		}
	}
	l.n++
	l.meanSeconds += (seconds - l.meanSeconds) / float64(l.n)
	for _, est := range l.quantiles {
		est.Add(seconds)
	}
}

func (l LatencyStats) Min() time.Duration  { return secondsToDuration(l.minSeconds) }
func (l LatencyStats) Max() time.Duration  { return secondsToDuration(l.maxSeconds) }
func (l LatencyStats) Mean() time.Duration { return secondsToDuration(l.meanSeconds) }

// Quantile returns the estimate for percentile p (e.g. 99 for p99). ok is
// false if p was not among the percentiles the aggregator was constructed
// with.
func (l LatencyStats) Quantile(p float64) (time.Duration, bool) {
	est, ok := l.quantiles[p/100]
	if !ok {
		return 0, false
	}
	return secondsToDuration(est.Value()), true
}

// Percentiles returns the configured percentiles (e.g. [50, 90, 99]).
func (l LatencyStats) Percentiles() []float64 {
	out := make([]float64, len(l.percentileKeys))
	for i, frac := range l.percentileKeys {
		out[i] = frac * 100
	}
	return out
}

// secondsToDuration rounds rather than truncates: seconds-as-f64 cannot
// represent most round millisecond values exactly, and truncation would
// report 30ms as 29.999999ms.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// Aggregator composes PassStats, CountStats, and LatencyStats behind a
// single O(1) Add call per request. Parent aggregators are built by
// calling Merge with each child's Aggregator.
type Aggregator struct {
	Pass    PassStats
	Count   CountStats
	Latency LatencyStats
}

// New builds an Aggregator tracking the given percentiles (e.g.
// [50, 90, 99]).
func New(percentiles []float64) *Aggregator {
	return &Aggregator{Latency: newLatencyStats(percentiles)}
}

// Add folds one observation: whether the request passed, and — for
// requests that produced a latency observation (a Response or a Timeout;
// see measure.Result.Latency) — its timestamp and latency.
func (a *Aggregator) Add(pass bool, ts time.Time, latency time.Duration, hasLatency bool) {
	a.Pass.Total++
	if pass {
		a.Pass.Passed++
	}

	if !hasLatency {
		return
	}

	if a.Count.Count == 0 {
		a.Count.First = ts
		a.Count.Last = ts
	} else {
		if ts.Before(a.Count.First) {
			a.Count.First = ts
		}
		if ts.After(a.Count.Last) {
			a.Count.Last = ts
		}
	}
	a.Count.Count++

	a.Latency.add(latency.Seconds())
}

// Merge folds other's observations into a, without retaining either side's
// raw samples.
func (a *Aggregator) Merge(other *Aggregator) {
	a.Pass.Total += other.Pass.Total
	a.Pass.Passed += other.Pass.Passed

	if other.Count.Count > 0 {
		if a.Count.Count == 0 {
			a.Count.First = other.Count.First
			a.Count.Last = other.Count.Last
		} else {
			if other.Count.First.Before(a.Count.First) {
				a.Count.First = other.Count.First
			}
			if other.Count.Last.After(a.Count.Last) {
				a.Count.Last = other.Count.Last
			}
		}
		a.Count.Count += other.Count.Count
	}

	if other.Latency.n == 0 {
		return
	}
	if a.Latency.n == 0 {
		a.Latency.minSeconds = other.Latency.minSeconds
		a.Latency.maxSeconds = other.Latency.maxSeconds
	} else {
		if other.Latency.minSeconds < a.Latency.minSeconds {
			a.Latency.minSeconds = other.Latency.minSeconds
		}
		if other.Latency.maxSeconds > a.Latency.maxSeconds {
			a.Latency.maxSeconds = other.Latency.maxSeconds
		}
	}
	total := a.Latency.n + other.Latency.n
	a.Latency.meanSeconds = (a.Latency.meanSeconds*float64(a.Latency.n) + other.Latency.meanSeconds*float64(other.Latency.n)) / float64(total)
	a.Latency.n = total

	if a.Latency.quantiles == nil {
		a.Latency.quantiles = make(map[float64]*p2Estimator, len(other.Latency.quantiles))
		a.Latency.percentileKeys = append([]float64(nil), other.Latency.percentileKeys...)
	}
	for frac, est := range other.Latency.quantiles {
		mine, ok := a.Latency.quantiles[frac]
		if !ok {
			mine = newP2Estimator(frac)
			a.Latency.quantiles[frac] = mine
			a.Latency.percentileKeys = append(a.Latency.percentileKeys, frac)
		}
		mine.mergeFrom(est)
	}
}
