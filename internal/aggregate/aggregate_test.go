package aggregate

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPassRateAndRPS(t *testing.T) {
	a := New([]float64{50, 99})
	base := time.Unix(0, 0)
	a.Add(true, base, 10*time.Millisecond, true)
	a.Add(false, base.Add(time.Second), 20*time.Millisecond, true)

	require.Equal(t, 2, a.Pass.Total)
	require.Equal(t, 1, a.Pass.Passed)
	require.InDelta(t, 0.5, a.Pass.Rate(), 1e-9)

	rps, ok := a.Count.RPS()
	require.True(t, ok)
	require.InDelta(t, 2.0, rps, 1e-9)
}

func TestLatencyPercentileApprox(t *testing.T) {
	a := New([]float64{50, 99})

	order := rand.New(rand.NewSource(1)).Perm(1000)
	base := time.Unix(0, 0)
	for i, idx := range order {
		ms := idx + 1 // 1ms..1000ms
		a.Add(true, base.Add(time.Duration(i)*time.Millisecond), time.Duration(ms)*time.Millisecond, true)
	}

	p50, ok := a.Latency.Quantile(50)
	require.True(t, ok)
	p99, ok := a.Latency.Quantile(99)
	require.True(t, ok)

	require.InDelta(t, 500, p50.Milliseconds(), 40)
	require.InDelta(t, 990, p99.Milliseconds(), 40)

	require.LessOrEqual(t, a.Latency.Min(), p50)
	require.LessOrEqual(t, p99, a.Latency.Max())
}

func TestMergeCombinesChildren(t *testing.T) {
	child1 := New([]float64{50})
	child2 := New([]float64{50})
	base := time.Unix(0, 0)

	child1.Add(true, base, 10*time.Millisecond, true)
	child2.Add(false, base.Add(time.Second), 30*time.Millisecond, true)

	parent := New([]float64{50})
	parent.Merge(child1)
	parent.Merge(child2)

	require.Equal(t, 2, parent.Pass.Total)
	require.Equal(t, 1, parent.Pass.Passed)
	require.Equal(t, 10*time.Millisecond, parent.Latency.Min())
	require.Equal(t, 30*time.Millisecond, parent.Latency.Max())
}

func TestNoLatencyObservationForHardFailure(t *testing.T) {
	a := New([]float64{50})
	a.Add(false, time.Now(), 0, false)
	require.Equal(t, 1, a.Pass.Total)
	_, ok := a.Count.RPS()
	require.False(t, ok)
}

func TestClassifyBands(t *testing.T) {
	require.Equal(t, BandGood, ClassifyPassRate(1))
	require.Equal(t, BandAllow, ClassifyPassRate(0.9))
	require.Equal(t, BandWarn, ClassifyPassRate(0.6))
	require.Equal(t, BandBad, ClassifyPassRate(0.1))

	require.Equal(t, BandGood, ClassifyLatency(100*time.Millisecond))
	require.Equal(t, BandAllow, ClassifyLatency(500*time.Millisecond))
	require.Equal(t, BandWarn, ClassifyLatency(2*time.Second))
	require.Equal(t, BandBad, ClassifyLatency(5*time.Second))
}
