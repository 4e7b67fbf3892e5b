package aggregate

import (
	"math"
	"sort"
)

// p2Estimator is a streaming quantile estimator using the P² algorithm
// (Jain & Chlamtac 1985): after five warm-up samples it tracks five
// markers (min, the target quantile, and three support points) and nudges
// their heights on every subsequent observation, giving an O(1),
// allocation-free running estimate of one quantile without retaining
// samples. Before the fifth sample, Value falls back to nearest-rank over
// the buffered warm-up samples.
type p2Estimator struct {
	p float64

	n       int
	initial []float64 // buffered samples until the 5th arrives

	heights   [5]float64
	positions [5]float64
	desired   [5]float64
	incr      [5]float64
}

func newP2Estimator(p float64) *p2Estimator {
	return &p2Estimator{p: p}
}

func (e *p2Estimator) Add(x float64) {
	if e.n < 5 {
		e.initial = append(e.initial, x)
		e.n++
		if e.n == 5 {
			sort.Float64s(e.initial)
			for i := 0; i < 5; i++ {
				e.heights[i] = e.initial[i]
				e.positions[i] = float64(i + 1)
			}
			e.desired = [5]float64{1, 1 + 2*e.p, 1 + 4*e.p, 3 + 2*e.p, 5}
			e.incr = [5]float64{0, e.p / 2, e.p, (1 + e.p) / 2, 1}
		}
		return
	}

	k := e.cell(x)

	for i := k + 1; i < 5; i++ {
		e.positions[i]++
	}
	for i := 0; i < 5; i++ {
		e.desired[i] += e.incr[i]
	}

	for i := 1; i <= 3; i++ {
		d := e.desired[i] - e.positions[i]
		if (d >= 1 && e.positions[i+1]-e.positions[i] > 1) ||
			(d <= -1 && e.positions[i-1]-e.positions[i] < -1) {
			sign := 1.0
			if d < 0 {
				sign = -1.0
			}
			newHeight := e.parabolic(i, sign)
			if e.heights[i-1] < newHeight && newHeight < e.heights[i+1] {
				e.heights[i] = newHeight
			} else {
				e.heights[i] = e.linear(i, sign)
			}
			e.positions[i] += sign
		}
	}
	e.n++
}

func (e *p2Estimator) cell(x float64) int {
	switch {
	case x < e.heights[0]:
		e.heights[0] = x
		return 0
	case x >= e.heights[4]:
		e.heights[4] = x
		return 3
	default:
		for i := 1; i < 5; i++ {
			if x < e.heights[i] {
				return i - 1
			}
		}
		return 3
	}
}

func (e *p2Estimator) parabolic(i int, d float64) float64 {
	return e.heights[i] + d/(e.positions[i+1]-e.positions[i-1])*((e.positions[i]-e.positions[i-1]+d)*(e.heights[i+1]-e.heights[i])/(e.positions[i+1]-e.positions[i])+
		(e.positions[i+1]-e.positions[i]-d)*(e.heights[i]-e.heights[i-1])/(e.positions[i]-e.positions[i-1]))
}

func (e *p2Estimator) linear(i int, d float64) float64 {
	j := i + int(d)
	return e.heights[i] + d*(e.heights[j]-e.heights[i])/(e.positions[j]-e.positions[i])
}

// Value returns the current quantile estimate.
func (e *p2Estimator) Value() float64 {
	if e.n == 0 {
		return 0
	}
	if e.n < 5 {
		sorted := append([]float64(nil), e.initial...)
		sort.Float64s(sorted)
		idx := int(math.Ceil(e.p*float64(len(sorted)))) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return sorted[idx]
	}
	return e.heights[2]
}

// mergeFrom folds another estimator's state into e. P² markers cannot be
// merged exactly without the original samples; re-feeding the other
// estimator's five marker heights keeps the merge O(1) and sample-free
// while keeping the parent's estimate in the same neighborhood as its
// children's.
func (e *p2Estimator) mergeFrom(other *p2Estimator) {
	if other.n == 0 {
		return
	}
	if other.n < 5 {
		for _, x := range other.initial {
			e.Add(x)
		}
		return
	}
	for _, h := range other.heights {
		e.Add(h)
	}
}
