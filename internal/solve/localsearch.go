package solve

import (
	"math"
	"time"

	"walkroute/internal/model"
)

// localSearch seeds a route by cheapest insertion and polishes it with
// first-improvement 2-opt until a local optimum or the deadline.
func localSearch(m model.DistanceMatrix, start, end int, deadline time.Time) (Route, error) {
	r, err := seedInsertion(m, start, end)
	if err != nil {
		return nil, err
	}
	twoOpt(m, r, deadline)
	return r, nil
}

// seedInsertion grows the path from [start, end], inserting at each step the
// unrouted stop whose cheapest position increases the cost least.
func seedInsertion(m model.DistanceMatrix, start, end int) (Route, error) {
	n := len(m)
	r := Route{start, end}
	unrouted := make([]int, 0, n-2)
	for v := 0; v < n; v++ {
		if v != start && v != end {
			unrouted = append(unrouted, v)
		}
	}

	for len(unrouted) > 0 {
		bestIdx, bestPos := -1, -1
		bestInc := math.Inf(1)
		for ui, v := range unrouted {
			for pos := 1; pos < len(r); pos++ {
				a, b := r[pos-1], r[pos]
				inc := m[a][v] + m[v][b] - m[a][b]
				if math.IsInf(m[a][b], 1) {
					// Splitting an unreachable edge with two reachable hops
					// is always worth it; otherwise the position is unusable.
					if math.IsInf(m[a][v], 1) || math.IsInf(m[v][b], 1) {
						inc = math.Inf(1)
					} else {
						inc = math.Inf(-1)
					}
				}
				if inc < bestInc {
					bestInc, bestIdx, bestPos = inc, ui, pos
				}
			}
		}
		if bestIdx < 0 || math.IsInf(bestInc, 1) {
			// Every remaining stop is unreachable from the current path.
			return nil, ErrInfeasible
		}
		v := unrouted[bestIdx]
		r = append(r, 0)
		copy(r[bestPos+1:], r[bestPos:])
		r[bestPos] = v
		unrouted[bestIdx] = unrouted[len(unrouted)-1]
		unrouted = unrouted[:len(unrouted)-1]
	}
	return r, nil
}

// twoOpt applies first-improvement segment reversals in place, keeping both
// endpoints fixed. Each accepted move strictly lowers the cost, so the loop
// terminates at a local optimum unless the deadline fires first.
func twoOpt(m model.DistanceMatrix, r Route, deadline time.Time) {
	n := len(r)
	if n < 4 {
		return
	}
	const eps = 1e-9
	step := 0
	expired := func() bool {
		step++
		return step&1023 == 0 && time.Now().After(deadline)
	}

	improved := true
	for improved {
		improved = false
		for i := 1; i < n-2; i++ {
			for k := i + 1; k < n-1; k++ {
				if expired() {
					return
				}
				if reverseDelta(m, r, i, k) < -eps {
					reverse(r, i, k)
					improved = true
				}
			}
		}
	}
}

// reverseDelta is the cost change of reversing r[i..k]. The matrix may be
// asymmetric, so the interior edges of the segment are re-costed in the
// opposite direction rather than assumed equal.
func reverseDelta(m model.DistanceMatrix, r Route, i, k int) float64 {
	before := m[r[i-1]][r[i]] + m[r[k]][r[k+1]]
	after := m[r[i-1]][r[k]] + m[r[i]][r[k+1]]
	for t := i; t < k; t++ {
		before += m[r[t]][r[t+1]]
		after += m[r[t+1]][r[t]]
	}
	return after - before
}

func reverse(r Route, i, k int) {
	for i < k {
		r[i], r[k] = r[k], r[i]
		i++
		k--
	}
}
