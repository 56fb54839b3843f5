package solve

import (
	"math"
	"math/rand"
	"time"

	"walkroute/internal/model"
)

// guidedSearch runs guided local search: repeated 2-opt on an augmented
// cost that penalizes edges of previous local optima, steering the search
// away from them. The best route under the true cost is tracked and
// returned when the deadline fires.
func guidedSearch(m model.DistanceMatrix, start, end int, deadline time.Time, seed int64) (Route, error) {
	cur, err := localSearch(m, start, end, deadline)
	if err != nil {
		return nil, err
	}
	n := len(m)
	best := append(Route(nil), cur...)
	bestCost := Cost(m, best)
	if n < 4 || math.IsInf(bestCost, 1) {
		return best, nil
	}

	// Penalty weight scaled to the instance, per the usual GLS heuristic.
	lambda := 0.2 * bestCost / float64(n)
	if lambda <= 0 {
		return best, nil
	}

	pen := make([][]float64, n)
	aug := make(model.DistanceMatrix, n)
	for i := range aug {
		pen[i] = make([]float64, n)
		aug[i] = append([]float64(nil), m[i]...)
	}
	rng := rand.New(rand.NewSource(seed))

	const eps = 1e-9
	for time.Now().Before(deadline) {
		twoOpt(aug, cur, deadline)
		if c := Cost(m, cur); c < bestCost-eps {
			bestCost = c
			copy(best, cur)
		}

		// Penalize the highest-utility edge of this local optimum,
		// breaking ties at random.
		maxU := -1.0
		var picks [][2]int
		for i := 0; i+1 < len(cur); i++ {
			a, b := cur[i], cur[i+1]
			if math.IsInf(m[a][b], 1) {
				continue
			}
			u := m[a][b] / (1 + pen[a][b])
			switch {
			case u > maxU+eps:
				maxU = u
				picks = picks[:0]
				picks = append(picks, [2]int{a, b})
			case u > maxU-eps:
				picks = append(picks, [2]int{a, b})
			}
		}
		if len(picks) == 0 {
			break
		}
		e := picks[rng.Intn(len(picks))]
		pen[e[0]][e[1]]++
		aug[e[0]][e[1]] = m[e[0]][e[1]] + lambda*pen[e[0]][e[1]]
	}
	return best, nil
}
