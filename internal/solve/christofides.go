package solve

import (
	"time"

	"walkroute/internal/model"
)

// christofides builds an approximate tour: symmetrize the matrix, Prim MST,
// greedy matching on odd-degree vertices, Eulerian circuit, shortcut to a
// Hamiltonian cycle, then splice the pinned endpoints back in. The closed
// cycle is opened by relocating the end stop to the tail and the result is
// repaired with 2-opt under the true directed costs.
func christofides(m model.DistanceMatrix, start, end int, deadline time.Time) (Route, error) {
	n := len(m)
	if n < 4 {
		return localSearch(m, start, end, deadline)
	}

	sym := symmetrize(m)
	mstAdj, err := minimumSpanningTree(sym)
	if err != nil {
		return nil, err
	}

	var odd []int
	for v, nb := range mstAdj {
		if len(nb)%2 == 1 {
			odd = append(odd, v)
		}
	}
	for _, e := range greedyMatching(sym, odd) {
		mstAdj[e[0]] = append(mstAdj[e[0]], e[1])
		mstAdj[e[1]] = append(mstAdj[e[1]], e[0])
	}

	circuit := eulerianCircuit(mstAdj, start)

	// Shortcut repeated vertices into a Hamiltonian cycle rooted at start.
	seen := make([]bool, n)
	cycle := make([]int, 0, n)
	for _, v := range circuit {
		if !seen[v] {
			seen[v] = true
			cycle = append(cycle, v)
		}
	}
	if len(cycle) != n {
		// Some vertex never appeared on the circuit: disconnected input.
		return nil, ErrInfeasible
	}

	// Open the cycle: keep start first, move end to the final position.
	r := make(Route, 0, n)
	for _, v := range cycle {
		if v != end {
			r = append(r, v)
		}
	}
	r = append(r, end)

	twoOpt(m, r, deadline)
	return r, nil
}

// symmetrize averages opposing directed costs so the MST and matching steps
// see an undirected graph. An infinite edge in either direction stays
// infinite.
func symmetrize(m model.DistanceMatrix) [][]float64 {
	n := len(m)
	s := make([][]float64, n)
	for i := range s {
		s[i] = make([]float64, n)
		for j := range s[i] {
			s[i][j] = (m[i][j] + m[j][i]) / 2
		}
	}
	return s
}
