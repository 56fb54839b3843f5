package solve

import (
	"math"
	"sort"
)

// greedyMatching pairs up the odd-degree vertices of the spanning tree,
// repeatedly taking the cheapest remaining pair. Not a minimum-weight
// perfect matching, but the standard practical stand-in; the 2-opt repair
// downstream absorbs most of the slack.
func greedyMatching(dist [][]float64, odd []int) [][2]int {
	type pair struct {
		u, v int
		w    float64
	}
	var cands []pair
	for i := 0; i < len(odd); i++ {
		for j := i + 1; j < len(odd); j++ {
			w := dist[odd[i]][odd[j]]
			if math.IsInf(w, 1) {
				continue
			}
			cands = append(cands, pair{odd[i], odd[j], w})
		}
	}
	sort.Slice(cands, func(a, b int) bool { return cands[a].w < cands[b].w })

	used := map[int]bool{}
	var out [][2]int
	for _, p := range cands {
		if used[p.u] || used[p.v] {
			continue
		}
		used[p.u], used[p.v] = true, true
		out = append(out, [2]int{p.u, p.v})
	}
	return out
}
