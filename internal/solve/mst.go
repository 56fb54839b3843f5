package solve

import "math"

// minimumSpanningTree runs Prim's algorithm over the symmetric matrix and
// returns the tree as adjacency lists. A vertex unreachable through finite
// edges means the graph is disconnected and no tour can exist.
func minimumSpanningTree(dist [][]float64) ([][]int, error) {
	n := len(dist)
	inTree := make([]bool, n)
	bestCost := make([]float64, n)
	parent := make([]int, n)
	adj := make([][]int, n)
	for v := range bestCost {
		bestCost[v] = math.Inf(1)
		parent[v] = -1
	}
	bestCost[0] = 0

	for it := 0; it < n; it++ {
		u, minW := -1, math.Inf(1)
		for v := 0; v < n; v++ {
			if !inTree[v] && bestCost[v] < minW {
				minW, u = bestCost[v], v
			}
		}
		if u < 0 {
			return nil, ErrInfeasible
		}
		inTree[u] = true
		if p := parent[u]; p >= 0 {
			adj[u] = append(adj[u], p)
			adj[p] = append(adj[p], u)
		}
		for v := 0; v < n; v++ {
			if !inTree[v] && dist[u][v] < bestCost[v] {
				bestCost[v] = dist[u][v]
				parent[v] = u
			}
		}
	}
	return adj, nil
}
