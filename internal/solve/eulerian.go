package solve

// eulerianCircuit walks every edge of the multigraph exactly once starting
// from start, using Hierholzer's algorithm. adj is consumed destructively.
func eulerianCircuit(adj [][]int, start int) []int {
	stack := []int{start}
	var circuit []int
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		if len(adj[v]) == 0 {
			circuit = append(circuit, v)
			stack = stack[:len(stack)-1]
			continue
		}
		u := adj[v][len(adj[v])-1]
		adj[v] = adj[v][:len(adj[v])-1]
		// Remove the reverse copy of the edge.
		for i, w := range adj[u] {
			if w == v {
				adj[u] = append(adj[u][:i], adj[u][i+1:]...)
				break
			}
		}
		stack = append(stack, u)
	}
	// Reverse into traversal order.
	for i, j := 0, len(circuit)-1; i < j; i, j = i+1, j-1 {
		circuit[i], circuit[j] = circuit[j], circuit[i]
	}
	return circuit
}
