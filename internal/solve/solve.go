// Package solve orders the interior stops of a walking route between a
// pinned start and end. Three interchangeable strategies share one entry
// point; all operate on a directed cost matrix and return an open path.
package solve

import (
	"errors"
	"fmt"
	"math"
	"time"

	"walkroute/internal/metrics"
	"walkroute/internal/model"
)

// Strategy names accepted in Options and over the API.
const (
	StrategyLocalSearch  = "local-search"
	StrategyGuided       = "guided"
	StrategyChristofides = "christofides"
)

// DefaultTimeLimit bounds a solver run when the caller does not.
const DefaultTimeLimit = 5 * time.Second

// ErrInfeasible means no valid route exists: an unreachable stop pair is
// unavoidable, or no tour was found within the budget. A malformed route is
// never returned alongside it.
var ErrInfeasible = errors.New("solve: no feasible route")

// Route is a visiting order: indices into the stop sequence, first element
// the start, last the end, every other index exactly once.
type Route []int

// Options selects and bounds a solver run.
type Options struct {
	Strategy  string
	TimeLimit time.Duration
	Seed      int64
}

// Solve computes a visiting order over matrix m from start to end.
func Solve(m model.DistanceMatrix, start, end int, opts Options) (Route, error) {
	n := len(m)
	if n < 2 {
		return nil, fmt.Errorf("solve: need at least 2 stops, got %d", n)
	}
	for i, row := range m {
		if len(row) != n {
			return nil, fmt.Errorf("solve: matrix row %d has %d entries, want %d", i, len(row), n)
		}
	}
	if start < 0 || start >= n || end < 0 || end >= n || start == end {
		return nil, fmt.Errorf("solve: bad endpoints start=%d end=%d n=%d", start, end, n)
	}

	limit := opts.TimeLimit
	if limit <= 0 {
		limit = DefaultTimeLimit
	}
	deadline := time.Now().Add(limit)

	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyLocalSearch
	}

	began := time.Now()
	var (
		route Route
		err   error
	)
	switch strategy {
	case StrategyLocalSearch:
		route, err = localSearch(m, start, end, deadline)
	case StrategyGuided:
		route, err = guidedSearch(m, start, end, deadline, opts.Seed)
	case StrategyChristofides:
		route, err = christofides(m, start, end, deadline)
	default:
		return nil, fmt.Errorf("solve: unknown strategy %q", strategy)
	}
	metrics.SolveDuration.WithLabelValues(strategy).Observe(time.Since(began).Seconds())
	if err != nil {
		return nil, err
	}

	if err := ValidateRoute(route, n, start, end); err != nil {
		return nil, err
	}
	if math.IsInf(Cost(m, route), 1) {
		return nil, ErrInfeasible
	}
	return route, nil
}

// ValidateRoute checks the structural invariants of a route: length n,
// pinned endpoints, each index exactly once.
func ValidateRoute(r Route, n, start, end int) error {
	if len(r) != n {
		return fmt.Errorf("solve: route has %d stops, want %d", len(r), n)
	}
	if r[0] != start {
		return fmt.Errorf("solve: route starts at %d, want %d", r[0], start)
	}
	if r[n-1] != end {
		return fmt.Errorf("solve: route ends at %d, want %d", r[n-1], end)
	}
	seen := make([]bool, n)
	for _, v := range r {
		if v < 0 || v >= n {
			return fmt.Errorf("solve: route index %d out of range", v)
		}
		if seen[v] {
			return fmt.Errorf("solve: route visits %d twice", v)
		}
		seen[v] = true
	}
	return nil
}

// Cost sums the directed edge costs along the open path.
func Cost(m model.DistanceMatrix, r Route) float64 {
	var total float64
	for i := 0; i+1 < len(r); i++ {
		total += m[r[i]][r[i+1]]
	}
	return total
}
