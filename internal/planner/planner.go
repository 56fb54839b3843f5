// Package planner orchestrates a plan request end to end: geocode the
// endpoints and extras, fetch elevations, build the distance matrix, pick
// the effective end stop, solve, and assemble the final plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"walkroute/internal/distmx"
	"walkroute/internal/elevation"
	"walkroute/internal/geocode"
	"walkroute/internal/model"
	"walkroute/internal/solve"
)

// Progress receives stage notifications while a plan is computed. Stages:
// geocoding, elevation, matrix, solving, done, failed.
type Progress func(stage, detail string)

// StageError tags a failure with the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// ErrTooFewStops means the request yields no interior stop between start
// and destination, so there is nothing to optimize.
var ErrTooFewStops = errors.New("planner: need at least one stop between start and destination")

// Planner wires the pipeline stages together.
type Planner struct {
	Resolver  *geocode.Resolver
	Matrix    *distmx.Builder
	Router    *distmx.OSRM
	Elevation *elevation.Client

	DefaultStrategy  string
	DefaultTimeLimit time.Duration
}

// Plan runs the full pipeline for one request. progress may be nil.
func (p *Planner) Plan(ctx context.Context, id string, req model.PlanRequest, progress Progress) (*model.Plan, error) {
	if progress == nil {
		progress = func(string, string) {}
	}
	fail := func(stage string, err error) (*model.Plan, error) {
		progress("failed", stage)
		return nil, &StageError{Stage: stage, Err: err}
	}

	// Start and destination are mandatory; a geocode miss on either aborts
	// the request.
	progress("geocoding", "start")
	startCoord, err := p.Resolver.Resolve(ctx, req.Start, req.City)
	if err != nil {
		return fail("geocode-start", fmt.Errorf("%q: %w", req.Start, err))
	}
	endAddr := req.End
	endCoord := startCoord
	if endAddr == "" {
		endAddr = req.Start
	} else {
		progress("geocoding", "destination")
		endCoord, err = p.Resolver.Resolve(ctx, endAddr, req.City)
		if err != nil {
			return fail("geocode-destination", fmt.Errorf("%q: %w", endAddr, err))
		}
	}

	stops := []model.Stop{{Name: req.Start, Coord: startCoord}}
	for _, poi := range req.POIs {
		stops = append(stops, model.Stop{Name: poi.Name, Coord: model.Coordinate{Lat: poi.Lat, Lon: poi.Lon}})
	}

	// Extras are independent of each other: resolve them concurrently and
	// drop the ones that cannot be located, with a warning per drop.
	var warnings []string
	if len(req.Extras) > 0 {
		progress("geocoding", fmt.Sprintf("%d extra stops", len(req.Extras)))
		resolved := make([]*model.Coordinate, len(req.Extras))
		var wg sync.WaitGroup
		for i, addr := range req.Extras {
			wg.Add(1)
			go func(i int, addr string) {
				defer wg.Done()
				c, err := p.Resolver.Resolve(ctx, addr, req.City)
				if err != nil {
					log.Printf("planner: dropping extra %q: %v", addr, err)
					return
				}
				resolved[i] = &c
			}(i, addr)
		}
		wg.Wait()
		for i, c := range resolved {
			if c == nil {
				warnings = append(warnings, fmt.Sprintf("could not locate %q, stop skipped", req.Extras[i]))
				continue
			}
			stops = append(stops, model.Stop{Name: req.Extras[i], Coord: *c})
		}
	}

	stops = append(stops, model.Stop{Name: endAddr, Coord: endCoord})
	if len(stops) < 3 {
		return fail("validate", ErrTooFewStops)
	}

	coords := make([]model.Coordinate, len(stops))
	for i, s := range stops {
		coords[i] = s.Coord
	}

	progress("elevation", fmt.Sprintf("%d points", len(coords)))
	for i, elev := range p.Elevation.Batch(ctx, coords) {
		stops[i].Coord.Elev = elev
		coords[i].Elev = elev
	}

	progress("matrix", fmt.Sprintf("%dx%d", len(coords), len(coords)))
	m, err := p.Matrix.Build(ctx, coords)
	if err != nil {
		return fail("matrix", err)
	}

	// The solver ends at the interior stop closest to the destination; the
	// destination itself is appended afterwards.
	destIdx := len(stops) - 1
	best := 1
	for i := 2; i < destIdx; i++ {
		if m[i][destIdx] < m[best][destIdx] {
			best = i
		}
	}
	sub := make(model.DistanceMatrix, destIdx)
	for i := 0; i < destIdx; i++ {
		sub[i] = m[i][:destIdx]
	}

	opts := solve.Options{
		Strategy:  req.Strategy,
		TimeLimit: time.Duration(req.TimeLimitMs) * time.Millisecond,
	}
	if opts.Strategy == "" {
		opts.Strategy = p.DefaultStrategy
	}
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = p.DefaultTimeLimit
	}
	progress("solving", opts.Strategy)
	order, err := solve.Solve(sub, 0, best, opts)
	if err != nil {
		return fail("solve", err)
	}
	order = append(order, destIdx)

	plan := &model.Plan{
		ID:       id,
		City:     req.City,
		Strategy: opts.Strategy,
		Order:    order,
		Warnings: warnings,
	}
	for _, idx := range order {
		plan.Stops = append(plan.Stops, stops[idx])
	}
	for i := 0; i+1 < len(order); i++ {
		a, b := order[i], order[i+1]
		leg := model.Leg{Seq: i, From: stops[a], To: stops[b], DistM: m[a][b]}
		if req.Geometry {
			geom, err := p.Router.RouteGeometry(ctx, stops[a].Coord, stops[b].Coord)
			if err != nil {
				log.Printf("planner: geometry for leg %d: %v", i, err)
			} else {
				leg.Geometry = geom
			}
		}
		plan.TotalM += leg.DistM
		plan.Legs = append(plan.Legs, leg)
	}

	progress("done", plan.ID)
	return plan, nil
}
