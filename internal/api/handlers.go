package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"walkroute/internal/distmx"
	"walkroute/internal/geocode"
	"walkroute/internal/model"
	"walkroute/internal/planner"
	"walkroute/internal/solve"
)

var knownStrategies = map[string]bool{
	solve.StrategyLocalSearch:  true,
	solve.StrategyGuided:       true,
	solve.StrategyChristofides: true,
}

// PlanHandler computes a route plan. POST /v1/plan. Clients that want the
// progress stream pass ?planId= (any unique string) and subscribe to
// /v1/plan/{planId}/events/stream before posting.
func (s *Server) PlanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	var req model.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid body", err.Error(), r.URL.Path)
		return
	}
	if req.City == "" || req.Start == "" {
		writeProblem(w, http.StatusBadRequest, "missing fields", "city and start are required", r.URL.Path)
		return
	}
	if req.Strategy != "" && !knownStrategies[req.Strategy] {
		writeProblem(w, http.StatusBadRequest, "unknown strategy", req.Strategy, r.URL.Path)
		return
	}
	for _, p := range req.POIs {
		if !(model.Coordinate{Lat: p.Lat, Lon: p.Lon}).Valid() {
			writeProblem(w, http.StatusBadRequest, "invalid poi", p.Name, r.URL.Path)
			return
		}
	}

	id := r.URL.Query().Get("planId")
	if id == "" {
		id = uuid.NewString()
	}
	plan, err := s.Planner.Plan(r.Context(), id, req, func(stage, detail string) {
		s.Broker.Publish(id, PlanEvent{Stage: stage, Detail: detail})
	})
	if err != nil {
		s.writePlanError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// writePlanError maps pipeline failures onto problem responses naming the
// failed stage.
func (s *Server) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	stage := "plan"
	var se *planner.StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}
	switch {
	case errors.Is(err, geocode.ErrNotFound):
		writeProblem(w, http.StatusUnprocessableEntity, stage, err.Error(), r.URL.Path)
	case errors.Is(err, planner.ErrTooFewStops):
		writeProblem(w, http.StatusUnprocessableEntity, stage, err.Error(), r.URL.Path)
	case errors.Is(err, solve.ErrInfeasible):
		writeProblem(w, http.StatusUnprocessableEntity, stage, err.Error(), r.URL.Path)
	case errors.Is(err, distmx.ErrMatrixUnavailable):
		writeProblem(w, http.StatusBadGateway, stage, err.Error(), r.URL.Path)
	default:
		writeProblem(w, http.StatusInternalServerError, stage, err.Error(), r.URL.Path)
	}
}

// POIsHandler lists discovered POIs for a city. GET /v1/pois?city=...
func (s *Server) POIsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "method not allowed", "", r.URL.Path)
		return
	}
	city := r.URL.Query().Get("city")
	if city == "" {
		writeProblem(w, http.StatusBadRequest, "missing city", "city query parameter is required", r.URL.Path)
		return
	}
	var boxPtr *model.BoundingBox
	if box, ok := s.Resolver.CityBBox(r.Context(), city); ok {
		boxPtr = &box
	}
	pois, err := s.POIs.POIs(r.Context(), city, boxPtr)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "poi discovery", err.Error(), r.URL.Path)
		return
	}
	if pois == nil {
		pois = []model.POI{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"city": city, "pois": pois})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
