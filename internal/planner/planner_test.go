package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"walkroute/internal/distmx"
	"walkroute/internal/elevation"
	"walkroute/internal/geocache"
	"walkroute/internal/geocode"
	"walkroute/internal/httpx"
	"walkroute/internal/model"
	"walkroute/internal/solve"
)

// addressBook maps street queries to coordinates for the fake Nominatim.
var addressBook = map[string]model.Coordinate{
	"Praca da Liberdade":   {Lat: -19.931, Lon: -43.938},
	"Mercado Central":      {Lat: -19.922, Lon: -43.941},
	"Rua Sapucai, 300":     {Lat: -19.925, Lon: -43.93},
	"Av. do Contorno, 100": {Lat: -19.94, Lon: -43.935},
}

func fakeNominatim() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("street") == "" {
			fmt.Fprint(w, `[{"lat":"-19.92","lon":"-43.94","boundingbox":["-20.05","-19.78","-44.06","-43.85"]}]`)
			return
		}
		c, ok := addressBook[q.Get("street")]
		if !ok {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprintf(w, `[{"lat":"%f","lon":"%f"}]`, c.Lat, c.Lon)
	})
}

// fakeOSRM serves synthetic tables: m[i][j] = |i-j| * 100.
func fakeOSRM() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		n := len(strings.Split(parts[len(parts)-1], ";"))
		m := make([][]float64, n)
		for i := range m {
			m[i] = make([]float64, n)
			for j := range m[i] {
				d := i - j
				if d < 0 {
					d = -d
				}
				m[i][j] = float64(d) * 100
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"code": "Ok", "distances": m})
	})
}

func fakeElevation() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Locations []struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"locations"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		results := make([]map[string]float64, len(req.Locations))
		for i := range results {
			results[i] = map[string]float64{"elevation": float64(800 + i)}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	})
}

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	nom := httptest.NewServer(fakeNominatim())
	t.Cleanup(nom.Close)
	ph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	}))
	t.Cleanup(ph.Close)
	osrm := httptest.NewServer(fakeOSRM())
	t.Cleanup(osrm.Close)
	elev := httptest.NewServer(fakeElevation())
	t.Cleanup(elev.Close)

	hc := httpx.New(5*time.Second, 0, "test")
	router := &distmx.OSRM{BaseURL: osrm.URL, HTTP: hc}
	return &Planner{
		Resolver: geocode.NewResolver(
			&geocode.Nominatim{BaseURL: nom.URL, HTTP: hc},
			&geocode.Photon{BaseURL: ph.URL, HTTP: hc},
			geocache.NewMemory(), "Minas Gerais", "Brazil",
		),
		Matrix:           &distmx.Builder{OSRM: router},
		Router:           router,
		Elevation:        &elevation.Client{BaseURL: elev.URL, HTTP: hc},
		DefaultStrategy:  solve.StrategyLocalSearch,
		DefaultTimeLimit: 100 * time.Millisecond,
	}
}

func TestPlanHappyPath(t *testing.T) {
	p := newPlanner(t)
	var stages []string
	plan, err := p.Plan(context.Background(), "plan-1", model.PlanRequest{
		City:  "Belo Horizonte",
		Start: "Praca da Liberdade",
		End:   "Mercado Central",
		POIs: []model.POI{
			{Name: "Bar do Ze", Lat: -19.93, Lon: -43.94},
			{Name: "Cafe Central", Lat: -19.94, Lon: -43.93},
		},
		Extras: []string{"Rua Sapucai, 300"},
	}, func(stage, detail string) { stages = append(stages, stage) })
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	// start + 2 POIs + 1 extra + destination
	if len(plan.Stops) != 5 || len(plan.Order) != 5 {
		t.Fatalf("stops=%d order=%v", len(plan.Stops), plan.Order)
	}
	if plan.Order[0] != 0 || plan.Order[len(plan.Order)-1] != 4 {
		t.Fatalf("order endpoints wrong: %v", plan.Order)
	}
	if plan.Stops[0].Name != "Praca da Liberdade" || plan.Stops[4].Name != "Mercado Central" {
		t.Fatalf("stop names: %v", plan.Stops)
	}
	if len(plan.Legs) != 4 {
		t.Fatalf("legs = %d, want 4", len(plan.Legs))
	}
	var total float64
	for _, l := range plan.Legs {
		total += l.DistM
	}
	if plan.TotalM != total || total == 0 {
		t.Fatalf("total = %f, legs sum %f", plan.TotalM, total)
	}
	if len(plan.Warnings) != 0 {
		t.Fatalf("warnings = %v", plan.Warnings)
	}
	if plan.Stops[0].Coord.Elev != 800 {
		t.Fatalf("elevation not applied: %+v", plan.Stops[0])
	}
	if stages[len(stages)-1] != "done" {
		t.Fatalf("stages = %v", stages)
	}
}

func TestPlanDropsUnresolvableExtras(t *testing.T) {
	p := newPlanner(t)
	plan, err := p.Plan(context.Background(), "plan-2", model.PlanRequest{
		City:   "Belo Horizonte",
		Start:  "Praca da Liberdade",
		End:    "Mercado Central",
		POIs:   []model.POI{{Name: "Bar do Ze", Lat: -19.93, Lon: -43.94}},
		Extras: []string{"Av. do Contorno, 100", "Rua Inexistente, 999"},
	}, nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "Rua Inexistente, 999") {
		t.Fatalf("warnings = %v", plan.Warnings)
	}
	// start + POI + resolvable extra + destination
	if len(plan.Stops) != 4 {
		t.Fatalf("stops = %d, want 4", len(plan.Stops))
	}
}

func TestPlanStartNotFoundIsFatal(t *testing.T) {
	p := newPlanner(t)
	_, err := p.Plan(context.Background(), "plan-3", model.PlanRequest{
		City:  "Belo Horizonte",
		Start: "Rua Inexistente, 999",
		End:   "Mercado Central",
		POIs:  []model.POI{{Name: "Bar do Ze", Lat: -19.93, Lon: -43.94}},
	}, nil)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != "geocode-start" {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(err, geocode.ErrNotFound) {
		t.Fatalf("err = %v, want wrapped ErrNotFound", err)
	}
}

func TestPlanNeedsInteriorStop(t *testing.T) {
	p := newPlanner(t)
	_, err := p.Plan(context.Background(), "plan-4", model.PlanRequest{
		City:  "Belo Horizonte",
		Start: "Praca da Liberdade",
		End:   "Mercado Central",
	}, nil)
	if !errors.Is(err, ErrTooFewStops) {
		t.Fatalf("err = %v, want ErrTooFewStops", err)
	}
}

func TestPlanSameStartAndEnd(t *testing.T) {
	p := newPlanner(t)
	plan, err := p.Plan(context.Background(), "plan-5", model.PlanRequest{
		City:  "Belo Horizonte",
		Start: "Praca da Liberdade",
		POIs:  []model.POI{{Name: "Bar do Ze", Lat: -19.93, Lon: -43.94}},
	}, nil)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	first, last := plan.Stops[0], plan.Stops[len(plan.Stops)-1]
	if first.Coord.Lat != last.Coord.Lat || first.Coord.Lon != last.Coord.Lon {
		t.Fatalf("loop route endpoints differ: %+v vs %+v", first, last)
	}
}
