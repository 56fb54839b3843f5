package model

// Core domain types shared by the geocoding, matrix, and solver stages.

// Coordinate is a WGS84 point, optionally carrying an elevation in meters.
// Values are never mutated once produced.
type Coordinate struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Elev float64 `json:"elev,omitempty"`
}

// Valid reports whether the coordinate lies within the WGS84 domain.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// BoundingBox is an administrative rectangle (south, north, west, east).
// Invariant: South <= North and West <= East. Used only as a membership
// filter; never mutated.
type BoundingBox struct {
	South float64 `json:"south"`
	North float64 `json:"north"`
	West  float64 `json:"west"`
	East  float64 `json:"east"`
}

// Contains reports whether (lat, lon) lies inside the box. The check is
// inclusive at the exact edges.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return b.South <= lat && lat <= b.North && b.West <= lon && lon <= b.East
}

// Stop is a named location in the route request. Index 0 of a stop
// sequence is the origin, index N-1 the logical destination, and
// 1..N-2 the interior candidates.
type Stop struct {
	Name  string     `json:"name"`
	Coord Coordinate `json:"coord"`
}

// DistanceMatrix holds directed travel costs: m[i][j] is the cost from
// stop i to stop j. It need not be symmetric and callers must not assume
// the diagonal is zero.
type DistanceMatrix [][]float64

// POI is a named point of interest discovered inside a city.
type POI struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// PlanRequest describes one route optimization request.
type PlanRequest struct {
	City        string   `json:"city"`
	Start       string   `json:"start"`
	End         string   `json:"end,omitempty"` // empty means end = start
	POIs        []POI    `json:"pois,omitempty"`
	Extras      []string `json:"extras,omitempty"` // free-text addresses
	Strategy    string   `json:"strategy,omitempty"`
	TimeLimitMs int      `json:"timeLimitMs,omitempty"`
	Geometry    bool     `json:"geometry,omitempty"` // include per-leg polylines
}

// Leg is one hop of the final plan.
type Leg struct {
	Seq      int          `json:"seq"`
	From     Stop         `json:"from"`
	To       Stop         `json:"to"`
	DistM    float64      `json:"distM"`
	Geometry []Coordinate `json:"geometry,omitempty"`
}

// Plan is the result of a successful optimization run.
type Plan struct {
	ID       string   `json:"id"`
	City     string   `json:"city"`
	Strategy string   `json:"strategy"`
	Stops    []Stop   `json:"stops"` // in visiting order
	Order    []int    `json:"order"` // indices into the request stop sequence
	Legs     []Leg    `json:"legs"`
	TotalM   float64  `json:"totalM"`
	Warnings []string `json:"warnings,omitempty"`
}
