// Package distmx builds walking distance matrices from OSRM, with a bulk
// table request and a per-row degraded fallback.
package distmx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"walkroute/internal/httpx"
	"walkroute/internal/model"
)

// OSRM is a client for the OSRM HTTP API, foot profile.
type OSRM struct {
	BaseURL string
	HTTP    *httpx.Client
}

type tableResponse struct {
	Code      string      `json:"code"`
	Distances [][]float64 `json:"distances"`
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

// Table requests the full N×N distance table in one call.
func (o *OSRM) Table(ctx context.Context, coords []model.Coordinate) ([][]float64, error) {
	params := url.Values{"annotations": {"distance"}}
	body, err := o.table(ctx, coords, params)
	if err != nil {
		return nil, err
	}
	return body.Distances, nil
}

// TableRow requests a single source row of the table (sources=i).
func (o *OSRM) TableRow(ctx context.Context, coords []model.Coordinate, source int) ([]float64, error) {
	params := url.Values{
		"annotations": {"distance"},
		"sources":     {strconv.Itoa(source)},
	}
	body, err := o.table(ctx, coords, params)
	if err != nil {
		return nil, err
	}
	if len(body.Distances) != 1 {
		return nil, fmt.Errorf("osrm: row response has %d rows", len(body.Distances))
	}
	return body.Distances[0], nil
}

func (o *OSRM) table(ctx context.Context, coords []model.Coordinate, params url.Values) (*tableResponse, error) {
	resp, err := o.HTTP.Get(ctx, o.BaseURL+"/table/v1/foot/"+coordPath(coords), params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm: unexpected status %d", resp.StatusCode)
	}
	var body tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("osrm: decode: %w", err)
	}
	if body.Code != "Ok" {
		return nil, fmt.Errorf("osrm: code %q", body.Code)
	}
	return &body, nil
}

// RouteGeometry fetches the walking polyline between two points. Used only
// to decorate the final plan; callers treat errors as "no geometry".
func (o *OSRM) RouteGeometry(ctx context.Context, from, to model.Coordinate) ([]model.Coordinate, error) {
	params := url.Values{
		"overview":   {"full"},
		"geometries": {"geojson"},
	}
	resp, err := o.HTTP.Get(ctx, o.BaseURL+"/route/v1/foot/"+coordPath([]model.Coordinate{from, to}), params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("osrm: unexpected status %d", resp.StatusCode)
	}
	var body routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("osrm: decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("osrm: no route")
	}
	pts := body.Routes[0].Geometry.Coordinates
	out := make([]model.Coordinate, 0, len(pts))
	for _, p := range pts {
		if len(p) < 2 {
			continue
		}
		out = append(out, model.Coordinate{Lat: p[1], Lon: p[0]})
	}
	return out, nil
}

// coordPath renders coordinates in OSRM's lon,lat;lon,lat path form.
func coordPath(coords []model.Coordinate) string {
	var b strings.Builder
	for i, c := range coords {
		if i > 0 {
			b.WriteByte(';')
		}
		fmt.Fprintf(&b, "%f,%f", c.Lon, c.Lat)
	}
	return b.String()
}
