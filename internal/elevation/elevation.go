// Package elevation decorates coordinates with terrain altitude from the
// Open-Elevation batch API. Elevation is cosmetic for a walking plan, so
// any failure degrades to zeros instead of failing the request.
package elevation

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"walkroute/internal/httpx"
	"walkroute/internal/model"
)

type Client struct {
	BaseURL string
	HTTP    *httpx.Client
}

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// Batch returns one elevation per coordinate, in order. On any failure it
// returns all zeros and logs the cause.
func (c *Client) Batch(ctx context.Context, coords []model.Coordinate) []float64 {
	out := make([]float64, len(coords))
	if len(coords) == 0 {
		return out
	}

	req := lookupRequest{Locations: make([]location, len(coords))}
	for i, p := range coords {
		req.Locations[i] = location{Latitude: p.Lat, Longitude: p.Lon}
	}
	body, err := json.Marshal(req)
	if err != nil {
		log.Printf("elevation: marshal: %v", err)
		return out
	}
	resp, err := c.HTTP.PostJSON(ctx, c.BaseURL, body)
	if err != nil {
		log.Printf("elevation: lookup failed: %v", err)
		return out
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Printf("elevation: unexpected status %d", resp.StatusCode)
		return out
	}
	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("elevation: decode: %v", err)
		return out
	}
	if len(parsed.Results) != len(coords) {
		log.Printf("elevation: got %d results for %d points", len(parsed.Results), len(coords))
		return out
	}
	for i, r := range parsed.Results {
		out[i] = r.Elevation
	}
	return out
}
