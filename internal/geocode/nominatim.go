// Package geocode turns free-text addresses into coordinates using staged
// lookups against Nominatim and Photon, constrained to the requested city.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"walkroute/internal/httpx"
	"walkroute/internal/model"
)

// nominatimPlace is the subset of the Nominatim search response we use.
type nominatimPlace struct {
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"` // [south, north, west, east]
}

// Nominatim is a client for the Nominatim search API.
type Nominatim struct {
	BaseURL string
	HTTP    *httpx.Client
}

// Query is a structured Nominatim search. When Viewbox is set and Bounded is
// true, results outside the box are excluded server-side.
type Query struct {
	Street  string
	City    string
	State   string
	Country string
	Viewbox *model.BoundingBox
	Bounded bool
}

// Search runs a structured query and returns the top result. ok is false
// when the service answered but found nothing.
func (n *Nominatim) Search(ctx context.Context, q Query) (model.Coordinate, bool, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	if q.Street != "" {
		params.Set("street", q.Street)
	}
	if q.City != "" {
		params.Set("city", q.City)
	}
	if q.State != "" {
		params.Set("state", q.State)
	}
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	if q.Viewbox != nil {
		// viewbox is lon/lat ordered: left, top, right, bottom.
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", q.Viewbox.West, q.Viewbox.North, q.Viewbox.East, q.Viewbox.South))
		if q.Bounded {
			params.Set("bounded", "1")
		}
	}
	places, err := n.search(ctx, params)
	if err != nil {
		return model.Coordinate{}, false, err
	}
	if len(places) == 0 {
		return model.Coordinate{}, false, nil
	}
	c, err := placeCoord(places[0])
	if err != nil {
		return model.Coordinate{}, false, err
	}
	return c, true, nil
}

// CityBBox looks up the administrative bounding box of a city. ok is false
// when the city is unknown or carries no box; callers then run unconstrained.
func (n *Nominatim) CityBBox(ctx context.Context, city, state, country string) (model.BoundingBox, bool, error) {
	params := url.Values{
		"format": {"jsonv2"},
		"limit":  {"1"},
		"city":   {city},
	}
	if state != "" {
		params.Set("state", state)
	}
	if country != "" {
		params.Set("country", country)
	}
	places, err := n.search(ctx, params)
	if err != nil {
		return model.BoundingBox{}, false, err
	}
	if len(places) == 0 || len(places[0].BoundingBox) != 4 {
		return model.BoundingBox{}, false, nil
	}
	var vals [4]float64
	for i, s := range places[0].BoundingBox {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.BoundingBox{}, false, fmt.Errorf("nominatim: bad boundingbox %q: %w", s, err)
		}
		vals[i] = f
	}
	return model.BoundingBox{South: vals[0], North: vals[1], West: vals[2], East: vals[3]}, true, nil
}

func (n *Nominatim) search(ctx context.Context, params url.Values) ([]nominatimPlace, error) {
	resp, err := n.HTTP.Get(ctx, n.BaseURL+"/search", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}
	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("nominatim: decode: %w", err)
	}
	return places, nil
}

func placeCoord(p nominatimPlace) (model.Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("nominatim: bad lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("nominatim: bad lon %q: %w", p.Lon, err)
	}
	return model.Coordinate{Lat: lat, Lon: lon}, nil
}
