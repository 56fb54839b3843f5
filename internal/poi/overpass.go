// Package poi discovers named points of interest in a city via Overpass and
// keeps them in an in-memory spatial index so repeat queries stay local.
package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"walkroute/internal/httpx"
	"walkroute/internal/model"
)

// amenity selectors queried inside a bounding box.
var bboxSelectors = []string{
	`node["amenity"="bar"]`,
	`node["bar"="yes"]`,
	`node["craft"="brewery"]`,
	`node["shop"="alcohol"]`,
	`node["amenity"="pub"]`,
	`node["amenity"="cafe"]`,
	`node["amenity"="fast_food"]`,
	`node["amenity"="nightclub"]`,
}

// Client queries the Overpass interpreter endpoint.
type Client struct {
	BaseURL string
	HTTP    *httpx.Client
}

type overpassResponse struct {
	Elements []struct {
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Center struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Discover fetches POIs for a city. With a bounding box the query targets
// the box directly; without one it falls back to the administrative area by
// name. Results outside the box are dropped and names are deduplicated,
// first occurrence winning.
func (c *Client) Discover(ctx context.Context, city string, box *model.BoundingBox) ([]model.POI, error) {
	resp, err := c.HTTP.PostForm(ctx, c.BaseURL, url.Values{"data": {buildQuery(city, box)}})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: unexpected status %d", resp.StatusCode)
	}
	var body overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("overpass: decode: %w", err)
	}

	seen := map[string]bool{}
	var out []model.POI
	for _, el := range body.Elements {
		name := el.Tags["name"]
		lat, lon := el.Lat, el.Lon
		if lat == 0 && lon == 0 {
			lat, lon = el.Center.Lat, el.Center.Lon
		}
		if name == "" || (lat == 0 && lon == 0) {
			continue
		}
		if box != nil && !box.Contains(lat, lon) {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, model.POI{Name: name, Lat: lat, Lon: lon})
	}
	return out, nil
}

func buildQuery(city string, box *model.BoundingBox) string {
	if box != nil {
		q := "[out:json][timeout:60];\n(\n"
		for _, sel := range bboxSelectors {
			q += fmt.Sprintf("  %s(%f,%f,%f,%f);\n", sel, box.South, box.West, box.North, box.East)
		}
		return q + ");\nout center tags;"
	}
	return fmt.Sprintf(`[out:json][timeout:60];
area["name"=%q][boundary="administrative"][admin_level="8"]->.a;
(
  node["amenity"="bar"](area.a);
  way["amenity"="bar"](area.a);
  rel["amenity"="bar"](area.a);
);
out center tags;`, city)
}
