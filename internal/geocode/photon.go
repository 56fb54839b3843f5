package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"walkroute/internal/httpx"
	"walkroute/internal/model"
)

// Photon is a client for the Photon free-text geocoding API, used as the
// last resolution tier.
type Photon struct {
	BaseURL string
	HTTP    *httpx.Client
}

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"features"`
}

// Search runs a free-text query and returns the top result.
func (p *Photon) Search(ctx context.Context, query string) (model.Coordinate, bool, error) {
	params := url.Values{"q": {query}, "limit": {"1"}}
	resp, err := p.HTTP.Get(ctx, p.BaseURL+"/api", params)
	if err != nil {
		return model.Coordinate{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Coordinate{}, false, fmt.Errorf("photon: unexpected status %d", resp.StatusCode)
	}
	var body photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Coordinate{}, false, fmt.Errorf("photon: decode: %w", err)
	}
	if len(body.Features) == 0 || len(body.Features[0].Geometry.Coordinates) < 2 {
		return model.Coordinate{}, false, nil
	}
	c := body.Features[0].Geometry.Coordinates
	return model.Coordinate{Lat: c[1], Lon: c[0]}, true, nil
}
