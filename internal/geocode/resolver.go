package geocode

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"walkroute/internal/geocache"
	"walkroute/internal/metrics"
	"walkroute/internal/model"
)

// ErrNotFound means every resolution tier was exhausted without a usable
// coordinate for the address. It is recoverable per stop: the caller decides
// whether to abort or drop the stop.
var ErrNotFound = errors.New("geocode: address not found")

// Resolver geocodes addresses in two passes. The strict pass constrains the
// Nominatim query to the city's bounding box; the fallback pass searches
// unbounded (Nominatim, then Photon free-text) and keeps only results that
// land inside the box. Successes are cached under the pass that produced
// them; failures are never cached.
type Resolver struct {
	Nominatim *Nominatim
	Photon    *Photon
	Cache     geocache.Store

	// Region and Country qualify every query (e.g. "Minas Gerais", "Brazil").
	Region  string
	Country string

	mu     sync.Mutex
	bboxes map[string]bboxEntry
}

type bboxEntry struct {
	box model.BoundingBox
	ok  bool
}

// NewResolver wires a resolver around shared clients and a cache backend.
func NewResolver(n *Nominatim, p *Photon, cache geocache.Store, region, country string) *Resolver {
	return &Resolver{
		Nominatim: n,
		Photon:    p,
		Cache:     cache,
		Region:    region,
		Country:   country,
		bboxes:    map[string]bboxEntry{},
	}
}

// CityBBox returns the memoized administrative bounding box for city. ok is
// false when the city has no known box; lookups then run unconstrained.
func (r *Resolver) CityBBox(ctx context.Context, city string) (model.BoundingBox, bool) {
	r.mu.Lock()
	if e, hit := r.bboxes[city]; hit {
		r.mu.Unlock()
		return e.box, e.ok
	}
	r.mu.Unlock()

	box, ok, err := r.Nominatim.CityBBox(ctx, city, r.Region, r.Country)
	if err != nil {
		// Transient failure: run this request unconstrained, do not poison
		// the memo for later requests.
		log.Printf("geocode: city bbox lookup for %q failed: %v", city, err)
		return model.BoundingBox{}, false
	}
	r.mu.Lock()
	r.bboxes[city] = bboxEntry{box: box, ok: ok}
	r.mu.Unlock()
	return box, ok
}

// Resolve geocodes address within city. It returns ErrNotFound once every
// tier is exhausted; transient errors in one tier advance to the next.
func (r *Resolver) Resolve(ctx context.Context, address, city string) (model.Coordinate, error) {
	if c, ok := r.cached(ctx, "strict", address, city); ok {
		return c, nil
	}
	if c, ok := r.cached(ctx, "fallback", address, city); ok {
		return c, nil
	}

	box, hasBox := r.CityBBox(ctx, city)

	// Strict pass: bounded query, result must land inside the box.
	q := Query{Street: address, City: city, State: r.Region, Country: r.Country}
	if hasBox {
		q.Viewbox = &box
		q.Bounded = true
	}
	c, found, err := r.Nominatim.Search(ctx, q)
	switch {
	case err != nil:
		log.Printf("geocode: strict lookup %q/%q failed: %v", address, city, err)
		metrics.GeocodeLookups.WithLabelValues("strict", "error").Inc()
	case found && (!hasBox || box.Contains(c.Lat, c.Lon)):
		metrics.GeocodeLookups.WithLabelValues("strict", "hit").Inc()
		r.store(ctx, "strict", address, city, c)
		return c, nil
	default:
		metrics.GeocodeLookups.WithLabelValues("strict", "miss").Inc()
	}

	// Fallback pass 1: unbounded Nominatim filtered by membership.
	c, found, err = r.Nominatim.Search(ctx, Query{Street: address, City: city, State: r.Region, Country: r.Country})
	switch {
	case err != nil:
		log.Printf("geocode: fallback lookup %q/%q failed: %v", address, city, err)
		metrics.GeocodeLookups.WithLabelValues("fallback_nominatim", "error").Inc()
	case found && (!hasBox || box.Contains(c.Lat, c.Lon)):
		metrics.GeocodeLookups.WithLabelValues("fallback_nominatim", "hit").Inc()
		r.store(ctx, "fallback", address, city, c)
		return c, nil
	default:
		metrics.GeocodeLookups.WithLabelValues("fallback_nominatim", "miss").Inc()
	}

	// Fallback pass 2: Photon free-text.
	c, found, err = r.Photon.Search(ctx, r.freeText(address, city))
	switch {
	case err != nil:
		log.Printf("geocode: photon lookup %q/%q failed: %v", address, city, err)
		metrics.GeocodeLookups.WithLabelValues("fallback_photon", "error").Inc()
	case found && (!hasBox || box.Contains(c.Lat, c.Lon)):
		metrics.GeocodeLookups.WithLabelValues("fallback_photon", "hit").Inc()
		r.store(ctx, "fallback", address, city, c)
		return c, nil
	default:
		metrics.GeocodeLookups.WithLabelValues("fallback_photon", "miss").Inc()
	}

	return model.Coordinate{}, ErrNotFound
}

func (r *Resolver) freeText(address, city string) string {
	parts := []string{address, city}
	if r.Region != "" {
		parts = append(parts, r.Region)
	}
	if r.Country != "" {
		parts = append(parts, r.Country)
	}
	return strings.Join(parts, ", ")
}

func (r *Resolver) cached(ctx context.Context, mode, address, city string) (model.Coordinate, bool) {
	c, ok, err := r.Cache.Get(ctx, geocache.Key(mode, address, city))
	if err != nil {
		log.Printf("geocache: get failed: %v", err)
		return model.Coordinate{}, false
	}
	if ok {
		metrics.GeocodeLookups.WithLabelValues("cache", "hit").Inc()
	}
	return c, ok
}

func (r *Resolver) store(ctx context.Context, mode, address, city string, c model.Coordinate) {
	if err := r.Cache.Put(ctx, geocache.Key(mode, address, city), c); err != nil {
		// Cache trouble degrades to re-resolution, never to a failed request.
		log.Printf("geocache: put failed: %v", err)
	}
}
