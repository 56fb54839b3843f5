package poi

import (
	"context"
	"sync"

	"github.com/dhconnelly/rtreego"

	"walkroute/internal/model"
)

const (
	tolerance   = 0.0001
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

type spatialPOI struct {
	poi  model.POI
	rect *rtreego.Rect
}

func (s *spatialPOI) Bounds() *rtreego.Rect { return s.rect }

// Index caches discovered POIs per city in an R-tree so repeat and
// sub-rectangle queries never re-hit Overpass.
type Index struct {
	mu    sync.RWMutex
	trees map[string]*rtreego.Rtree
	lists map[string][]model.POI
}

func NewIndex() *Index {
	return &Index{
		trees: map[string]*rtreego.Rtree{},
		lists: map[string][]model.POI{},
	}
}

// Get returns the full cached POI list for a city.
func (ix *Index) Get(city string) ([]model.POI, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	l, ok := ix.lists[city]
	return l, ok
}

// Put replaces the cached set for a city and rebuilds its tree.
func (ix *Index) Put(city string, pois []model.POI) {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	for _, p := range pois {
		pt := rtreego.Point{p.Lat, p.Lon}
		tree.Insert(&spatialPOI{poi: p, rect: pt.ToRect(tolerance)})
	}
	ix.mu.Lock()
	ix.trees[city] = tree
	ix.lists[city] = pois
	ix.mu.Unlock()
}

// Within returns the cached POIs of a city that fall inside box.
func (ix *Index) Within(city string, box model.BoundingBox) []model.POI {
	ix.mu.RLock()
	tree, ok := ix.trees[city]
	ix.mu.RUnlock()
	if !ok {
		return nil
	}
	rect, err := rtreego.NewRect(
		rtreego.Point{box.South, box.West},
		[]float64{box.North - box.South, box.East - box.West},
	)
	if err != nil {
		return nil
	}
	var out []model.POI
	for _, hit := range tree.SearchIntersect(rect) {
		sp, ok := hit.(*spatialPOI)
		if !ok {
			continue
		}
		// The tree stores slightly inflated rects; re-check membership.
		if box.Contains(sp.poi.Lat, sp.poi.Lon) {
			out = append(out, sp.poi)
		}
	}
	return out
}

// Service combines the Overpass client with the index.
type Service struct {
	Client *Client
	Index  *Index
}

func NewService(c *Client) *Service {
	return &Service{Client: c, Index: NewIndex()}
}

// POIs returns the POI set for a city, serving from the index when present.
func (s *Service) POIs(ctx context.Context, city string, box *model.BoundingBox) ([]model.POI, error) {
	if cached, ok := s.Index.Get(city); ok {
		return cached, nil
	}
	pois, err := s.Client.Discover(ctx, city, box)
	if err != nil {
		return nil, err
	}
	s.Index.Put(city, pois)
	return pois, nil
}
