package geoindex

import (
	"context"
	"math"
	"sync"

	"github.com/dhconnelly/rtreego"
)

// pointExtent is the tiny bounding box used to store points in the tree.
const pointExtent = 0.0001

type routePoint struct {
	id  int64
	loc rtreego.Point // {lat, lng}
}

func (p *routePoint) Bounds() rtreego.Rect {
	return p.loc.ToRect(pointExtent)
}

// RTree is an in-process spatial index over route start points. It is
// rebuilt from the routes table at startup.
type RTree struct {
	mu    sync.Mutex
	tree  *rtreego.Rtree
	items map[int64]*routePoint
}

func NewRTree() *RTree {
	return &RTree{
		tree:  rtreego.NewTree(2, 25, 50),
		items: make(map[int64]*routePoint),
	}
}

func (r *RTree) Add(_ context.Context, id int64, lat, lng float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.items[id]; ok {
		r.tree.Delete(old)
	}
	p := &routePoint{id: id, loc: rtreego.Point{lat, lng}}
	r.items[id] = p
	r.tree.Insert(p)
	return nil
}

func (r *RTree) Remove(_ context.Context, id int64, _, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.items[id]; ok {
		r.tree.Delete(p)
		delete(r.items, id)
	}
	return nil
}

func (r *RTree) Nearby(_ context.Context, lat, lng, radiusKm float64) ([]int64, error) {
	latDelta := radiusKm / kmPerDegreeLat
	lngDelta := latDelta
	if cos := math.Cos(lat * math.Pi / 180); cos > 0.01 {
		lngDelta = radiusKm / (kmPerDegreeLat * cos)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	corner := rtreego.Point{lat - latDelta, lng - lngDelta}
	rect, err := rtreego.NewRect(corner, []float64{2 * latDelta, 2 * lngDelta})
	if err != nil {
		return nil, err
	}

	var ids []int64
	for _, hit := range r.tree.SearchIntersect(rect) {
		p := hit.(*routePoint)
		if HaversineKm(lat, lng, p.loc[0], p.loc[1]) <= radiusKm {
			ids = append(ids, p.id)
		}
	}
	return ids, nil
}
