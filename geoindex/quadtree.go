package geoindex

import (
	"context"
	"math"
	"sync"
)

// quadLeafCapacity is how many points a leaf holds before splitting.
const quadLeafCapacity = 4

type quadPoint struct {
	id  int64
	lat float64
	lng float64
}

type quadNode struct {
	minLat, minLng float64
	maxLat, maxLng float64
	points         []quadPoint
	children       *[4]*quadNode
}

// Quadtree is an in-process spatial index over route start points,
// alternative to the R-tree; useful when insert-heavy workloads make
// the R-tree's rebalancing a bottleneck.
type Quadtree struct {
	mu   sync.Mutex
	root *quadNode
}

func NewQuadtree() *Quadtree {
	return &Quadtree{root: &quadNode{minLat: -90, minLng: -180, maxLat: 90, maxLng: 180}}
}

func (q *Quadtree) Add(_ context.Context, id int64, lat, lng float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.root.removeByID(id)
	q.root.insert(quadPoint{id: id, lat: lat, lng: lng})
	return nil
}

func (q *Quadtree) Remove(_ context.Context, id int64, _, _ float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.root.removeByID(id)
	return nil
}

func (q *Quadtree) Nearby(_ context.Context, lat, lng, radiusKm float64) ([]int64, error) {
	latDelta := radiusKm / kmPerDegreeLat
	lngDelta := latDelta
	if cos := math.Cos(lat * math.Pi / 180); cos > 0.01 {
		lngDelta = radiusKm / (kmPerDegreeLat * cos)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	var ids []int64
	q.root.search(lat-latDelta, lng-lngDelta, lat+latDelta, lng+lngDelta, func(p quadPoint) {
		if HaversineKm(lat, lng, p.lat, p.lng) <= radiusKm {
			ids = append(ids, p.id)
		}
	})
	return ids, nil
}

func (n *quadNode) contains(lat, lng float64) bool {
	return lat >= n.minLat && lat <= n.maxLat && lng >= n.minLng && lng <= n.maxLng
}

func (n *quadNode) insert(p quadPoint) {
	if !n.contains(p.lat, p.lng) {
		return
	}
	if n.children == nil {
		if len(n.points) < quadLeafCapacity {
			n.points = append(n.points, p)
			return
		}
		n.subdivide()
	}
	for _, child := range n.children {
		if child.contains(p.lat, p.lng) {
			child.insert(p)
			return
		}
	}
}

func (n *quadNode) subdivide() {
	midLat := (n.minLat + n.maxLat) / 2
	midLng := (n.minLng + n.maxLng) / 2
	n.children = &[4]*quadNode{
		{minLat: n.minLat, minLng: n.minLng, maxLat: midLat, maxLng: midLng},
		{minLat: n.minLat, minLng: midLng, maxLat: midLat, maxLng: n.maxLng},
		{minLat: midLat, minLng: n.minLng, maxLat: n.maxLat, maxLng: midLng},
		{minLat: midLat, minLng: midLng, maxLat: n.maxLat, maxLng: n.maxLng},
	}
	points := n.points
	n.points = nil
	for _, p := range points {
		for _, child := range n.children {
			if child.contains(p.lat, p.lng) {
				child.points = append(child.points, p)
				break
			}
		}
	}
}

func (n *quadNode) removeByID(id int64) bool {
	for i, p := range n.points {
		if p.id == id {
			n.points = append(n.points[:i], n.points[i+1:]...)
			return true
		}
	}
	if n.children == nil {
		return false
	}
	for _, child := range n.children {
		if child.removeByID(id) {
			return true
		}
	}
	return false
}

func (n *quadNode) search(minLat, minLng, maxLat, maxLng float64, visit func(quadPoint)) {
	if n.minLat > maxLat || n.maxLat < minLat || n.minLng > maxLng || n.maxLng < minLng {
		return
	}
	for _, p := range n.points {
		if p.lat >= minLat && p.lat <= maxLat && p.lng >= minLng && p.lng <= maxLng {
			visit(p)
		}
	}
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		child.search(minLat, minLng, maxLat, maxLng, visit)
	}
}
