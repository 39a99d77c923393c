// Package geoindex provides spatial lookup of active driver-route start
// points. Three interchangeable techniques are supported: an in-process
// R-tree, an in-process quadtree, and a Redis-backed geohash cell index
// shared between replicas.
package geoindex

import (
	"context"

	"github.com/go-redis/redis/v8"

	"carpool-matching-service/config"
)

// Index answers "which routes start near this point". Results are a
// superset of the true matches; callers re-check exact distance.
type Index interface {
	Add(ctx context.Context, id int64, lat, lng float64) error
	Remove(ctx context.Context, id int64, lat, lng float64) error
	Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]int64, error)
}

// New selects the indexing technique from configuration.
func New(cfg config.MatchConfig, rdb *redis.Client) Index {
	switch cfg.Index {
	case "geohash":
		if rdb != nil {
			return NewGeohashCache(rdb, cfg.GeohashPrecision)
		}
	case "quadtree":
		return NewQuadtree()
	}
	return NewRTree()
}
