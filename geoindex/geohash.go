package geoindex

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/mmcloughlin/geohash"
)

// GeohashCache keeps route ids in Redis sets keyed by geohash cell, so
// several service replicas can share one index. A lookup scans every
// cell the search circle can touch and leaves exact distance checks to
// the caller.
type GeohashCache struct {
	rdb       *redis.Client
	precision uint
}

func NewGeohashCache(rdb *redis.Client, precision uint) *GeohashCache {
	if precision == 0 {
		precision = 5
	}
	return &GeohashCache{rdb: rdb, precision: precision}
}

func cellKey(cell string) string {
	return fmt.Sprintf("routes:%s", cell)
}

func (g *GeohashCache) Add(ctx context.Context, id int64, lat, lng float64) error {
	cell := geohash.EncodeWithPrecision(lat, lng, g.precision)
	return g.rdb.SAdd(ctx, cellKey(cell), id).Err()
}

func (g *GeohashCache) Remove(ctx context.Context, id int64, lat, lng float64) error {
	cell := geohash.EncodeWithPrecision(lat, lng, g.precision)
	return g.rdb.SRem(ctx, cellKey(cell), id).Err()
}

func (g *GeohashCache) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]int64, error) {
	var ids []int64
	for _, cell := range coverCells(lat, lng, radiusKm, g.precision) {
		members, err := g.rdb.SMembers(ctx, cellKey(cell)).Result()
		if err != nil {
			return nil, fmt.Errorf("read cell %s: %w", cell, err)
		}
		for _, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// coverCells enumerates every geohash cell at the given precision that
// can hold a point within radiusKm of (lat, lng). Cell extent in
// degrees is fixed per precision, but the kilometre width shrinks with
// latitude, so the number of rings is derived from the radius rather
// than assuming the immediate neighbors suffice.
func coverCells(lat, lng, radiusKm float64, precision uint) []string {
	center := geohash.EncodeWithPrecision(lat, lng, precision)
	box := geohash.BoundingBox(center)
	latStep := box.MaxLat - box.MinLat
	lngStep := box.MaxLng - box.MinLng

	latDelta := radiusKm / kmPerDegreeLat
	lngDelta := latDelta
	if cos := math.Cos(lat * math.Pi / 180); cos > 0.01 {
		lngDelta = radiusKm / (kmPerDegreeLat * cos)
	}
	latRings := int(math.Ceil(latDelta / latStep))
	lngRings := int(math.Ceil(lngDelta / lngStep))

	seen := make(map[string]struct{})
	cells := make([]string, 0, (2*latRings+1)*(2*lngRings+1))
	for i := -latRings; i <= latRings; i++ {
		la := lat + float64(i)*latStep
		if la > 90 {
			la = 90
		} else if la < -90 {
			la = -90
		}
		for j := -lngRings; j <= lngRings; j++ {
			lo := lng + float64(j)*lngStep
			for lo > 180 {
				lo -= 360
			}
			for lo < -180 {
				lo += 360
			}
			cell := geohash.EncodeWithPrecision(la, lo, precision)
			if _, ok := seen[cell]; ok {
				continue
			}
			seen[cell] = struct{}{}
			cells = append(cells, cell)
		}
	}
	return cells
}
