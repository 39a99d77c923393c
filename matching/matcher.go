// Package matching resolves client routes and ride requests to
// compatible driver trips. A lookup is a pure read: candidate discovery
// through the spatial index, then exact filtering on distance and
// schedule, then a deterministic ordering by proximity.
package matching

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/config"
	"carpool-matching-service/geoindex"
	"carpool-matching-service/models"
)

type Store interface {
	RouteByID(ctx context.Context, id int64) (models.Route, error)
	RideRequestByID(ctx context.Context, id int64) (models.RideRequest, error)
	ActiveDriverRoutesByIDs(ctx context.Context, ids []int64) ([]models.Route, error)
	LiveTripForRoute(ctx context.Context, routeID int64) (*models.Trip, error)
}

// Candidate pairs a compatible driver route with its live trip. Trip is
// nil when the route currently has no joinable instance.
type Candidate struct {
	Route   models.Route `json:"route"`
	Trip    *models.Trip `json:"trip"`
	StartKm float64      `json:"start_km"`
	EndKm   float64      `json:"end_km"`
}

type Matcher struct {
	store Store
	index geoindex.Index
	cfg   config.MatchConfig
	log   *zap.Logger
}

func New(store Store, index geoindex.Index, cfg config.MatchConfig, log *zap.Logger) *Matcher {
	return &Matcher{store: store, index: index, cfg: cfg, log: log}
}

// MatchesForRoute finds driver trips compatible with a client route.
func (m *Matcher) MatchesForRoute(ctx context.Context, clientRouteID int64) ([]Candidate, error) {
	route, err := m.store.RouteByID(ctx, clientRouteID)
	if err != nil {
		return nil, err
	}
	if route.Role != models.RoleClient {
		return nil, apperr.Invalid("route %d is not a client route", clientRouteID)
	}
	return m.candidates(ctx, route.Start, route.End, route.Schedule)
}

// MatchesForRequest finds driver trips compatible with a standalone ride
// request.
func (m *Matcher) MatchesForRequest(ctx context.Context, requestID int64) ([]Candidate, error) {
	req, err := m.store.RideRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return m.candidates(ctx, req.Pickup, req.Destination, req.Schedule)
}

func (m *Matcher) candidates(ctx context.Context, start, end models.GeoPoint, schedule models.Schedule) ([]Candidate, error) {
	ids, err := m.index.Nearby(ctx, start.Lat, start.Lng, m.cfg.RadiusKm)
	if err != nil {
		return nil, apperr.Internal("spatial lookup", err)
	}
	if len(ids) == 0 {
		return []Candidate{}, nil
	}

	routes, err := m.store.ActiveDriverRoutesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := []Candidate{}
	for _, r := range routes {
		startKm := geoindex.HaversineKm(start.Lat, start.Lng, r.Start.Lat, r.Start.Lng)
		if startKm > m.cfg.RadiusKm {
			continue
		}
		endKm := geoindex.HaversineKm(end.Lat, end.Lng, r.End.Lat, r.End.Lng)
		if endKm > m.cfg.RadiusKm {
			continue
		}
		if !schedule.Overlaps(r.Schedule, m.cfg.TimeToleranceMin) {
			continue
		}

		trip, err := m.store.LiveTripForRoute(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Candidate{Route: r, Trip: trip, StartKm: startKm, EndKm: endKm})
	}

	// Closest combined proximity first; route id breaks ties so repeated
	// lookups return the same order.
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].StartKm+out[i].EndKm, out[j].StartKm+out[j].EndKm
		if di != dj {
			return di < dj
		}
		return out[i].Route.ID < out[j].Route.ID
	})

	m.log.Debug("match lookup",
		zap.Int("indexed", len(ids)),
		zap.Int("candidates", len(out)))
	return out, nil
}
