package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

const routeColumns = `id, owner_id, role, car_id,
	start_lat, start_lng, start_address, end_lat, end_lng, end_address,
	waypoints, polyline, days, departure_min, arrival_min,
	distance_km, duration_min, price_amount, price_per_km, seats,
	is_active, created_at`

func (s *Store) CreateRoute(ctx context.Context, r models.Route) (int64, error) {
	waypoints, err := json.Marshal(r.Waypoints)
	if err != nil {
		return 0, apperr.Internal("encode waypoints", err)
	}
	var arrival *int
	if r.Schedule.Arrival != nil {
		v := int(*r.Schedule.Arrival)
		arrival = &v
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO routes (owner_id, role, car_id,
			start_lat, start_lng, start_address, end_lat, end_lng, end_address,
			waypoints, polyline, days, departure_min, arrival_min,
			distance_km, duration_min, price_amount, price_per_km, seats, is_active)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,true)
		 RETURNING id`,
		r.OwnerID, r.Role, r.CarID,
		r.Start.Lat, r.Start.Lng, r.Start.Address,
		r.End.Lat, r.End.Lng, r.End.Address,
		waypoints, r.Polyline, int(r.Schedule.Days), int(r.Schedule.Departure), arrival,
		r.DistanceKm, r.DurationMin, r.Price.Amount, r.Price.PerKm, r.Seats,
	).Scan(&id)
	if err != nil {
		return 0, apperr.Internal("create route", err)
	}
	return id, nil
}

func (s *Store) RouteByID(ctx context.Context, id int64) (models.Route, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE id = $1`, id)
	r, err := scanRoute(row)
	if err == sql.ErrNoRows {
		return models.Route{}, apperr.NotFound("route %d not found", id)
	}
	if err != nil {
		return models.Route{}, apperr.Internal("load route", err)
	}
	return r, nil
}

// ActiveDriverRoutesByIDs loads the subset of ids that are active driver
// routes, for the matcher's refinement pass.
func (s *Store) ActiveDriverRoutesByIDs(ctx context.Context, ids []int64) ([]models.Route, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+routeColumns+` FROM routes
		 WHERE id = ANY($1) AND role = $2 AND is_active`,
		pq.Array(ids), models.RoleDriver)
	if err != nil {
		return nil, apperr.Internal("load routes", err)
	}
	defer rows.Close()
	return collectRoutes(rows)
}

// ActiveDriverRoutes streams every active driver route; used to rebuild
// the spatial index at startup.
func (s *Store) ActiveDriverRoutes(ctx context.Context) ([]models.Route, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+routeColumns+` FROM routes WHERE role = $1 AND is_active`,
		models.RoleDriver)
	if err != nil {
		return nil, apperr.Internal("load active driver routes", err)
	}
	defer rows.Close()
	return collectRoutes(rows)
}

// DeactivateRoute soft-deletes: routes are never hard-deleted because
// trips and join requests reference them.
func (s *Store) DeactivateRoute(ctx context.Context, id, ownerID int64) (models.Route, error) {
	r, err := s.RouteByID(ctx, id)
	if err != nil {
		return models.Route{}, err
	}
	if r.OwnerID != ownerID {
		return models.Route{}, apperr.Forbidden("route %d does not belong to you", id)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE routes SET is_active = false WHERE id = $1`, id); err != nil {
		return models.Route{}, apperr.Internal("deactivate route", err)
	}
	r.IsActive = false
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (models.Route, error) {
	var (
		r         models.Route
		waypoints []byte
		days      int
		departure int
		arrival   *int
	)
	err := row.Scan(&r.ID, &r.OwnerID, &r.Role, &r.CarID,
		&r.Start.Lat, &r.Start.Lng, &r.Start.Address,
		&r.End.Lat, &r.End.Lng, &r.End.Address,
		&waypoints, &r.Polyline, &days, &departure, &arrival,
		&r.DistanceKm, &r.DurationMin, &r.Price.Amount, &r.Price.PerKm, &r.Seats,
		&r.IsActive, &r.CreatedAt)
	if err != nil {
		return models.Route{}, err
	}
	if len(waypoints) > 0 {
		if err := json.Unmarshal(waypoints, &r.Waypoints); err != nil {
			return models.Route{}, err
		}
	}
	r.Schedule.Days = models.DaySet(days)
	r.Schedule.Departure = models.DayTime(departure)
	if arrival != nil {
		t := models.DayTime(*arrival)
		r.Schedule.Arrival = &t
	}
	return r, nil
}

func collectRoutes(rows *sql.Rows) ([]models.Route, error) {
	var out []models.Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, apperr.Internal("scan route", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate routes", err)
	}
	return out, nil
}
