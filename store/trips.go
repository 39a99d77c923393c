package store

import (
	"context"
	"database/sql"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

const tripColumns = `id, driver_id, route_id, status,
	price_amount, price_per_km, seats_total, seats_available, created_at`

func (s *Store) CreateTrip(ctx context.Context, t models.Trip) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO trips (driver_id, route_id, status,
			price_amount, price_per_km, seats_total, seats_available)
		 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		t.DriverID, t.RouteID, t.Status,
		t.Price.Amount, t.Price.PerKm, t.SeatsTotal, t.SeatsAvailable,
	).Scan(&id)
	if err != nil {
		return 0, apperr.Internal("create trip", err)
	}
	return id, nil
}

func (s *Store) TripByID(ctx context.Context, id int64) (models.Trip, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return models.Trip{}, apperr.NotFound("trip %d not found", id)
	}
	if err != nil {
		return models.Trip{}, apperr.Internal("load trip", err)
	}
	if err := s.attachClients(ctx, &t); err != nil {
		return models.Trip{}, err
	}
	return t, nil
}

// LiveTripForRoute returns the most recent non-terminal trip derived
// from a driver route, or nil when the route has no live instance.
func (s *Store) LiveTripForRoute(ctx context.Context, routeID int64) (*models.Trip, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips
		 WHERE route_id = $1 AND status IN ($2, $3)
		 ORDER BY created_at DESC LIMIT 1`,
		routeID, models.TripPending, models.TripActive)
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("load live trip", err)
	}
	if err := s.attachClients(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// TripsForUser lists a driver's own trips or the trips a client has
// joined, newest first.
func (s *Store) TripsForUser(ctx context.Context, userID int64, role models.Role) ([]models.Trip, error) {
	var query string
	switch role {
	case models.RoleDriver:
		query = `SELECT ` + tripColumns + ` FROM trips
			WHERE driver_id = $1 ORDER BY created_at DESC`
	default:
		query = `SELECT ` + tripColumns + ` FROM trips
			WHERE id IN (SELECT trip_id FROM trip_clients WHERE user_id = $1)
			ORDER BY created_at DESC`
	}
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperr.Internal("list trips", err)
	}
	defer rows.Close()

	var out []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, apperr.Internal("scan trip", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate trips", err)
	}
	for i := range out {
		if err := s.attachClients(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// TransitionTrip moves a trip to a new status on behalf of its driver.
// The trip row is locked so concurrent joins and status changes
// serialize; linked ride requests are completed alongside the trip.
func (s *Store) TransitionTrip(ctx context.Context, tripID, driverID int64, to models.TripStatus) (models.Trip, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Trip{}, apperr.Internal("begin transition", err)
	}
	defer tx.Rollback()

	t, err := lockTrip(ctx, tx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if t.DriverID != driverID {
		return models.Trip{}, apperr.Forbidden("trip %d does not belong to you", tripID)
	}
	if !t.Status.CanTransition(to) {
		return models.Trip{}, apperr.Conflict("cannot move trip from %s to %s", t.Status, to)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE trips SET status = $1 WHERE id = $2`, to, tripID); err != nil {
		return models.Trip{}, apperr.Internal("update trip status", err)
	}

	if to == models.TripCompleted {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ride_requests SET status = $1
			 WHERE status = $2 AND id IN (
				SELECT ride_request_id FROM join_requests
				WHERE trip_id = $3 AND status = $4 AND ride_request_id IS NOT NULL)`,
			models.RequestCompleted, models.RequestMatched,
			tripID, models.JoinAccepted); err != nil {
			return models.Trip{}, apperr.Internal("complete linked ride requests", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Trip{}, apperr.Internal("commit transition", err)
	}
	t.Status = to
	if err := s.attachClients(ctx, &t); err != nil {
		return models.Trip{}, err
	}
	return t, nil
}

func lockTrip(ctx context.Context, tx *sql.Tx, tripID int64) (models.Trip, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, tripID)
	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return models.Trip{}, apperr.NotFound("trip %d not found", tripID)
	}
	if err != nil {
		return models.Trip{}, apperr.Internal("lock trip", err)
	}
	return t, nil
}

func scanTrip(row rowScanner) (models.Trip, error) {
	var t models.Trip
	err := row.Scan(&t.ID, &t.DriverID, &t.RouteID, &t.Status,
		&t.Price.Amount, &t.Price.PerKm, &t.SeatsTotal, &t.SeatsAvailable, &t.CreatedAt)
	if err != nil {
		return models.Trip{}, err
	}
	return t, nil
}

func (s *Store) attachClients(ctx context.Context, t *models.Trip) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, route_id, joined_at FROM trip_clients
		 WHERE trip_id = $1 ORDER BY joined_at`, t.ID)
	if err != nil {
		return apperr.Internal("load trip clients", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.TripClient
		if err := rows.Scan(&c.UserID, &c.RouteID, &c.JoinedAt); err != nil {
			return apperr.Internal("scan trip client", err)
		}
		t.Clients = append(t.Clients, c)
	}
	return rows.Err()
}
