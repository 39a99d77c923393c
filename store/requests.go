package store

import (
	"context"
	"database/sql"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

const rideRequestColumns = `id, client_id,
	pickup_lat, pickup_lng, pickup_address,
	dest_lat, dest_lng, dest_address,
	days, departure_min, status, created_at`

func (s *Store) CreateRideRequest(ctx context.Context, r models.RideRequest) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO ride_requests (client_id,
			pickup_lat, pickup_lng, pickup_address,
			dest_lat, dest_lng, dest_address,
			days, departure_min, status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		r.ClientID,
		r.Pickup.Lat, r.Pickup.Lng, r.Pickup.Address,
		r.Destination.Lat, r.Destination.Lng, r.Destination.Address,
		int(r.Schedule.Days), int(r.Schedule.Departure), r.Status,
	).Scan(&id)
	if err != nil {
		return 0, apperr.Internal("create ride request", err)
	}
	return id, nil
}

func (s *Store) RideRequestByID(ctx context.Context, id int64) (models.RideRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+rideRequestColumns+` FROM ride_requests WHERE id = $1`, id)
	r, err := scanRideRequest(row)
	if err == sql.ErrNoRows {
		return models.RideRequest{}, apperr.NotFound("ride request %d not found", id)
	}
	if err != nil {
		return models.RideRequest{}, apperr.Internal("load ride request", err)
	}
	return r, nil
}

func (s *Store) RideRequestsForClient(ctx context.Context, clientID int64) ([]models.RideRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+rideRequestColumns+` FROM ride_requests
		 WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, apperr.Internal("list ride requests", err)
	}
	defer rows.Close()

	var out []models.RideRequest
	for rows.Next() {
		r, err := scanRideRequest(rows)
		if err != nil {
			return nil, apperr.Internal("scan ride request", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate ride requests", err)
	}
	return out, nil
}

// TransitionRideRequest enforces the monotonic status order in a single
// guarded UPDATE; zero rows affected means the transition was invalid.
func (s *Store) TransitionRideRequest(ctx context.Context, id, clientID int64, from, to models.RequestStatus) (models.RideRequest, error) {
	r, err := s.RideRequestByID(ctx, id)
	if err != nil {
		return models.RideRequest{}, err
	}
	if r.ClientID != clientID {
		return models.RideRequest{}, apperr.Forbidden("ride request %d does not belong to you", id)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE ride_requests SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return models.RideRequest{}, apperr.Internal("transition ride request", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.RideRequest{}, apperr.Conflict("ride request %d is no longer %s", id, from)
	}
	r.Status = to
	return r, nil
}

func scanRideRequest(row rowScanner) (models.RideRequest, error) {
	var (
		r         models.RideRequest
		days      int
		departure int
	)
	err := row.Scan(&r.ID, &r.ClientID,
		&r.Pickup.Lat, &r.Pickup.Lng, &r.Pickup.Address,
		&r.Destination.Lat, &r.Destination.Lng, &r.Destination.Address,
		&days, &departure, &r.Status, &r.CreatedAt)
	if err != nil {
		return models.RideRequest{}, err
	}
	r.Schedule.Days = models.DaySet(days)
	r.Schedule.Departure = models.DayTime(departure)
	return r, nil
}
