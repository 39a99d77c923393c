package store

import (
	"context"
	"database/sql"
	"time"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

const joinColumns = `id, client_id, client_route_id, ride_request_id,
	trip_id, status, created_at, decided_at`

func (s *Store) CreateJoinRequest(ctx context.Context, jr models.JoinRequest) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO join_requests (client_id, client_route_id, ride_request_id, trip_id, status)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		jr.ClientID, jr.ClientRouteID, jr.RideRequestID, jr.TripID, jr.Status,
	).Scan(&id)
	if err != nil {
		// Unique index on (trip_id, client_id) where status <> 'rejected'
		// backstops the application-level duplicate check.
		if isUniqueViolation(err) {
			return 0, apperr.Conflict("you already have a request for this trip")
		}
		return 0, apperr.Internal("create join request", err)
	}
	return id, nil
}

func (s *Store) JoinRequestByID(ctx context.Context, id int64) (models.JoinRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+joinColumns+` FROM join_requests WHERE id = $1`, id)
	jr, err := scanJoin(row)
	if err == sql.ErrNoRows {
		return models.JoinRequest{}, apperr.NotFound("join request %d not found", id)
	}
	if err != nil {
		return models.JoinRequest{}, apperr.Internal("load join request", err)
	}
	return jr, nil
}

// PendingJoinForTrip reports whether the client already has a live
// (pending or accepted) request targeting the trip.
func (s *Store) PendingJoinForTrip(ctx context.Context, tripID, clientID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM join_requests
		 WHERE trip_id = $1 AND client_id = $2 AND status <> $3`,
		tripID, clientID, models.JoinRejected).Scan(&n)
	if err != nil {
		return false, apperr.Internal("check duplicate join", err)
	}
	return n > 0, nil
}

// PendingJoinsForDriver lists pending requests across all of a driver's
// trips, oldest first, so the driver panel shows a stable queue.
func (s *Store) PendingJoinsForDriver(ctx context.Context, driverID int64) ([]models.JoinRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT jr.id, jr.client_id, jr.client_route_id, jr.ride_request_id,
			jr.trip_id, jr.status, jr.created_at, jr.decided_at
		 FROM join_requests jr
		 JOIN trips t ON t.id = jr.trip_id
		 WHERE t.driver_id = $1 AND jr.status = $2
		 ORDER BY jr.created_at`,
		driverID, models.JoinPending)
	if err != nil {
		return nil, apperr.Internal("list pending joins", err)
	}
	defer rows.Close()

	var out []models.JoinRequest
	for rows.Next() {
		jr, err := scanJoin(rows)
		if err != nil {
			return nil, apperr.Internal("scan join request", err)
		}
		out = append(out, jr)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("iterate joins", err)
	}
	return out, nil
}

// AcceptResult reports what an accept actually did: Replayed is set when
// the request was already accepted and nothing changed.
type AcceptResult struct {
	Trip      models.Trip
	Request   models.JoinRequest
	Activated bool
	Replayed  bool
}

// AcceptJoin performs the accept decision atomically. The trip row is
// locked before any check so two concurrent accepts serialize and seats
// can never go negative. Accepting an already-accepted request replays
// the current state without mutating anything.
func (s *Store) AcceptJoin(ctx context.Context, requestID, driverID int64) (AcceptResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AcceptResult{}, apperr.Internal("begin accept", err)
	}
	defer tx.Rollback()

	jr, err := lockJoin(ctx, tx, requestID)
	if err != nil {
		return AcceptResult{}, err
	}
	t, err := lockTrip(ctx, tx, jr.TripID)
	if err != nil {
		return AcceptResult{}, err
	}
	if t.DriverID != driverID {
		return AcceptResult{}, apperr.Forbidden("request %d targets another driver's trip", requestID)
	}

	switch jr.Status {
	case models.JoinAccepted:
		if err := tx.Commit(); err != nil {
			return AcceptResult{}, apperr.Internal("commit accept", err)
		}
		if err := s.attachClients(ctx, &t); err != nil {
			return AcceptResult{}, err
		}
		return AcceptResult{Trip: t, Request: jr, Replayed: true}, nil
	case models.JoinRejected:
		return AcceptResult{}, apperr.Conflict("request %d was already rejected", requestID)
	}

	if !t.Status.Joinable() {
		return AcceptResult{}, apperr.Conflict("trip %d is %s", t.ID, t.Status)
	}
	if t.SeatsAvailable <= 0 {
		return AcceptResult{}, apperr.Conflict("trip %d has no seats left", t.ID)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO trip_clients (trip_id, user_id, route_id, joined_at)
		 VALUES ($1,$2,$3,$4)`,
		t.ID, jr.ClientID, jr.ClientRouteID, now); err != nil {
		if isUniqueViolation(err) {
			return AcceptResult{}, apperr.Conflict("client already joined trip %d", t.ID)
		}
		return AcceptResult{}, apperr.Internal("append trip client", err)
	}

	activated := t.Status == models.TripPending
	newStatus := t.Status
	if activated {
		newStatus = models.TripActive
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE trips SET status = $1, seats_available = seats_available - 1
		 WHERE id = $2`, newStatus, t.ID); err != nil {
		return AcceptResult{}, apperr.Internal("update trip on accept", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE join_requests SET status = $1, decided_at = $2 WHERE id = $3`,
		models.JoinAccepted, now, requestID); err != nil {
		return AcceptResult{}, apperr.Internal("update join request", err)
	}

	if jr.RideRequestID != nil {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ride_requests SET status = $1 WHERE id = $2 AND status = $3`,
			models.RequestMatched, *jr.RideRequestID, models.RequestPending); err != nil {
			return AcceptResult{}, apperr.Internal("mark ride request matched", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return AcceptResult{}, apperr.Internal("commit accept", err)
	}

	jr.Status = models.JoinAccepted
	jr.DecidedAt = &now
	t.Status = newStatus
	t.SeatsAvailable--
	if err := s.attachClients(ctx, &t); err != nil {
		return AcceptResult{}, err
	}
	return AcceptResult{Trip: t, Request: jr, Activated: activated}, nil
}

// RejectJoin flips the request status only; the trip is untouched.
func (s *Store) RejectJoin(ctx context.Context, requestID, driverID int64) (models.JoinRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.JoinRequest{}, apperr.Internal("begin reject", err)
	}
	defer tx.Rollback()

	jr, err := lockJoin(ctx, tx, requestID)
	if err != nil {
		return models.JoinRequest{}, err
	}
	t, err := lockTrip(ctx, tx, jr.TripID)
	if err != nil {
		return models.JoinRequest{}, err
	}
	if t.DriverID != driverID {
		return models.JoinRequest{}, apperr.Forbidden("request %d targets another driver's trip", requestID)
	}
	if jr.Status != models.JoinPending {
		return models.JoinRequest{}, apperr.Conflict("request %d was already %s", requestID, jr.Status)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE join_requests SET status = $1, decided_at = $2 WHERE id = $3`,
		models.JoinRejected, now, requestID); err != nil {
		return models.JoinRequest{}, apperr.Internal("update join request", err)
	}
	if err := tx.Commit(); err != nil {
		return models.JoinRequest{}, apperr.Internal("commit reject", err)
	}
	jr.Status = models.JoinRejected
	jr.DecidedAt = &now
	return jr, nil
}

func lockJoin(ctx context.Context, tx *sql.Tx, id int64) (models.JoinRequest, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+joinColumns+` FROM join_requests WHERE id = $1 FOR UPDATE`, id)
	jr, err := scanJoin(row)
	if err == sql.ErrNoRows {
		return models.JoinRequest{}, apperr.NotFound("join request %d not found", id)
	}
	if err != nil {
		return models.JoinRequest{}, apperr.Internal("lock join request", err)
	}
	return jr, nil
}

func scanJoin(row rowScanner) (models.JoinRequest, error) {
	var jr models.JoinRequest
	err := row.Scan(&jr.ID, &jr.ClientID, &jr.ClientRouteID, &jr.RideRequestID,
		&jr.TripID, &jr.Status, &jr.CreatedAt, &jr.DecidedAt)
	if err != nil {
		return models.JoinRequest{}, err
	}
	return jr, nil
}
