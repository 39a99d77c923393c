// Package trips owns the trip lifecycle and the join-request workflow:
// drivers publish routes that spawn pending trips, clients ask to join,
// drivers decide, and every decision is announced on the event bus.
package trips

import (
	"context"

	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/geoindex"
	"carpool-matching-service/models"
	"carpool-matching-service/notify"
	"carpool-matching-service/store"
)

const defaultSeats = 3

type Store interface {
	CreateRoute(ctx context.Context, r models.Route) (int64, error)
	RouteByID(ctx context.Context, id int64) (models.Route, error)
	DeactivateRoute(ctx context.Context, id, ownerID int64) (models.Route, error)

	CreateTrip(ctx context.Context, t models.Trip) (int64, error)
	TripByID(ctx context.Context, id int64) (models.Trip, error)
	TripsForUser(ctx context.Context, userID int64, role models.Role) ([]models.Trip, error)
	TransitionTrip(ctx context.Context, tripID, driverID int64, to models.TripStatus) (models.Trip, error)

	CreateJoinRequest(ctx context.Context, jr models.JoinRequest) (int64, error)
	PendingJoinForTrip(ctx context.Context, tripID, clientID int64) (bool, error)
	PendingJoinsForDriver(ctx context.Context, driverID int64) ([]models.JoinRequest, error)
	AcceptJoin(ctx context.Context, requestID, driverID int64) (store.AcceptResult, error)
	RejectJoin(ctx context.Context, requestID, driverID int64) (models.JoinRequest, error)

	RideRequestByID(ctx context.Context, id int64) (models.RideRequest, error)
}

type Notifier interface {
	Publish(ctx context.Context, eventType string, data any) error
}

type Service struct {
	store  Store
	index  geoindex.Index
	notify Notifier
	log    *zap.Logger
}

func NewService(store Store, index geoindex.Index, notifier Notifier, log *zap.Logger) *Service {
	return &Service{store: store, index: index, notify: notifier, log: log}
}

// CreateRoute publishes a route. For drivers a pending trip is derived
// immediately and the route's start point enters the spatial index.
func (s *Service) CreateRoute(ctx context.Context, r models.Route) (models.Route, *models.Trip, error) {
	if err := validateRoute(&r); err != nil {
		return models.Route{}, nil, err
	}

	id, err := s.store.CreateRoute(ctx, r)
	if err != nil {
		return models.Route{}, nil, err
	}
	r.ID = id
	r.IsActive = true

	if r.Role != models.RoleDriver {
		return r, nil, nil
	}

	trip := models.Trip{
		DriverID:       r.OwnerID,
		RouteID:        r.ID,
		Status:         models.TripPending,
		Price:          r.Price,
		SeatsTotal:     r.Seats,
		SeatsAvailable: r.Seats,
	}
	tripID, err := s.store.CreateTrip(ctx, trip)
	if err != nil {
		return models.Route{}, nil, err
	}
	trip.ID = tripID

	if err := s.index.Add(ctx, r.ID, r.Start.Lat, r.Start.Lng); err != nil {
		s.log.Warn("index add failed", zap.Int64("route_id", r.ID), zap.Error(err))
	}
	s.publish(ctx, notify.EventTripCreated, tripEvent{TripID: trip.ID, DriverID: trip.DriverID, Status: trip.Status})

	return r, &trip, nil
}

// DeactivateRoute soft-deletes a route and removes it from the index.
func (s *Service) DeactivateRoute(ctx context.Context, routeID, ownerID int64) (models.Route, error) {
	r, err := s.store.DeactivateRoute(ctx, routeID, ownerID)
	if err != nil {
		return models.Route{}, err
	}
	if r.Role == models.RoleDriver {
		if err := s.index.Remove(ctx, r.ID, r.Start.Lat, r.Start.Lng); err != nil {
			s.log.Warn("index remove failed", zap.Int64("route_id", r.ID), zap.Error(err))
		}
	}
	return r, nil
}

func (s *Service) TripsForUser(ctx context.Context, userID int64, role models.Role) ([]models.Trip, error) {
	return s.store.TripsForUser(ctx, userID, role)
}

// RequestJoin creates a pending join request from a client route or a
// ride request (exactly one origin).
func (s *Service) RequestJoin(ctx context.Context, clientID int64, clientRouteID, rideRequestID *int64, tripID int64) (models.JoinRequest, error) {
	if (clientRouteID == nil) == (rideRequestID == nil) {
		return models.JoinRequest{}, apperr.Invalid("provide exactly one of client_route_id and ride_request_id")
	}

	trip, err := s.store.TripByID(ctx, tripID)
	if err != nil {
		return models.JoinRequest{}, err
	}
	if !trip.Status.Joinable() {
		return models.JoinRequest{}, apperr.Conflict("trip %d is %s", tripID, trip.Status)
	}
	if trip.DriverID == clientID {
		return models.JoinRequest{}, apperr.Invalid("cannot join your own trip")
	}

	if clientRouteID != nil {
		route, err := s.store.RouteByID(ctx, *clientRouteID)
		if err != nil {
			return models.JoinRequest{}, err
		}
		if route.OwnerID != clientID {
			return models.JoinRequest{}, apperr.Forbidden("route %d does not belong to you", *clientRouteID)
		}
	} else {
		req, err := s.store.RideRequestByID(ctx, *rideRequestID)
		if err != nil {
			return models.JoinRequest{}, err
		}
		if req.ClientID != clientID {
			return models.JoinRequest{}, apperr.Forbidden("ride request %d does not belong to you", *rideRequestID)
		}
		if req.Status != models.RequestPending {
			return models.JoinRequest{}, apperr.Conflict("ride request %d is %s", req.ID, req.Status)
		}
	}

	if dup, err := s.store.PendingJoinForTrip(ctx, tripID, clientID); err != nil {
		return models.JoinRequest{}, err
	} else if dup {
		return models.JoinRequest{}, apperr.Conflict("you already have a request for this trip")
	}
	if trip.SeatsAvailable <= 0 {
		return models.JoinRequest{}, apperr.Conflict("trip %d has no seats left", tripID)
	}

	jr := models.JoinRequest{
		ClientID:      clientID,
		ClientRouteID: clientRouteID,
		RideRequestID: rideRequestID,
		TripID:        tripID,
		Status:        models.JoinPending,
	}
	id, err := s.store.CreateJoinRequest(ctx, jr)
	if err != nil {
		return models.JoinRequest{}, err
	}
	jr.ID = id

	s.publish(ctx, notify.EventJoinRequested, joinEvent{
		RequestID: jr.ID, TripID: tripID, ClientID: clientID, DriverID: trip.DriverID,
	})
	return jr, nil
}

func (s *Service) PendingRequests(ctx context.Context, driverID int64) ([]models.JoinRequest, error) {
	return s.store.PendingJoinsForDriver(ctx, driverID)
}

// HandleRequest records the driver's decision. Accepts are atomic in the
// store; re-accepting an accepted request replays the current state.
func (s *Service) HandleRequest(ctx context.Context, driverID, requestID int64, decision models.JoinStatus) (models.JoinRequest, *models.Trip, error) {
	switch decision {
	case models.JoinAccepted:
		res, err := s.store.AcceptJoin(ctx, requestID, driverID)
		if err != nil {
			return models.JoinRequest{}, nil, err
		}
		if !res.Replayed {
			s.publish(ctx, notify.EventJoinAccepted, joinEvent{
				RequestID: res.Request.ID, TripID: res.Trip.ID,
				ClientID: res.Request.ClientID, DriverID: driverID,
			})
		}
		return res.Request, &res.Trip, nil
	case models.JoinRejected:
		jr, err := s.store.RejectJoin(ctx, requestID, driverID)
		if err != nil {
			return models.JoinRequest{}, nil, err
		}
		s.publish(ctx, notify.EventJoinRejected, joinEvent{
			RequestID: jr.ID, TripID: jr.TripID,
			ClientID: jr.ClientID, DriverID: driverID,
		})
		return jr, nil, nil
	default:
		return models.JoinRequest{}, nil, apperr.Invalid("decision must be %q or %q", models.JoinAccepted, models.JoinRejected)
	}
}

func (s *Service) CancelTrip(ctx context.Context, driverID, tripID int64) (models.Trip, error) {
	t, err := s.store.TransitionTrip(ctx, tripID, driverID, models.TripCancelled)
	if err != nil {
		return models.Trip{}, err
	}
	s.publish(ctx, notify.EventTripCancelled, tripEvent{TripID: t.ID, DriverID: driverID, Status: t.Status})
	return t, nil
}

func (s *Service) CompleteTrip(ctx context.Context, driverID, tripID int64) (models.Trip, error) {
	t, err := s.store.TransitionTrip(ctx, tripID, driverID, models.TripCompleted)
	if err != nil {
		return models.Trip{}, err
	}
	s.publish(ctx, notify.EventTripCompleted, tripEvent{TripID: t.ID, DriverID: driverID, Status: t.Status})
	return t, nil
}

// publish is fire-and-forget: a broker hiccup never fails the request.
func (s *Service) publish(ctx context.Context, eventType string, data any) {
	if err := s.notify.Publish(ctx, eventType, data); err != nil {
		s.log.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

type joinEvent struct {
	RequestID int64 `json:"request_id"`
	TripID    int64 `json:"trip_id"`
	ClientID  int64 `json:"client_id"`
	DriverID  int64 `json:"driver_id"`
}

type tripEvent struct {
	TripID   int64             `json:"trip_id"`
	DriverID int64             `json:"driver_id"`
	Status   models.TripStatus `json:"status"`
}

func validateRoute(r *models.Route) error {
	if r.Role != models.RoleDriver && r.Role != models.RoleClient {
		return apperr.Invalid("role must be %q or %q", models.RoleDriver, models.RoleClient)
	}
	if err := r.Start.Validate(); err != nil {
		return apperr.Invalid("invalid start point: %v", err)
	}
	if err := r.End.Validate(); err != nil {
		return apperr.Invalid("invalid end point: %v", err)
	}
	for i, wp := range r.Waypoints {
		if err := wp.Validate(); err != nil {
			return apperr.Invalid("invalid waypoint %d: %v", i, err)
		}
	}
	if r.Schedule.Days.IsEmpty() {
		return apperr.Invalid("schedule needs at least one day")
	}
	if r.Price.Amount < 0 {
		return apperr.Invalid("price cannot be negative")
	}
	if r.Seats < 0 {
		return apperr.Invalid("seats cannot be negative")
	}
	if r.Seats == 0 {
		r.Seats = defaultSeats
	}
	return nil
}
