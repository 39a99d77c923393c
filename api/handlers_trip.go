package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, apperr.Invalid("invalid %s", name)
	}
	return id, nil
}

func (s *Server) handleCreateRoute(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var body struct {
		Role      models.Role       `json:"role"`
		CarID     *int64            `json:"car_id"`
		Start     models.GeoPoint   `json:"start"`
		End       models.GeoPoint   `json:"end"`
		Waypoints []models.GeoPoint `json:"waypoints"`
		Polyline  string            `json:"polyline"`
		Schedule  models.Schedule   `json:"schedule"`
		Distance  float64           `json:"distance_km"`
		Duration  int               `json:"duration_min"`
		Price     models.Price      `json:"price"`
		Seats     int               `json:"seats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload: %v", err))
		return
	}
	// The mobile app sends the role in the body; it must agree with the
	// session.
	if body.Role == "" {
		body.Role = claims.Role
	}
	if body.Role != claims.Role {
		s.writeError(w, apperr.Forbidden("cannot create a %s route as %s", body.Role, claims.Role))
		return
	}

	route := models.Route{
		OwnerID:     claims.UserID,
		Role:        body.Role,
		CarID:       body.CarID,
		Start:       body.Start,
		End:         body.End,
		Waypoints:   body.Waypoints,
		Polyline:    body.Polyline,
		Schedule:    body.Schedule,
		DistanceKm:  body.Distance,
		DurationMin: body.Duration,
		Price:       body.Price,
		Seats:       body.Seats,
	}
	route, trip, err := s.trips.CreateRoute(r.Context(), route)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"route": route,
		"trip":  trip,
	})
}

func (s *Server) handleDeactivateRoute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "route_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	route, err := s.trips.DeactivateRoute(r.Context(), id, claimsFrom(r).UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, route)
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	list, err := s.trips.TripsForUser(r.Context(), claims.UserID, claims.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Trip{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRouteMatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "client_route_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	candidates, err := s.matcher.MatchesForRoute(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleRequestJoin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ClientRouteID *int64 `json:"client_route_id"`
		RideRequestID *int64 `json:"ride_request_id"`
		TripID        int64  `json:"trip_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload"))
		return
	}
	jr, err := s.trips.RequestJoin(r.Context(), claimsFrom(r).UserID,
		body.ClientRouteID, body.RideRequestID, body.TripID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, jr)
}

func (s *Server) handleDriverRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.trips.PendingRequests(r.Context(), claimsFrom(r).UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.JoinRequest{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleDecideRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RequestID int64             `json:"request_id"`
		Status    models.JoinStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload"))
		return
	}
	jr, trip, err := s.trips.HandleRequest(r.Context(), claimsFrom(r).UserID, body.RequestID, body.Status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"request": jr,
		"trip":    trip,
	})
}

func (s *Server) handleCancelTrip(w http.ResponseWriter, r *http.Request) {
	s.transitionTrip(w, r, models.TripCancelled)
}

func (s *Server) handleCompleteTrip(w http.ResponseWriter, r *http.Request) {
	s.transitionTrip(w, r, models.TripCompleted)
}

func (s *Server) transitionTrip(w http.ResponseWriter, r *http.Request, to models.TripStatus) {
	id, err := pathID(r, "trip_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var (
		trip models.Trip
	)
	switch to {
	case models.TripCancelled:
		trip, err = s.trips.CancelTrip(r.Context(), claimsFrom(r).UserID, id)
	default:
		trip, err = s.trips.CompleteTrip(r.Context(), claimsFrom(r).UserID, id)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trip)
}
