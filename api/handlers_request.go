package api

import (
	"encoding/json"
	"net/http"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

func (s *Server) handleCreateRideRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pickup      models.GeoPoint `json:"pickup"`
		Destination models.GeoPoint `json:"destination"`
		Schedule    models.Schedule `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload: %v", err))
		return
	}
	req, err := s.requests.Create(r.Context(), models.RideRequest{
		ClientID:    claimsFrom(r).UserID,
		Pickup:      body.Pickup,
		Destination: body.Destination,
		Schedule:    body.Schedule,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleListRideRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.requests.List(r.Context(), claimsFrom(r).UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.RideRequest{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRequestMatches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "request_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	candidates, err := s.matcher.MatchesForRequest(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleCancelRideRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "request_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	req, err := s.requests.Cancel(r.Context(), id, claimsFrom(r).UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}
