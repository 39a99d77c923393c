package api

import (
	"encoding/json"
	"net/http"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RevieweeID int64  `json:"reviewee_id"`
		TripID     *int64 `json:"trip_id"`
		Rating     int    `json:"rating"`
		Comment    string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload"))
		return
	}
	review, err := s.reviews.Create(r.Context(), models.Review{
		ReviewerID: claimsFrom(r).UserID,
		RevieweeID: body.RevieweeID,
		TripID:     body.TripID,
		Rating:     body.Rating,
		Comment:    body.Comment,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	list, err := s.reviews.ForUser(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Review{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "review_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.reviews.Delete(r.Context(), claimsFrom(r).Role, id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"msg": "review deleted"})
}
