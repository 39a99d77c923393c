package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"carpool-matching-service/apperr"
)

// errorBody is the envelope all failures share. Stack is only populated
// for panics outside production.
type errorBody struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	default:
		s.log.Error("unhandled error", zap.Error(err))
	}
	s.writeJSON(w, status, errorBody{Msg: apperr.Message(err)})
}
