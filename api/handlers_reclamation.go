package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/models"
)

func (s *Server) handleCreateReclamation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload"))
		return
	}
	rec, err := s.support.Create(r.Context(), claimsFrom(r).UserID, body.Subject, body.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleListReclamations(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	list, err := s.support.List(r.Context(), claims.UserID, claims.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Reclamation{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleReclamationMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reclamation_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	claims := claimsFrom(r)
	list, err := s.support.Messages(r.Context(), id, claims.UserID, claims.Role)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.ReclamationMessage{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddReclamationMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reclamation_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload"))
		return
	}
	claims := claimsFrom(r)
	msg, err := s.support.AddMessage(r.Context(), id, claims.UserID, claims.Role, body.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleSetReclamationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "reclamation_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body struct {
		Status models.ReclamationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, apperr.Invalid("invalid request payload"))
		return
	}
	if err := s.support.SetStatus(r.Context(), id, claimsFrom(r).Role, body.Status); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"msg": "status updated"})
}

// handleReclamationSocket upgrades to a WebSocket and streams ticket
// updates. Browsers cannot set custom headers on WS handshakes, so the
// token also comes in as a query parameter.
func (s *Server) handleReclamationSocket(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("x-auth-token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	claims, err := s.auth.ParseToken(token)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, errorBody{Msg: "token is not valid"})
		return
	}
	id, err := pathID(r, "reclamation_id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.support.CanSubscribe(r.Context(), id, claims.UserID, claims.Role); err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := s.support.Hub().Subscribe(id)
	done := make(chan struct{})

	// Reader: we ignore client messages, but the read loop notices the
	// peer going away.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.support.Hub().Unsubscribe(id, sub)
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-sub.Send:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
