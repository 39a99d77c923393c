// Package api exposes the REST surface and the reclamation WebSocket.
package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"carpool-matching-service/auth"
	"carpool-matching-service/matching"
	"carpool-matching-service/requests"
	"carpool-matching-service/reviews"
	"carpool-matching-service/support"
	"carpool-matching-service/trips"
)

type Server struct {
	auth       *auth.Service
	trips      *trips.Service
	matcher    *matching.Matcher
	requests   *requests.Service
	reviews    *reviews.Service
	support    *support.Service
	log        *zap.Logger
	production bool
	upgrader   websocket.Upgrader
}

func NewServer(
	authSvc *auth.Service,
	tripsSvc *trips.Service,
	matcher *matching.Matcher,
	requestsSvc *requests.Service,
	reviewsSvc *reviews.Service,
	supportSvc *support.Service,
	log *zap.Logger,
	production bool,
) *Server {
	return &Server{
		auth:       authSvc,
		trips:      tripsSvc,
		matcher:    matcher,
		requests:   requestsSvc,
		reviews:    reviewsSvc,
		support:    supportSvc,
		log:        log,
		production: production,
		upgrader: websocket.Upgrader{
			// The mobile and admin clients run on separate origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.recoverMiddleware)

	// Auth endpoints
	router.HandleFunc("/auth/signup", s.handleSignup).Methods("POST")
	router.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	router.HandleFunc("/auth/me", s.requireAuth(s.handleMe)).Methods("GET")

	// Trip endpoints
	router.HandleFunc("/trip/route", s.requireAuth(s.handleCreateRoute)).Methods("POST")
	router.HandleFunc("/trip/route/{route_id}/deactivate", s.requireAuth(s.handleDeactivateRoute)).Methods("POST")
	router.HandleFunc("/trip/all", s.requireAuth(s.handleListTrips)).Methods("GET")
	router.HandleFunc("/trip/matches/{client_route_id}", s.requireAuth(s.handleRouteMatches)).Methods("GET")
	router.HandleFunc("/trip/request-join", s.requireAuth(s.handleRequestJoin)).Methods("POST")
	router.HandleFunc("/trip/requests/driver", s.requireAuth(s.handleDriverRequests)).Methods("GET")
	router.HandleFunc("/trip/handle-request", s.requireAuth(s.handleDecideRequest)).Methods("POST")
	router.HandleFunc("/trip/{trip_id}/cancel", s.requireAuth(s.handleCancelTrip)).Methods("POST")
	router.HandleFunc("/trip/{trip_id}/complete", s.requireAuth(s.handleCompleteTrip)).Methods("POST")

	// Ride request endpoints
	router.HandleFunc("/requests", s.requireAuth(s.handleCreateRideRequest)).Methods("POST")
	router.HandleFunc("/requests", s.requireAuth(s.handleListRideRequests)).Methods("GET")
	router.HandleFunc("/requests/{request_id}/matches", s.requireAuth(s.handleRequestMatches)).Methods("GET")
	router.HandleFunc("/requests/{request_id}/cancel", s.requireAuth(s.handleCancelRideRequest)).Methods("POST")

	// Review endpoints
	router.HandleFunc("/reviews", s.requireAuth(s.handleCreateReview)).Methods("POST")
	router.HandleFunc("/reviews/user/{user_id}", s.requireAuth(s.handleUserReviews)).Methods("GET")
	router.HandleFunc("/reviews/{review_id}", s.requireAuth(s.handleDeleteReview)).Methods("DELETE")

	// Reclamation endpoints
	router.HandleFunc("/reclamations", s.requireAuth(s.handleCreateReclamation)).Methods("POST")
	router.HandleFunc("/reclamations", s.requireAuth(s.handleListReclamations)).Methods("GET")
	router.HandleFunc("/reclamations/{reclamation_id}/messages", s.requireAuth(s.handleReclamationMessages)).Methods("GET")
	router.HandleFunc("/reclamations/{reclamation_id}/message", s.requireAuth(s.handleAddReclamationMessage)).Methods("POST")
	router.HandleFunc("/reclamations/{reclamation_id}/status", s.requireAuth(s.handleSetReclamationStatus)).Methods("POST")
	router.HandleFunc("/ws/reclamations/{reclamation_id}", s.handleReclamationSocket).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type", "x-auth-token"}),
	)
	return cors(router)
}
