package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carpool-matching-service/apperr"
	"carpool-matching-service/auth"
	"carpool-matching-service/config"
	"carpool-matching-service/geoindex"
	"carpool-matching-service/matching"
	"carpool-matching-service/models"
	"carpool-matching-service/notify"
	"carpool-matching-service/requests"
	"carpool-matching-service/reviews"
	"carpool-matching-service/store"
	"carpool-matching-service/support"
	"carpool-matching-service/trips"
)

// backend is a single in-memory double behind every service, so the
// handlers can be exercised end to end over httptest.
type backend struct {
	nextID   int64
	users    map[int64]models.User
	byEmail  map[string]models.User
	routes   map[int64]models.Route
	trips    map[int64]*models.Trip
	joins    map[int64]*models.JoinRequest
	requests map[int64]*models.RideRequest
	reviews  map[int64]models.Review
	tickets  map[int64]models.Reclamation
	messages map[int64][]models.ReclamationMessage
}

func newBackend() *backend {
	return &backend{
		users:    make(map[int64]models.User),
		byEmail:  make(map[string]models.User),
		routes:   make(map[int64]models.Route),
		trips:    make(map[int64]*models.Trip),
		joins:    make(map[int64]*models.JoinRequest),
		requests: make(map[int64]*models.RideRequest),
		reviews:  make(map[int64]models.Review),
		tickets:  make(map[int64]models.Reclamation),
		messages: make(map[int64][]models.ReclamationMessage),
	}
}

func (b *backend) id() int64 { b.nextID++; return b.nextID }

// auth.Store

func (b *backend) CreateUser(_ context.Context, u models.User) (int64, error) {
	if _, ok := b.byEmail[u.Email]; ok {
		return 0, apperr.Conflict("email %s is already registered", u.Email)
	}
	u.ID = b.id()
	b.users[u.ID] = u
	b.byEmail[u.Email] = u
	return u.ID, nil
}

func (b *backend) UserByEmail(_ context.Context, email string) (models.User, error) {
	u, ok := b.byEmail[email]
	if !ok {
		return models.User{}, apperr.NotFound("user %s not found", email)
	}
	return u, nil
}

func (b *backend) UserByID(_ context.Context, id int64) (models.User, error) {
	u, ok := b.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("user %d not found", id)
	}
	return u, nil
}

// trips.Store and matching.Store

func (b *backend) CreateRoute(_ context.Context, r models.Route) (int64, error) {
	r.ID = b.id()
	r.IsActive = true
	b.routes[r.ID] = r
	return r.ID, nil
}

func (b *backend) RouteByID(_ context.Context, id int64) (models.Route, error) {
	r, ok := b.routes[id]
	if !ok {
		return models.Route{}, apperr.NotFound("route %d not found", id)
	}
	return r, nil
}

func (b *backend) DeactivateRoute(_ context.Context, id, ownerID int64) (models.Route, error) {
	r, ok := b.routes[id]
	if !ok {
		return models.Route{}, apperr.NotFound("route %d not found", id)
	}
	if r.OwnerID != ownerID {
		return models.Route{}, apperr.Forbidden("route %d does not belong to you", id)
	}
	r.IsActive = false
	b.routes[id] = r
	return r, nil
}

func (b *backend) ActiveDriverRoutesByIDs(_ context.Context, ids []int64) ([]models.Route, error) {
	var out []models.Route
	for _, id := range ids {
		if r, ok := b.routes[id]; ok && r.Role == models.RoleDriver && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *backend) LiveTripForRoute(_ context.Context, routeID int64) (*models.Trip, error) {
	for _, t := range b.trips {
		if t.RouteID == routeID && t.Status.Joinable() {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (b *backend) CreateTrip(_ context.Context, t models.Trip) (int64, error) {
	t.ID = b.id()
	b.trips[t.ID] = &t
	return t.ID, nil
}

func (b *backend) TripByID(_ context.Context, id int64) (models.Trip, error) {
	t, ok := b.trips[id]
	if !ok {
		return models.Trip{}, apperr.NotFound("trip %d not found", id)
	}
	return *t, nil
}

func (b *backend) TripsForUser(_ context.Context, userID int64, role models.Role) ([]models.Trip, error) {
	var out []models.Trip
	for _, t := range b.trips {
		if (role == models.RoleDriver && t.DriverID == userID) ||
			(role == models.RoleClient && t.HasClient(userID)) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (b *backend) TransitionTrip(_ context.Context, tripID, driverID int64, to models.TripStatus) (models.Trip, error) {
	t, ok := b.trips[tripID]
	if !ok {
		return models.Trip{}, apperr.NotFound("trip %d not found", tripID)
	}
	if t.DriverID != driverID {
		return models.Trip{}, apperr.Forbidden("trip %d belongs to another driver", tripID)
	}
	if !t.Status.CanTransition(to) {
		return models.Trip{}, apperr.Conflict("trip %d cannot go from %s to %s", tripID, t.Status, to)
	}
	t.Status = to
	return *t, nil
}

func (b *backend) CreateJoinRequest(_ context.Context, jr models.JoinRequest) (int64, error) {
	for _, e := range b.joins {
		if e.TripID == jr.TripID && e.ClientID == jr.ClientID && e.Status != models.JoinRejected {
			return 0, apperr.Conflict("you already have a request for this trip")
		}
	}
	jr.ID = b.id()
	jr.CreatedAt = time.Now()
	b.joins[jr.ID] = &jr
	return jr.ID, nil
}

func (b *backend) PendingJoinForTrip(_ context.Context, tripID, clientID int64) (bool, error) {
	for _, jr := range b.joins {
		if jr.TripID == tripID && jr.ClientID == clientID && jr.Status != models.JoinRejected {
			return true, nil
		}
	}
	return false, nil
}

func (b *backend) PendingJoinsForDriver(_ context.Context, driverID int64) ([]models.JoinRequest, error) {
	var out []models.JoinRequest
	for _, jr := range b.joins {
		if jr.Status != models.JoinPending {
			continue
		}
		if t, ok := b.trips[jr.TripID]; ok && t.DriverID == driverID {
			out = append(out, *jr)
		}
	}
	return out, nil
}

func (b *backend) AcceptJoin(_ context.Context, requestID, driverID int64) (store.AcceptResult, error) {
	jr, ok := b.joins[requestID]
	if !ok {
		return store.AcceptResult{}, apperr.NotFound("join request %d not found", requestID)
	}
	t := b.trips[jr.TripID]
	if t.DriverID != driverID {
		return store.AcceptResult{}, apperr.Forbidden("request %d targets another driver's trip", requestID)
	}
	switch jr.Status {
	case models.JoinAccepted:
		return store.AcceptResult{Trip: *t, Request: *jr, Replayed: true}, nil
	case models.JoinRejected:
		return store.AcceptResult{}, apperr.Conflict("request %d was already rejected", requestID)
	}
	if !t.Status.Joinable() {
		return store.AcceptResult{}, apperr.Conflict("trip %d is %s", t.ID, t.Status)
	}
	if t.SeatsAvailable <= 0 {
		return store.AcceptResult{}, apperr.Conflict("trip %d has no seats left", t.ID)
	}
	now := time.Now().UTC()
	t.Clients = append(t.Clients, models.TripClient{UserID: jr.ClientID, RouteID: jr.ClientRouteID, JoinedAt: now})
	activated := t.Status == models.TripPending
	if activated {
		t.Status = models.TripActive
	}
	t.SeatsAvailable--
	jr.Status = models.JoinAccepted
	jr.DecidedAt = &now
	return store.AcceptResult{Trip: *t, Request: *jr, Activated: activated}, nil
}

func (b *backend) RejectJoin(_ context.Context, requestID, driverID int64) (models.JoinRequest, error) {
	jr, ok := b.joins[requestID]
	if !ok {
		return models.JoinRequest{}, apperr.NotFound("join request %d not found", requestID)
	}
	if t := b.trips[jr.TripID]; t.DriverID != driverID {
		return models.JoinRequest{}, apperr.Forbidden("request %d targets another driver's trip", requestID)
	}
	if jr.Status != models.JoinPending {
		return models.JoinRequest{}, apperr.Conflict("request %d was already %s", requestID, jr.Status)
	}
	now := time.Now().UTC()
	jr.Status = models.JoinRejected
	jr.DecidedAt = &now
	return *jr, nil
}

// requests.Store

func (b *backend) CreateRideRequest(_ context.Context, r models.RideRequest) (int64, error) {
	r.ID = b.id()
	b.requests[r.ID] = &r
	return r.ID, nil
}

func (b *backend) RideRequestByID(_ context.Context, id int64) (models.RideRequest, error) {
	r, ok := b.requests[id]
	if !ok {
		return models.RideRequest{}, apperr.NotFound("ride request %d not found", id)
	}
	return *r, nil
}

func (b *backend) RideRequestsForClient(_ context.Context, clientID int64) ([]models.RideRequest, error) {
	var out []models.RideRequest
	for _, r := range b.requests {
		if r.ClientID == clientID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (b *backend) TransitionRideRequest(_ context.Context, id, clientID int64, from, to models.RequestStatus) (models.RideRequest, error) {
	r, ok := b.requests[id]
	if !ok || r.ClientID != clientID || r.Status != from {
		return models.RideRequest{}, apperr.Conflict("ride request %d changed underneath you", id)
	}
	r.Status = to
	return *r, nil
}

// reviews.Store

func (b *backend) CreateReview(_ context.Context, r models.Review) (int64, error) {
	r.ID = b.id()
	b.reviews[r.ID] = r
	return r.ID, nil
}

func (b *backend) ReviewsForUser(_ context.Context, userID int64) ([]models.Review, error) {
	var out []models.Review
	for _, r := range b.reviews {
		if r.RevieweeID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *backend) DeleteReview(_ context.Context, id int64) error {
	if _, ok := b.reviews[id]; !ok {
		return apperr.NotFound("review %d not found", id)
	}
	delete(b.reviews, id)
	return nil
}

// support.Store

func (b *backend) CreateReclamation(_ context.Context, r models.Reclamation) (int64, error) {
	r.ID = b.id()
	b.tickets[r.ID] = r
	return r.ID, nil
}

func (b *backend) ReclamationByID(_ context.Context, id int64) (models.Reclamation, error) {
	r, ok := b.tickets[id]
	if !ok {
		return models.Reclamation{}, apperr.NotFound("reclamation %d not found", id)
	}
	return r, nil
}

func (b *backend) ReclamationsForUser(_ context.Context, userID int64, role models.Role) ([]models.Reclamation, error) {
	var out []models.Reclamation
	for _, r := range b.tickets {
		if role == models.RoleAdmin || r.AuthorID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *backend) AddReclamationMessage(_ context.Context, m models.ReclamationMessage) (models.ReclamationMessage, error) {
	m.ID = b.id()
	b.messages[m.ReclamationID] = append(b.messages[m.ReclamationID], m)
	return m, nil
}

func (b *backend) UpdateReclamationStatus(_ context.Context, id int64, status models.ReclamationStatus) error {
	r, ok := b.tickets[id]
	if !ok {
		return apperr.NotFound("reclamation %d not found", id)
	}
	r.Status = status
	b.tickets[id] = r
	return nil
}

func (b *backend) ReclamationMessages(_ context.Context, reclamationID int64) ([]models.ReclamationMessage, error) {
	return b.messages[reclamationID], nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	b := newBackend()
	log := zap.NewNop()
	idx := geoindex.NewRTree()

	authSvc := auth.NewService(b, "test-secret", time.Hour)
	tripsSvc := trips.NewService(b, idx, notify.Nop{}, log)
	matcher := matching.New(b, idx, config.MatchConfig{RadiusKm: 5, TimeToleranceMin: 30}, log)
	requestsSvc := requests.NewService(b, log)
	reviewsSvc := reviews.NewService(b)
	supportSvc := support.NewService(b, support.NewHub(), log)

	srv := NewServer(authSvc, tripsSvc, matcher, requestsSvc, reviewsSvc, supportSvc, log, false)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

// call sends a JSON request and decodes the JSON response into out, when
// out is non-nil.
func call(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func signup(t *testing.T, ts *httptest.Server, name string, role models.Role) (int64, string) {
	t.Helper()
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	status := call(t, ts, "POST", "/auth/signup", "", map[string]any{
		"name":     name,
		"email":    fmt.Sprintf("%s@example.com", name),
		"password": "secret1",
		"role":     role,
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Token)
	return resp.User.ID, resp.Token
}

var routeBody = map[string]any{
	"start":    map[string]any{"lat": 34.0, "lng": -6.8, "address": "Rabat"},
	"end":      map[string]any{"lat": 33.57, "lng": -7.59, "address": "Casablanca"},
	"schedule": map[string]any{"days": []string{"mon", "wed"}, "departure": "08:00"},
	"price":    map[string]any{"amount": 50},
	"seats":    2,
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		var body struct {
			Msg string `json:"msg"`
		}
		status := call(t, ts, "GET", "/auth/me", "", nil, &body)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "no token, authorization denied", body.Msg)
	})

	t.Run("garbage token", func(t *testing.T) {
		var body struct {
			Msg string `json:"msg"`
		}
		status := call(t, ts, "GET", "/auth/me", "garbage", nil, &body)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "token is not valid", body.Msg)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		id, token := signup(t, ts, "amine", models.RoleClient)
		var me models.User
		status := call(t, ts, "GET", "/auth/me", token, nil, &me)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, id, me.ID)
	})
}

func TestLoginEndpoint(t *testing.T) {
	ts := newTestServer(t)
	signup(t, ts, "sara", models.RoleDriver)

	t.Run("good credentials", func(t *testing.T) {
		var resp struct {
			Token string `json:"token"`
		}
		status := call(t, ts, "POST", "/auth/login", "", map[string]any{
			"email": "sara@example.com", "password": "secret1",
		}, &resp)
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("bad credentials", func(t *testing.T) {
		status := call(t, ts, "POST", "/auth/login", "", map[string]any{
			"email": "sara@example.com", "password": "nope",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

// TestJoinFlow drives the whole commute scenario over HTTP: a driver
// publishes a route, a client finds it, asks to join, and the driver
// accepts.
func TestJoinFlow(t *testing.T) {
	ts := newTestServer(t)

	driverID, driverToken := signup(t, ts, "driver", models.RoleDriver)
	clientID, clientToken := signup(t, ts, "client", models.RoleClient)

	// Driver publishes a route; a pending trip appears.
	var created struct {
		Route models.Route `json:"route"`
		Trip  *models.Trip `json:"trip"`
	}
	status := call(t, ts, "POST", "/trip/route", driverToken, routeBody, &created)
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, created.Trip)
	assert.Equal(t, models.TripPending, created.Trip.Status)
	assert.Equal(t, driverID, created.Trip.DriverID)

	// Client publishes a nearby route.
	clientRoute := map[string]any{
		"start":    map[string]any{"lat": 34.01, "lng": -6.81},
		"end":      map[string]any{"lat": 33.58, "lng": -7.60},
		"schedule": map[string]any{"days": []string{"mon"}, "departure": "08:10"},
	}
	var clientCreated struct {
		Route models.Route `json:"route"`
		Trip  *models.Trip `json:"trip"`
	}
	status = call(t, ts, "POST", "/trip/route", clientToken, clientRoute, &clientCreated)
	require.Equal(t, http.StatusCreated, status)
	assert.Nil(t, clientCreated.Trip)

	// The driver's trip shows up in the client's matches.
	var candidates []matching.Candidate
	status = call(t, ts, "GET", fmt.Sprintf("/trip/matches/%d", clientCreated.Route.ID), clientToken, nil, &candidates)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].Trip)
	assert.Equal(t, created.Trip.ID, candidates[0].Trip.ID)

	// Client asks to join.
	var jr models.JoinRequest
	status = call(t, ts, "POST", "/trip/request-join", clientToken, map[string]any{
		"client_route_id": clientCreated.Route.ID,
		"trip_id":         created.Trip.ID,
	}, &jr)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.JoinPending, jr.Status)

	// A second identical ask conflicts.
	status = call(t, ts, "POST", "/trip/request-join", clientToken, map[string]any{
		"client_route_id": clientCreated.Route.ID,
		"trip_id":         created.Trip.ID,
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	// The request sits in the driver's queue.
	var pending []models.JoinRequest
	status = call(t, ts, "GET", "/trip/requests/driver", driverToken, nil, &pending)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, pending, 1)

	// Only the trip's driver may decide.
	status = call(t, ts, "POST", "/trip/handle-request", clientToken, map[string]any{
		"request_id": jr.ID, "status": "accepted",
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Driver accepts: the trip activates and the client holds a seat.
	var decided struct {
		Request models.JoinRequest `json:"request"`
		Trip    *models.Trip       `json:"trip"`
	}
	status = call(t, ts, "POST", "/trip/handle-request", driverToken, map[string]any{
		"request_id": jr.ID, "status": "accepted",
	}, &decided)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, decided.Trip)
	assert.Equal(t, models.TripActive, decided.Trip.Status)
	assert.Equal(t, 1, decided.Trip.SeatsAvailable)
	require.Len(t, decided.Trip.Clients, 1)
	assert.Equal(t, clientID, decided.Trip.Clients[0].UserID)

	// Accepting again changes nothing.
	status = call(t, ts, "POST", "/trip/handle-request", driverToken, map[string]any{
		"request_id": jr.ID, "status": "accepted",
	}, &decided)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decided.Trip.SeatsAvailable)
	assert.Len(t, decided.Trip.Clients, 1)

	// The trip now appears on both sides.
	var driverTrips, clientTrips []models.Trip
	status = call(t, ts, "GET", "/trip/all", driverToken, nil, &driverTrips)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, driverTrips, 1)
	status = call(t, ts, "GET", "/trip/all", clientToken, nil, &clientTrips)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, clientTrips, 1)

	// Driver completes the ride; completing twice conflicts.
	var done models.Trip
	status = call(t, ts, "POST", fmt.Sprintf("/trip/%d/complete", created.Trip.ID), driverToken, nil, &done)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.TripCompleted, done.Status)
	status = call(t, ts, "POST", fmt.Sprintf("/trip/%d/complete", created.Trip.ID), driverToken, nil, nil)
	assert.Equal(t, http.StatusConflict, status)

	// Afterwards the client reviews the driver.
	var review models.Review
	status = call(t, ts, "POST", "/reviews", clientToken, map[string]any{
		"reviewee_id": driverID, "trip_id": created.Trip.ID, "rating": 5, "comment": "on time",
	}, &review)
	require.Equal(t, http.StatusCreated, status)

	var driverReviews []models.Review
	status = call(t, ts, "GET", fmt.Sprintf("/reviews/user/%d", driverID), driverToken, nil, &driverReviews)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, driverReviews, 1)
}

func TestRideRequestEndpoints(t *testing.T) {
	ts := newTestServer(t)

	_, driverToken := signup(t, ts, "driver2", models.RoleDriver)
	_, clientToken := signup(t, ts, "client2", models.RoleClient)

	status := call(t, ts, "POST", "/trip/route", driverToken, routeBody, nil)
	require.Equal(t, http.StatusCreated, status)

	var rr models.RideRequest
	status = call(t, ts, "POST", "/requests", clientToken, map[string]any{
		"pickup":      map[string]any{"lat": 34.01, "lng": -6.81},
		"destination": map[string]any{"lat": 33.58, "lng": -7.60},
		"schedule":    map[string]any{"days": []string{"wed"}, "departure": "08:05"},
	}, &rr)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.RequestPending, rr.Status)

	var candidates []matching.Candidate
	status = call(t, ts, "GET", fmt.Sprintf("/requests/%d/matches", rr.ID), clientToken, nil, &candidates)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, candidates, 1)

	var cancelled models.RideRequest
	status = call(t, ts, "POST", fmt.Sprintf("/requests/%d/cancel", rr.ID), clientToken, nil, &cancelled)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RequestCancelled, cancelled.Status)

	// Another client cannot cancel it.
	status = call(t, ts, "POST", fmt.Sprintf("/requests/%d/cancel", rr.ID), driverToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestReclamationEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, clientToken := signup(t, ts, "client3", models.RoleClient)
	_, otherToken := signup(t, ts, "client4", models.RoleClient)

	var ticket models.Reclamation
	status := call(t, ts, "POST", "/reclamations", clientToken, map[string]any{
		"subject": "driver no-show", "message": "waited 20 minutes",
	}, &ticket)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.ReclamationOpen, ticket.Status)

	var msgs []models.ReclamationMessage
	status = call(t, ts, "GET", fmt.Sprintf("/reclamations/%d/messages", ticket.ID), clientToken, nil, &msgs)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, msgs, 1)

	// Strangers see neither the thread nor the status knob.
	status = call(t, ts, "GET", fmt.Sprintf("/reclamations/%d/messages", ticket.ID), otherToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status = call(t, ts, "POST", fmt.Sprintf("/reclamations/%d/status", ticket.ID), clientToken, map[string]any{
		"status": "resolved",
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	_, clientToken := signup(t, ts, "client5", models.RoleClient)

	t.Run("unknown trip is 404", func(t *testing.T) {
		status := call(t, ts, "POST", "/trip/request-join", clientToken, map[string]any{
			"client_route_id": 1, "trip_id": 999,
		}, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("bad path id is 400", func(t *testing.T) {
		var body struct {
			Msg string `json:"msg"`
		}
		status := call(t, ts, "GET", "/trip/matches/abc", clientToken, nil, &body)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid client_route_id", body.Msg)
	})

	t.Run("role mismatch on route create is 403", func(t *testing.T) {
		body := map[string]any{}
		for k, v := range routeBody {
			body[k] = v
		}
		body["role"] = "driver"
		status := call(t, ts, "POST", "/trip/route", clientToken, body, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}
