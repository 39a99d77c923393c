package models

import "time"

type TripStatus string

const (
	TripPending   TripStatus = "pending"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// tripTransitions is the allowed edge set of the trip state machine.
// completed and cancelled are terminal.
var tripTransitions = map[TripStatus][]TripStatus{
	TripPending: {TripActive, TripCompleted, TripCancelled},
	TripActive:  {TripCompleted, TripCancelled},
}

// CanTransition reports whether a trip may move from one status to
// another. Same-status "transitions" are not allowed; callers treat a
// repeated terminal action as a conflict.
func (s TripStatus) CanTransition(to TripStatus) bool {
	for _, next := range tripTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Joinable reports whether new join requests may target a trip in this
// status.
func (s TripStatus) Joinable() bool {
	return s == TripPending || s == TripActive
}

// TripClient is one accepted passenger on a trip.
type TripClient struct {
	UserID   int64     `json:"user_id"`
	RouteID  *int64    `json:"route_id,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
}

// Trip is the live, joinable instance derived from a driver's route.
// One is created automatically, in status pending, whenever a driver
// publishes a route.
type Trip struct {
	ID             int64        `json:"id"`
	DriverID       int64        `json:"driver_id"`
	RouteID        int64        `json:"route_id"`
	Status         TripStatus   `json:"status"`
	Price          Price        `json:"price"`
	SeatsTotal     int          `json:"seats_total"`
	SeatsAvailable int          `json:"seats_available"`
	Clients        []TripClient `json:"clients"`
	CreatedAt      time.Time    `json:"created_at"`
}

// HasClient reports whether the user already holds a seat on the trip.
func (t *Trip) HasClient(userID int64) bool {
	for _, c := range t.Clients {
		if c.UserID == userID {
			return true
		}
	}
	return false
}
