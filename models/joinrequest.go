package models

import "time"

type JoinStatus string

const (
	JoinPending  JoinStatus = "pending"
	JoinAccepted JoinStatus = "accepted"
	JoinRejected JoinStatus = "rejected"
)

// JoinRequest links a client's route (or standalone ride request) to a
// target trip. Created by the client, decided only by the trip's driver.
// Exactly one of ClientRouteID / RideRequestID is set.
type JoinRequest struct {
	ID            int64      `json:"id"`
	ClientID      int64      `json:"client_id"`
	ClientRouteID *int64     `json:"client_route_id,omitempty"`
	RideRequestID *int64     `json:"ride_request_id,omitempty"`
	TripID        int64      `json:"trip_id"`
	Status        JoinStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
}
