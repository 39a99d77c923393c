package models

import "time"

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestMatched   RequestStatus = "matched"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// requestTransitions: pending→matched→completed is monotonic; a request
// may be cancelled at any point before completion.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending: {RequestMatched, RequestCancelled},
	RequestMatched: {RequestCompleted, RequestCancelled},
}

func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range requestTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// RideRequest is a client's standalone one-off request for a ride, as
// opposed to a recurring client route.
type RideRequest struct {
	ID          int64         `json:"id"`
	ClientID    int64         `json:"client_id"`
	Pickup      GeoPoint      `json:"pickup"`
	Destination GeoPoint      `json:"destination"`
	Schedule    Schedule      `json:"schedule"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
}
