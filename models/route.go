package models

import "time"

// Price is either a fixed amount for the whole trip or a per-kilometer
// rate, mirroring the two pricing modes drivers can publish.
type Price struct {
	Amount float64 `json:"amount"`
	PerKm  bool    `json:"per_km"`
}

// Route is a recurring origin/destination/schedule declaration. Drivers
// publish routes that spawn joinable trips; clients publish routes to be
// matched against driver trips.
type Route struct {
	ID          int64      `json:"id"`
	OwnerID     int64      `json:"owner_id"`
	Role        Role       `json:"role"`
	CarID       *int64     `json:"car_id,omitempty"`
	Start       GeoPoint   `json:"start"`
	End         GeoPoint   `json:"end"`
	Waypoints   []GeoPoint `json:"waypoints,omitempty"`
	Polyline    string     `json:"polyline,omitempty"`
	Schedule    Schedule   `json:"schedule"`
	DistanceKm  float64    `json:"distance_km"`
	DurationMin int        `json:"duration_min"`
	Price       Price      `json:"price"`
	Seats       int        `json:"seats"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}
