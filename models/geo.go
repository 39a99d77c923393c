package models

import (
	"encoding/json"
	"fmt"
)

// GeoPoint is the canonical coordinate representation used everywhere
// inside the service: latitude first, longitude second. The mobile app
// historically sent driver routes as GeoJSON [lon, lat] arrays, so the
// JSON decoder accepts both shapes and normalizes on ingest.
type GeoPoint struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lng)
	}
	return nil
}

func (p *GeoPoint) UnmarshalJSON(data []byte) error {
	// GeoJSON style: {"coordinates": [lon, lat], "address": "..."} or a
	// bare [lon, lat] pair.
	var coords []float64
	if err := json.Unmarshal(data, &coords); err == nil {
		if len(coords) != 2 {
			return fmt.Errorf("coordinate pair must have 2 elements, got %d", len(coords))
		}
		p.Lng, p.Lat = coords[0], coords[1]
		return nil
	}

	var raw struct {
		Lat         *float64  `json:"lat"`
		Lng         *float64  `json:"lng"`
		Address     string    `json:"address"`
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Address = raw.Address
	switch {
	case raw.Lat != nil && raw.Lng != nil:
		p.Lat, p.Lng = *raw.Lat, *raw.Lng
	case len(raw.Coordinates) == 2:
		p.Lng, p.Lat = raw.Coordinates[0], raw.Coordinates[1]
	default:
		return fmt.Errorf("point needs lat/lng fields or a coordinates pair")
	}
	return nil
}
