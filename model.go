package main

import "time"

// Position is one telematics fix as a feed reports it, before the ref is
// matched to a registered vehicle.
type Position struct {
	Ref        string    `json:"ref"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ObservedAt time.Time `json:"observedAt"`
}

// ForwardedSample is a position the backend accepted as a GPS sample.
type ForwardedSample struct {
	Ref        string  `json:"ref"`
	VehicleID  int64   `json:"vehicleId"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Geohash    string  `json:"geohash"`
	Timestamp  string  `json:"timestamp"`
	LocationID int64   `json:"locationId,omitempty"`
	Message    string  `json:"message,omitempty"`
	LastUpdate int64   `json:"lastUpdate"`
}
