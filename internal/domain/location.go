package domain

import "math"

// Coordinate is an immutable lat/lng pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and inside the
// usual [-90,90] / [-180,180] ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// StoreLocation is one entry of the static store directory. Loaded once
// at startup and read-only afterwards.
type StoreLocation struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Coordinate Coordinate `json:"coordinate"`
	Phone      string     `json:"phone"`
	Hours      string     `json:"hours"`
	Photos     []string   `json:"photos"`
}

// RankedLocation is a StoreLocation with the distance to a search
// origin attached. Built per request, never persisted.
type RankedLocation struct {
	StoreLocation
	DistanceMiles float64 `json:"distanceMiles"`
}
