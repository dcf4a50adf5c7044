package domain

import "math"

// earthRadiusMiles matches the radius the storefront map uses.
const earthRadiusMiles = 3958.75

// Distance returns the great-circle distance between a and b in miles,
// computed with the haversine formula. Behavior on NaN/Inf input is
// undefined; validate with Coordinate.Valid first.
func Distance(a, b Coordinate) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMiles * c
}
