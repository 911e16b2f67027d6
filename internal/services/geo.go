package services

import (
	"delivery-route-engine/internal/domain"
	"math"
)

// Mean Earth radius in meters.
const EarthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
// The result is symmetric, never negative and exactly zero for coincident coordinates.
func HaversineMeters(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sLat := math.Sin(dLat / 2)
	sLon := math.Sin(dLon / 2)
	h := sLat*sLat + math.Cos(lat1)*math.Cos(lat2)*sLon*sLon

	// Rounding can push h marginally outside [0, 1] for antipodal points.
	h = math.Min(math.Max(h, 0), 1)

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// TravelSeconds converts a distance to a whole-second duration at the given average speed.
func TravelSeconds(meters, speedKmh float64) int {
	return int(math.Round(meters / (speedKmh * 1000 / 3600)))
}
