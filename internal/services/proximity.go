package services

import "delivery-route-engine/internal/domain"

// Driver distance from the current target within which delivery confirmation is offered.
const DefaultProximityRadiusMeters = 50.0

type Proximity struct {
	DistanceMeters float64
	Within         bool
}

// CheckProximity measures a driver position against a target stop.
func CheckProximity(position domain.Coordinates, target domain.Stop, radiusMeters float64) Proximity {
	d := HaversineMeters(position, target.Location)
	return Proximity{DistanceMeters: d, Within: d <= radiusMeters}
}
