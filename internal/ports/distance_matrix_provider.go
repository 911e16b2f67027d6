package ports

import (
	"context"
	"delivery-route-engine/internal/domain"
)

// Optional extension of DistanceProvider that supports batched lookups.
type DistanceMatrixProvider interface {
	DistanceProvider
	// Return results from one origin to many destinations, aligned with destinations.
	GetDistances(ctx context.Context, origin domain.Coordinates, destinations []domain.Coordinates) ([]DistanceResult, error)
}
