package ports

import (
	"context"
	"delivery-route-engine/internal/domain"
)

// Port: a boundary for persisting the stop set of a route.
type StopRepository interface {
	// Retrieve all stops, ordered by id.
	ListStops(ctx context.Context) ([]domain.Stop, error)
	// Replace the whole stop set.
	ReplaceStops(ctx context.Context, stops []domain.Stop) error
	// Persist the delivered flag; unknown ids yield domain.ErrStopNotFound.
	MarkDelivered(ctx context.Context, id int) error
}
