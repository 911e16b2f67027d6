package ports

import (
	"context"
	"delivery-route-engine/internal/domain"
	"strings"
)

// Geocoder resolves free-form addresses to coordinates.
type Geocoder interface {
	// Return coordinates keyed by the normalized address.
	Geocode(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
}

// NormalizeAddress collapses whitespace so equal addresses share one cache key.
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
