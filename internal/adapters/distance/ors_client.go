package distance

import (
	"context"
	"delivery-route-engine/internal/adapters/cache"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openrouteservice.org"

// ORSClient implements DistanceMatrixProvider and Geocoder using OpenRouteService.
//
// It coordinates:
//   - Persistent distance caching keyed by coordinates and profile
//   - Persistent geocode caching keyed by normalized address
//   - External API calls with retry/backoff
//
// The client is safe for concurrent use.
type ORSClient struct {
	session       *http.Client
	apiKey        string
	baseURL       string
	profile       string
	country       string
	backoff       time.Duration
	distanceCache *cache.SQLDistanceCache
	geocodeCache  *cache.SQLGeocodeCache
}

type Option func(*ORSClient)

func WithBaseURL(u string) Option { return func(o *ORSClient) { o.baseURL = u } }

func WithHTTPClient(c *http.Client) Option { return func(o *ORSClient) { o.session = c } }

// WithProfile selects the ORS routing profile, e.g. "driving-car" or "cycling-regular".
func WithProfile(p string) Option { return func(o *ORSClient) { o.profile = p } }

// WithCountry restricts geocoding to an ISO 3166-1 country code.
func WithCountry(c string) Option { return func(o *ORSClient) { o.country = c } }

func WithBackoff(d time.Duration) Option { return func(o *ORSClient) { o.backoff = d } }

func WithDistanceCache(c *cache.SQLDistanceCache) Option {
	return func(o *ORSClient) { o.distanceCache = c }
}

func WithGeocodeCache(c *cache.SQLGeocodeCache) Option {
	return func(o *ORSClient) { o.geocodeCache = c }
}

func NewORSClient(apiKey string, opts ...Option) (*ORSClient, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	client := &ORSClient{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		profile: "driving-car",
		backoff: initialBackoff,
	}
	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Delegate to batched path to reuse caching and matrix logic.
func (o *ORSClient) GetDistance(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (ports.DistanceResult, error) {
	results, err := o.GetDistances(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf("get distance %s -> %s: %w", origin.Key(), destination.Key(), err)
	}

	return results[0], nil
}

// Compute results from a single origin to many destinations, aligned with destinations.
func (o *ORSClient) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ []ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.GetDistances")(&err)

	out := make([]ports.DistanceResult, len(destinations))
	if len(destinations) == 0 {
		return out, nil
	}

	originKey := origin.Key()

	// Deduplicate destinations; coincident points need no lookup.
	seen := make(map[string]struct{}, len(destinations))
	keys := make([]string, 0, len(destinations))
	coordsByKey := make(map[string]domain.Coordinates, len(destinations))
	for _, d := range destinations {
		k := d.Key()
		if k == originKey {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
		coordsByKey[k] = d
	}

	hits := make(map[string]ports.DistanceResult)
	// Check persistent distance cache before issuing external API calls.
	if o.distanceCache != nil && len(keys) > 0 {
		hits, err = o.distanceCache.GetMany(ctx, o.profile, originKey, keys)
		if err != nil {
			return nil, fmt.Errorf("ORS get distance cache: %w", err)
		}
	}

	misses := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := hits[k]; !ok {
			misses = append(misses, k)
		}
	}

	if len(misses) > 0 {
		missCoords := make([]domain.Coordinates, 0, len(misses))
		for _, k := range misses {
			missCoords = append(missCoords, coordsByKey[k])
		}

		// Fetch a single origin->many matrix row for all cache misses.
		fetched, err := o.fetchMatrixRow(ctx, origin, misses, missCoords)
		if err != nil {
			return nil, fmt.Errorf("fetching matrix row: %w", err)
		}

		if o.distanceCache != nil {
			if err := o.distanceCache.PutMany(ctx, o.profile, originKey, fetched); err != nil {
				log.Printf("distance cache write failed: %v", err)
			}
		}

		for k, v := range fetched {
			hits[k] = v
		}
	}

	for i, d := range destinations {
		k := d.Key()
		if k == originKey {
			continue
		}
		r, ok := hits[k]
		if !ok {
			return nil, fmt.Errorf("ORS matrix service did not return destination %s", k)
		}
		out[i] = r
	}

	return out, nil
}
