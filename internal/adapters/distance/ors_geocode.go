package distance

import (
	"context"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

// Candidates requested per address, so the result can be chosen by postal code or locality.
const geocodeCandidates = 5

type geocodeFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		PostalCode    string `json:"postalcode"`
		Locality      string `json:"locality"`
		LocalAdmin    string `json:"localadmin"`
		Borough       string `json:"borough"`
		Neighbourhood string `json:"neighbourhood"`
	} `json:"properties"`
}

type geocodeResponse struct {
	Features []geocodeFeature `json:"features"`
}

// Geocode resolves addresses through the geocode cache, falling back to
// /geocode/search for misses. Results are keyed by normalized address.
func (o *ORSClient) Geocode(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	seen := make(map[string]struct{}, len(addresses))
	norms := make([]string, 0, len(addresses))
	for _, a := range addresses {
		n := ports.NormalizeAddress(a)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		norms = append(norms, n)
	}

	out := make(map[string]domain.Coordinates, len(norms))
	if len(norms) == 0 {
		return out, nil
	}

	if o.geocodeCache != nil {
		hits, err := o.geocodeCache.GetMany(ctx, norms)
		if err != nil {
			return nil, fmt.Errorf("ORS get geocode cache: %w", err)
		}
		for k, v := range hits {
			out[k] = v
		}
	}

	misses := make([]string, 0, len(norms))
	for _, n := range norms {
		if _, ok := out[n]; !ok {
			misses = append(misses, n)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := o.geocodeMany(ctx, misses)
	if err != nil {
		return nil, err
	}

	if o.geocodeCache != nil {
		if err := o.geocodeCache.PutMany(ctx, fetched); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}

// geocodeMany resolves already-normalized, deduplicated addresses one request at a time.
func (o *ORSClient) geocodeMany(
	ctx context.Context,
	addresses []string,
) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, len(addresses))
	for _, a := range addresses {
		c, err := o.geocodeOne(ctx, a)
		if err != nil {
			return nil, err
		}
		out[a] = c
	}

	return out, nil
}

func (o *ORSClient) geocodeOne(ctx context.Context, address string) (domain.Coordinates, error) {
	endpoint := o.baseURL + "/geocode/search"

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", address)
		q.Set("size", strconv.Itoa(geocodeCandidates))
		if o.country != "" {
			q.Set("boundary.country", o.country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q", address)
	}

	coords := pickFeature(address, decoded.Features).Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	c := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	if !c.Valid() {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: coordinates out of range", address)
	}

	return c, nil
}
