package repositories

import (
	"context"
	"database/sql"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// StopSeed is one input record. Coordinates may be omitted when an address
// can be geocoded instead.
type StopSeed struct {
	ID          int      `json:"id"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	WindowStart string   `json:"window_start,omitempty"`
	WindowEnd   string   `json:"window_end,omitempty"`
	Delivered   bool     `json:"delivered,omitempty"`
}

// ReadSeedFile parses a JSON array of stop records.
func ReadSeedFile(jsonPath string) ([]StopSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed stops: read %q: %w", jsonPath, err)
	}

	var data []StopSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed stops: parse json: %w", err)
	}

	return data, nil
}

// ResolveSeeds validates records and turns them into stops, geocoding any
// record without coordinates. geocoder may be nil when every record has them.
func ResolveSeeds(ctx context.Context, seeds []StopSeed, geocoder ports.Geocoder) ([]domain.Stop, error) {
	var missing []string
	seen := make(map[int]struct{}, len(seeds))
	for i, item := range seeds {
		if item.ID <= 0 {
			return nil, fmt.Errorf("seed stops: invalid id at index %d: %d", i+1, item.ID)
		}
		if _, ok := seen[item.ID]; ok {
			return nil, fmt.Errorf("seed stops: id %d: %w", item.ID, domain.ErrDuplicateStop)
		}
		seen[item.ID] = struct{}{}

		if (item.Latitude == nil) != (item.Longitude == nil) {
			return nil, fmt.Errorf("seed stops: id %d: latitude and longitude must be given together", item.ID)
		}
		if item.Latitude == nil {
			if strings.TrimSpace(item.Address) == "" {
				return nil, fmt.Errorf("seed stops: id %d: needs coordinates or an address", item.ID)
			}
			missing = append(missing, item.Address)
		}
	}

	var geocoded map[string]domain.Coordinates
	if len(missing) > 0 {
		if geocoder == nil {
			return nil, errors.New("seed stops: records without coordinates need a geocoder")
		}

		var err error
		geocoded, err = geocoder.Geocode(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("seed stops: geocode: %w", err)
		}
	}

	stops := make([]domain.Stop, 0, len(seeds))
	for _, item := range seeds {
		var loc domain.Coordinates
		if item.Latitude != nil {
			loc = domain.Coordinates{Lat: *item.Latitude, Lon: *item.Longitude}
		} else {
			c, ok := geocoded[ports.NormalizeAddress(item.Address)]
			if !ok {
				return nil, fmt.Errorf("seed stops: id %d: address %q was not geocoded", item.ID, item.Address)
			}
			loc = c
		}
		if !loc.Valid() {
			return nil, fmt.Errorf("seed stops: id %d: coordinates out of range", item.ID)
		}

		w, err := domain.ParseWindow(item.WindowStart, item.WindowEnd)
		if err != nil {
			return nil, fmt.Errorf("seed stops: id %d: %w", item.ID, err)
		}

		stops = append(stops, domain.Stop{
			ID:        item.ID,
			Address:   strings.TrimSpace(item.Address),
			Location:  loc,
			Window:    w,
			Delivered: item.Delivered,
		})
	}

	return stops, nil
}

// Populate the stops table from a JSON file, replacing its contents.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string, geocoder ports.Geocoder) error {
	seeds, err := ReadSeedFile(jsonPath)
	if err != nil {
		return err
	}

	stops, err := ResolveSeeds(ctx, seeds, geocoder)
	if err != nil {
		return err
	}

	if err := NewPostgresStopRepository(db).ReplaceStops(ctx, stops); err != nil {
		return fmt.Errorf("seed stops: %w", err)
	}

	return nil
}
