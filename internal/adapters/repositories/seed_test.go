package repositories

import (
	"context"
	"delivery-route-engine/internal/domain"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	known map[string]domain.Coordinates
	asked []string
}

func (f *fakeGeocoder) Geocode(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	f.asked = append(f.asked, addresses...)
	return f.known, nil
}

func ptr(v float64) *float64 { return &v }

func TestReadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stops.json")
	body := `[
		{"id": 1, "address": "A", "latitude": 33.4, "longitude": -112.0, "window_end": "09:30"},
		{"id": 2, "address": "B", "delivered": true}
	]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	seeds, err := ReadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	assert.Equal(t, "09:30", seeds[0].WindowEnd)
	assert.Nil(t, seeds[1].Latitude)
	assert.True(t, seeds[1].Delivered)

	_, err = ReadSeedFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestResolveSeeds_GeocodesMissingCoordinates(t *testing.T) {
	g := &fakeGeocoder{known: map[string]domain.Coordinates{
		"2 Oak Ave": {Lat: 33.5, Lon: -112.1},
	}}
	seeds := []StopSeed{
		{ID: 1, Address: "1 Elm St", Latitude: ptr(33.4), Longitude: ptr(-112.0), WindowStart: "08:30", WindowEnd: "10:00"},
		{ID: 2, Address: " 2  Oak Ave"},
	}

	stops, err := ResolveSeeds(context.Background(), seeds, g)
	require.NoError(t, err)
	require.Len(t, stops, 2)

	assert.Equal(t, domain.Between(8*3600+1800, 10*3600), stops[0].Window)
	assert.Equal(t, domain.Coordinates{Lat: 33.5, Lon: -112.1}, stops[1].Location)
	assert.Equal(t, []string{" 2  Oak Ave"}, g.asked)
}

func TestResolveSeeds_Rejects(t *testing.T) {
	cases := map[string][]StopSeed{
		"zero id":        {{ID: 0, Latitude: ptr(1), Longitude: ptr(1)}},
		"half location":  {{ID: 1, Latitude: ptr(1)}},
		"no address":     {{ID: 1}},
		"out of range":   {{ID: 1, Latitude: ptr(91), Longitude: ptr(0)}},
		"not finite":     {{ID: 1, Latitude: ptr(math.NaN()), Longitude: ptr(0)}},
		"bad window":     {{ID: 1, Latitude: ptr(1), Longitude: ptr(1), WindowStart: "10:00", WindowEnd: "09:00"}},
		"needs geocoder": {{ID: 1, Address: "somewhere"}},
	}

	for name, seeds := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ResolveSeeds(context.Background(), seeds, nil)
			assert.Error(t, err)
		})
	}
}

func TestResolveSeeds_Duplicate(t *testing.T) {
	seeds := []StopSeed{
		{ID: 7, Latitude: ptr(1), Longitude: ptr(1)},
		{ID: 7, Latitude: ptr(2), Longitude: ptr(2)},
	}

	_, err := ResolveSeeds(context.Background(), seeds, nil)
	assert.True(t, errors.Is(err, domain.ErrDuplicateStop))
}
