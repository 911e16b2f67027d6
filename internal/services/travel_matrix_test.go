package services

import (
	"delivery-route-engine/internal/domain"
	"errors"
	"math"
	"testing"
)

func TestHaversineSymmetricAndZero(t *testing.T) {
	points := []domain.Coordinates{
		{Lat: 52.2297, Lon: 21.0122},
		{Lat: 50.0647, Lon: 19.9450},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 0, Lon: 179.9999},
		{Lat: 0, Lon: -179.9999},
	}

	for _, a := range points {
		if d := HaversineMeters(a, a); d != 0 {
			t.Fatalf("distance(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			ab := HaversineMeters(a, b)
			ba := HaversineMeters(b, a)
			if ab != ba {
				t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
			}
			if ab < 0 || math.IsNaN(ab) {
				t.Fatalf("distance(%v, %v) = %v", a, b, ab)
			}
		}
	}
}

func TestHaversineOneDegreeOfLatitude(t *testing.T) {
	d := HaversineMeters(domain.Coordinates{Lat: 0, Lon: 0}, domain.Coordinates{Lat: 1, Lon: 0})
	want := 2 * math.Pi * EarthRadiusMeters / 360
	if math.Abs(d-want) > 0.01 {
		t.Fatalf("distance = %v, want %v", d, want)
	}
}

func TestHaversineAntipodal(t *testing.T) {
	d := HaversineMeters(domain.Coordinates{Lat: 90, Lon: 0}, domain.Coordinates{Lat: -90, Lon: 0})
	if math.IsNaN(d) || math.Abs(d-math.Pi*EarthRadiusMeters) > 1 {
		t.Fatalf("antipodal distance = %v", d)
	}
}

func TestNewGeodesicMatrix(t *testing.T) {
	stops := []domain.Stop{
		{ID: 1, Location: domain.Coordinates{Lat: 0, Lon: 0}},
		{ID: 2, Location: domain.Coordinates{Lat: 0.1, Lon: 0}},
	}

	m, err := NewGeodesicMatrix(stops, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0.1 degree ~ 11119.5 m at 30 km/h ~ 1334 s.
	if got := m.Duration(1, 2); got != 1334 {
		t.Fatalf("duration 1->2 = %d, want 1334", got)
	}
	if m.Duration(1, 2) != m.Duration(2, 1) {
		t.Fatalf("geodesic matrix should be symmetric")
	}
	if got := m.Duration(1, 1); got != 0 {
		t.Fatalf("diagonal = %d, want 0", got)
	}

	if _, err := NewGeodesicMatrix(stops, 0); !errors.Is(err, ErrInvalidMatrix) {
		t.Fatalf("zero speed: err = %v, want ErrInvalidMatrix", err)
	}
}

func TestNewMatrixKeepsAsymmetry(t *testing.T) {
	m, err := NewMatrix([]int{5, 9}, [][]int{{7, 60}, {120, 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Duration(5, 9) != 60 || m.Duration(9, 5) != 120 {
		t.Fatalf("asymmetric durations not preserved: %v", m.Rows())
	}
	if m.Duration(5, 5) != 0 || m.Duration(9, 9) != 0 {
		t.Fatalf("diagonal should be zero: %v", m.Rows())
	}
	if _, ok := m.Lookup(5, 42); ok {
		t.Fatalf("lookup of unknown id should fail")
	}
}

func TestNewMatrixRejectsMalformedInput(t *testing.T) {
	cases := map[string]struct {
		ids  []int
		rows [][]int
	}{
		"row count":    {ids: []int{1, 2}, rows: [][]int{{0, 1}}},
		"column count": {ids: []int{1, 2}, rows: [][]int{{0, 1}, {1}}},
		"negative":     {ids: []int{1, 2}, rows: [][]int{{0, -1}, {1, 0}}},
		"duplicate id": {ids: []int{1, 1}, rows: [][]int{{0, 1}, {1, 0}}},
	}

	for name, tc := range cases {
		if _, err := NewMatrix(tc.ids, tc.rows); !errors.Is(err, ErrInvalidMatrix) {
			t.Fatalf("%s: err = %v, want ErrInvalidMatrix", name, err)
		}
	}
}

func TestCoversReportsMissingStop(t *testing.T) {
	m := uniformMatrix(t, []domain.Stop{{ID: 1}, {ID: 2}}, 60)
	err := m.Covers([]domain.Stop{{ID: 1}, {ID: 3}})
	if !errors.Is(err, ErrMissingStop) {
		t.Fatalf("err = %v, want ErrMissingStop", err)
	}
}
