package services

import (
	"delivery-route-engine/internal/domain"
	"slices"
	"testing"
)

const eightAM = 8 * 3600

func clock(t *testing.T, s string) int {
	t.Helper()
	sec, err := domain.ParseClock(s)
	if err != nil {
		t.Fatalf("parse clock %q: %v", s, err)
	}
	return sec
}

func stop(t *testing.T, id int, w domain.TimeWindow) domain.Stop {
	t.Helper()
	s, err := domain.NewStop(id, "", domain.Coordinates{}, w)
	if err != nil {
		t.Fatalf("new stop %d: %v", id, err)
	}
	return s
}

// uniformMatrix has the same duration between every distinct pair.
func uniformMatrix(t *testing.T, stops []domain.Stop, seconds int) *TravelMatrix {
	t.Helper()
	ids := make([]int, len(stops))
	rows := make([][]int, len(stops))
	for i, s := range stops {
		ids[i] = s.ID
		rows[i] = make([]int, len(stops))
		for j := range rows[i] {
			if i != j {
				rows[i][j] = seconds
			}
		}
	}
	m, err := NewMatrix(ids, rows)
	if err != nil {
		t.Fatalf("new matrix: %v", err)
	}
	return m
}

// pairMatrix starts from a uniform fallback and overrides directed pairs.
func pairMatrix(t *testing.T, stops []domain.Stop, fallback int, pairs map[[2]int]int) *TravelMatrix {
	t.Helper()
	ids := make([]int, len(stops))
	rows := make([][]int, len(stops))
	for i, from := range stops {
		ids[i] = from.ID
		rows[i] = make([]int, len(stops))
		for j, to := range stops {
			if i == j {
				continue
			}
			rows[i][j] = fallback
			if d, ok := pairs[[2]int{from.ID, to.ID}]; ok {
				rows[i][j] = d
			}
		}
	}
	m, err := NewMatrix(ids, rows)
	if err != nil {
		t.Fatalf("new matrix: %v", err)
	}
	return m
}

func ids(stops []domain.Stop) []int {
	out := make([]int, len(stops))
	for i, s := range stops {
		out[i] = s.ID
	}
	return out
}

func assertPermutation(t *testing.T, got, want []domain.Stop) {
	t.Helper()
	g := ids(got)
	w := ids(want)
	slices.Sort(g)
	slices.Sort(w)
	if !slices.Equal(g, w) {
		t.Fatalf("route ids = %v, want a permutation of %v", ids(got), ids(want))
	}
}
