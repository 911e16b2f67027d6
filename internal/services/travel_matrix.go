package services

import (
	"delivery-route-engine/internal/domain"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidMatrix = errors.New("invalid travel matrix")
	ErrMissingStop   = errors.New("stop missing from travel matrix")
)

// TravelMatrix is an immutable square lookup of travel durations (seconds)
// between stop ids. It may be asymmetric; the diagonal is always zero.
type TravelMatrix struct {
	ids       []int
	index     map[int]int
	durations []int // row-major, len(ids)^2
}

// NewMatrix accepts an externally supplied duration matrix as-is.
// durations[i][j] is the travel time from ids[i] to ids[j].
func NewMatrix(ids []int, durations [][]int) (*TravelMatrix, error) {
	n := len(ids)
	if len(durations) != n {
		return nil, fmt.Errorf("new matrix: %d rows for %d ids: %w", len(durations), n, ErrInvalidMatrix)
	}

	m := &TravelMatrix{
		ids:       append([]int(nil), ids...),
		index:     make(map[int]int, n),
		durations: make([]int, n*n),
	}

	for i, id := range ids {
		if _, ok := m.index[id]; ok {
			return nil, fmt.Errorf("new matrix: duplicate id %d: %w", id, ErrInvalidMatrix)
		}
		m.index[id] = i
	}

	for i, row := range durations {
		if len(row) != n {
			return nil, fmt.Errorf("new matrix: row %d has %d columns, want %d: %w", i, len(row), n, ErrInvalidMatrix)
		}
		for j, d := range row {
			if d < 0 {
				return nil, fmt.Errorf("new matrix: negative duration %d -> %d: %w", ids[i], ids[j], ErrInvalidMatrix)
			}
			if i != j {
				m.durations[i*n+j] = d
			}
		}
	}

	return m, nil
}

// NewGeodesicMatrix derives durations from haversine distance at a constant average speed.
func NewGeodesicMatrix(stops []domain.Stop, speedKmh float64) (*TravelMatrix, error) {
	if !(speedKmh > 0) || math.IsInf(speedKmh, 0) {
		return nil, fmt.Errorf("new geodesic matrix: speed %v km/h: %w", speedKmh, ErrInvalidMatrix)
	}

	n := len(stops)
	ids := make([]int, n)
	rows := make([][]int, n)
	for i, from := range stops {
		ids[i] = from.ID
		rows[i] = make([]int, n)
		for j, to := range stops {
			if i == j {
				continue
			}
			rows[i][j] = TravelSeconds(HaversineMeters(from.Location, to.Location), speedKmh)
		}
	}

	return NewMatrix(ids, rows)
}

func (m *TravelMatrix) Len() int { return len(m.ids) }

func (m *TravelMatrix) IDs() []int { return append([]int(nil), m.ids...) }

// Lookup returns the duration between two stop ids and whether both are known.
func (m *TravelMatrix) Lookup(from, to int) (int, bool) {
	i, ok := m.index[from]
	if !ok {
		return 0, false
	}
	j, ok := m.index[to]
	if !ok {
		return 0, false
	}
	return m.durations[i*len(m.ids)+j], true
}

// Duration returns the travel time between two covered stop ids.
// Callers are expected to have checked Covers; unknown ids yield zero.
func (m *TravelMatrix) Duration(from, to int) int {
	d, _ := m.Lookup(from, to)
	return d
}

// Covers reports an error naming the first stop the matrix has no row for.
func (m *TravelMatrix) Covers(stops []domain.Stop) error {
	if m == nil {
		return fmt.Errorf("travel matrix is nil: %w", ErrInvalidMatrix)
	}
	for _, s := range stops {
		if _, ok := m.index[s.ID]; !ok {
			return fmt.Errorf("stop %d: %w", s.ID, ErrMissingStop)
		}
	}
	return nil
}

// Rows copies the matrix into a dense [][]int aligned with IDs.
func (m *TravelMatrix) Rows() [][]int {
	n := len(m.ids)
	rows := make([][]int, n)
	for i := range rows {
		rows[i] = append([]int(nil), m.durations[i*n:(i+1)*n]...)
	}
	return rows
}
