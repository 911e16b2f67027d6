package services

import (
	"cmp"
	"delivery-route-engine/internal/domain"
	"fmt"
	"slices"
)

const (
	// Waiting is much cheaper than driving, so arriving early beats arriving late.
	DefaultWaitWeight = 1.0 / 60
	// Large enough to dominate travel time without forbidding a late arrival.
	DefaultLatenessWeight = 100.0
)

// ConstructOptions tunes the scoring of the nearest-neighbor step.
type ConstructOptions struct {
	WaitWeight     float64
	LatenessWeight float64
}

func DefaultConstructOptions() ConstructOptions {
	return ConstructOptions{
		WaitWeight:     DefaultWaitWeight,
		LatenessWeight: DefaultLatenessWeight,
	}
}

// Construction is a complete visit order plus the arrival computed at each stop.
type Construction struct {
	Route    []domain.Stop
	Arrivals []int
}

// ConstructRoute builds a visit order using the default scoring weights.
func ConstructRoute(stops []domain.Stop, m *TravelMatrix, startTime int) (Construction, error) {
	return ConstructRouteWithOptions(stops, m, startTime, DefaultConstructOptions())
}

// ConstructRouteWithOptions builds a visit order with a time-window-aware
// greedy nearest-neighbor heuristic.
//
// The seed is the stop with the earliest deadline (or the lowest id when no stop
// has one). Each following step picks the candidate minimizing travel time plus a
// small waiting cost and a large lateness penalty. Ties go to the lowest id, so the
// result is deterministic. It always returns a permutation of the input; honoring
// every window is left to the feasibility check and repair.
func ConstructRouteWithOptions(
	stops []domain.Stop,
	m *TravelMatrix,
	startTime int,
	opts ConstructOptions,
) (Construction, error) {
	if len(stops) == 0 {
		return Construction{Route: []domain.Stop{}, Arrivals: []int{}}, nil
	}

	if err := m.Covers(stops); err != nil {
		return Construction{}, fmt.Errorf("construct route: %w", err)
	}

	return construct(stops, m, startTime, opts), nil
}

// construct assumes the matrix covers every stop.
func construct(stops []domain.Stop, m *TravelMatrix, startTime int, opts ConstructOptions) Construction {
	// Candidates are kept ordered by id so that strict comparisons break ties by lowest id.
	remaining := slices.Clone(stops)
	slices.SortFunc(remaining, func(a, b domain.Stop) int { return cmp.Compare(a.ID, b.ID) })

	route := make([]domain.Stop, 0, len(stops))
	arrivals := make([]int, 0, len(stops))

	seedIdx := seedIndex(remaining)
	seed := remaining[seedIdx]
	remaining = slices.Delete(remaining, seedIdx, seedIdx+1)

	currentTime := startTime
	if seed.Window.HasStart {
		currentTime = max(currentTime, seed.Window.Start)
	}
	route = append(route, seed)
	arrivals = append(arrivals, currentTime)
	current := seed.ID

	for len(remaining) > 0 {
		bestIdx := -1
		var bestScore float64

		for i, c := range remaining {
			travel := m.Duration(current, c.ID)
			arrival := currentTime + travel

			score := float64(travel)
			if c.Window.HasStart && arrival < c.Window.Start {
				score += float64(c.Window.Start-arrival) * opts.WaitWeight
			}
			if c.Window.HasEnd && arrival > c.Window.End {
				score += float64(arrival-c.Window.End) * opts.LatenessWeight
			}

			if bestIdx < 0 || score < bestScore {
				bestIdx = i
				bestScore = score
			}
		}

		next := remaining[bestIdx]
		currentTime += m.Duration(current, next.ID)
		if next.Window.HasStart && currentTime < next.Window.Start {
			currentTime = next.Window.Start
		}

		route = append(route, next)
		arrivals = append(arrivals, currentTime)
		remaining = slices.Delete(remaining, bestIdx, bestIdx+1)
		current = next.ID
	}

	return Construction{Route: route, Arrivals: arrivals}
}

// seedIndex picks the earliest deadline, falling back to the lowest id.
// stops must be sorted by id.
func seedIndex(stops []domain.Stop) int {
	best := -1
	for i, s := range stops {
		if !s.Window.HasEnd {
			continue
		}
		if best < 0 || s.Window.End < stops[best].Window.End {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
