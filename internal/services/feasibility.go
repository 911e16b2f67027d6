package services

import (
	"delivery-route-engine/internal/domain"
	"fmt"
)

// Violation records a stop whose simulated arrival is past its deadline.
type Violation struct {
	StopID   int
	Arrival  int
	Lateness int
}

// Schedule holds the arrivals simulated for one (route, start time, matrix) triple.
// Arrivals[i] belongs to the i-th stop of the route it was computed from.
type Schedule struct {
	StartTime  int
	Arrivals   []int
	Violations []Violation
}

func (s Schedule) Feasible() bool { return len(s.Violations) == 0 }

// ViolatedIDs lists violated stop ids in route order.
func (s Schedule) ViolatedIDs() []int {
	ids := make([]int, 0, len(s.Violations))
	for _, v := range s.Violations {
		ids = append(ids, v.StopID)
	}
	return ids
}

// CheckFeasibility simulates the route from startTime and reports every missed deadline.
// Arriving before a window opens means waiting until it does; waiting is never a violation.
func CheckFeasibility(route []domain.Stop, m *TravelMatrix, startTime int) (Schedule, error) {
	if err := m.Covers(route); err != nil {
		return Schedule{}, fmt.Errorf("check feasibility: %w", err)
	}
	return simulate(route, m, startTime), nil
}

// simulate assumes the matrix covers every stop of the route.
func simulate(route []domain.Stop, m *TravelMatrix, startTime int) Schedule {
	sched := Schedule{
		StartTime: startTime,
		Arrivals:  make([]int, len(route)),
	}

	currentTime := startTime
	for i, s := range route {
		if i > 0 {
			currentTime += m.Duration(route[i-1].ID, s.ID)
		}
		if s.Window.HasStart && currentTime < s.Window.Start {
			currentTime = s.Window.Start
		}
		sched.Arrivals[i] = currentTime

		if late := s.Window.Lateness(currentTime); late > 0 {
			sched.Violations = append(sched.Violations, Violation{
				StopID:   s.ID,
				Arrival:  currentTime,
				Lateness: late,
			})
		}
	}

	return sched
}
