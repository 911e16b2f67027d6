package services

import (
	"cmp"
	"delivery-route-engine/internal/domain"
	"fmt"
	"slices"
)

// RepairStrategy names the escalation step that produced a repaired route.
type RepairStrategy int

const (
	RepairNone RepairStrategy = iota
	RepairRelocation
	RepairReconstruction
)

func (s RepairStrategy) String() string {
	switch s {
	case RepairRelocation:
		return "relocation"
	case RepairReconstruction:
		return "reconstruction"
	default:
		return "none"
	}
}

// Repair is a complete permutation of the input route and its honest schedule.
// Schedule.Violations is empty only when every deadline is met.
type Repair struct {
	Route    []domain.Stop
	Schedule Schedule
	Strategy RepairStrategy
}

// RepairViolations tries to make an infeasible route feasible.
//
// Violated stops are relocated one at a time, most late first, to whichever slot
// makes the whole route feasible (accepted immediately) or otherwise lowers the
// violation count. If deadlines are still missed, the stops with a deadline are
// rebuilt on their own and the remaining stops are slotted in where they do not
// delay any deadline stop. Irreducible infeasibility is reported, never an error.
// A feasible route is returned unchanged.
func RepairViolations(route []domain.Stop, schedule Schedule, m *TravelMatrix) (Repair, error) {
	if err := m.Covers(route); err != nil {
		return Repair{}, fmt.Errorf("repair violations: %w", err)
	}
	return repair(route, schedule.StartTime, m, DefaultConstructOptions()), nil
}

// repair uses opts for the reconstruction fallback so it scores like the
// construction that produced the route.
func repair(route []domain.Stop, startTime int, m *TravelMatrix, opts ConstructOptions) Repair {
	work := slices.Clone(route)
	sched := simulate(work, m, startTime)
	if sched.Feasible() {
		return Repair{Route: work, Schedule: sched, Strategy: RepairNone}
	}

	work, sched = relocate(work, sched, m)
	if sched.Feasible() {
		return Repair{Route: work, Schedule: sched, Strategy: RepairRelocation}
	}

	rebuilt := reconstruct(work, startTime, m, opts)
	rebuiltSched := simulate(rebuilt, m, startTime)

	// Reconstruction is kept unless the relocated route was strictly better.
	if len(rebuiltSched.Violations) <= len(sched.Violations) {
		return Repair{Route: rebuilt, Schedule: rebuiltSched, Strategy: RepairReconstruction}
	}
	return Repair{Route: work, Schedule: sched, Strategy: RepairRelocation}
}

// relocate moves each violated stop, most late first, to the slot that makes
// the route feasible or else strictly lowers the violation count. A stop with
// no such slot keeps its position.
func relocate(route []domain.Stop, sched Schedule, m *TravelMatrix) ([]domain.Stop, Schedule) {
	work := route

	// Most severe first; the id keeps the sweep deterministic.
	pending := slices.Clone(sched.Violations)
	slices.SortStableFunc(pending, func(a, b Violation) int {
		if c := cmp.Compare(b.Lateness, a.Lateness); c != 0 {
			return c
		}
		return cmp.Compare(a.StopID, b.StopID)
	})

	for _, v := range pending {
		pos := indexOfStop(work, v.StopID)
		bestPos := pos
		bestCount := len(sched.Violations)

		for q := range work {
			if q == pos {
				continue
			}

			trial := moveTo(work, pos, q)
			ts := simulate(trial, m, sched.StartTime)
			if ts.Feasible() {
				return trial, ts
			}
			if len(ts.Violations) < bestCount {
				bestCount = len(ts.Violations)
				bestPos = q
			}
		}

		if bestPos != pos {
			work = moveTo(work, pos, bestPos)
			sched = simulate(work, m, sched.StartTime)
		}
	}

	return work, sched
}

// reconstruct rebuilds the deadline stops alone, then inserts every other stop
// at the first slot where no deadline stop ends up later than before, appending
// it when no such slot exists.
func reconstruct(route []domain.Stop, startTime int, m *TravelMatrix, opts ConstructOptions) []domain.Stop {
	var withDeadline, withoutDeadline []domain.Stop
	for _, s := range route {
		if s.HasDeadline() {
			withDeadline = append(withDeadline, s)
		} else {
			withoutDeadline = append(withoutDeadline, s)
		}
	}

	if len(withDeadline) == 0 {
		return slices.Clone(route)
	}

	result := construct(withDeadline, m, startTime, opts).Route
	late := latenessByStop(simulate(result, m, startTime))

	for _, s := range withoutDeadline {
		placed := false
		for q := range result {
			trial := slices.Insert(slices.Clone(result), q, s)
			trialLate := latenessByStop(simulate(trial, m, startTime))
			if noLater(trialLate, late) {
				result = trial
				late = trialLate
				placed = true
				break
			}
		}
		if !placed {
			result = append(result, s)
		}
	}

	return result
}

// indexOfStop finds a stop's position by id; ids are unique within a route.
func indexOfStop(route []domain.Stop, id int) int {
	return slices.IndexFunc(route, func(s domain.Stop) bool { return s.ID == id })
}

// moveTo returns a copy of route with the stop at position from reinserted at position to.
func moveTo(route []domain.Stop, from, to int) []domain.Stop {
	out := slices.Clone(route)
	s := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, s)
}

func violatedSet(s Schedule) map[int]struct{} {
	set := make(map[int]struct{}, len(s.Violations))
	for _, v := range s.Violations {
		set[v.StopID] = struct{}{}
	}
	return set
}

func latenessByStop(s Schedule) map[int]int {
	late := make(map[int]int, len(s.Violations))
	for _, v := range s.Violations {
		late[v.StopID] = v.Lateness
	}
	return late
}

// noLater reports whether no stop in trial is later than in base; absent means on time.
func noLater(trial, base map[int]int) bool {
	for id, l := range trial {
		if l > base[id] {
			return false
		}
	}
	return true
}
