package services

import (
	"delivery-route-engine/internal/domain"
	"fmt"
	"log"
	"slices"
)

// RouteManager owns one live route: the stop set, its visit order and the
// last computed plan. Stops are kept in an arena addressed by slot; the order is a
// slice of slots and ids resolve to slots through an index, so no lookup ever
// depends on comparing stop values.
//
// RouteManager is not safe for concurrent use; callers serialize access.
type RouteManager struct {
	arena []domain.Stop
	index map[int]int // stop id -> arena slot
	order []int       // arena slots in visit order

	opts         ConstructOptions
	lastPlan     *domain.RoutePlan
	lastArrivals map[int]int
	lastStart    int
}

func NewRouteManager() *RouteManager {
	return NewRouteManagerWithOptions(DefaultConstructOptions())
}

func NewRouteManagerWithOptions(opts ConstructOptions) *RouteManager {
	return &RouteManager{
		index:        map[int]int{},
		opts:         opts,
		lastArrivals: map[int]int{},
	}
}

// Load replaces the whole stop set, keeping the supplied order and delivered flags.
// It does not reoptimize. On error the current route is left untouched.
func (r *RouteManager) Load(stops []domain.Stop) error {
	index := make(map[int]int, len(stops))
	for i, s := range stops {
		if _, ok := index[s.ID]; ok {
			return fmt.Errorf("load stops: id %d: %w", s.ID, domain.ErrDuplicateStop)
		}
		if err := s.Window.Validate(); err != nil {
			return fmt.Errorf("load stops: id %d: %w", s.ID, err)
		}
		index[s.ID] = i
	}

	r.arena = slices.Clone(stops)
	r.index = index
	r.order = make([]int, len(stops))
	for i := range r.order {
		r.order[i] = i
	}
	r.lastPlan = nil
	r.lastArrivals = map[int]int{}
	r.lastStart = 0

	log.Printf("route loaded stops=%d", len(stops))
	return nil
}

// MoveStop removes a stop and reinserts it at newIndex. No feasibility check is
// made here; the next Reoptimize accounts for the new order.
func (r *RouteManager) MoveStop(id int, newIndex int) error {
	if newIndex < 0 || newIndex >= len(r.order) {
		return fmt.Errorf("move stop %d: index %d outside [0, %d): %w", id, newIndex, len(r.order), domain.ErrInvalidIndex)
	}

	pos, err := r.position(id)
	if err != nil {
		return fmt.Errorf("move stop: %w", err)
	}
	if pos == newIndex {
		return nil
	}

	slot := r.order[pos]
	r.order = slices.Delete(r.order, pos, pos+1)
	r.order = slices.Insert(r.order, newIndex, slot)

	return nil
}

// MarkDelivered flips a stop to delivered. Repeated calls succeed without effect;
// the returned bool reports whether this call changed anything.
func (r *RouteManager) MarkDelivered(id int) (bool, error) {
	slot, ok := r.index[id]
	if !ok {
		return false, fmt.Errorf("mark delivered %d: %w", id, domain.ErrStopNotFound)
	}
	if r.arena[slot].Delivered {
		return false, nil
	}

	r.arena[slot].Delivered = true
	log.Printf("stop delivered id=%d delivered=%d total=%d", id, r.deliveredCount(), len(r.order))
	return true, nil
}

// Reoptimize rebuilds the pending part of the route: construction, feasibility
// check and, only when a deadline is missed, repair. Delivered stops follow the
// pending sequence in their existing relative order.
func (r *RouteManager) Reoptimize(m *TravelMatrix, startTime int) (domain.RoutePlan, error) {
	pending, delivered := r.partition()

	var route []domain.Stop
	if len(pending) > 0 {
		if err := m.Covers(pending); err != nil {
			return domain.RoutePlan{}, fmt.Errorf("reoptimize: %w", err)
		}
		route = construct(pending, m, startTime, r.opts).Route
	}
	sched := simulate(route, m, startTime)

	repaired := false
	if !sched.Feasible() {
		fix := repair(route, startTime, m, r.opts)
		route, sched = fix.Route, fix.Schedule
		repaired = true
		log.Printf("route repaired strategy=%s violated=%d", fix.Strategy, len(sched.Violations))
	}

	order := make([]int, 0, len(r.order))
	for _, s := range route {
		order = append(order, r.index[s.ID])
	}
	order = append(order, delivered...)
	r.order = order

	arrivals := make(map[int]int, len(route))
	late := violatedSet(sched)
	plan := domain.RoutePlan{
		StartTime:   startTime,
		Stops:       make([]domain.PlannedStop, 0, len(order)),
		Feasible:    sched.Feasible(),
		ViolatedIDs: sched.ViolatedIDs(),
		Repaired:    repaired,
	}
	for i, s := range route {
		arrivals[s.ID] = sched.Arrivals[i]
		_, isLate := late[s.ID]
		plan.Stops = append(plan.Stops, domain.PlannedStop{
			Stop:       s,
			Arrival:    sched.Arrivals[i],
			HasArrival: true,
			Late:       isLate,
		})
	}
	for _, slot := range delivered {
		plan.Stops = append(plan.Stops, domain.PlannedStop{Stop: r.arena[slot]})
	}

	r.lastPlan = &plan
	r.lastArrivals = arrivals
	r.lastStart = startTime

	return clonePlan(plan), nil
}

// Orders returns a snapshot of the current visit order.
func (r *RouteManager) Orders() []domain.Stop {
	out := make([]domain.Stop, 0, len(r.order))
	for _, slot := range r.order {
		out = append(out, r.arena[slot])
	}
	return out
}

func (r *RouteManager) Stop(id int) (domain.Stop, bool) {
	slot, ok := r.index[id]
	if !ok {
		return domain.Stop{}, false
	}
	return r.arena[slot], true
}

// CurrentTarget is the first pending stop in visit order.
func (r *RouteManager) CurrentTarget() (domain.Stop, bool) {
	for _, slot := range r.order {
		if !r.arena[slot].Delivered {
			return r.arena[slot], true
		}
	}
	return domain.Stop{}, false
}

func (r *RouteManager) Progress() domain.Progress {
	total := len(r.order)
	done := r.deliveredCount()

	p := domain.Progress{
		Total:     total,
		Delivered: done,
		Remaining: total - done,
	}
	if total > 0 {
		p.Percent = float64(done) / float64(total) * 100
	}
	return p
}

// LastPlan returns the result of the most recent Reoptimize since the last Load.
func (r *RouteManager) LastPlan() (domain.RoutePlan, bool) {
	if r.lastPlan == nil {
		return domain.RoutePlan{}, false
	}
	return clonePlan(*r.lastPlan), true
}

// Arrival returns the arrival computed for a stop by the last Reoptimize.
func (r *RouteManager) Arrival(id int) (int, bool) {
	a, ok := r.lastArrivals[id]
	return a, ok
}

func (r *RouteManager) LastStartTime() int { return r.lastStart }

func (r *RouteManager) position(id int) (int, error) {
	slot, ok := r.index[id]
	if !ok {
		return -1, fmt.Errorf("stop %d: %w", id, domain.ErrStopNotFound)
	}
	return slices.Index(r.order, slot), nil
}

// partition splits the current order into pending stops and delivered slots.
func (r *RouteManager) partition() ([]domain.Stop, []int) {
	var pending []domain.Stop
	var delivered []int
	for _, slot := range r.order {
		if r.arena[slot].Delivered {
			delivered = append(delivered, slot)
			continue
		}
		pending = append(pending, r.arena[slot])
	}
	return pending, delivered
}

func (r *RouteManager) deliveredCount() int {
	n := 0
	for _, s := range r.arena {
		if s.Delivered {
			n++
		}
	}
	return n
}

func clonePlan(p domain.RoutePlan) domain.RoutePlan {
	p.Stops = slices.Clone(p.Stops)
	p.ViolatedIDs = slices.Clone(p.ViolatedIDs)
	return p
}
