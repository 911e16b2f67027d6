package services

import (
	"delivery-route-engine/internal/domain"
	"errors"
	"slices"
	"testing"
)

func loadedManager(t *testing.T, stops ...domain.Stop) *RouteManager {
	t.Helper()
	rm := NewRouteManager()
	if err := rm.Load(stops); err != nil {
		t.Fatalf("load: %v", err)
	}
	return rm
}

func plainStops(t *testing.T, n int) []domain.Stop {
	t.Helper()
	out := make([]domain.Stop, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, stop(t, i, domain.NoWindow()))
	}
	return out
}

func TestRouteManagerLoadRejectsDuplicateIDs(t *testing.T) {
	rm := loadedManager(t, plainStops(t, 2)...)

	err := rm.Load([]domain.Stop{{ID: 5}, {ID: 5}})
	if !errors.Is(err, domain.ErrDuplicateStop) {
		t.Fatalf("err = %v, want ErrDuplicateStop", err)
	}
	if got := ids(rm.Orders()); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("orders = %v, want previous route kept", got)
	}
}

func TestRouteManagerLoadKeepsDeliveredFlags(t *testing.T) {
	done := stop(t, 2, domain.NoWindow())
	done.Delivered = true
	rm := loadedManager(t, stop(t, 1, domain.NoWindow()), done)

	p := rm.Progress()
	if p.Total != 2 || p.Delivered != 1 || p.Remaining != 1 || p.Percent != 50 {
		t.Fatalf("progress = %+v", p)
	}
	if _, ok := rm.LastPlan(); ok {
		t.Fatalf("load must not reoptimize")
	}
}

func TestRouteManagerMoveStop(t *testing.T) {
	rm := loadedManager(t, plainStops(t, 4)...)

	if err := rm.MoveStop(4, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(rm.Orders()); !slices.Equal(got, []int{1, 4, 2, 3}) {
		t.Fatalf("orders = %v, want [1 4 2 3]", got)
	}

	if err := rm.MoveStop(1, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(rm.Orders()); !slices.Equal(got, []int{4, 2, 3, 1}) {
		t.Fatalf("orders = %v, want [4 2 3 1]", got)
	}

	if err := rm.MoveStop(2, 1); err != nil {
		t.Fatalf("same position should succeed: %v", err)
	}
	if got := ids(rm.Orders()); !slices.Equal(got, []int{4, 2, 3, 1}) {
		t.Fatalf("orders = %v, want unchanged", got)
	}
}

func TestRouteManagerMoveStopFailuresLeaveOrder(t *testing.T) {
	rm := loadedManager(t, plainStops(t, 3)...)

	for _, idx := range []int{-1, 3, 100} {
		if err := rm.MoveStop(1, idx); !errors.Is(err, domain.ErrInvalidIndex) {
			t.Fatalf("index %d: err = %v, want ErrInvalidIndex", idx, err)
		}
	}
	if err := rm.MoveStop(99, 0); !errors.Is(err, domain.ErrStopNotFound) {
		t.Fatalf("err = %v, want ErrStopNotFound", err)
	}

	if got := ids(rm.Orders()); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("orders = %v, want unchanged [1 2 3]", got)
	}
}

func TestRouteManagerMarkDeliveredIdempotent(t *testing.T) {
	rm := loadedManager(t, plainStops(t, 3)...)

	changed, err := rm.MarkDelivered(2)
	if err != nil || !changed {
		t.Fatalf("first call: changed=%v err=%v", changed, err)
	}
	changed, err = rm.MarkDelivered(2)
	if err != nil || changed {
		t.Fatalf("second call: changed=%v err=%v", changed, err)
	}
	if got := rm.Progress().Delivered; got != 1 {
		t.Fatalf("delivered = %d, want 1", got)
	}

	if _, err := rm.MarkDelivered(42); !errors.Is(err, domain.ErrStopNotFound) {
		t.Fatalf("err = %v, want ErrStopNotFound", err)
	}

	target, ok := rm.CurrentTarget()
	if !ok || target.ID != 1 {
		t.Fatalf("current target = %+v ok=%v, want stop 1", target, ok)
	}
}

func TestRouteManagerReoptimizeAppendsDelivered(t *testing.T) {
	c := stop(t, 10, domain.Deadline(clock(t, "09:30")))
	b := stop(t, 20, domain.Deadline(clock(t, "10:00")))
	a := stop(t, 30, domain.NoWindow())
	d1 := stop(t, 40, domain.NoWindow())
	d2 := stop(t, 50, domain.NoWindow())

	rm := loadedManager(t, d2, a, d1, b, c)
	for _, id := range []int{50, 40} {
		if _, err := rm.MarkDelivered(id); err != nil {
			t.Fatalf("mark delivered: %v", err)
		}
	}

	// The matrix only needs to cover pending stops.
	m := uniformMatrix(t, []domain.Stop{a, b, c}, 15*60)
	plan, err := rm.Reoptimize(m, clock(t, "08:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ids(rm.Orders()); !slices.Equal(got, []int{10, 20, 30, 50, 40}) {
		t.Fatalf("orders = %v, want [10 20 30 50 40]", got)
	}
	if !plan.Feasible || len(plan.ViolatedIDs) != 0 || plan.Repaired {
		t.Fatalf("plan = %+v, want feasible without repair", plan)
	}
	if len(plan.Stops) != 5 {
		t.Fatalf("plan stops = %d, want 5", len(plan.Stops))
	}
	if !plan.Stops[2].HasArrival || plan.Stops[2].Arrival != clock(t, "08:30") {
		t.Fatalf("arrival at A = %+v, want 08:30", plan.Stops[2])
	}
	if plan.Stops[3].HasArrival {
		t.Fatalf("delivered stops carry no arrival")
	}

	if at, ok := rm.Arrival(20); !ok || at != clock(t, "08:15") {
		t.Fatalf("arrival(20) = %d ok=%v, want 08:15", at, ok)
	}
	if rm.LastStartTime() != eightAM {
		t.Fatalf("last start = %d, want %d", rm.LastStartTime(), eightAM)
	}
	target, _ := rm.CurrentTarget()
	if target.ID != 10 {
		t.Fatalf("current target = %d, want 10", target.ID)
	}
}

func TestRouteManagerReoptimizeReportsViolations(t *testing.T) {
	x := stop(t, 1, domain.Deadline(eightAM+100))
	y := stop(t, 2, domain.Deadline(eightAM+100))
	rm := loadedManager(t, x, y)

	plan, err := rm.Reoptimize(uniformMatrix(t, []domain.Stop{x, y}, 900), eightAM)
	if err != nil {
		t.Fatalf("infeasibility is not an error: %v", err)
	}
	if plan.Feasible || !plan.Repaired {
		t.Fatalf("plan = %+v, want repaired and infeasible", plan)
	}
	if !slices.Equal(plan.ViolatedIDs, []int{2}) {
		t.Fatalf("violated = %v, want [2]", plan.ViolatedIDs)
	}
	if !plan.Stops[1].Late {
		t.Fatalf("late stop not flagged: %+v", plan.Stops[1])
	}

	last, ok := rm.LastPlan()
	if !ok || !slices.Equal(last.ViolatedIDs, plan.ViolatedIDs) {
		t.Fatalf("last plan = %+v", last)
	}
}

func TestRouteManagerReoptimizeMissingStopLeavesOrder(t *testing.T) {
	stops := plainStops(t, 3)
	rm := loadedManager(t, stops...)
	if err := rm.MoveStop(3, 0); err != nil {
		t.Fatalf("move: %v", err)
	}

	_, err := rm.Reoptimize(uniformMatrix(t, stops[:2], 60), eightAM)
	if !errors.Is(err, ErrMissingStop) {
		t.Fatalf("err = %v, want ErrMissingStop", err)
	}
	if got := ids(rm.Orders()); !slices.Equal(got, []int{3, 1, 2}) {
		t.Fatalf("orders = %v, want unchanged [3 1 2]", got)
	}
}

func TestRouteManagerReoptimizeAllDelivered(t *testing.T) {
	rm := loadedManager(t, plainStops(t, 2)...)
	rm.MarkDelivered(1)
	rm.MarkDelivered(2)

	plan, err := rm.Reoptimize(nil, eightAM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Feasible || len(plan.Stops) != 2 {
		t.Fatalf("plan = %+v", plan)
	}
	if _, ok := rm.CurrentTarget(); ok {
		t.Fatalf("no current target expected once every stop is delivered")
	}
	if p := rm.Progress(); p.Percent != 100 {
		t.Fatalf("progress = %+v", p)
	}
}

func TestRouteManagerRepairUsesManagerOptions(t *testing.T) {
	stops := []domain.Stop{
		stop(t, 1, domain.Deadline(eightAM+100)),
		stop(t, 2, domain.Between(eightAM+2700, eightAM+3600)),
		stop(t, 3, domain.Deadline(eightAM+100)),
		stop(t, 4, domain.NoWindow()),
	}
	rm := NewRouteManagerWithOptions(ConstructOptions{WaitWeight: DefaultWaitWeight, LatenessWeight: 0})
	if err := rm.Load(stops); err != nil {
		t.Fatalf("load: %v", err)
	}

	plan, err := rm.Reoptimize(uniformMatrix(t, stops, 900), eightAM)
	if err != nil {
		t.Fatalf("reoptimize: %v", err)
	}
	if !plan.Repaired {
		t.Fatalf("plan = %+v, want repaired", plan)
	}
	if got, want := ids(rm.Orders()), []int{1, 3, 4, 2}; !slices.Equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}
