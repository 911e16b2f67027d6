package domain

// Represents a single stop in a planned route.
// Pending stops carry the simulated arrival (seconds since midnight);
// delivered stops are appended after the pending sequence with HasArrival == false.
type PlannedStop struct {
	Stop       Stop
	Arrival    int
	HasArrival bool
	Late       bool
}

// Represents the outcome of a reoptimization.
// A RoutePlan is immutable planning data: the visit order, the start time it was
// simulated from, and an honest account of which deadlines cannot be met.
type RoutePlan struct {
	StartTime   int
	Stops       []PlannedStop
	Feasible    bool
	ViolatedIDs []int
	Repaired    bool
}

// Completion totals for a route.
type Progress struct {
	Total     int
	Delivered int
	Remaining int
	Percent   float64
}
