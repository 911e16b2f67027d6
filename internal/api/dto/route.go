package dto

// StopRecord is the input record for one stop. Clock fields use "HH:MM".
type StopRecord struct {
	ID          int      `json:"id"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	WindowStart string   `json:"window_start,omitempty"`
	WindowEnd   string   `json:"window_end,omitempty"`
	Delivered   bool     `json:"delivered,omitempty"`
}

type LoadStopsRequest struct {
	Stops []StopRecord `json:"stops"`
}

type MoveStopRequest struct {
	Index *int `json:"index"`
}

type ReoptimizeRequest struct {
	Start  string `json:"start"`
	Source string `json:"source"`
}

type StopResponse struct {
	ID          int     `json:"id"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	WindowStart string  `json:"window_start,omitempty"`
	WindowEnd   string  `json:"window_end,omitempty"`
	Delivered   bool    `json:"delivered"`
	Arrival     string  `json:"arrival,omitempty"`
	Late        bool    `json:"late,omitempty"`
}

type ProgressResponse struct {
	Total     int     `json:"total"`
	Delivered int     `json:"delivered"`
	Remaining int     `json:"remaining"`
	Percent   float64 `json:"percent"`
}

type RouteResponse struct {
	Stops         []StopResponse   `json:"stops"`
	Progress      ProgressResponse `json:"progress"`
	CurrentTarget *StopResponse    `json:"current_target"`
	Start         string           `json:"start,omitempty"`
	Feasible      *bool            `json:"feasible,omitempty"`
	ViolatedIDs   []int            `json:"violated_ids,omitempty"`
}

type PlanResponse struct {
	Start       string         `json:"start"`
	Source      string         `json:"source"`
	Feasible    bool           `json:"feasible"`
	Repaired    bool           `json:"repaired"`
	ViolatedIDs []int          `json:"violated_ids"`
	Stops       []StopResponse `json:"stops"`
}

type ProximityResponse struct {
	TargetID       int     `json:"target_id"`
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
	Within         bool    `json:"within"`
}
