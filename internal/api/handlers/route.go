package handlers

import (
	"context"
	"delivery-route-engine/internal/api/dto"
	"delivery-route-engine/internal/domain"
	"delivery-route-engine/internal/platform/obs"
	"delivery-route-engine/internal/ports"
	"delivery-route-engine/internal/services"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

const (
	SourceGeodesic = "geodesic"
	SourceProvider = "provider"
)

// RouteHandler exposes one live route over HTTP.
// Repo, Provider and Cache are optional; a nil field disables that backend.
type RouteHandler struct {
	Manager  *services.RouteManager
	Repo     ports.StopRepository
	Provider ports.DistanceProvider
	Cache    ports.MatrixCache

	SpeedKmh        float64
	DayStart        int
	ProximityRadius float64

	// mu serializes every use of Manager.
	mu sync.Mutex
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := dto.RouteResponse{
		Stops:    make([]dto.StopResponse, 0),
		Progress: toProgressResponse(h.Manager.Progress()),
	}

	plan, havePlan := h.Manager.LastPlan()
	late := map[int]bool{}
	if havePlan {
		feasible := plan.Feasible
		res.Feasible = &feasible
		res.ViolatedIDs = plan.ViolatedIDs
		res.Start = domain.FormatClock(plan.StartTime)
		for _, id := range plan.ViolatedIDs {
			late[id] = true
		}
	}

	for _, s := range h.Manager.Orders() {
		sr := toStopResponse(s)
		if a, ok := h.Manager.Arrival(s.ID); ok && !s.Delivered {
			sr.Arrival = domain.FormatClock(a)
			sr.Late = late[s.ID]
		}
		res.Stops = append(res.Stops, sr)
	}

	if t, ok := h.Manager.CurrentTarget(); ok {
		tr := toStopResponse(t)
		res.CurrentTarget = &tr
	}

	writeJSON(w, r, http.StatusOK, res)
}

// LoadStops replaces the whole stop set. The route is not reoptimized.
func (h *RouteHandler) LoadStops(w http.ResponseWriter, r *http.Request) {
	var req dto.LoadStopsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	stops, err := toStops(req.Stops)
	if err != nil {
		writeDomainError(w, r, "load stops", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Repo != nil {
		if err := h.Repo.ReplaceStops(r.Context(), stops); err != nil {
			writeDomainError(w, r, "persist stops", err)
			return
		}
	}

	if err := h.Manager.Load(stops); err != nil {
		writeDomainError(w, r, "load stops", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toProgressResponse(h.Manager.Progress()))
}

func (h *RouteHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := stopID(w, r)
	if !ok {
		return
	}

	var req dto.MoveStopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Index == nil {
		writeError(w, r, http.StatusBadRequest, "index is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Manager.MoveStop(id, *req.Index); err != nil {
		writeDomainError(w, r, "move stop", err)
		return
	}
	log.Printf("req_id=%s stop moved id=%d index=%d", obs.RequestID(r.Context()), id, *req.Index)

	writeJSON(w, r, http.StatusOK, map[string]any{"id": id, "index": *req.Index})
}

func (h *RouteHandler) Delivered(w http.ResponseWriter, r *http.Request) {
	id, ok := stopID(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	s, found := h.Manager.Stop(id)
	if !found {
		writeDomainError(w, r, "mark delivered", fmt.Errorf("stop %d: %w", id, domain.ErrStopNotFound))
		return
	}

	if !s.Delivered && h.Repo != nil {
		if err := h.Repo.MarkDelivered(r.Context(), id); err != nil {
			writeDomainError(w, r, "persist delivered", err)
			return
		}
	}

	changed, err := h.Manager.MarkDelivered(id)
	if err != nil {
		writeDomainError(w, r, "mark delivered", err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"id":       id,
		"changed":  changed,
		"progress": toProgressResponse(h.Manager.Progress()),
	})
}

// Reoptimize builds a travel matrix for the pending stops and replans them.
// The lock is held across the matrix build so the stop set cannot change underneath it.
func (h *RouteHandler) Reoptimize(w http.ResponseWriter, r *http.Request) {
	var req dto.ReoptimizeRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	start := h.DayStart
	if strings.TrimSpace(req.Start) != "" {
		s, err := domain.ParseClock(req.Start)
		if err != nil {
			writeDomainError(w, r, "reoptimize", err)
			return
		}
		start = s
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = SourceGeodesic
	}
	if source != SourceGeodesic && source != SourceProvider {
		writeError(w, r, http.StatusBadRequest, "source must be geodesic or provider")
		return
	}
	if source == SourceProvider && h.Provider == nil {
		writeError(w, r, http.StatusBadRequest, "no distance provider configured")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	pending := make([]domain.Stop, 0)
	for _, s := range h.Manager.Orders() {
		if !s.Delivered {
			pending = append(pending, s)
		}
	}

	m, err := h.matrix(r.Context(), source, pending)
	if err != nil {
		log.Printf("build matrix failed: source=%s err=%v", source, err)
		writeError(w, r, http.StatusBadGateway, "travel matrix unavailable")
		return
	}

	plan, err := h.reoptimize(r.Context(), m, start)
	if err != nil {
		writeDomainError(w, r, "reoptimize", err)
		return
	}

	res := dto.PlanResponse{
		Start:       domain.FormatClock(plan.StartTime),
		Source:      source,
		Feasible:    plan.Feasible,
		Repaired:    plan.Repaired,
		ViolatedIDs: plan.ViolatedIDs,
		Stops:       make([]dto.StopResponse, 0, len(plan.Stops)),
	}
	if res.ViolatedIDs == nil {
		res.ViolatedIDs = []int{}
	}
	for _, ps := range plan.Stops {
		sr := toStopResponse(ps.Stop)
		if ps.HasArrival {
			sr.Arrival = domain.FormatClock(ps.Arrival)
			sr.Late = ps.Late
		}
		res.Stops = append(res.Stops, sr)
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) reoptimize(ctx context.Context, m *services.TravelMatrix, start int) (_ domain.RoutePlan, err error) {
	defer obs.Time(ctx, "route.Reoptimize")(&err)
	return h.Manager.Reoptimize(m, start)
}

func (h *RouteHandler) matrix(ctx context.Context, source string, stops []domain.Stop) (*services.TravelMatrix, error) {
	build := func() (*services.TravelMatrix, error) {
		if source == SourceProvider {
			return services.BuildProviderMatrix(ctx, stops, h.Provider)
		}
		return services.NewGeodesicMatrix(stops, h.SpeedKmh)
	}

	if len(stops) == 0 {
		return build()
	}
	return services.LoadOrBuildMatrix(ctx, h.Cache, services.MatrixKey(source, stops), build)
}

// Proximity reports how far a driver position is from the current target.
func (h *RouteHandler) Proximity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	pos := domain.Coordinates{Lat: lat, Lon: lon}
	if errLat != nil || errLon != nil || !pos.Valid() {
		writeError(w, r, http.StatusBadRequest, "lat and lon must be valid coordinates")
		return
	}

	h.mu.Lock()
	target, ok := h.Manager.CurrentTarget()
	h.mu.Unlock()

	if !ok {
		writeError(w, r, http.StatusNotFound, "no pending stop")
		return
	}

	radius := h.ProximityRadius
	if radius <= 0 {
		radius = services.DefaultProximityRadiusMeters
	}
	p := services.CheckProximity(pos, target, radius)

	writeJSON(w, r, http.StatusOK, dto.ProximityResponse{
		TargetID:       target.ID,
		DistanceMeters: p.DistanceMeters,
		RadiusMeters:   radius,
		Within:         p.Within,
	})
}

func stopID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "stop id must be an integer")
		return 0, false
	}
	return id, true
}

func toStops(records []dto.StopRecord) ([]domain.Stop, error) {
	stops := make([]domain.Stop, 0, len(records))
	seen := make(map[int]struct{}, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			return nil, fmt.Errorf("stop %d: %w", rec.ID, domain.ErrDuplicateStop)
		}
		seen[rec.ID] = struct{}{}

		if rec.Latitude == nil || rec.Longitude == nil {
			return nil, fmt.Errorf("stop %d: latitude and longitude are required: %w", rec.ID, domain.ErrInvalidCoordinates)
		}
		loc := domain.Coordinates{Lat: *rec.Latitude, Lon: *rec.Longitude}
		if !loc.Valid() {
			return nil, fmt.Errorf("stop %d: %w", rec.ID, domain.ErrInvalidCoordinates)
		}

		win, err := domain.ParseWindow(rec.WindowStart, rec.WindowEnd)
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", rec.ID, err)
		}

		s, err := domain.NewStop(rec.ID, strings.TrimSpace(rec.Address), loc, win)
		if err != nil {
			return nil, err
		}
		s.Delivered = rec.Delivered
		stops = append(stops, s)
	}
	return stops, nil
}

func toStopResponse(s domain.Stop) dto.StopResponse {
	res := dto.StopResponse{
		ID:        s.ID,
		Address:   s.Address,
		Latitude:  s.Location.Lat,
		Longitude: s.Location.Lon,
		Delivered: s.Delivered,
	}
	if s.Window.HasStart {
		res.WindowStart = domain.FormatClock(s.Window.Start)
	}
	if s.Window.HasEnd {
		res.WindowEnd = domain.FormatClock(s.Window.End)
	}
	return res
}

func toProgressResponse(p domain.Progress) dto.ProgressResponse {
	return dto.ProgressResponse{
		Total:     p.Total,
		Delivered: p.Delivered,
		Remaining: p.Remaining,
		Percent:   p.Percent,
	}
}
