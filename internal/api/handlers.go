package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yegors/skyplanner/internal/config"
	"github.com/yegors/skyplanner/internal/flightplan"
	"github.com/yegors/skyplanner/internal/geo"
	"github.com/yegors/skyplanner/internal/websocket"
	"github.com/yegors/skyplanner/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	planService *flightplan.Service
	config      *config.Config
	logger      *logger.Logger
	wsServer    *websocket.Server
}

// NewHandler creates a new API handler
func NewHandler(planService *flightplan.Service, config *config.Config, log *logger.Logger, wsServer *websocket.Server) *Handler {
	return &Handler{
		planService: planService,
		config:      config,
		logger:      log.Named("api-handler"),
		wsServer:    wsServer,
	}
}

// waypointRequest accepts a waypoint position either as decimal lat/lon
// fields or as a single coordinate string in any of the supported formats
type waypointRequest struct {
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Position string   `json:"position,omitempty"`

	Alt       *float64   `json:"alt,omitempty"`
	Speed     *float64   `json:"speed,omitempty"`
	DelaySec  float64    `json:"delay_sec,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Headwind  float64    `json:"headwind,omitempty"`

	TurnTypeOverride flightplan.TurnType `json:"turn_type_override,omitempty"`
}

func (wr *waypointRequest) toWaypoint() (*flightplan.Waypoint, error) {
	wp := &flightplan.Waypoint{
		Alt:              wr.Alt,
		Speed:            wr.Speed,
		DelaySec:         wr.DelaySec,
		StartTime:        wr.StartTime,
		Headwind:         wr.Headwind,
		TurnTypeOverride: wr.TurnTypeOverride,
	}
	switch {
	case wr.Lat != nil && wr.Lon != nil:
		wp.Lat = *wr.Lat
		wp.Lon = *wr.Lon
	case wr.Position != "":
		pt, err := parsePositionPair(wr.Position)
		if err != nil {
			return nil, err
		}
		wp.Lat = pt.Lat
		wp.Lon = pt.Lon
	default:
		return nil, fmt.Errorf("waypoint needs either lat/lon or a position string")
	}
	return wp, nil
}

type createPlanRequest struct {
	Name      string             `json:"name"`
	Platform  string             `json:"platform,omitempty"`
	StartTime *time.Time         `json:"start_time,omitempty"`
	Waypoints []*waypointRequest `json:"waypoints"`
}

type updatePlanRequest struct {
	Name      *string    `json:"name,omitempty"`
	Platform  *string    `json:"platform,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
}

// planResponse is the common envelope returned by every plan endpoint
type planResponse struct {
	Plan   *flightplan.FlightPath `json:"plan"`
	Result *flightplan.Result     `json:"result"`
}

// ListPlans returns all stored flight plans
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planService.ListPlans()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list flight plans")
		h.logger.Error("Failed to list flight plans", logger.Error(err))
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"plans": plans,
		"count": len(plans),
	})
}

// CreatePlan creates a new flight plan
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		h.respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	waypoints := make([]*flightplan.Waypoint, 0, len(req.Waypoints))
	for i, wr := range req.Waypoints {
		wp, err := wr.toWaypoint()
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Sprintf("waypoint %d: %v", i, err))
			return
		}
		waypoints = append(waypoints, wp)
	}

	start := time.Now().UTC()
	if req.StartTime != nil {
		start = *req.StartTime
	}

	fp, res, err := h.planService.CreatePlan(req.Name, req.Platform, start, waypoints)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, planResponse{Plan: fp, Result: res})
}

// GetPlan returns one flight plan with its computed result
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fp, res, err := h.planService.GetPlan(id)
	if err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, planResponse{Plan: fp, Result: res})
}

// UpdatePlan updates a plan's name, platform, or start time
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updatePlanRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	fp, res, err := h.planService.UpdatePlanMeta(id, req.Name, req.Platform, req.StartTime)
	if err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, planResponse{Plan: fp, Result: res})
}

// DeletePlan removes a flight plan
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.planService.DeletePlan(id); err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

type insertWaypointRequest struct {
	Index    *int `json:"index,omitempty"` // Absent means append
	waypointRequest
}

// InsertWaypoint adds a waypoint to a plan
func (h *Handler) InsertWaypoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req insertWaypointRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	wp, err := req.toWaypoint()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	fp, res, err := h.planService.InsertWaypoint(id, index, wp)
	if err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, planResponse{Plan: fp, Result: res})
}

// UpdateWaypoint replaces one waypoint of a plan
func (h *Handler) UpdateWaypoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid waypoint index")
		return
	}
	var req waypointRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	wp, err := req.toWaypoint()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	fp, res, err := h.planService.UpdateWaypoint(id, index, wp)
	if err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, planResponse{Plan: fp, Result: res})
}

// DeleteWaypoint removes one waypoint of a plan
func (h *Handler) DeleteWaypoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid waypoint index")
		return
	}
	fp, res, err := h.planService.DeleteWaypoint(id, index)
	if err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, planResponse{Plan: fp, Result: res})
}

// GetTable returns the computed waypoint arrival table for a plan
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, res, err := h.planService.GetPlan(id)
	if err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"platform":       res.PlatformName,
		"rows":           res.Rows,
		"warnings":       res.Warnings,
		"errors":         res.Errors,
		"total_dist_m":   res.TotalDistM,
		"total_time_sec": res.TotalTimeSec,
	})
}

// GetTrajectory returns the fixed-interval resampled trajectory for a plan
func (h *Handler) GetTrajectory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	interval := 0.0
	if raw := r.URL.Query().Get("interval"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			h.respondError(w, http.StatusBadRequest, "invalid interval")
			return
		}
		interval = parsed
	}
	if interval == 0 {
		interval = h.config.Trajectory.SampleIntervalSecs
	}

	samples, err := h.planService.Trajectory(id, interval)
	if err != nil {
		h.respondPlanError(w, id, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"interval_sec": interval,
		"samples":      samples,
		"count":        len(samples),
	})
}

// GetPlatforms returns all configured platform profiles
func (h *Handler) GetPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms := h.planService.Engine().Platforms().All()
	h.respondJSON(w, http.StatusOK, map[string]any{
		"platforms": platforms,
		"default":   h.planService.Engine().Platforms().Default().Name,
	})
}

type parsePositionRequest struct {
	Text string `json:"text"`
}

// ParsePosition parses a coordinate string and returns the decimal position
func (h *Handler) ParsePosition(w http.ResponseWriter, r *http.Request) {
	var req parsePositionRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	pt, err := parsePositionPair(req.Text)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"lat": pt.Lat, "lon": pt.Lon})
}

// parsePositionPair splits "lat, lon" on the comma and parses both halves,
// accepting any of the supported coordinate formats on each side
func parsePositionPair(text string) (geo.Point, error) {
	parts := strings.SplitN(text, ",", 2)
	if len(parts) != 2 {
		return geo.Point{}, fmt.Errorf("position must be \"lat, lon\": %q", text)
	}
	return geo.ParsePoint(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
}

// HandleWebSocket upgrades the connection and hands it to the hub
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

func decodeBody(r *http.Request, v any) error {
	defer io.Copy(io.Discard, r.Body)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondPlanError maps service errors onto HTTP statuses
func (h *Handler) respondPlanError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, flightplan.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("flight plan not found: %s", id))
		return
	}
	var verr *flightplan.ValidationError
	if errors.As(err, &verr) {
		h.respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	h.logger.Error("Flight plan operation failed",
		logger.String("id", id),
		logger.Error(err))
	h.respondError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", logger.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]any{"error": message})
}
