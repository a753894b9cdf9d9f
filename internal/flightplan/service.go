package flightplan

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yegors/skyplanner/internal/websocket"
	"github.com/yegors/skyplanner/pkg/logger"
)

// ErrNotFound is returned when a flight plan ID does not exist
var ErrNotFound = errors.New("flight plan not found")

// Storage persists flight plans and their waypoints
type Storage interface {
	SavePlan(fp *FlightPath) error
	GetPlan(id string) (*FlightPath, error)
	ListPlans() ([]*FlightPath, error)
	DeletePlan(id string) error
}

// Service owns flight plan lifecycle: persistence, wholesale recompute on
// every mutation, and pushing recomputed tables to connected views. Plans
// are independent; the mutex only serializes read-modify-write cycles on
// the same stored plan.
type Service struct {
	engine   *Engine
	storage  Storage
	wsServer *websocket.Server
	logger   *logger.Logger
	mu       sync.Mutex
}

// NewService creates a flight plan service
func NewService(engine *Engine, storage Storage, wsServer *websocket.Server, log *logger.Logger) *Service {
	return &Service{
		engine:   engine,
		storage:  storage,
		wsServer: wsServer,
		logger:   log.Named("flightplan"),
	}
}

// Engine exposes the underlying kinematics engine
func (s *Service) Engine() *Engine {
	return s.engine
}

// CreatePlan stores a new flight path and returns it with its first
// computed result
func (s *Service) CreatePlan(name, platformName string, startTime time.Time, waypoints []*Waypoint) (*FlightPath, *Result, error) {
	if len(waypoints) == 0 {
		return nil, nil, fmt.Errorf("flight path needs at least one waypoint")
	}

	now := time.Now().UTC()
	fp := &FlightPath{
		ID:        uuid.NewString(),
		Name:      name,
		Platform:  platformName,
		StartTime: startTime,
		Waypoints: waypoints,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res := s.engine.Compute(fp)
	if err := s.storage.SavePlan(fp); err != nil {
		return nil, nil, fmt.Errorf("failed to save flight plan: %w", err)
	}

	s.logger.Info("Created flight plan",
		logger.String("id", fp.ID),
		logger.String("name", fp.Name),
		logger.String("platform", res.PlatformName),
		logger.Int("waypoints", len(fp.Waypoints)))

	s.broadcastUpdate(fp, res)
	return fp, res, nil
}

// GetPlan loads a plan and recomputes it. Recompute is cheap and always
// wholesale, so reads never serve stale kinematics.
func (s *Service) GetPlan(id string) (*FlightPath, *Result, error) {
	fp, err := s.storage.GetPlan(id)
	if err != nil {
		return nil, nil, err
	}
	return fp, s.engine.Compute(fp), nil
}

// ListPlans returns all stored plans without computing them
func (s *Service) ListPlans() ([]*FlightPath, error) {
	return s.storage.ListPlans()
}

// UpdatePlanMeta changes a plan's name, platform, or start time
func (s *Service) UpdatePlanMeta(id string, name, platformName *string, startTime *time.Time) (*FlightPath, *Result, error) {
	return s.mutate(id, func(fp *FlightPath) error {
		if name != nil {
			fp.Name = *name
		}
		if platformName != nil {
			fp.Platform = *platformName
		}
		if startTime != nil {
			fp.StartTime = *startTime
		}
		return nil
	})
}

// InsertWaypoint inserts a waypoint at the given index; index -1 or past
// the end appends
func (s *Service) InsertWaypoint(id string, index int, wp *Waypoint) (*FlightPath, *Result, error) {
	return s.mutate(id, func(fp *FlightPath) error {
		if index < 0 || index >= len(fp.Waypoints) {
			fp.Waypoints = append(fp.Waypoints, wp)
			return nil
		}
		fp.Waypoints = append(fp.Waypoints[:index], append([]*Waypoint{wp}, fp.Waypoints[index:]...)...)
		return nil
	})
}

// UpdateWaypoint replaces the waypoint at the given index
func (s *Service) UpdateWaypoint(id string, index int, wp *Waypoint) (*FlightPath, *Result, error) {
	return s.mutate(id, func(fp *FlightPath) error {
		if index < 0 || index >= len(fp.Waypoints) {
			return fmt.Errorf("waypoint index %d out of range", index)
		}
		fp.Waypoints[index] = wp
		return nil
	})
}

// DeleteWaypoint removes the waypoint at the given index. The last
// remaining waypoint cannot be removed; delete the plan instead.
func (s *Service) DeleteWaypoint(id string, index int) (*FlightPath, *Result, error) {
	return s.mutate(id, func(fp *FlightPath) error {
		if index < 0 || index >= len(fp.Waypoints) {
			return fmt.Errorf("waypoint index %d out of range", index)
		}
		if len(fp.Waypoints) == 1 {
			return fmt.Errorf("cannot remove the last waypoint of a flight path")
		}
		fp.Waypoints = append(fp.Waypoints[:index], fp.Waypoints[index+1:]...)
		return nil
	})
}

// DeletePlan removes a plan and notifies connected views
func (s *Service) DeletePlan(id string) error {
	if err := s.storage.DeletePlan(id); err != nil {
		return err
	}
	s.logger.Info("Deleted flight plan", logger.String("id", id))
	if s.wsServer != nil {
		s.wsServer.BroadcastPlanDeleted(id)
	}
	return nil
}

// Trajectory recomputes a plan and resamples it at the given interval
func (s *Service) Trajectory(id string, intervalSec float64) ([]TrackSample, error) {
	fp, err := s.storage.GetPlan(id)
	if err != nil {
		return nil, err
	}
	res := s.engine.Compute(fp)
	return s.engine.Resample(res, intervalSec), nil
}

// mutate is the shared read-modify-recompute-write cycle behind every plan
// mutation
func (s *Service) mutate(id string, apply func(fp *FlightPath) error) (*FlightPath, *Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fp, err := s.storage.GetPlan(id)
	if err != nil {
		return nil, nil, err
	}
	if err := apply(fp); err != nil {
		return nil, nil, err
	}
	fp.UpdatedAt = time.Now().UTC()

	res := s.engine.Compute(fp)
	if err := s.storage.SavePlan(fp); err != nil {
		return nil, nil, fmt.Errorf("failed to save flight plan: %w", err)
	}

	s.broadcastUpdate(fp, res)
	return fp, res, nil
}

func (s *Service) broadcastUpdate(fp *FlightPath, res *Result) {
	if s.wsServer == nil {
		return
	}
	s.wsServer.BroadcastPlanUpdate(fp.ID, map[string]any{
		"name":           fp.Name,
		"platform":       res.PlatformName,
		"rows":           res.Rows,
		"warnings":       res.Warnings,
		"errors":         res.Errors,
		"total_dist_m":   res.TotalDistM,
		"total_time_sec": res.TotalTimeSec,
	})
}
