package flightplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/skyplanner/pkg/logger"
)

type memStorage struct {
	plans map[string]*FlightPath
}

func newMemStorage() *memStorage {
	return &memStorage{plans: make(map[string]*FlightPath)}
}

func (m *memStorage) SavePlan(fp *FlightPath) error {
	m.plans[fp.ID] = fp
	return nil
}

func (m *memStorage) GetPlan(id string) (*FlightPath, error) {
	fp, ok := m.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return fp, nil
}

func (m *memStorage) ListPlans() ([]*FlightPath, error) {
	out := make([]*FlightPath, 0, len(m.plans))
	for _, fp := range m.plans {
		out = append(out, fp)
	}
	return out, nil
}

func (m *memStorage) DeletePlan(id string) error {
	if _, ok := m.plans[id]; !ok {
		return ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *memStorage) {
	t.Helper()
	store := newMemStorage()
	svc := NewService(newTestEngine(t), store, nil, logger.NewNop())
	return svc, store
}

func testWaypoints() []*Waypoint {
	return []*Waypoint{
		{Lat: 35, Lon: -120, Alt: f64(1000)},
		{Lat: 35, Lon: -119, Alt: f64(1000)},
	}
}

func TestServiceCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

	fp, res, err := svc.CreatePlan("p3 survey", "", start, testWaypoints())
	require.NoError(t, err)
	assert.NotEmpty(t, fp.ID)
	assert.Equal(t, "p3", res.PlatformName)
	require.Len(t, res.Rows, 2)

	loaded, res2, err := svc.GetPlan(fp.ID)
	require.NoError(t, err)
	assert.Equal(t, fp.ID, loaded.ID)
	assert.Equal(t, res, res2)
}

func TestServiceCreateRequiresWaypoints(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.CreatePlan("p3 empty", "", time.Now(), nil)
	assert.Error(t, err)
}

func TestServiceGetUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	_, _, err := svc.GetPlan("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceInsertWaypoint(t *testing.T) {
	svc, _ := newTestService(t)
	fp, _, err := svc.CreatePlan("p3 survey", "", time.Now().UTC(), testWaypoints())
	require.NoError(t, err)

	// Append
	updated, res, err := svc.InsertWaypoint(fp.ID, -1, &Waypoint{Lat: 35, Lon: -118, Alt: f64(1000)})
	require.NoError(t, err)
	require.Len(t, updated.Waypoints, 3)
	assert.Equal(t, -118.0, updated.Waypoints[2].Lon)
	require.Len(t, res.Rows, 3)

	// Insert in the middle
	updated, _, err = svc.InsertWaypoint(fp.ID, 1, &Waypoint{Lat: 35.5, Lon: -119.5, Alt: f64(1000)})
	require.NoError(t, err)
	require.Len(t, updated.Waypoints, 4)
	assert.Equal(t, -119.5, updated.Waypoints[1].Lon)
	assert.Equal(t, -119.0, updated.Waypoints[2].Lon)
}

func TestServiceUpdateWaypoint(t *testing.T) {
	svc, _ := newTestService(t)
	fp, _, err := svc.CreatePlan("p3 survey", "", time.Now().UTC(), testWaypoints())
	require.NoError(t, err)

	updated, res, err := svc.UpdateWaypoint(fp.ID, 1, &Waypoint{Lat: 36, Lon: -119, Alt: f64(2000)})
	require.NoError(t, err)
	assert.Equal(t, 36.0, updated.Waypoints[1].Lat)
	assert.InDelta(t, 2000.0, res.Rows[1].ResolvedAlt, 1e-6)

	_, _, err = svc.UpdateWaypoint(fp.ID, 7, &Waypoint{})
	assert.Error(t, err)
}

func TestServiceDeleteWaypoint(t *testing.T) {
	svc, _ := newTestService(t)
	fp, _, err := svc.CreatePlan("p3 survey", "", time.Now().UTC(), testWaypoints())
	require.NoError(t, err)

	updated, _, err := svc.DeleteWaypoint(fp.ID, 1)
	require.NoError(t, err)
	require.Len(t, updated.Waypoints, 1)

	// The last waypoint cannot be removed
	_, _, err = svc.DeleteWaypoint(fp.ID, 0)
	assert.Error(t, err)
}

func TestServiceUpdateMeta(t *testing.T) {
	svc, _ := newTestService(t)
	fp, _, err := svc.CreatePlan("some flight", "", time.Now().UTC(), testWaypoints())
	require.NoError(t, err)

	name := "renamed"
	plat := "P3B"
	updated, res, err := svc.UpdatePlanMeta(fp.ID, &name, &plat, nil)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "p3", res.PlatformName)
	assert.True(t, res.PlatformMatched)
}

func TestServiceDeletePlan(t *testing.T) {
	svc, store := newTestService(t)
	fp, _, err := svc.CreatePlan("p3 survey", "", time.Now().UTC(), testWaypoints())
	require.NoError(t, err)

	require.NoError(t, svc.DeletePlan(fp.ID))
	assert.Empty(t, store.plans)
	assert.ErrorIs(t, svc.DeletePlan(fp.ID), ErrNotFound)
}

func TestServiceTrajectory(t *testing.T) {
	svc, _ := newTestService(t)
	start := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	fp, res, err := svc.CreatePlan("p3 survey", "", start, testWaypoints())
	require.NoError(t, err)

	samples, err := svc.Trajectory(fp.ID, 60)
	require.NoError(t, err)
	require.NotEmpty(t, samples)
	assert.Equal(t, start, samples[0].Time)
	wantCount := int(res.TotalTimeSec/60) + 1
	assert.Len(t, samples, wantCount)
}
