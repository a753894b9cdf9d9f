package flightplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/skyplanner/internal/geo"
	"github.com/yegors/skyplanner/internal/platform"
	"github.com/yegors/skyplanner/pkg/logger"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	table, err := platform.NewTable("p3", testP3())
	require.NoError(t, err)
	return NewEngine(table, DefaultTurnPolicy(), logger.NewNop())
}

func f64(v float64) *float64 { return &v }

func levelPath(alts ...float64) *FlightPath {
	fp := &FlightPath{
		Name:      "p3 test line",
		StartTime: time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
	}
	for i, alt := range alts {
		fp.Waypoints = append(fp.Waypoints, &Waypoint{Lon: float64(i), Alt: f64(alt)})
	}
	return fp
}

func TestComputeLevelPath(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 1000)
	dist := geo.Distance(geo.Point{Lon: 0}, geo.Point{Lon: 1})

	res := e.Compute(fp)
	require.Empty(t, res.Errors)
	assert.Equal(t, "p3", res.PlatformName)
	assert.True(t, res.PlatformMatched)
	require.Len(t, res.Rows, 2)
	require.Len(t, res.Legs, 1)

	speed := testP3().SpeedAtAltitude(1000)
	assert.Equal(t, fp.StartTime, res.Rows[0].ArrivalTime)
	assert.InDelta(t, dist, res.TotalDistM, 1e-6)
	assert.InDelta(t, dist/speed, res.TotalTimeSec, 1e-6)
	assert.InDelta(t, dist, res.Rows[1].CumDistM, 1e-6)

	require.NotNil(t, res.Rows[0].BearingOut)
	assert.InDelta(t, 90.0, *res.Rows[0].BearingOut, 0.01)
	require.NotNil(t, res.Rows[1].BearingIn)
	require.NotNil(t, res.Rows[0].MagBearingOut)
}

func TestComputeWaypointNames(t *testing.T) {
	e := newTestEngine(t)
	res := e.Compute(levelPath(1000, 1000, 1000))
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "P1501", res.Rows[0].Name)
	assert.Equal(t, "P1502", res.Rows[1].Name)
	assert.Equal(t, "P1503", res.Rows[2].Name)
}

func TestComputeIdempotent(t *testing.T) {
	e := newTestEngine(t)
	fp := &FlightPath{
		Name:      "p3 box",
		StartTime: time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		Waypoints: []*Waypoint{
			{Lat: 35, Lon: -120, Alt: f64(500)},
			{Lat: 35.5, Lon: -119, Alt: f64(5400), DelaySec: 120},
			{Lat: 36, Lon: -120, Headwind: 5},
			{Lat: 35, Lon: -120, Alt: f64(500)},
		},
	}
	first := e.Compute(fp)
	second := e.Compute(fp)
	assert.Equal(t, first, second)
}

func TestComputeUnknownPlatformFallsBack(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 1000)
	fp.Platform = "mystery-jet"

	res := e.Compute(fp)
	assert.Equal(t, "p3", res.PlatformName)
	assert.False(t, res.PlatformMatched)
	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, WarnPlatformNotFound, res.Warnings[0].Kind)
}

func TestComputeNoWaypoints(t *testing.T) {
	e := newTestEngine(t)
	res := e.Compute(&FlightPath{Name: "p3 empty"})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "waypoints", res.Errors[0].Field)
	assert.Empty(t, res.Legs)
}

func TestComputeBadFirstWaypointAborts(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 1000)
	fp.Waypoints[0].Lat = 95

	res := e.Compute(fp)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, 0, res.Errors[0].Index)
	assert.Empty(t, res.Legs)
}

func TestComputeBadInteriorWaypointExcluded(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 1000, 1000)
	fp.Waypoints[1].Lat = 95

	res := e.Compute(fp)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.True(t, res.Rows[1].Excluded)

	// The remaining waypoints are joined directly
	require.Len(t, res.Legs, 1)
	assert.Equal(t, 0, res.Legs[0].From)
	assert.Equal(t, 2, res.Legs[0].To)
}

func TestComputeDefaultAltitudes(t *testing.T) {
	e := newTestEngine(t)
	fp := &FlightPath{
		Name:      "p3 climbout",
		StartTime: time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		Waypoints: []*Waypoint{
			{Lon: 0},
			{Lon: 2},
			{Lon: 4},
		},
	}
	res := e.Compute(fp)
	require.Empty(t, res.Errors)

	// Unset start altitude means surface start; the first unset altitude
	// after that climbs to the platform ceiling, then the path holds
	assert.Equal(t, 0.0, res.Rows[0].ResolvedAlt)
	assert.InDelta(t, 8500.0, res.Rows[1].ResolvedAlt, 1e-6)
	assert.InDelta(t, 8500.0, res.Rows[2].ResolvedAlt, 1e-6)
}

func TestComputeAltitudeClamped(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 20000)

	res := e.Compute(fp)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "alt", res.Errors[0].Field)
	assert.LessOrEqual(t, res.Rows[1].ResolvedAlt, 8500.0)
}

func TestComputeStartTimeOverride(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 1000)
	onStation := fp.StartTime.Add(2 * time.Hour)
	fp.Waypoints[1].StartTime = &onStation

	res := e.Compute(fp)
	require.Empty(t, res.Errors)
	assert.Equal(t, onStation, res.Rows[1].ArrivalTime)
	assert.InDelta(t, 7200.0, res.Rows[1].CumTimeSec, 1e-6)
}

func TestComputeDelayAndTurnChargedAsDwell(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 1000, 1000)
	fp.Waypoints[1].DelaySec = 60
	// Fold the path back on itself so the interior waypoint holds a
	// course reversal
	fp.Waypoints[2].Lon = 0

	res := e.Compute(fp)
	require.Empty(t, res.Errors)
	require.NotNil(t, res.Rows[1].Turn)
	assert.Equal(t, TurnReversal, res.Rows[1].Turn.Type)
	assert.Positive(t, res.Rows[1].Turn.DurationSec)

	require.Len(t, res.Legs, 2)
	second := res.Legs[1]
	require.NotEmpty(t, second.Segments)
	assert.Equal(t, PhaseStationary, second.Segments[0].Phase)
	assert.InDelta(t, 60+res.Rows[1].Turn.DurationSec, second.Segments[0].DurationSec, 1e-6)
	assert.Greater(t, second.DurationSec, res.Legs[0].DurationSec)
}

func TestResampleLevelPath(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 1000)
	fp.Waypoints[0].Speed = f64(100)
	fp.Waypoints[1].Speed = f64(100)

	res := e.Compute(fp)
	require.Empty(t, res.Errors)

	samples := e.Resample(res, 60)
	require.NotEmpty(t, samples)
	wantCount := int(res.TotalTimeSec/60) + 1
	assert.Len(t, samples, wantCount)

	assert.Equal(t, fp.StartTime, samples[0].Time)
	assert.InDelta(t, 0.0, samples[0].Lat, 1e-9)
	assert.InDelta(t, 0.0, samples[0].Lon, 1e-9)

	end := res.Rows[1].ArrivalTime
	for i, s := range samples {
		assert.Equal(t, fp.StartTime.Add(time.Duration(i)*time.Minute), s.Time)
		assert.False(t, s.Time.After(end))
		assert.InDelta(t, 1000.0, s.Alt, 1e-6)
		if i > 0 {
			assert.Greater(t, s.Lon, samples[i-1].Lon)
		}
	}
}

func TestResampleDeterministic(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(1000, 5400, 1000)
	res := e.Compute(fp)

	a := e.Resample(res, 60)
	b := e.Resample(res, 60)
	assert.Equal(t, a, b)

	// Non-positive interval falls back to the default spacing
	assert.Equal(t, a, e.Resample(res, 0))
	assert.Equal(t, a, e.Resample(res, -5))
}

func TestResampleAltitudeWithinEnvelope(t *testing.T) {
	e := newTestEngine(t)
	fp := levelPath(0, 5400, 500)
	res := e.Compute(fp)
	require.Empty(t, res.Errors)

	for _, s := range e.Resample(res, 30) {
		assert.GreaterOrEqual(t, s.Alt, 0.0)
		assert.LessOrEqual(t, s.Alt, 5400.0)
	}
}

func TestResampleSingleWaypoint(t *testing.T) {
	e := newTestEngine(t)
	fp := &FlightPath{
		Name:      "p3 point",
		StartTime: time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC),
		Waypoints: []*Waypoint{{Lat: 35, Lon: -120, Alt: f64(1000)}},
	}
	res := e.Compute(fp)
	samples := e.Resample(res, 60)
	require.Len(t, samples, 1)
	assert.Equal(t, 35.0, samples[0].Lat)
	assert.Equal(t, -120.0, samples[0].Lon)
	assert.Equal(t, 1000.0, samples[0].Alt)
	assert.Equal(t, fp.StartTime, samples[0].Time)
}
