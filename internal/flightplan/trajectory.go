package flightplan

import (
	"fmt"
	"strings"
	"time"

	"github.com/yegors/skyplanner/internal/geo"
	"github.com/yegors/skyplanner/internal/platform"
	"github.com/yegors/skyplanner/pkg/logger"
)

// DefaultSampleIntervalSec is the resampled-trajectory spacing used when the
// caller does not ask for one
const DefaultSampleIntervalSec = 60.0

// Engine computes flight kinematics for whole flight paths. It holds only
// immutable references, so one engine is safe to share across concurrent
// recomputations of independent paths.
type Engine struct {
	platforms *platform.Table
	policy    TurnPolicy
	logger    *logger.Logger
}

// NewEngine creates a kinematics engine over an immutable platform table
func NewEngine(platforms *platform.Table, policy TurnPolicy, log *logger.Logger) *Engine {
	return &Engine{
		platforms: platforms,
		policy:    policy,
		logger:    log.Named("kinematics"),
	}
}

// Platforms returns the engine's platform table
func (e *Engine) Platforms() *platform.Table {
	return e.platforms
}

// Compute runs a full recompute of one flight path: platform resolution,
// per-waypoint validation, leg and turn solving, and cumulative time and
// distance accumulation. Every call recomputes from the first waypoint;
// recomputing unchanged input yields identical output.
//
// Per-waypoint validation failures are collected and the offending waypoint
// is skipped, unless it is the first waypoint, without which there is no
// path to compute.
func (e *Engine) Compute(fp *FlightPath) *Result {
	res := &Result{}

	p, matched := e.platforms.Resolve(fp.PlatformHint())
	res.PlatformName = p.Name
	res.PlatformMatched = matched
	if !matched {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnPlatformNotFound,
			Message: fmt.Sprintf("no platform matches %q, using default %q", fp.PlatformHint(), p.Name),
		})
		e.logger.Warn("Platform not matched, using default",
			logger.String("hint", fp.PlatformHint()),
			logger.String("default", p.Name))
	}
	if p.Warning {
		res.Warnings = append(res.Warnings, Warning{
			Kind:    WarnPlatformApproximate,
			Message: fmt.Sprintf("platform %q default speeds and altitudes may be off, double check", p.Name),
		})
	}

	if len(fp.Waypoints) == 0 {
		res.Errors = append(res.Errors, &ValidationError{Index: 0, Field: "waypoints", Message: "flight path has no waypoints"})
		return res
	}

	rows := make([]*TableRow, len(fp.Waypoints))
	for i, wp := range fp.Waypoints {
		rows[i] = &TableRow{Index: i, Lat: wp.Lat, Lon: wp.Lon, DelaySec: wp.DelaySec}
	}
	res.Rows = rows

	// Per-waypoint validation; bad interior waypoints are excluded, a bad
	// first waypoint kills the computation
	usable := make([]int, 0, len(fp.Waypoints))
	for i, wp := range fp.Waypoints {
		if err := wp.Point().Validate(); err != nil {
			verr := &ValidationError{Index: i, Field: "position", Message: err.Error()}
			res.Errors = append(res.Errors, verr)
			if i == 0 {
				return res
			}
			rows[i].Excluded = true
			continue
		}
		usable = append(usable, i)
	}

	startTime := fp.StartTime
	if fp.Waypoints[usable[0]].StartTime != nil {
		startTime = *fp.Waypoints[usable[0]].StartTime
	}

	// First waypoint: resolve altitude and speed directly
	first := usable[0]
	startAlt := e.resolveRequestedAlt(p, fp.Waypoints[first], first, 0, res)
	rows[first].ResolvedAlt = startAlt
	rows[first].ResolvedSpeed = e.resolveRequestedSpeed(p, fp.Waypoints[first], first, startAlt, res)
	rows[first].ArrivalTime = startTime

	var prevLeg *Leg
	cumDist := 0.0
	for n := 0; n+1 < len(usable); n++ {
		i, j := usable[n], usable[n+1]
		from, to := fp.Waypoints[i], fp.Waypoints[j]
		fromPt, toPt := from.Point(), to.Point()

		destAlt := e.resolveDestAlt(p, to, j, rows[i].ResolvedAlt, startAlt, res)
		destSpeed := e.resolveDestSpeed(p, to, j, rows[i].ResolvedAlt, destAlt, res)

		// Turn at the shared vertex, charged as dwell before departure
		var turn *Turn
		exitBearing := geo.Bearing(fromPt, toPt)
		if prevLeg != nil {
			turn = solveTurn(p, e.policy, prevLeg.FinalBearing, exitBearing,
				rows[i].ResolvedSpeed, from.TurnTypeOverride)
			rows[i].Turn = turn
		}
		dwell := from.DelaySec
		if turn != nil {
			dwell += turn.DurationSec
		}

		leg, achievedAlt, warn := solveLeg(p, fromPt, toPt, i, j,
			rows[i].ResolvedAlt, destAlt, destSpeed, to.Headwind, dwell)
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
		}
		res.Legs = append(res.Legs, leg)

		rows[j].ResolvedAlt = achievedAlt
		rows[j].ResolvedSpeed = destSpeed
		rows[j].ArrivalTime = rows[i].ArrivalTime.Add(time.Duration(leg.DurationSec * float64(time.Second)))
		if to.StartTime != nil {
			rows[j].ArrivalTime = *to.StartTime
		}
		cumDist += leg.DistanceM
		rows[j].CumDistM = cumDist
		rows[j].CumTimeSec = rows[j].ArrivalTime.Sub(startTime).Seconds()

		bIn := leg.FinalBearing
		bOut := leg.InitialBearing
		rows[j].BearingIn = &bIn
		rows[i].BearingOut = &bOut

		prevLeg = leg
	}

	e.annotateRows(p, startTime, rows, usable)

	res.TotalDistM = cumDist
	if len(usable) > 0 {
		last := usable[len(usable)-1]
		res.TotalTimeSec = rows[last].CumTimeSec
	}

	e.logger.Debug("Recomputed flight path",
		logger.String("platform", p.Name),
		logger.Int("waypoints", len(fp.Waypoints)),
		logger.Int("legs", len(res.Legs)),
		logger.Float64("total_dist_m", res.TotalDistM),
		logger.Float64("total_time_sec", res.TotalTimeSec))

	return res
}

// resolveRequestedAlt clamps an explicitly requested altitude into the
// platform envelope, recording a validation error when the request falls
// outside it. Absent altitude on the first waypoint means surface start.
func (e *Engine) resolveRequestedAlt(p *platform.Platform, wp *Waypoint, idx int, fallback float64, res *Result) float64 {
	if wp.Alt == nil {
		return fallback
	}
	alt := *wp.Alt
	if alt < 0 {
		res.Errors = append(res.Errors, &ValidationError{Index: idx, Field: "alt",
			Message: fmt.Sprintf("altitude below zero: %.0f", alt)})
		return 0
	}
	if alt > p.MaxAlt {
		res.Errors = append(res.Errors, &ValidationError{Index: idx, Field: "alt",
			Message: fmt.Sprintf("altitude %.0f exceeds platform ceiling %.0f, clamped", alt, p.MaxAlt)})
		return p.MaxAlt
	}
	return alt
}

// resolveDestAlt resolves a leg destination's altitude: an explicit request
// is clamped to the envelope; otherwise the path keeps its current altitude
// once it has left the start altitude, and climbs to the platform's default
// cruise ceiling when it has not
func (e *Engine) resolveDestAlt(p *platform.Platform, wp *Waypoint, idx int, prevAlt, startAlt float64, res *Result) float64 {
	if wp.Alt != nil {
		return e.resolveRequestedAlt(p, wp, idx, prevAlt, res)
	}
	if prevAlt != startAlt {
		return prevAlt
	}
	return p.MaxAlt
}

// resolveRequestedSpeed clamps an explicit speed override into the envelope
func (e *Engine) resolveRequestedSpeed(p *platform.Platform, wp *Waypoint, idx int, altM float64, res *Result) float64 {
	if wp.Speed == nil {
		return p.SpeedAtAltitude(altM)
	}
	sp := *wp.Speed
	if sp <= 0 {
		res.Errors = append(res.Errors, &ValidationError{Index: idx, Field: "speed",
			Message: fmt.Sprintf("speed must be positive: %.1f", sp)})
		return p.SpeedAtAltitude(altM)
	}
	if sp > p.MaxSpeed {
		res.Errors = append(res.Errors, &ValidationError{Index: idx, Field: "speed",
			Message: fmt.Sprintf("speed %.1f exceeds platform maximum %.1f, clamped", sp, p.MaxSpeed)})
		return p.MaxSpeed
	}
	return sp
}

// resolveDestSpeed derives the cruise TAS for a leg destination when no
// override is present, applying the descent penalty on descending legs
func (e *Engine) resolveDestSpeed(p *platform.Platform, wp *Waypoint, idx int, originAlt, destAlt float64, res *Result) float64 {
	if wp.Speed != nil {
		return e.resolveRequestedSpeed(p, wp, idx, destAlt, res)
	}
	if destAlt < originAlt-altToleranceM {
		return p.DescentSpeedAtAltitude(destAlt)
	}
	return p.SpeedAtAltitude(destAlt)
}

// annotateRows fills the presentation annotations: waypoint names, magnetic
// declination, and sun angles at each arrival time
func (e *Engine) annotateRows(p *platform.Platform, startTime time.Time, rows []*TableRow, usable []int) {
	prefix := strings.ToUpper(p.Name[:1])
	day := startTime.Day()
	for seq, i := range usable {
		row := rows[i]
		row.Name = fmt.Sprintf("%s%02d%02d", prefix, day, seq+1)
		row.MagDecl = geo.MagneticVariation(row.Lat, row.Lon, row.ResolvedAlt, row.ArrivalTime)
		if row.BearingOut != nil {
			mb := geo.MagneticBearing(*row.BearingOut, row.MagDecl)
			row.MagBearingOut = &mb
		}
		row.SolarZenith, row.SolarAzimuth = geo.SolarPosition(row.Lat, row.Lon, row.ArrivalTime)
	}
}

// Resample walks the computed leg timeline and emits a fixed-interval
// sequence of interpolated positions and altitudes, the schema consumed by
// interval-sampled track exporters. Deterministic for a given result and
// interval, and bounded by total flight duration over the interval.
func (e *Engine) Resample(res *Result, intervalSec float64) []TrackSample {
	if intervalSec <= 0 {
		intervalSec = DefaultSampleIntervalSec
	}
	if len(res.Legs) == 0 {
		if len(res.Rows) == 0 {
			return nil
		}
		for _, row := range res.Rows {
			if !row.Excluded {
				return []TrackSample{{Time: row.ArrivalTime, Lat: row.Lat, Lon: row.Lon, Alt: row.ResolvedAlt}}
			}
		}
		return nil
	}

	type span struct {
		start   time.Time
		seg     Segment
		leg     *Leg
		distIn  float64 // Distance along the leg already covered when the span starts
	}

	var spans []span
	for _, leg := range res.Legs {
		clock := res.Rows[leg.From].ArrivalTime
		distIn := 0.0
		for _, seg := range leg.Segments {
			spans = append(spans, span{start: clock, seg: seg, leg: leg, distIn: distIn})
			clock = clock.Add(time.Duration(seg.DurationSec * float64(time.Second)))
			distIn += seg.DistanceM
		}
	}
	if len(spans) == 0 {
		return nil
	}

	start := spans[0].start
	lastLeg := res.Legs[len(res.Legs)-1]
	end := res.Rows[lastLeg.To].ArrivalTime

	var samples []TrackSample
	step := time.Duration(intervalSec * float64(time.Second))
	si := 0
	for t := start; !t.After(end); t = t.Add(step) {
		for si+1 < len(spans) && !t.Before(spans[si+1].start) {
			si++
		}
		sp := spans[si]
		samples = append(samples, sampleSpan(sp.leg, sp.seg, sp.start, sp.distIn, t))
	}
	return samples
}

// sampleSpan interpolates one sample inside a segment: position by fraction
// of great-circle distance along the leg, altitude linearly within the
// segment
func sampleSpan(leg *Leg, seg Segment, segStart time.Time, distIn float64, t time.Time) TrackSample {
	elapsed := t.Sub(segStart).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	if seg.DurationSec > 0 && elapsed > seg.DurationSec {
		elapsed = seg.DurationSec
	}

	distAlong := distIn + seg.GroundSpeed*elapsed
	frac := 0.0
	if leg.DistanceM > 0 {
		frac = distAlong / leg.DistanceM
	}
	pt := geo.InterpolateFraction(leg.FromPt, leg.ToPt, frac)

	alt := seg.StartAlt
	if seg.DurationSec > 0 {
		alt += (seg.EndAlt - seg.StartAlt) * (elapsed / seg.DurationSec)
	}

	return TrackSample{Time: t, Lat: pt.Lat, Lon: pt.Lon, Alt: alt}
}
