package flightplan

import (
	"math"

	"github.com/yegors/skyplanner/internal/geo"
	"github.com/yegors/skyplanner/internal/platform"
)

// TurnPolicy holds the bearing-delta thresholds separating turn types.
// These are tool tuning constants, not physics, so they come from
// configuration rather than being hardwired.
type TurnPolicy struct {
	StraightMaxDeg float64 // Below this the turn costs nothing
	WideMinDeg     float64 // At or above this a turn is flown as a 90-270
	ReversalMinDeg float64 // At or above this a turn is a course reversal
	MinExtraDeg    float64 // Radius-based extra time only charged above this
	MaxExtraSec    float64 // Cap on the radius-based extra time
}

// DefaultTurnPolicy mirrors the original tool's tuning table
func DefaultTurnPolicy() TurnPolicy {
	return TurnPolicy{
		StraightMaxDeg: 2.0,
		WideMinDeg:     105.0,
		ReversalMinDeg: 160.0,
		MinExtraDeg:    15.0,
		MaxExtraSec:    1800.0,
	}
}

// classify maps an absolute bearing delta in [0,180] to a turn type
func (tp TurnPolicy) classify(absDelta float64) TurnType {
	switch {
	case absDelta < tp.StraightMaxDeg:
		return TurnNone
	case absDelta >= tp.ReversalMinDeg:
		return TurnReversal
	case absDelta >= tp.WideMinDeg:
		return TurnWide
	default:
		return TurnStandard
	}
}

// solveTurn computes the turn at an interior waypoint from the arriving
// leg's final bearing and the departing leg's initial bearing. The turn's
// duration is charged to the waypoint's dwell; geometry is unchanged.
// A manual override replaces the classification but keeps the formulas.
func solveTurn(p *platform.Platform, tp TurnPolicy, entryBearing, exitBearing,
	speedMS float64, override TurnType) *Turn {

	delta := geo.NormalizeDelta(exitBearing - entryBearing)
	absDelta := math.Abs(delta)

	tt := tp.classify(absDelta)
	if override != TurnNone {
		tt = override
	}

	turn := &Turn{
		EntryBearing: entryBearing,
		ExitBearing:  exitBearing,
		Delta:        delta,
		Type:         tt,
	}
	if tt == TurnNone {
		return turn
	}

	radius := p.TurnRadius(speedMS)
	rate := p.TurnRate(speedMS)
	turn.RadiusM = radius

	// Effective degrees flown: a 90-270 adds a half circle, a reversal
	// roughly doubles the heading change
	effectiveDeg := absDelta
	switch tt {
	case TurnWide:
		effectiveDeg += 180
	case TurnReversal:
		effectiveDeg *= 2
	}

	dur := effectiveDeg / rate
	dur += turnRadiusExtraSec(tp, tt, radius, speedMS, absDelta)
	if dur < 0 {
		dur = 0
	}
	turn.DurationSec = dur
	return turn
}

// turnRadiusExtraSec charges the time spent flying the turn radius in and
// out of the vertex. A fly-by cuts the corner and credits time back; wide
// and reversal turns spend extra radii. Skipped for small heading changes
// where the correction is noise.
func turnRadiusExtraSec(tp TurnPolicy, tt TurnType, radiusM, speedMS, absDelta float64) float64 {
	if absDelta < tp.MinExtraDeg || speedMS < platform.MinSpeedMS {
		return 0
	}

	base := radiusM / speedMS
	var extra float64
	switch tt {
	case TurnStandard:
		// Corner cut shortens the flown path
		cut := 2 * radiusM / math.Sin(absDelta*math.Pi/180)
		extra = -2 * cut / speedMS
	case TurnWide:
		extra = radiusM / speedMS
	case TurnReversal:
		extra = 0.66 * radiusM / speedMS
	}

	if extra > tp.MaxExtraSec {
		extra = tp.MaxExtraSec
	}
	if extra < -tp.MaxExtraSec {
		extra = -tp.MaxExtraSec
	}
	return base + extra
}
