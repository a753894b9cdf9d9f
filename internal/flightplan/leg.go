package flightplan

import (
	"math"

	"github.com/yegors/skyplanner/internal/geo"
	"github.com/yegors/skyplanner/internal/platform"
)

// Altitude changes below this are treated as level flight
const altToleranceM = 0.5

// groundSpeed applies the scalar headwind component to an airspeed,
// floored so a strong headwind never produces a non-positive speed.
// The same component applies uniformly to every sub-segment of a leg.
func groundSpeed(airspeed, headwind float64) float64 {
	gs := airspeed - headwind
	if gs < platform.MinSpeedMS {
		gs = platform.MinSpeedMS
	}
	return gs
}

// solveLeg computes the sub-segment sequence for one leg. Origin altitude,
// destination altitude and destination cruise speed are already resolved.
// dwellSec is the stationary hold at the origin (waypoint delay plus turn
// time) charged before the leg starts moving.
//
// When the climb or descent cannot complete within the leg's great-circle
// distance, the returned leg tops out at the achievable altitude and the
// deficit is reported as a warning rather than an error: a partial plan is
// still useful to the user.
func solveLeg(p *platform.Platform, from, to geo.Point, fromIdx, toIdx int,
	originAlt, destAlt, cruiseSpeed, headwind, dwellSec float64) (*Leg, float64, *Warning) {

	dist := geo.Distance(from, to)

	leg := &Leg{
		From:           fromIdx,
		To:             toIdx,
		FromPt:         from,
		ToPt:           to,
		DistanceM:      dist,
		InitialBearing: geo.Bearing(from, to),
		FinalBearing:   geo.NormalizeBearing(geo.Bearing(to, from) + 180),
	}

	if dwellSec > 0 {
		leg.Segments = append(leg.Segments, Segment{
			Phase:       PhaseStationary,
			DurationSec: dwellSec,
			StartAlt:    originAlt,
			EndAlt:      originAlt,
		})
		leg.DurationSec += dwellSec
	}

	dAlt := destAlt - originAlt
	achievedAlt := destAlt
	var warn *Warning

	if math.Abs(dAlt) > altToleranceM {
		climb := dAlt > 0
		meanAlt := (originAlt + destAlt) / 2

		vs := math.Abs(p.VerticalSpeed(meanAlt, climb))
		if vs < 1e-9 {
			vs = 1e-9
		}

		var phase Phase
		var phaseAirspeed float64
		if climb {
			phase = PhaseClimb
			phaseAirspeed = p.SpeedAtAltitude(meanAlt)
		} else {
			phase = PhaseDescent
			phaseAirspeed = p.DescentSpeedAtAltitude(meanAlt)
		}
		phaseGS := groundSpeed(phaseAirspeed, headwind)

		vertDur := math.Abs(dAlt) / vs
		vertDist := vertDur * phaseGS

		if vertDist >= dist {
			// The leg runs out of distance before the requested altitude:
			// derive the achieved altitude from the available distance
			dur := dist / phaseGS
			sign := 1.0
			if !climb {
				sign = -1.0
			}
			achievedAlt = originAlt + sign*vs*dur
			leg.Segments = append(leg.Segments, Segment{
				Phase:       phase,
				DistanceM:   dist,
				DurationSec: dur,
				StartAlt:    originAlt,
				EndAlt:      achievedAlt,
				GroundSpeed: phaseGS,
			})
			leg.DurationSec += dur
			warn = &Warning{
				Kind:         WarnUnreachableAltitude,
				Index:        toIdx,
				Message:      "leg distance insufficient to complete altitude change",
				RequestedAlt: destAlt,
				AchievedAlt:  achievedAlt,
			}
			return leg, achievedAlt, warn
		}

		leg.Segments = append(leg.Segments, Segment{
			Phase:       phase,
			DistanceM:   vertDist,
			DurationSec: vertDur,
			StartAlt:    originAlt,
			EndAlt:      destAlt,
			GroundSpeed: phaseGS,
		})
		leg.DurationSec += vertDur
		dist -= vertDist
	}

	if dist > 0 {
		cruiseGS := groundSpeed(cruiseSpeed, headwind)
		dur := dist / cruiseGS
		leg.Segments = append(leg.Segments, Segment{
			Phase:       PhaseCruise,
			DistanceM:   dist,
			DurationSec: dur,
			StartAlt:    achievedAlt,
			EndAlt:      achievedAlt,
			GroundSpeed: cruiseGS,
		})
		leg.DurationSec += dur
	}

	return leg, achievedAlt, warn
}
