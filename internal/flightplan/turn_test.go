package flightplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/skyplanner/internal/platform"
)

// ratePlatform uses an explicit turn rate so durations come out in round
// numbers
func ratePlatform(rate float64) *platform.Platform {
	p := testP3()
	p.RateOfTurn = &rate
	return p
}

func TestClassify(t *testing.T) {
	tp := DefaultTurnPolicy()
	assert.Equal(t, TurnNone, tp.classify(0))
	assert.Equal(t, TurnNone, tp.classify(1.9))
	assert.Equal(t, TurnStandard, tp.classify(2))
	assert.Equal(t, TurnStandard, tp.classify(90))
	assert.Equal(t, TurnStandard, tp.classify(104.9))
	assert.Equal(t, TurnWide, tp.classify(105))
	assert.Equal(t, TurnWide, tp.classify(159.9))
	assert.Equal(t, TurnReversal, tp.classify(160))
	assert.Equal(t, TurnReversal, tp.classify(180))
}

func TestSolveTurnStraight(t *testing.T) {
	p := ratePlatform(3)
	turn := solveTurn(p, DefaultTurnPolicy(), 90, 91, 100, TurnNone)
	assert.Equal(t, TurnNone, turn.Type)
	assert.Zero(t, turn.DurationSec)
	assert.InDelta(t, 1.0, turn.Delta, 1e-9)
}

func TestSolveTurnSignedDelta(t *testing.T) {
	p := ratePlatform(3)
	turn := solveTurn(p, DefaultTurnPolicy(), 350, 10, 100, TurnNone)
	assert.InDelta(t, 20.0, turn.Delta, 1e-9)

	turn = solveTurn(p, DefaultTurnPolicy(), 10, 350, 100, TurnNone)
	assert.InDelta(t, -20.0, turn.Delta, 1e-9)
}

func TestSolveTurnBelowRadiusThreshold(t *testing.T) {
	// Below the radius-correction threshold the duration is degrees over
	// rate, nothing else
	p := ratePlatform(3)
	turn := solveTurn(p, DefaultTurnPolicy(), 0, 10, 100, TurnNone)
	assert.Equal(t, TurnStandard, turn.Type)
	assert.InDelta(t, 10.0/3.0, turn.DurationSec, 1e-9)
}

func TestSolveTurnWide(t *testing.T) {
	p := ratePlatform(3)
	turn := solveTurn(p, DefaultTurnPolicy(), 0, 120, 100, TurnNone)
	require.Equal(t, TurnWide, turn.Type)

	// 120 degrees flown as a 90-270 adds a half circle plus two radii of
	// transit time
	radius := p.TurnRadius(100)
	want := (120+180)/3.0 + radius/100 + radius/100
	assert.InDelta(t, want, turn.DurationSec, 1e-6)
	assert.InDelta(t, radius, turn.RadiusM, 1e-9)
}

func TestSolveTurnReversalCostsMoreThanStandard(t *testing.T) {
	p := testP3()
	tp := DefaultTurnPolicy()
	std := solveTurn(p, tp, 0, 45, 120, TurnNone)
	rev := solveTurn(p, tp, 0, 180, 120, TurnNone)
	require.Equal(t, TurnStandard, std.Type)
	require.Equal(t, TurnReversal, rev.Type)
	assert.Greater(t, rev.DurationSec, std.DurationSec)
	assert.Positive(t, rev.DurationSec)
}

func TestSolveTurnDurationNeverNegative(t *testing.T) {
	// A tight fly-by can credit more time than the arc costs; the result
	// still floors at zero
	p := ratePlatform(3)
	turn := solveTurn(p, DefaultTurnPolicy(), 0, 90, 100, TurnNone)
	assert.GreaterOrEqual(t, turn.DurationSec, 0.0)
}

func TestSolveTurnOverride(t *testing.T) {
	p := ratePlatform(3)
	auto := solveTurn(p, DefaultTurnPolicy(), 0, 50, 100, TurnNone)
	require.Equal(t, TurnStandard, auto.Type)

	forced := solveTurn(p, DefaultTurnPolicy(), 0, 50, 100, TurnReversal)
	assert.Equal(t, TurnReversal, forced.Type)
	assert.Greater(t, forced.DurationSec, auto.DurationSec)
}

func TestTurnRadiusExtraCap(t *testing.T) {
	tp := DefaultTurnPolicy()
	// A crawling platform makes the base radius transit enormous; the
	// per-component extra still respects the cap
	extra := turnRadiusExtraSec(tp, TurnWide, 1e7, 10, 120)
	assert.InDelta(t, 1e7/10+tp.MaxExtraSec, extra, 1e-6)
}
