package geo

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	walvisBay = Point{Lat: -22.9797, Lon: 14.6453} // Original ORACLES base
	ascension = Point{Lat: -7.9699, Lon: -14.3936}
	stHelena  = Point{Lat: -15.9650, Lon: -5.7089}
)

func TestDistanceZeroAndSymmetry(t *testing.T) {
	assert.Zero(t, Distance(walvisBay, walvisBay))
	assert.InDelta(t, Distance(walvisBay, ascension), Distance(ascension, walvisBay), 1e-6)
}

func TestDistanceKnownValue(t *testing.T) {
	// One degree of latitude along a meridian is ~111.2 km on the sphere
	d := Distance(Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0})
	assert.InDelta(t, 111195, d, 50)
}

func TestDistanceTriangleInequality(t *testing.T) {
	direct := Distance(walvisBay, ascension)
	viaStHelena := Distance(walvisBay, stHelena) + Distance(stHelena, ascension)
	assert.LessOrEqual(t, direct, viaStHelena)
}

func TestBearingReciprocal(t *testing.T) {
	cases := [][2]Point{
		{{Lat: 10, Lon: 20}, {Lat: 11, Lon: 20}},       // along a meridian
		{{Lat: 0, Lon: -10}, {Lat: 0, Lon: 25}},        // along the equator
		{walvisBay, {Lat: -22.9, Lon: 14.8}},           // short leg
		{{Lat: 45.1, Lon: -75.2}, {Lat: 45.3, Lon: -75.0}},
	}
	for _, c := range cases {
		fwd := Bearing(c[0], c[1])
		back := Bearing(c[1], c[0])
		diff := math.Abs(NormalizeDelta(back - fwd - 180))
		assert.InDelta(t, 0, diff, 0.5, "bearing %v -> %v", c[0], c[1])
	}
}

func TestBearingCardinal(t *testing.T) {
	origin := Point{Lat: 0, Lon: 0}
	assert.InDelta(t, 0, Bearing(origin, Point{Lat: 1, Lon: 0}), 1e-9)
	assert.InDelta(t, 90, Bearing(origin, Point{Lat: 0, Lon: 1}), 1e-9)
	assert.InDelta(t, 180, Bearing(origin, Point{Lat: -1, Lon: 0}), 1e-9)
	assert.InDelta(t, 270, Bearing(origin, Point{Lat: 0, Lon: -1}), 1e-9)
}

func TestDestinationRoundTrip(t *testing.T) {
	brng := Bearing(walvisBay, ascension)
	dist := Distance(walvisBay, ascension)
	p := Destination(walvisBay, brng, dist)
	assert.InDelta(t, ascension.Lat, p.Lat, 0.01)
	assert.InDelta(t, ascension.Lon, p.Lon, 0.01)
}

func TestInterpolateFractionEndpoints(t *testing.T) {
	p0 := InterpolateFraction(walvisBay, ascension, 0)
	p1 := InterpolateFraction(walvisBay, ascension, 1)
	assert.InDelta(t, walvisBay.Lat, p0.Lat, 1e-9)
	assert.InDelta(t, walvisBay.Lon, p0.Lon, 1e-9)
	assert.InDelta(t, ascension.Lat, p1.Lat, 1e-9)
	assert.InDelta(t, ascension.Lon, p1.Lon, 1e-9)
}

func TestInterpolateFractionMonotonicDistance(t *testing.T) {
	prev := 0.0
	for f := 0.1; f <= 1.0; f += 0.1 {
		d := Distance(walvisBay, InterpolateFraction(walvisBay, ascension, f))
		assert.Greater(t, d, prev, "fraction %.1f", f)
		prev = d
	}
}

func TestInterpolateMidpointOnPath(t *testing.T) {
	mid := InterpolateFraction(walvisBay, ascension, 0.5)
	dTotal := Distance(walvisBay, ascension)
	assert.InDelta(t, dTotal/2, Distance(walvisBay, mid), dTotal*0.001)
}

func TestPointValidate(t *testing.T) {
	assert.NoError(t, Point{Lat: 90, Lon: -180}.Validate())
	assert.Error(t, Point{Lat: 90.1, Lon: 0}.Validate())
	assert.Error(t, Point{Lat: 0, Lon: 181}.Validate())
	assert.Error(t, Point{Lat: math.NaN(), Lon: 0}.Validate())
}

func TestParseLatLonForms(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"45.5", 45.5},
		{"-122.25", -122.25},
		{"22 58.783S", -(22 + 58.783/60)},
		{"14 38.717E", 14 + 38.717/60},
		{"14 38 43.0E", 14 + 38/60.0 + 43.0/3600},
		{"50 30 00N", 50.5},
		{"0.0", 0},
	}
	for _, c := range cases {
		got, err := ParseLatLon(c.in)
		require.NoError(t, err, c.in)
		assert.InDelta(t, c.want, got, 1e-9, c.in)
	}
}

func TestParseLatLonErrors(t *testing.T) {
	for _, in := range []string{"", "abc", "12 xxS", "1 2 3 4", "-22 30S"} {
		_, err := ParseLatLon(in)
		require.Error(t, err, in)
		var perr *ParseError
		assert.ErrorAs(t, err, &perr, in)
	}
}

func TestParsePointValidatesRange(t *testing.T) {
	_, err := ParsePoint("95.0", "10.0")
	assert.Error(t, err)
	p, err := ParsePoint("22 58.783S", "14 38.717E")
	require.NoError(t, err)
	assert.InDelta(t, -22.9797, p.Lat, 1e-3)
	assert.InDelta(t, 14.6453, p.Lon, 1e-3)
}

func TestNormalizeDelta(t *testing.T) {
	assert.InDelta(t, 180, NormalizeDelta(180), 1e-9)
	assert.InDelta(t, 180, NormalizeDelta(-180), 1e-9)
	assert.InDelta(t, -170, NormalizeDelta(190), 1e-9)
	assert.InDelta(t, 10, NormalizeDelta(370), 1e-9)
}

func TestSolarPositionNoonEquator(t *testing.T) {
	// Equinox, noon UTC at the prime meridian: sun nearly overhead
	zen, _ := SolarPosition(0, 0, time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC))
	assert.Less(t, zen, 5.0)

	// Midnight: sun well below the horizon
	zen, _ = SolarPosition(0, 0, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))
	assert.Greater(t, zen, 90.0)
}

func TestMagneticBearing(t *testing.T) {
	assert.InDelta(t, 350, MagneticBearing(0, 10), 1e-9)
	assert.InDelta(t, 5, MagneticBearing(360, -5), 1e-9)
}
