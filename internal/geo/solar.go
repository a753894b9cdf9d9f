package geo

import (
	"math"
	"time"
)

// SolarPosition returns the solar zenith and azimuth angles in degrees for a
// position and UTC time, using the NOAA low-accuracy solar geometry
// approximation (adequate for flight-planning sun-angle annotations).
// Azimuth is measured clockwise from true north.
func SolarPosition(lat, lon float64, t time.Time) (zenith, azimuth float64) {
	t = t.UTC()
	doy := float64(t.YearDay())
	hours := float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0

	// Fractional year (radians)
	gamma := 2 * math.Pi / 365.0 * (doy - 1 + (hours-12)/24)

	// Equation of time (minutes) and solar declination (radians)
	eqTime := 229.18 * (0.000075 + 0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
	decl := 0.006918 - 0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	// True solar time (minutes) and hour angle (radians)
	timeOffset := eqTime + 4*lon
	tst := hours*60 + timeOffset
	ha := (tst/4 - 180) * math.Pi / 180

	latRad := lat * math.Pi / 180
	cosZen := math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Cos(ha)
	cosZen = math.Max(-1, math.Min(1, cosZen))
	zenRad := math.Acos(cosZen)
	zenith = zenRad * 180 / math.Pi

	sinZen := math.Sin(zenRad)
	if sinZen == 0 {
		return zenith, 0
	}
	cosAz := (math.Sin(latRad)*cosZen - math.Sin(decl)) / (math.Cos(latRad) * sinZen)
	cosAz = math.Max(-1, math.Min(1, cosAz))
	azimuth = 180 - math.Acos(cosAz)*180/math.Pi
	if ha > 0 {
		azimuth = 360 - azimuth
	}
	return zenith, NormalizeBearing(azimuth)
}
