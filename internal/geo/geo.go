package geo

import (
	"fmt"
	"math"
)

// Constants
const (
	EarthRadiusM = 6371000.0 // Mean Earth radius (m), spherical approximation
	G            = 9.80665   // Gravity (m/s^2)
	KnotsToMs    = 0.514444  // Conversion factor from Knots to m/s
	MsToKnots    = 1.94384   // Conversion factor from m/s to Knots
	MetersToNM   = 0.000539957
	MetersToFeet = 3.28084
)

// Point is a geographic position in decimal degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the point is within valid geographic bounds
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude out of range [-90,90]: %f", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude out of range [-180,180]: %f", p.Lon)
	}
	return nil
}

// Distance returns the great-circle distance in meters between two points,
// using the haversine formula on a spherical Earth
func Distance(p1, p2 Point) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	dLat := (p2.Lat - p1.Lat) * math.Pi / 180
	dLon := (p2.Lon - p1.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// Bearing returns the initial bearing in degrees [0,360) along the great
// circle from p1 to p2
func Bearing(p1, p2 Point) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	dLon := (p2.Lon - p1.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	brng := math.Atan2(y, x) * 180 / math.Pi
	return NormalizeBearing(brng)
}

// Destination returns the point reached by travelling the given distance in
// meters from p along the given initial bearing in degrees
func Destination(p Point, bearingDeg, distanceM float64) Point {
	lat1 := p.Lat * math.Pi / 180
	lon1 := p.Lon * math.Pi / 180
	brng := bearingDeg * math.Pi / 180
	d := distanceM / EarthRadiusM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) +
		math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return Point{
		Lat: lat2 * 180 / math.Pi,
		Lon: normalizeLon(lon2 * 180 / math.Pi),
	}
}

// InterpolateFraction returns the point at the given fraction of the
// great-circle path from p1 to p2. The fraction is clamped to [0,1].
func InterpolateFraction(p1, p2 Point, fraction float64) Point {
	if fraction <= 0 {
		return p1
	}
	if fraction >= 1 {
		return p2
	}

	lat1 := p1.Lat * math.Pi / 180
	lon1 := p1.Lon * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	lon2 := p2.Lon * math.Pi / 180

	// Angular distance between the endpoints
	d := Distance(p1, p2) / EarthRadiusM
	if d == 0 {
		return p1
	}

	a := math.Sin((1-fraction)*d) / math.Sin(d)
	b := math.Sin(fraction*d) / math.Sin(d)

	x := a*math.Cos(lat1)*math.Cos(lon1) + b*math.Cos(lat2)*math.Cos(lon2)
	y := a*math.Cos(lat1)*math.Sin(lon1) + b*math.Cos(lat2)*math.Sin(lon2)
	z := a*math.Sin(lat1) + b*math.Sin(lat2)

	return Point{
		Lat: math.Atan2(z, math.Sqrt(x*x+y*y)) * 180 / math.Pi,
		Lon: normalizeLon(math.Atan2(y, x) * 180 / math.Pi),
	}
}

// NormalizeBearing wraps a bearing in degrees to [0,360)
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// NormalizeDelta wraps a bearing difference in degrees to (-180,180]
func NormalizeDelta(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return deg
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
