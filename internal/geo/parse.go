package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError indicates a coordinate string that could not be interpreted
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse coordinate %q: %s", e.Input, e.Reason)
}

// ParseLatLon parses a single coordinate component in decimal-degree,
// degree-minute, or degree-minute-second form. Space-separated fields are
// degrees, minutes, and seconds; the last field may carry a trailing
// hemisphere letter (N/S/E/W), or the degrees may be signed.
//
//	"45.5"           -> 45.5
//	"-122.25"        -> -122.25
//	"22 58.783S"     -> -22.97972
//	"14 38 43.0E"    -> 14.64528
func ParseLatLon(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 3 {
		return 0, &ParseError{Input: s, Reason: "expected 1 to 3 fields"}
	}

	sign := 1.0
	last := fields[len(fields)-1]
	switch {
	case strings.HasSuffix(last, "S"), strings.HasSuffix(last, "s"),
		strings.HasSuffix(last, "W"), strings.HasSuffix(last, "w"):
		sign = -1.0
		fields[len(fields)-1] = last[:len(last)-1]
	case strings.HasSuffix(last, "N"), strings.HasSuffix(last, "n"),
		strings.HasSuffix(last, "E"), strings.HasSuffix(last, "e"):
		fields[len(fields)-1] = last[:len(last)-1]
	}
	if fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
		if len(fields) == 0 {
			return 0, &ParseError{Input: s, Reason: "no numeric fields"}
		}
	}

	deg, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, &ParseError{Input: s, Reason: "bad degrees field"}
	}
	if deg < 0 {
		if sign < 0 {
			return 0, &ParseError{Input: s, Reason: "both sign and hemisphere letter given"}
		}
		sign = -1.0
		deg = -deg
	}

	// Fold minutes and seconds in from the right, each a factor of 60 down
	frac := 0.0
	for i := len(fields) - 1; i >= 1; i-- {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, &ParseError{Input: s, Reason: fmt.Sprintf("bad field %q", fields[i])}
		}
		if v < 0 {
			return 0, &ParseError{Input: s, Reason: "negative minutes or seconds"}
		}
		frac = (frac + v) / 60.0
	}

	return sign * (deg + frac), nil
}

// ParsePoint parses a latitude and a longitude string into a validated Point
func ParsePoint(latStr, lonStr string) (Point, error) {
	lat, err := ParseLatLon(latStr)
	if err != nil {
		return Point{}, err
	}
	lon, err := ParseLatLon(lonStr)
	if err != nil {
		return Point{}, err
	}
	p := Point{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return Point{}, &ParseError{Input: latStr + " / " + lonStr, Reason: err.Error()}
	}
	return p, nil
}
