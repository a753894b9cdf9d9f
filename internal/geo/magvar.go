package geo

import (
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// MagneticVariation returns the magnetic declination in degrees (+East,
// -West) for a position and time, from the World Magnetic Model.
// Returns 0 if the model cannot be evaluated.
func MagneticVariation(lat, lon, altM float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, altM)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}

	return mag.D()
}

// MagneticBearing converts a true bearing to magnetic using the local
// declination: magnetic = true - declination
func MagneticBearing(trueBearing, declination float64) float64 {
	return NormalizeBearing(trueBearing - declination)
}
