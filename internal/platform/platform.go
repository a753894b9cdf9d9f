package platform

import (
	"fmt"
	"math"

	"github.com/yegors/skyplanner/internal/geo"
)

// MinSpeedMS is the floor applied to every derived speed so the kinematics
// never see a zero or negative speed
const MinSpeedMS = 1.0

// Platform is an aircraft type's kinematic envelope, loaded once from the
// profile file and immutable afterwards
type Platform struct {
	Name    string   `toml:"name" json:"name"`
	Aliases []string `toml:"aliases" json:"aliases"`

	MaxAlt               float64 `toml:"max_alt" json:"max_alt"`                               // Default cruise ceiling (m)
	BaseSpeed            float64 `toml:"base_speed" json:"base_speed"`                         // TAS at sea level (m/s)
	SpeedPerAlt          float64 `toml:"speed_per_alt" json:"speed_per_alt"`                   // TAS gain per meter of altitude (m/s per m)
	MaxSpeed             float64 `toml:"max_speed" json:"max_speed"`                           // TAS ceiling (m/s)
	MaxSpeedAlt          float64 `toml:"max_speed_alt" json:"max_speed_alt"`                   // Altitude at/above which MaxSpeed applies (m)
	DescentSpeedDecrease float64 `toml:"descent_speed_decrease" json:"descent_speed_decrease"` // TAS penalty while descending (m/s)

	ClimbVertSpeed          float64 `toml:"climb_vert_speed" json:"climb_vert_speed"`                     // Constant climb rate (m/s)
	DescentVertSpeed        float64 `toml:"descent_vert_speed" json:"descent_vert_speed"`                 // Descent rate below the variable threshold (m/s, negative)
	AltForVariableVertSpeed float64 `toml:"alt_for_variable_vert_speed" json:"alt_for_variable_vert_speed"` // Altitude above which descent rate goes linear (m)
	VertSpeedBase           float64 `toml:"vert_speed_base" json:"vert_speed_base"`                       // Linear descent model intercept (m/s)
	VertSpeedPerAlt         float64 `toml:"vert_speed_per_alt" json:"vert_speed_per_alt"`                 // Linear descent model slope (m/s per m)

	// Exactly one of RateOfTurn / TurnBankAngle is authoritative: an
	// explicit rate overrides the bank-angle derivation.
	RateOfTurn    *float64 `toml:"rate_of_turn" json:"rate_of_turn,omitempty"` // deg/s, optional
	TurnBankAngle float64  `toml:"turn_bank_angle" json:"turn_bank_angle"`     // degrees

	Warning bool `toml:"warning" json:"warning"` // Profile numbers are rough, surface a caution to the user
}

// validate fails fast on a record missing required fields or carrying
// non-physical values
func (p *Platform) validate() error {
	if p.Name == "" {
		return fmt.Errorf("platform record missing name")
	}
	if p.MaxAlt <= 0 {
		return fmt.Errorf("platform %s: max_alt must be positive: %f", p.Name, p.MaxAlt)
	}
	if p.BaseSpeed <= 0 {
		return fmt.Errorf("platform %s: base_speed must be positive: %f", p.Name, p.BaseSpeed)
	}
	if p.MaxSpeed <= 0 {
		return fmt.Errorf("platform %s: max_speed must be positive: %f", p.Name, p.MaxSpeed)
	}
	if p.MaxSpeedAlt <= 0 {
		return fmt.Errorf("platform %s: max_speed_alt must be positive: %f", p.Name, p.MaxSpeedAlt)
	}
	if p.ClimbVertSpeed <= 0 {
		return fmt.Errorf("platform %s: climb_vert_speed must be positive: %f", p.Name, p.ClimbVertSpeed)
	}
	if p.DescentVertSpeed >= 0 {
		return fmt.Errorf("platform %s: descent_vert_speed must be negative: %f", p.Name, p.DescentVertSpeed)
	}
	if p.RateOfTurn == nil && p.TurnBankAngle <= 0 {
		return fmt.Errorf("platform %s: one of rate_of_turn or turn_bank_angle is required", p.Name)
	}
	if p.RateOfTurn != nil && *p.RateOfTurn <= 0 {
		return fmt.Errorf("platform %s: rate_of_turn must be positive: %f", p.Name, *p.RateOfTurn)
	}
	return nil
}

// SpeedAtAltitude returns the cruise TAS in m/s at the given altitude:
// piecewise linear in altitude, capped at MaxSpeed once at or above
// MaxSpeedAlt, and floored at MinSpeedMS
func (p *Platform) SpeedAtAltitude(altM float64) float64 {
	tas := p.BaseSpeed + p.SpeedPerAlt*altM
	if altM >= p.MaxSpeedAlt {
		tas = p.MaxSpeed
	}
	if tas > p.MaxSpeed {
		tas = p.MaxSpeed
	}
	if tas < MinSpeedMS {
		tas = MinSpeedMS
	}
	return tas
}

// DescentSpeedAtAltitude returns the TAS while descending through the given
// altitude, applying the platform's descent speed penalty
func (p *Platform) DescentSpeedAtAltitude(altM float64) float64 {
	tas := p.SpeedAtAltitude(altM) - p.DescentSpeedDecrease
	if tas < MinSpeedMS {
		tas = MinSpeedMS
	}
	return tas
}

// VerticalSpeed returns the signed vertical rate in m/s at the given
// altitude. Climb is constant-rate; descent is constant below
// AltForVariableVertSpeed and linear in altitude above it.
func (p *Platform) VerticalSpeed(altM float64, climb bool) float64 {
	if climb {
		return p.ClimbVertSpeed
	}
	if altM < p.AltForVariableVertSpeed {
		return p.DescentVertSpeed
	}
	vs := p.VertSpeedBase + p.VertSpeedPerAlt*altM
	return -math.Abs(vs)
}

// TurnRate returns the turn rate in deg/s at the given ground speed. An
// explicitly configured rate_of_turn wins; otherwise the rate is derived
// from the bank angle via the coordinated-turn relation
func (p *Platform) TurnRate(speedMS float64) float64 {
	if p.RateOfTurn != nil {
		return *p.RateOfTurn
	}
	if speedMS < MinSpeedMS {
		speedMS = MinSpeedMS
	}
	bankRad := p.TurnBankAngle * math.Pi / 180
	return geo.G * math.Tan(bankRad) / speedMS * 180 / math.Pi
}

// TurnRadius returns the coordinated-turn radius in meters at the given
// ground speed
func (p *Platform) TurnRadius(speedMS float64) float64 {
	if speedMS < MinSpeedMS {
		speedMS = MinSpeedMS
	}
	if p.RateOfTurn != nil {
		rateRad := *p.RateOfTurn * math.Pi / 180
		return speedMS / rateRad
	}
	bankRad := p.TurnBankAngle * math.Pi / 180
	return speedMS * speedMS / (geo.G * math.Tan(bankRad))
}
