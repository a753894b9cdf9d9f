package flightplan

import (
	"time"

	"github.com/yegors/skyplanner/internal/geo"
)

// TurnType classifies the heading change executed at a waypoint
type TurnType string

const (
	TurnNone     TurnType = ""         // Bearing change too small to matter
	TurnStandard TurnType = "standard" // Fly-by turn, corner cut
	TurnWide     TurnType = "wide"     // 90-270 style turn for large heading changes
	TurnReversal TurnType = "reversal" // Overflight / course reversal, the most time-costly
)

// Phase identifies a leg sub-segment's flight phase
type Phase string

const (
	PhaseStationary Phase = "stationary"
	PhaseClimb      Phase = "climb"
	PhaseCruise     Phase = "cruise"
	PhaseDescent    Phase = "descent"
)

// Waypoint is one ordered point of a flight path. The engine reads the input
// fields and never mutates them; computed values live in TableRow.
type Waypoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`

	Alt       *float64   `json:"alt,omitempty"`        // Requested altitude (m); platform default applied if absent
	Speed     *float64   `json:"speed,omitempty"`      // Requested TAS (m/s); model-derived if absent
	DelaySec  float64    `json:"delay_sec,omitempty"`  // Stationary hold before departing this waypoint
	StartTime *time.Time `json:"start_time,omitempty"` // Explicit time override, replaces cumulative computation
	Headwind  float64    `json:"headwind,omitempty"`   // Signed headwind component on the leg arriving here (m/s)

	TurnTypeOverride TurnType `json:"turn_type_override,omitempty"` // Replaces automatic turn classification
}

// Point returns the waypoint's geographic position
func (w *Waypoint) Point() geo.Point {
	return geo.Point{Lat: w.Lat, Lon: w.Lon}
}

// FlightPath is an ordered sequence of waypoints flown by one platform
type FlightPath struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"` // Free-form; platform resolved from it by alias match
	Platform  string     `json:"platform,omitempty"` // Optional explicit platform name, wins over Name matching
	StartTime time.Time  `json:"start_time"`
	Waypoints []*Waypoint `json:"waypoints"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// PlatformHint returns the string used for platform alias resolution
func (fp *FlightPath) PlatformHint() string {
	if fp.Platform != "" {
		return fp.Platform
	}
	return fp.Name
}

// Segment is one phase-constant piece of a leg
type Segment struct {
	Phase       Phase   `json:"phase"`
	DistanceM   float64 `json:"distance_m"`
	DurationSec float64 `json:"duration_sec"`
	StartAlt    float64 `json:"start_alt"`
	EndAlt      float64 `json:"end_alt"`
	GroundSpeed float64 `json:"ground_speed"` // m/s, zero for stationary segments
}

// Leg is the derived edge between two consecutive usable waypoints
type Leg struct {
	From, To       int       `json:"-"` // Indexes into the computed rows
	FromPt, ToPt   geo.Point `json:"-"`
	DistanceM      float64   `json:"distance_m"`
	DurationSec    float64   `json:"duration_sec"` // Includes the stationary dwell prefix
	InitialBearing float64   `json:"initial_bearing"`
	FinalBearing   float64   `json:"final_bearing"`
	Segments       []Segment `json:"segments"`
}

// Turn is the derived heading change at an interior waypoint. It inflates the
// waypoint's dwell time only; the plotted path stays straight legs meeting at
// the vertex.
type Turn struct {
	EntryBearing float64  `json:"entry_bearing"`
	ExitBearing  float64  `json:"exit_bearing"`
	Delta        float64  `json:"delta"` // Signed bearing change, (-180,180]
	Type         TurnType `json:"type"`
	RadiusM      float64  `json:"radius_m"`
	DurationSec  float64  `json:"duration_sec"`
}

// TableRow is the per-waypoint output consumed by the spreadsheet collaborator
type TableRow struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`

	ResolvedAlt   float64 `json:"resolved_alt"`   // m
	ResolvedSpeed float64 `json:"resolved_speed"` // m/s TAS

	DelaySec    float64   `json:"delay_sec"`
	ArrivalTime time.Time `json:"arrival_time"`
	CumDistM    float64   `json:"cum_dist_m"`
	CumTimeSec  float64   `json:"cum_time_sec"`

	BearingIn  *float64 `json:"bearing_in,omitempty"`  // Final bearing of the arriving leg
	BearingOut *float64 `json:"bearing_out,omitempty"` // Initial bearing of the departing leg
	MagDecl    float64  `json:"mag_decl"`              // +East declination at this waypoint
	MagBearingOut *float64 `json:"mag_bearing_out,omitempty"`

	SolarZenith  float64 `json:"solar_zenith"`
	SolarAzimuth float64 `json:"solar_azimuth"`

	Turn *Turn `json:"turn,omitempty"`

	Excluded bool `json:"excluded,omitempty"` // Waypoint failed validation and was skipped
}

// TrackSample is one fixed-interval point of the resampled trajectory
type TrackSample struct {
	Time time.Time `json:"time"`
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
	Alt  float64   `json:"alt"`
}

// Result is the full output of one recompute pass
type Result struct {
	PlatformName    string            `json:"platform"`
	PlatformMatched bool              `json:"platform_matched"`
	Rows            []*TableRow       `json:"rows"`
	Legs            []*Leg            `json:"-"`
	TotalDistM      float64           `json:"total_dist_m"`
	TotalTimeSec    float64           `json:"total_time_sec"`
	Warnings        []Warning         `json:"warnings,omitempty"`
	Errors          []*ValidationError `json:"errors,omitempty"`
}
