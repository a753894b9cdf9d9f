package flightplan

import "fmt"

// ValidationError marks one waypoint's bad input. Collected per waypoint and
// returned alongside the partial table; only a structurally required
// waypoint (the first) aborts the recompute.
type ValidationError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("waypoint %d: %s: %s", e.Index, e.Field, e.Message)
}

// Warning kinds. Warnings are informational annotations, never errors.
const (
	WarnPlatformNotFound    = "platform_not_found"
	WarnPlatformApproximate = "platform_approximate"
	WarnUnreachableAltitude = "unreachable_altitude"
)

// Warning is a non-fatal annotation on the computed result
type Warning struct {
	Kind    string `json:"kind"`
	Index   int    `json:"index,omitempty"` // Waypoint index where applicable
	Message string `json:"message"`

	// UnreachableAltitude details
	RequestedAlt float64 `json:"requested_alt,omitempty"`
	AchievedAlt  float64 `json:"achieved_alt,omitempty"`
}
