package workload

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// AvailabilityProvider reports how reachable a member is at a point in
// time, from 0 (unreachable) to 1 (on hand).
type AvailabilityProvider interface {
	Availability(member incident.TeamMember, at time.Time) float64
}

// AvailabilityFunc adapts a function to AvailabilityProvider.
type AvailabilityFunc func(member incident.TeamMember, at time.Time) float64

// Availability implements AvailabilityProvider.
func (f AvailabilityFunc) Availability(member incident.TeamMember, at time.Time) float64 {
	return f(member, at)
}

// CoreHours is a time-of-day heuristic evaluated in the member's timezone.
// Hours are on a 24h clock; End is exclusive.
type CoreHours struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Buffer int `json:"buffer"`
}

// DefaultCoreHours is 09:00-17:00 with one buffer hour either side.
func DefaultCoreHours() CoreHours {
	return CoreHours{Start: 9, End: 17, Buffer: 1}
}

// Validate checks the window is a non-empty range within a day.
func (c CoreHours) Validate() error {
	if c.Start < 0 || c.End > 24 || c.Start >= c.End {
		return fmt.Errorf("%w: core hours %d-%d out of range", incident.ErrValidation, c.Start, c.End)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("%w: core hours buffer must not be negative", incident.ErrValidation)
	}
	return nil
}

// Availability returns 1.0 inside core hours, 0.7 in the buffer hours and
// 0.3 otherwise. Buffer hours wrap around midnight. Unknown timezones are
// treated as UTC.
func (c CoreHours) Availability(member incident.TeamMember, at time.Time) float64 {
	loc := time.UTC
	if member.Timezone != "" {
		if l, err := time.LoadLocation(member.Timezone); err == nil {
			loc = l
		}
	}
	h := at.In(loc).Hour()
	switch {
	case inWindow(h, c.Start, c.End-c.Start):
		return 1.0
	case inWindow(h, c.Start-c.Buffer, c.End-c.Start+2*c.Buffer):
		return 0.7
	default:
		return 0.3
	}
}

// inWindow reports whether hour h falls in the span of length hours that
// starts at from, counting modulo 24.
func inWindow(h, from, length int) bool {
	if length >= 24 {
		return true
	}
	offset := ((h-from)%24 + 24) % 24
	return offset < length
}
