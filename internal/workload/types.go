// Package workload scores candidate owners for an incident and keeps the
// per-member load and performance counters the scores are based on.
package workload

import (
	"fmt"
	"math"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// ErrEmptyCandidateSet is returned when asked to choose from no candidates.
var ErrEmptyCandidateSet = fmt.Errorf("%w: empty candidate set", incident.ErrInvalidState)

// defaultSuccessRate is the prior used for members without history.
const defaultSuccessRate = 0.5

// WorkloadMetrics are the counters kept for one member.
type WorkloadMetrics struct {
	MemberID              string  `json:"member_id"`
	ActiveAssignments     int     `json:"active_assignments"`
	TotalAssignments      int     `json:"total_assignments"`
	ResolvedAssignments   int     `json:"resolved_assignments"`
	AverageResolutionTime float64 `json:"average_resolution_time"`
	SuccessRate           float64 `json:"success_rate"`
}

func newMetrics(memberID string) WorkloadMetrics {
	return WorkloadMetrics{MemberID: memberID, SuccessRate: defaultSuccessRate}
}

// MetricsUpdate is a partial update; nil fields are left unchanged.
type MetricsUpdate struct {
	ActiveAssignments     *int     `json:"active_assignments,omitempty"`
	TotalAssignments      *int     `json:"total_assignments,omitempty"`
	ResolvedAssignments   *int     `json:"resolved_assignments,omitempty"`
	AverageResolutionTime *float64 `json:"average_resolution_time,omitempty"`
	SuccessRate           *float64 `json:"success_rate,omitempty"`
}

func (u MetricsUpdate) apply(m *WorkloadMetrics) {
	if u.ActiveAssignments != nil {
		m.ActiveAssignments = *u.ActiveAssignments
	}
	if u.TotalAssignments != nil {
		m.TotalAssignments = *u.TotalAssignments
	}
	if u.ResolvedAssignments != nil {
		m.ResolvedAssignments = *u.ResolvedAssignments
	}
	if u.AverageResolutionTime != nil {
		m.AverageResolutionTime = *u.AverageResolutionTime
	}
	if u.SuccessRate != nil {
		m.SuccessRate = *u.SuccessRate
	}
}

// Factors are the individual inputs of an assignment score, each in [0,1].
// Load is the normalized load before inversion.
type Factors struct {
	Expertise    float64 `json:"expertise"`
	Availability float64 `json:"availability"`
	Load         float64 `json:"load"`
	SuccessRate  float64 `json:"success_rate"`
}

// Score is the result of scoring one member for one incident.
type Score struct {
	Member  incident.TeamMember `json:"member"`
	Score   float64             `json:"score"`
	Factors Factors             `json:"factors"`
}

// Weights combine the scoring factors. They must sum to 1.
type Weights struct {
	Expertise    float64 `json:"expertise"`
	Availability float64 `json:"availability"`
	Load         float64 `json:"load"`
	SuccessRate  float64 `json:"success_rate"`
}

// Config tunes the balancer.
type Config struct {
	Weights   Weights
	MaxLoad   int
	CoreHours CoreHours
}

// DefaultConfig returns the standard weighting: 0.4 expertise, 0.3
// availability, 0.2 inverse load, 0.1 success rate, saturating at ten
// active assignments.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Expertise:    0.4,
			Availability: 0.3,
			Load:         0.2,
			SuccessRate:  0.1,
		},
		MaxLoad:   10,
		CoreHours: DefaultCoreHours(),
	}
}

// Validate checks that the weights are non-negative and sum to 1.
func (c Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"expertise":    w.Expertise,
		"availability": w.Availability,
		"load":         w.Load,
		"success_rate": w.SuccessRate,
	} {
		if v < 0 {
			return fmt.Errorf("%w: weight %s must not be negative", incident.ErrValidation, name)
		}
	}
	if sum := w.Expertise + w.Availability + w.Load + w.SuccessRate; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %.3f, want 1", incident.ErrValidation, sum)
	}
	if c.MaxLoad <= 0 {
		return fmt.Errorf("%w: max load must be positive", incident.ErrValidation)
	}
	return c.CoreHours.Validate()
}
