package governance

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/metrics"
)

// Reason names the condition that made an escalation necessary.
type Reason string

const (
	ReasonNoResponse Reason = "NO_RESPONSE"
	ReasonNoProgress Reason = "NO_PROGRESS"
	ReasonUnresolved Reason = "UNRESOLVED"
)

// EscalationCheck is the outcome of CheckEscalationNeeded. Timeout is the
// breached rule value in minutes.
type EscalationCheck struct {
	Needed  bool   `json:"needed"`
	Reason  Reason `json:"reason,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// PerformanceResult compares an assignment's elapsed times with its SLA.
// ResponseTime and ResolutionTime are only set once measured.
type PerformanceResult struct {
	Compliant      bool     `json:"compliant"`
	ResponseTime   *float64 `json:"response_time,omitempty"`
	ResolutionTime *float64 `json:"resolution_time,omitempty"`
	Violations     []string `json:"violations"`
}

// QualityCriteria are the components of a QualityScore.
type QualityCriteria struct {
	Timeliness   float64 `json:"timeliness"`
	Completeness float64 `json:"completeness"`
}

// QualityScore rates how well an assignment was resolved.
type QualityScore struct {
	Score    float64         `json:"score"`
	Criteria QualityCriteria `json:"criteria"`
}

// CheckEscalationNeeded reports whether a has been idle past the timeout
// for priority. Conditions are checked in order and the first match wins:
// no acknowledgement, acknowledged but not started, started but not
// resolved. Resolved assignments and unknown priorities never need it.
func (g *Governance) CheckEscalationNeeded(a assignment.Assignment, priority incident.Priority) EscalationCheck {
	check := g.checkAt(a, priority, g.now())
	reason := string(check.Reason)
	if !check.Needed {
		reason = "none"
	}
	metrics.EscalationChecks.WithLabelValues(reason).Inc()
	if check.Needed {
		g.logger.Debug("escalation needed",
			zap.String("assignment_id", a.ID),
			zap.String("reason", reason),
			zap.Int("timeout", check.Timeout))
	}
	return check
}

func (g *Governance) checkAt(a assignment.Assignment, priority incident.Priority, now time.Time) EscalationCheck {
	rule, ok := g.rules[priority]
	if !ok || a.ResolvedAt != nil || a.Status == assignment.StatusResolved {
		return EscalationCheck{}
	}

	switch {
	case a.AcknowledgedAt == nil:
		if minutesBetween(a.AssignedAt, now) >= float64(rule.NoResponseTimeout) {
			return EscalationCheck{Needed: true, Reason: ReasonNoResponse, Timeout: rule.NoResponseTimeout}
		}
	case a.StartedAt == nil:
		if minutesBetween(*a.AcknowledgedAt, now) >= float64(rule.NoProgressTimeout) {
			return EscalationCheck{Needed: true, Reason: ReasonNoProgress, Timeout: rule.NoProgressTimeout}
		}
	default:
		if minutesBetween(*a.StartedAt, now) >= float64(rule.UnresolvedTimeout) {
			return EscalationCheck{Needed: true, Reason: ReasonUnresolved, Timeout: rule.UnresolvedTimeout}
		}
	}
	return EscalationCheck{}
}

// MonitorAssignmentPerformance measures a against its SLA target and
// lists one violation per breached budget. Unmeasured times count the
// time elapsed so far.
func (g *Governance) MonitorAssignmentPerformance(a assignment.Assignment) PerformanceResult {
	res, breached := evaluatePerformance(a, g.now())
	for _, target := range breached {
		metrics.SLAViolations.WithLabelValues(target).Inc()
	}
	return res
}

// evaluatePerformance also returns the names of the breached targets.
func evaluatePerformance(a assignment.Assignment, now time.Time) (PerformanceResult, []string) {
	res := PerformanceResult{Violations: []string{}}
	var breached []string

	responded := respondedAt(a)
	responseElapsed := minutesBetween(a.AssignedAt, now)
	if responded != nil {
		v := minutesBetween(a.AssignedAt, *responded)
		res.ResponseTime = &v
		responseElapsed = v
	}
	if responseElapsed > float64(a.SLATarget.ResponseTime) {
		res.Violations = append(res.Violations,
			fmt.Sprintf("response time %.1f min exceeds target of %d min", responseElapsed, a.SLATarget.ResponseTime))
		breached = append(breached, "response")
	}

	resolutionElapsed := minutesBetween(a.AssignedAt, now)
	if a.ResolvedAt != nil {
		v := minutesBetween(a.AssignedAt, *a.ResolvedAt)
		res.ResolutionTime = &v
		resolutionElapsed = v
	}
	if resolutionElapsed > float64(a.SLATarget.ResolutionTime) {
		res.Violations = append(res.Violations,
			fmt.Sprintf("resolution time %.1f min exceeds target of %d min", resolutionElapsed, a.SLATarget.ResolutionTime))
		breached = append(breached, "resolution")
	}

	res.Compliant = len(res.Violations) == 0
	return res, breached
}

// EvaluateResolutionQuality scores a: 60% timeliness against the
// resolution target, 40% completeness.
func (g *Governance) EvaluateResolutionQuality(a assignment.Assignment) QualityScore {
	return evaluateQuality(a, g.now())
}

func evaluateQuality(a assignment.Assignment, now time.Time) QualityScore {
	end := now
	if a.ResolvedAt != nil {
		end = *a.ResolvedAt
	}
	c := QualityCriteria{Timeliness: timeliness(minutesBetween(a.AssignedAt, end), a.SLATarget.ResolutionTime)}
	if a.Status == assignment.StatusResolved {
		c.Completeness = 1
	}
	return QualityScore{Score: 0.6*c.Timeliness + 0.4*c.Completeness, Criteria: c}
}

func timeliness(minutes float64, target int) float64 {
	if target <= 0 {
		return 0.2
	}
	ratio := minutes / float64(target)
	switch {
	case ratio <= 0.5:
		return 1.0
	case ratio <= 1:
		return 0.8
	case ratio <= 1.5:
		return 0.5
	default:
		return 0.2
	}
}

// respondedAt is the first sign of life on an assignment. Starting or
// resolving work without acknowledging it still counts as a response.
func respondedAt(a assignment.Assignment) *time.Time {
	switch {
	case a.AcknowledgedAt != nil:
		return a.AcknowledgedAt
	case a.StartedAt != nil:
		return a.StartedAt
	default:
		return a.ResolvedAt
	}
}

func minutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}
