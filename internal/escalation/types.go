// Package escalation raises incidents through an ordered chain of
// responders and tracks each escalation to resolution.
package escalation

import (
	"fmt"
	"time"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

var (
	ErrInvalidEscalation = fmt.Errorf("%w: invalid escalation", incident.ErrValidation)
	ErrInvalidAgent      = fmt.Errorf("%w: invalid agent", incident.ErrValidation)
	ErrEscalationClosed  = fmt.Errorf("%w: escalation is closed", incident.ErrInvalidState)
)

// Level is a responder tier. Higher levels are further up the chain.
type Level int

const (
	LevelAuto Level = iota + 1
	LevelTeamLead
	LevelSupportEngineer
	LevelSeniorEngineer
	LevelCustomerService
)

var levelNames = map[Level]string{
	LevelAuto:            "L1_AUTO",
	LevelTeamLead:        "L2_TEAM_LEAD",
	LevelSupportEngineer: "L3_SUPPORT_ENGINEER",
	LevelSeniorEngineer:  "L4_SENIOR_ENGINEER",
	LevelCustomerService: "L5_CUSTOMER_SERVICE",
}

// Levels lists every level, lowest first.
var Levels = []Level{LevelAuto, LevelTeamLead, LevelSupportEngineer, LevelSeniorEngineer, LevelCustomerService}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// Next returns the level above l, or false at the top of the chain.
func (l Level) Next() (Level, bool) {
	if !l.Valid() || l == LevelCustomerService {
		return 0, false
	}
	return l + 1, true
}

// ParseLevel parses a level name such as "L3_SUPPORT_ENGINEER".
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown level %q", incident.ErrValidation, s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("unknown level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Trigger is what caused an escalation.
type Trigger string

const (
	TriggerAutoFixFailed     Trigger = "AUTO_FIX_FAILED"
	TriggerSafetyCritical    Trigger = "SAFETY_CRITICAL"
	TriggerRepeatedFailures  Trigger = "REPEATED_FAILURES"
	TriggerTimeoutNoResponse Trigger = "TIMEOUT_NO_RESPONSE"
	TriggerTimeoutNoProgress Trigger = "TIMEOUT_NO_PROGRESS"
	TriggerManualRequest     Trigger = "MANUAL_REQUEST"
)

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerAutoFixFailed, TriggerSafetyCritical, TriggerRepeatedFailures,
		TriggerTimeoutNoResponse, TriggerTimeoutNoProgress, TriggerManualRequest:
		return true
	}
	return false
}

// Status is the lifecycle state of an escalation event.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInReview   Status = "IN_REVIEW"
	StatusAssigned   Status = "ASSIGNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// Done reports whether the escalation no longer holds a responder.
func (s Status) Done() bool {
	return s == StatusResolved || s == StatusClosed
}

// ImpactLevel grades the blast radius of the underlying failure.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "LOW"
	ImpactMedium ImpactLevel = "MEDIUM"
	ImpactHigh   ImpactLevel = "HIGH"
)

// ErrorDetails describe the failure being escalated.
type ErrorDetails struct {
	Message            string      `json:"message"`
	AffectedComponents []string    `json:"affected_components,omitempty"`
	ImpactLevel        ImpactLevel `json:"impact_level"`
}

// AutoFixAttempt records one automated remediation attempt.
type AutoFixAttempt struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	Details   string    `json:"details,omitempty"`
}

// Context is a snapshot of the situation at escalation time.
type Context struct {
	SystemType       string           `json:"system_type"`
	Environment      string           `json:"environment"`
	ErrorDetails     ErrorDetails     `json:"error_details"`
	AutoFixAttempts  []AutoFixAttempt `json:"auto_fix_attempts,omitempty"`
	RelatedIncidents []string         `json:"related_incidents,omitempty"`
	BusinessImpact   string           `json:"business_impact,omitempty"`
}

// Clone returns a copy that shares no slices with c.
func (c Context) Clone() Context {
	c.ErrorDetails.AffectedComponents = append([]string(nil), c.ErrorDetails.AffectedComponents...)
	c.AutoFixAttempts = append([]AutoFixAttempt(nil), c.AutoFixAttempts...)
	c.RelatedIncidents = append([]string(nil), c.RelatedIncidents...)
	return c
}

// Resolution describes how an escalation was closed out.
type Resolution struct {
	Summary          string   `json:"summary"`
	RootCause        string   `json:"root_cause,omitempty"`
	ActionsTaken     []string `json:"actions_taken,omitempty"`
	ResolvedBy       string   `json:"resolved_by"`
	CustomerNotified bool     `json:"customer_notified"`
}

// Event is one escalation of an incident. Escalating further creates a new
// event linked through PreviousEventID; events are never re-levelled.
type Event struct {
	ID              string            `json:"id"`
	IncidentID      string            `json:"incident_id"`
	AssignmentID    string            `json:"assignment_id,omitempty"`
	PreviousEventID string            `json:"previous_event_id,omitempty"`
	Trigger         Trigger           `json:"trigger"`
	Level           Level             `json:"level"`
	Status          Status            `json:"status"`
	Priority        incident.Priority `json:"priority"`
	Description     string            `json:"description"`
	Context         Context           `json:"context"`
	AssignedTo      string            `json:"assigned_to,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	ResolvedAt      *time.Time        `json:"resolved_at,omitempty"`
	Resolution      *Resolution       `json:"resolution,omitempty"`
}

// Clone returns a deep copy of e.
func (e Event) Clone() Event {
	e.Context = e.Context.Clone()
	if e.ResolvedAt != nil {
		t := *e.ResolvedAt
		e.ResolvedAt = &t
	}
	if e.Resolution != nil {
		r := *e.Resolution
		r.ActionsTaken = append([]string(nil), r.ActionsTaken...)
		e.Resolution = &r
	}
	return e
}

// Statistics summarise the escalations created in a time window.
type Statistics struct {
	Start                 time.Time       `json:"start"`
	End                   time.Time       `json:"end"`
	Total                 int             `json:"total"`
	ByLevel               map[Level]int   `json:"by_level"`
	ByTrigger             map[Trigger]int `json:"by_trigger"`
	ByStatus              map[Status]int  `json:"by_status"`
	AverageResolutionTime float64         `json:"average_resolution_time"`
}
