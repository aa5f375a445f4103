// Package audit keeps a trail of changes made through the API and by the
// escalation monitor.
package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
	ActorAgent  ActorType = "agent"
)

// Action describes what was done. Entries recorded by Middleware use the
// request method and route pattern, e.g. "POST /api/incidents".
type Action string

const (
	ActionAssignmentEscalated Action = "assignment_escalated"
)

// Scope is the kind of record an action touched.
type Scope string

const (
	ScopeIncident     Scope = "incident"
	ScopeAssignment   Scope = "assignment"
	ScopeEscalation   Scope = "escalation"
	ScopeAgent        Scope = "agent"
	ScopeNotification Scope = "notification"
	ScopeSystem       Scope = "system"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeIncident, ScopeAssignment, ScopeEscalation, ScopeAgent, ScopeNotification, ScopeSystem:
		return true
	}
	return false
}

// Entry is a single audit trail record.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ActorType  ActorType `json:"actor_type"`
	ActorID    string    `json:"actor_id"`
	Action     Action    `json:"action"`
	Scope      Scope     `json:"scope"`
	ScopeID    string    `json:"scope_id,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
}
