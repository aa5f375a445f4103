// Package assignment binds incidents to owners and moves the resulting
// assignments through their lifecycle.
package assignment

import (
	"fmt"
	"time"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

var (
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", incident.ErrNotFound)
	ErrMemberNotFound     = fmt.Errorf("member %w", incident.ErrNotFound)
	ErrNoAvailableMembers = fmt.Errorf("%w: no available members", incident.ErrInvalidState)
	ErrInvalidPriority    = fmt.Errorf("%w: invalid priority", incident.ErrValidation)
	ErrInvalidStatus      = fmt.Errorf("%w: invalid assignment status", incident.ErrValidation)
	ErrAssignmentClosed   = fmt.Errorf("%w: assignment is closed", incident.ErrInvalidState)
)

// Status is the lifecycle state of an assignment.
type Status string

const (
	StatusAssigned     Status = "ASSIGNED"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusInProgress   Status = "IN_PROGRESS"
	StatusEscalated    Status = "ESCALATED"
	StatusResolved     Status = "RESOLVED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusAssigned, StatusAcknowledged, StatusInProgress, StatusEscalated, StatusResolved:
		return true
	}
	return false
}

// Terminal reports whether the assignment no longer needs monitoring.
func (s Status) Terminal() bool {
	return s == StatusEscalated || s == StatusResolved
}

// Assignment binds an incident to its owners and SLA budget. Timestamps
// are stamped on the first transition into their status and never
// overwritten.
type Assignment struct {
	ID              string               `json:"id"`
	IncidentID      string               `json:"incident_id"`
	Priority        incident.Priority    `json:"priority"`
	ProblemType     incident.ProblemType `json:"problem_type"`
	PrimaryOwner    incident.TeamMember  `json:"primary_owner"`
	SecondaryOwner  *incident.TeamMember `json:"secondary_owner,omitempty"`
	EscalationOwner *incident.TeamMember `json:"escalation_owner,omitempty"`
	Status          Status               `json:"status"`
	AssignedAt      time.Time            `json:"assigned_at"`
	AcknowledgedAt  *time.Time           `json:"acknowledged_at,omitempty"`
	StartedAt       *time.Time           `json:"started_at,omitempty"`
	ResolvedAt      *time.Time           `json:"resolved_at,omitempty"`
	SLATarget       incident.SLATarget   `json:"sla_target"`
}

// Clone returns a copy of a that shares no pointers with it.
func (a Assignment) Clone() Assignment {
	a.PrimaryOwner = a.PrimaryOwner.Clone()
	a.SecondaryOwner = cloneMember(a.SecondaryOwner)
	a.EscalationOwner = cloneMember(a.EscalationOwner)
	a.AcknowledgedAt = cloneTime(a.AcknowledgedAt)
	a.StartedAt = cloneTime(a.StartedAt)
	a.ResolvedAt = cloneTime(a.ResolvedAt)
	return a
}

func cloneMember(m *incident.TeamMember) *incident.TeamMember {
	if m == nil {
		return nil
	}
	c := m.Clone()
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// ListFilter narrows ListAssignments. Zero fields match everything.
type ListFilter struct {
	Statuses   []Status
	OwnerID    string
	IncidentID string
}

func (f ListFilter) matches(a Assignment) bool {
	if f.OwnerID != "" && a.PrimaryOwner.ID != f.OwnerID {
		return false
	}
	if f.IncidentID != "" && a.IncidentID != f.IncidentID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if a.Status == s {
			return true
		}
	}
	return false
}
