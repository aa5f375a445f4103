// Package incident holds the data the assignment and escalation engines
// exchange: incidents, priorities, problem categories and SLA targets.
package incident

import (
	"fmt"
	"strings"
	"time"
)

// Priority is the urgency of an incident.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Priorities lists every priority, most urgent first.
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ParsePriority accepts any casing of a known priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
	}
	return p, nil
}

// ProblemType is the category an incident is routed by.
type ProblemType string

const (
	ProblemFrontendUI     ProblemType = "FRONTEND_UI"
	ProblemBackendAPI     ProblemType = "BACKEND_API"
	ProblemDatabase       ProblemType = "DATABASE"
	ProblemSecurity       ProblemType = "SECURITY"
	ProblemPerformance    ProblemType = "PERFORMANCE"
	ProblemInfrastructure ProblemType = "INFRASTRUCTURE"
	ProblemDeployment     ProblemType = "DEPLOYMENT"
	ProblemCodeQuality    ProblemType = "CODE_QUALITY"
	ProblemTesting        ProblemType = "TESTING"
	ProblemIntegration    ProblemType = "INTEGRATION"
)

// ProblemTypes lists every problem type.
var ProblemTypes = []ProblemType{
	ProblemFrontendUI, ProblemBackendAPI, ProblemDatabase, ProblemSecurity,
	ProblemPerformance, ProblemInfrastructure, ProblemDeployment,
	ProblemCodeQuality, ProblemTesting, ProblemIntegration,
}

// Valid reports whether t is one of the known problem types.
func (t ProblemType) Valid() bool {
	for _, known := range ProblemTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Incident is a reported operational problem that needs an owner. It is
// validated by the caller and never modified after creation.
type Incident struct {
	ID            string      `json:"id" yaml:"id"`
	Type          ProblemType `json:"type" yaml:"type"`
	Priority      Priority    `json:"priority" yaml:"priority"`
	Description   string      `json:"description" yaml:"description"`
	AffectedFiles []string    `json:"affected_files,omitempty" yaml:"affected_files,omitempty"`
	ErrorMessage  string      `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	CreatedAt     time.Time   `json:"created_at" yaml:"created_at"`
}

// DiagnosticText concatenates every free-text field used for expertise
// matching. It is empty when the incident carries no diagnostics.
func (i Incident) DiagnosticText() string {
	parts := make([]string, 0, 2+len(i.AffectedFiles))
	if i.Description != "" {
		parts = append(parts, i.Description)
	}
	if i.ErrorMessage != "" {
		parts = append(parts, i.ErrorMessage)
	}
	parts = append(parts, i.AffectedFiles...)
	return strings.Join(parts, " ")
}

// Validate checks the fields the engines rely on.
func (i Incident) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: incident id is required", ErrValidation)
	}
	if !i.Type.Valid() {
		return fmt.Errorf("%w: unknown problem type %q", ErrValidation, i.Type)
	}
	if !i.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, i.Priority)
	}
	return nil
}

// TeamMember is a person who can own an incident.
type TeamMember struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Email       string   `json:"email" yaml:"email"`
	Specialties []string `json:"specialties" yaml:"specialties"`
	Timezone    string   `json:"timezone" yaml:"timezone"`
}

// Clone returns a copy that shares no slices with m.
func (m TeamMember) Clone() TeamMember {
	m.Specialties = append([]string(nil), m.Specialties...)
	return m
}

// TeamStructure is a functional team and its members.
type TeamStructure struct {
	Name        string       `json:"name" yaml:"name"`
	Members     []TeamMember `json:"members" yaml:"members"`
	Specialties []string     `json:"specialties" yaml:"specialties"`
	Timezone    string       `json:"timezone" yaml:"timezone"`
}

// Clone returns a deep copy of t.
func (t TeamStructure) Clone() TeamStructure {
	members := make([]TeamMember, len(t.Members))
	for i, m := range t.Members {
		members[i] = m.Clone()
	}
	t.Members = members
	t.Specialties = append([]string(nil), t.Specialties...)
	return t
}
