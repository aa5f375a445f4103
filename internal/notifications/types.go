package notifications

import (
	"context"
	"time"
)

// Severity indicates the importance of a notification.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// NotificationType categorises the engine event that triggered the notification.
type NotificationType string

const (
	TypeAssignmentCreated    NotificationType = "assignment_created"
	TypeAssignmentUpdated    NotificationType = "assignment_status_changed"
	TypeAssignmentReassigned NotificationType = "assignment_reassigned"
	TypeAssignmentEscalated  NotificationType = "assignment_escalated"
	TypeEscalationCreated    NotificationType = "escalation_created"
	TypeEscalationUpdated    NotificationType = "escalation_status_changed"
	TypeEscalationResolved   NotificationType = "escalation_resolved"
	TypeEscalationRaised     NotificationType = "escalation_raised"
)

// Notification is a single engine event record.
type Notification struct {
	ID              string           `json:"id"`
	Type            NotificationType `json:"type"`
	Severity        Severity         `json:"severity"`
	Title           string           `json:"title"`
	Message         string           `json:"message"`
	EntityID        string           `json:"entity_id"`
	AffectedMembers []string         `json:"affected_members"`
	AffectedTeams   []string         `json:"affected_teams"`
	Delivered       bool             `json:"delivered"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Notifier is the hook engines call when something worth telling a human
// happens. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Nop discards every notification.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, Notification) error { return nil }

// Func adapts a function to Notifier.
type Func func(ctx context.Context, n Notification) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }
