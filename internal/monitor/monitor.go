// Package monitor periodically checks open assignments against their
// governance rules and escalates the ones that have fallen behind.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/audit"
	"github.com/ziadkadry99/auto-assign/internal/escalation"
	"github.com/ziadkadry99/auto-assign/internal/governance"
	"github.com/ziadkadry99/auto-assign/internal/logging"
	"github.com/ziadkadry99/auto-assign/internal/metrics"
)

// DefaultInterval is the time between sweeps when none is configured.
const DefaultInterval = time.Minute

// openStatuses are the assignment states a sweep looks at.
var openStatuses = []assignment.Status{
	assignment.StatusAssigned,
	assignment.StatusAcknowledged,
	assignment.StatusInProgress,
}

// Monitor escalates assignments that breach their governance timeouts.
type Monitor struct {
	assignments *assignment.Engine
	governance  *governance.Governance
	escalations *escalation.Engine
	audit       audit.Recorder
	logger      *zap.Logger
	interval    time.Duration
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithAudit records a system audit entry for every escalation.
func WithAudit(r audit.Recorder) Option {
	return func(m *Monitor) { m.audit = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.logger = logging.OrNop(l) }
}

// WithInterval sets the time between sweeps. Non-positive values keep the
// default.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// New creates a Monitor.
func New(a *assignment.Engine, g *governance.Governance, e *escalation.Engine, opts ...Option) *Monitor {
	m := &Monitor{
		assignments: a,
		governance:  g,
		escalations: e,
		logger:      zap.NewNop(),
		interval:    DefaultInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run sweeps every interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("escalation monitor started", zap.Duration("interval", m.interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("escalation monitor stopped")
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.logger.Error("monitor sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep checks every open assignment once and escalates those that need
// it. It returns the escalations it created; a failure on one assignment
// does not stop the others.
func (m *Monitor) Sweep(ctx context.Context) ([]escalation.Event, error) {
	metrics.MonitorSweeps.Inc()

	open, err := m.assignments.ListAssignments(ctx, assignment.ListFilter{Statuses: openStatuses})
	if err != nil {
		metrics.MonitorErrors.Inc()
		return nil, fmt.Errorf("listing open assignments: %w", err)
	}

	var (
		created []escalation.Event
		errs    []error
	)
	for _, a := range open {
		check := m.governance.CheckEscalationNeeded(a, a.Priority)
		if !check.Needed {
			continue
		}
		ev, err := m.escalate(ctx, a, check)
		if errors.Is(err, assignment.ErrAssignmentClosed) {
			// Resolved or escalated since it was listed.
			m.logger.Debug("skipping closed assignment", zap.String("assignment_id", a.ID))
			continue
		}
		if err != nil {
			metrics.MonitorErrors.Inc()
			m.logger.Error("escalating assignment failed",
				zap.String("assignment_id", a.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("assignment %s: %w", a.ID, err))
			continue
		}
		created = append(created, ev)
	}

	m.logger.Debug("monitor sweep finished",
		zap.Int("open", len(open)),
		zap.Int("escalated", len(created)))
	return created, errors.Join(errs...)
}

func (m *Monitor) escalate(ctx context.Context, a assignment.Assignment, check governance.EscalationCheck) (escalation.Event, error) {
	trigger := escalation.TriggerTimeoutNoProgress
	if check.Reason == governance.ReasonNoResponse {
		trigger = escalation.TriggerTimeoutNoResponse
	}
	message := fmt.Sprintf("%s: %s exceeded %d minutes", a.PrimaryOwner.ID, check.Reason, check.Timeout)

	// Marking first claims the assignment, so one that was resolved after
	// the listing gets no escalation event.
	if _, err := m.assignments.MarkEscalated(ctx, a.ID, a.SecondaryOwner); err != nil {
		return escalation.Event{}, fmt.Errorf("marking escalated: %w", err)
	}
	ev, err := m.escalations.CreateEscalation(ctx, a.IncidentID, trigger, a.Priority, escalation.Context{
		SystemType:   string(a.ProblemType),
		ErrorDetails: escalation.ErrorDetails{Message: message},
	}, a.ID)
	if err != nil {
		return escalation.Event{}, fmt.Errorf("creating escalation: %w", err)
	}

	m.logger.Info("assignment escalated",
		zap.String("assignment_id", a.ID),
		zap.String("incident_id", a.IncidentID),
		zap.String("reason", string(check.Reason)),
		zap.String("escalation_id", ev.ID))

	if m.audit != nil {
		entry := audit.Entry{
			ActorType: audit.ActorSystem,
			ActorID:   "monitor",
			Action:    audit.ActionAssignmentEscalated,
			Scope:     audit.ScopeAssignment,
			ScopeID:   a.ID,
			Summary:   fmt.Sprintf("%s after %d minutes, escalation %s at %s", check.Reason, check.Timeout, ev.ID, ev.Level),
		}
		if err := m.audit.Log(ctx, entry); err != nil {
			m.logger.Warn("audit write failed", zap.String("assignment_id", a.ID), zap.Error(err))
		}
	}
	return ev, nil
}
