package assignment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/logging"
	"github.com/ziadkadry99/auto-assign/internal/metrics"
	"github.com/ziadkadry99/auto-assign/internal/notifications"
	"github.com/ziadkadry99/auto-assign/internal/workload"
)

// Directory resolves problem types to teams and member ids to members.
// *matrix.Matrix implements it.
type Directory interface {
	IdentifyRelevantTeams(pt incident.ProblemType) []incident.TeamStructure
	GetMemberByID(id string) (incident.TeamMember, bool)
}

// Engine creates assignments and applies lifecycle changes to them. It is
// safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	dir      Directory
	balancer *workload.Balancer
	store    Store
	notifier notifications.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the hook called after every mutation.
func WithNotifier(n notifications.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// WithClock sets the time source for assignment timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(dir Directory, balancer *workload.Balancer, store Store, opts ...Option) *Engine {
	e := &Engine{
		dir:      dir,
		balancer: balancer,
		store:    store,
		notifier: notifications.Nop{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AssignResponsibility picks owners for inc and records a new assignment.
func (e *Engine) AssignResponsibility(ctx context.Context, inc incident.Incident) (Assignment, error) {
	sla, err := incident.SLATargetFor(inc.Priority)
	if err != nil {
		metrics.AssignmentFailures.WithLabelValues("invalid_priority").Inc()
		return Assignment{}, fmt.Errorf("%w %q", ErrInvalidPriority, inc.Priority)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	teams := e.dir.IdentifyRelevantTeams(inc.Type)
	candidates := flattenMembers(teams)
	if len(candidates) == 0 {
		metrics.AssignmentFailures.WithLabelValues("no_available_members").Inc()
		return Assignment{}, fmt.Errorf("%w for problem type %s", ErrNoAvailableMembers, inc.Type)
	}

	primary, err := e.balancer.SelectOptimalAssignee(ctx, candidates, inc)
	if err != nil {
		return Assignment{}, fmt.Errorf("selecting primary owner: %w", err)
	}

	a := Assignment{
		ID:           uuid.NewString(),
		IncidentID:   inc.ID,
		Priority:     inc.Priority,
		ProblemType:  inc.Type,
		PrimaryOwner: primary,
		Status:       StatusAssigned,
		AssignedAt:   e.now().UTC(),
		SLATarget:    sla,
	}

	if rest := without(candidates, primary.ID); len(rest) > 0 {
		secondary, err := e.balancer.SelectOptimalAssignee(ctx, rest, inc)
		if err != nil {
			return Assignment{}, fmt.Errorf("selecting secondary owner: %w", err)
		}
		a.SecondaryOwner = &secondary
	}

	if err := e.store.Create(ctx, a); err != nil {
		return Assignment{}, fmt.Errorf("saving assignment: %w", err)
	}
	if _, err := e.balancer.RecordAssignment(ctx, primary.ID); err != nil {
		return Assignment{}, err
	}

	metrics.AssignmentsCreated.WithLabelValues(string(a.Priority), string(a.ProblemType)).Inc()
	e.logger.Info("assignment created",
		zap.String("assignment_id", a.ID),
		zap.String("incident_id", a.IncidentID),
		zap.String("priority", string(a.Priority)),
		zap.String("primary_owner", primary.ID))

	e.notify(ctx, notifications.Notification{
		Type:            notifications.TypeAssignmentCreated,
		Severity:        severityFor(a.Priority),
		Title:           fmt.Sprintf("Incident %s assigned to %s", a.IncidentID, primary.Name),
		Message:         fmt.Sprintf("%s %s incident; respond within %d minutes, resolve within %d minutes.", a.Priority, a.ProblemType, sla.ResponseTime, sla.ResolutionTime),
		EntityID:        a.ID,
		AffectedMembers: ownerIDs(a),
		AffectedTeams:   teamNames(teams),
	})
	return a.Clone(), nil
}

// UpdateAssignmentStatus moves an assignment to status. Timestamps are
// only stamped on the first entry into a status; the first entry into
// RESOLVED also releases the owner and records the resolution.
func (e *Engine) UpdateAssignmentStatus(ctx context.Context, id string, status Status) (Assignment, error) {
	if !status.Valid() {
		return Assignment{}, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.load(ctx, id)
	if err != nil {
		return Assignment{}, err
	}

	now := e.now().UTC()
	firstResolve := false
	switch status {
	case StatusAcknowledged:
		if a.AcknowledgedAt == nil {
			a.AcknowledgedAt = &now
		}
	case StatusInProgress:
		if a.StartedAt == nil {
			a.StartedAt = &now
		}
	case StatusResolved:
		if a.ResolvedAt == nil {
			a.ResolvedAt = &now
			firstResolve = true
		}
	}
	previous := a.Status
	a.Status = status

	if err := e.store.Update(ctx, a); err != nil {
		return Assignment{}, fmt.Errorf("saving assignment: %w", err)
	}

	if firstResolve {
		minutes := a.ResolvedAt.Sub(a.AssignedAt).Minutes()
		withinSLA := minutes <= float64(a.SLATarget.ResolutionTime)
		if _, err := e.balancer.RecordResolution(ctx, a.PrimaryOwner.ID, minutes, withinSLA); err != nil {
			return Assignment{}, err
		}
	}

	metrics.AssignmentTransitions.WithLabelValues(string(status)).Inc()
	e.logger.Info("assignment status updated",
		zap.String("assignment_id", a.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	typ, sev := notifications.TypeAssignmentUpdated, notifications.SeverityInfo
	if status == StatusEscalated {
		typ, sev = notifications.TypeAssignmentEscalated, notifications.SeverityWarning
	}
	e.notify(ctx, notifications.Notification{
		Type:            typ,
		Severity:        sev,
		Title:           fmt.Sprintf("Assignment %s is %s", a.ID, status),
		Message:         fmt.Sprintf("Incident %s moved from %s to %s.", a.IncidentID, previous, status),
		EntityID:        a.ID,
		AffectedMembers: ownerIDs(a),
		AffectedTeams:   teamNames(e.dir.IdentifyRelevantTeams(a.ProblemType)),
	})
	return a.Clone(), nil
}

// ReassignResponsibility hands an assignment to another member and resets
// it to ASSIGNED. The new owner's total assignment count is not changed.
// Assignments that have been resolved keep their owner.
func (e *Engine) ReassignResponsibility(ctx context.Context, id, newOwnerID string) (Assignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.load(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a.ResolvedAt != nil {
		return Assignment{}, fmt.Errorf("%w: %s was resolved", ErrAssignmentClosed, id)
	}
	newOwner, ok := e.dir.GetMemberByID(newOwnerID)
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %s", ErrMemberNotFound, newOwnerID)
	}

	old := a.PrimaryOwner
	a.PrimaryOwner = newOwner
	if a.SecondaryOwner != nil && a.SecondaryOwner.ID == newOwner.ID {
		a.SecondaryOwner = &old
	}
	a.Status = StatusAssigned
	a.AssignedAt = e.now().UTC()

	if err := e.store.Update(ctx, a); err != nil {
		return Assignment{}, fmt.Errorf("saving assignment: %w", err)
	}
	if _, err := e.balancer.ReleaseAssignment(ctx, old.ID); err != nil {
		return Assignment{}, err
	}
	if _, err := e.balancer.RecordHandover(ctx, newOwner.ID); err != nil {
		return Assignment{}, err
	}

	metrics.Reassignments.Inc()
	e.logger.Info("assignment reassigned",
		zap.String("assignment_id", a.ID),
		zap.String("from", old.ID),
		zap.String("to", newOwner.ID))

	e.notify(ctx, notifications.Notification{
		Type:            notifications.TypeAssignmentReassigned,
		Severity:        notifications.SeverityInfo,
		Title:           fmt.Sprintf("Incident %s reassigned to %s", a.IncidentID, newOwner.Name),
		Message:         fmt.Sprintf("Ownership moved from %s to %s.", old.Name, newOwner.Name),
		EntityID:        a.ID,
		AffectedMembers: []string{old.ID, newOwner.ID},
		AffectedTeams:   teamNames(e.dir.IdentifyRelevantTeams(a.ProblemType)),
	})
	return a.Clone(), nil
}

// MarkEscalated sets the assignment to ESCALATED, recording owner as the
// escalation owner when given. Resolved or already escalated assignments
// fail with ErrAssignmentClosed.
func (e *Engine) MarkEscalated(ctx context.Context, id string, owner *incident.TeamMember) (Assignment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.load(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if a.Status.Terminal() {
		return Assignment{}, fmt.Errorf("%w: %s is %s", ErrAssignmentClosed, id, a.Status)
	}
	a.Status = StatusEscalated
	if owner != nil {
		a.EscalationOwner = cloneMember(owner)
	}
	if err := e.store.Update(ctx, a); err != nil {
		return Assignment{}, fmt.Errorf("saving assignment: %w", err)
	}

	metrics.AssignmentTransitions.WithLabelValues(string(StatusEscalated)).Inc()
	members := ownerIDs(a)
	if a.EscalationOwner != nil {
		members = append(members, a.EscalationOwner.ID)
	}
	e.notify(ctx, notifications.Notification{
		Type:            notifications.TypeAssignmentEscalated,
		Severity:        notifications.SeverityWarning,
		Title:           fmt.Sprintf("Assignment %s escalated", a.ID),
		Message:         fmt.Sprintf("Incident %s was escalated after missing its SLA.", a.IncidentID),
		EntityID:        a.ID,
		AffectedMembers: members,
		AffectedTeams:   teamNames(e.dir.IdentifyRelevantTeams(a.ProblemType)),
	})
	return a.Clone(), nil
}

// GetAssignment returns the assignment and whether it exists.
func (e *Engine) GetAssignment(ctx context.Context, id string) (Assignment, bool, error) {
	return e.store.Get(ctx, id)
}

// ListAssignments returns assignments matching f in creation order.
func (e *Engine) ListAssignments(ctx context.Context, f ListFilter) ([]Assignment, error) {
	return e.store.List(ctx, f)
}

func (e *Engine) load(ctx context.Context, id string) (Assignment, error) {
	a, ok, err := e.store.Get(ctx, id)
	if err != nil {
		return Assignment{}, fmt.Errorf("loading assignment: %w", err)
	}
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %s", ErrAssignmentNotFound, id)
	}
	return a, nil
}

// notify forwards n to the notifier. A failed notification never fails
// the operation that produced it.
func (e *Engine) notify(ctx context.Context, n notifications.Notification) {
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Warn("notification failed",
			zap.String("type", string(n.Type)),
			zap.String("entity_id", n.EntityID),
			zap.Error(err))
	}
}

// flattenMembers lists the members of teams in order, dropping repeats.
func flattenMembers(teams []incident.TeamStructure) []incident.TeamMember {
	seen := make(map[string]bool)
	var out []incident.TeamMember
	for _, t := range teams {
		for _, m := range t.Members {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	return out
}

func without(members []incident.TeamMember, id string) []incident.TeamMember {
	out := make([]incident.TeamMember, 0, len(members))
	for _, m := range members {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func ownerIDs(a Assignment) []string {
	ids := []string{a.PrimaryOwner.ID}
	if a.SecondaryOwner != nil {
		ids = append(ids, a.SecondaryOwner.ID)
	}
	return ids
}

func teamNames(teams []incident.TeamStructure) []string {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return names
}

func severityFor(p incident.Priority) notifications.Severity {
	switch p {
	case incident.PriorityCritical:
		return notifications.SeverityCritical
	case incident.PriorityHigh:
		return notifications.SeverityWarning
	default:
		return notifications.SeverityInfo
	}
}
