package escalation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/logging"
	"github.com/ziadkadry99/auto-assign/internal/metrics"
	"github.com/ziadkadry99/auto-assign/internal/notifications"
)

// Config tunes level selection and agent routing.
type Config struct {
	// AutoRetryLimit is the number of failed automated fixes after which a
	// critical AUTO_FIX_FAILED escalation goes to a senior engineer.
	AutoRetryLimit int
	// SmartRouting assigns L5 escalations to an agent on creation.
	SmartRouting bool
}

// DefaultConfig returns a retry limit of 3 with smart routing on.
func DefaultConfig() Config {
	return Config{AutoRetryLimit: 3, SmartRouting: true}
}

// DetermineLevel picks the responder tier for an escalation. The first
// matching rule wins; it depends on nothing but its arguments.
func DetermineLevel(trigger Trigger, priority incident.Priority, c Context, autoRetryLimit int) Level {
	switch {
	case trigger == TriggerSafetyCritical || c.ErrorDetails.ImpactLevel == ImpactHigh:
		return LevelCustomerService
	case trigger == TriggerAutoFixFailed && priority == incident.PriorityCritical:
		if len(c.AutoFixAttempts) >= autoRetryLimit {
			return LevelSeniorEngineer
		}
		return LevelSupportEngineer
	case trigger == TriggerRepeatedFailures:
		if priority == incident.PriorityCritical || priority == incident.PriorityHigh {
			return LevelSupportEngineer
		}
		return LevelTeamLead
	case trigger == TriggerTimeoutNoResponse || trigger == TriggerTimeoutNoProgress:
		if priority == incident.PriorityCritical {
			return LevelSupportEngineer
		}
		return LevelTeamLead
	case trigger == TriggerManualRequest:
		return LevelSupportEngineer
	default:
		return LevelTeamLead
	}
}

var triggerSummaries = map[Trigger]string{
	TriggerAutoFixFailed:     "Automated remediation failed",
	TriggerSafetyCritical:    "Safety-critical failure",
	TriggerRepeatedFailures:  "Repeated failures detected",
	TriggerTimeoutNoResponse: "Owner did not respond within SLA",
	TriggerTimeoutNoProgress: "No progress within SLA",
	TriggerManualRequest:     "Manual escalation requested",
}

func describe(trigger Trigger, level Level, c Context) string {
	d := fmt.Sprintf("%s; routed to %s", triggerSummaries[trigger], level)
	if c.ErrorDetails.Message != "" {
		d += ": " + c.ErrorDetails.Message
	}
	return d
}

// Engine creates escalation events and drives them to resolution. It is
// safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	store    Store
	cfg      Config
	notifier notifications.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithNotifier sets the hook called after every mutation.
func WithNotifier(n notifications.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		cfg:      DefaultConfig(),
		notifier: notifications.Nop{},
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SeedDefaultAgents registers the built-in roster when no agents exist.
func (e *Engine) SeedDefaultAgents(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	existing, err := e.store.ListAgents(ctx)
	if err != nil {
		return fmt.Errorf("listing agents: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, a := range DefaultAgents() {
		if err := e.saveAgent(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// CreateEscalation records a new escalation for an incident. assignmentID
// may be empty.
func (e *Engine) CreateEscalation(ctx context.Context, incidentID string, trigger Trigger, priority incident.Priority, c Context, assignmentID string) (Event, error) {
	switch {
	case incidentID == "":
		return Event{}, fmt.Errorf("%w: incident id is required", ErrInvalidEscalation)
	case !trigger.Valid():
		return Event{}, fmt.Errorf("%w: unknown trigger %q", ErrInvalidEscalation, trigger)
	case !priority.Valid():
		return Event{}, fmt.Errorf("%w: unknown priority %q", ErrInvalidEscalation, priority)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	level := DetermineLevel(trigger, priority, c, e.cfg.AutoRetryLimit)
	now := e.now().UTC()
	ev := Event{
		ID:           uuid.NewString(),
		IncidentID:   incidentID,
		AssignmentID: assignmentID,
		Trigger:      trigger,
		Level:        level,
		Status:       StatusPending,
		Priority:     priority,
		Description:  describe(trigger, level, c),
		Context:      c.Clone(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return e.insert(ctx, ev, notifications.TypeEscalationCreated)
}

// insert routes ev to an agent when it qualifies, then stores it.
func (e *Engine) insert(ctx context.Context, ev Event, typ notifications.NotificationType) (Event, error) {
	if ev.Level == LevelCustomerService && e.cfg.SmartRouting {
		agents, err := e.store.ListAgents(ctx)
		if err != nil {
			return Event{}, fmt.Errorf("listing agents: %w", err)
		}
		if agent, ok := pickAgent(agents, ev.Context.SystemType); ok {
			if err := e.adjustCases(ctx, agent.ID, +1); err != nil {
				return Event{}, err
			}
			ev.AssignedTo = agent.ID
			ev.Status = StatusAssigned
		} else {
			e.logger.Warn("no customer service agent available",
				zap.String("incident_id", ev.IncidentID))
		}
	}

	if err := e.store.CreateEvent(ctx, ev); err != nil {
		return Event{}, fmt.Errorf("saving escalation: %w", err)
	}

	metrics.EscalationsCreated.WithLabelValues(ev.Level.String(), string(ev.Trigger)).Inc()
	e.logger.Info("escalation created",
		zap.String("escalation_id", ev.ID),
		zap.String("incident_id", ev.IncidentID),
		zap.String("level", ev.Level.String()),
		zap.String("trigger", string(ev.Trigger)),
		zap.String("assigned_to", ev.AssignedTo))

	var members []string
	if ev.AssignedTo != "" {
		members = []string{ev.AssignedTo}
	}
	e.notify(ctx, notifications.Notification{
		Type:            typ,
		Severity:        severityFor(ev.Level),
		Title:           fmt.Sprintf("Incident %s escalated to %s", ev.IncidentID, ev.Level),
		Message:         ev.Description,
		EntityID:        ev.ID,
		AffectedMembers: members,
	})
	return ev.Clone(), nil
}

// UpdateEscalationStatus moves an event to status and, when assignedTo is
// set, hands it to that responder. Reopening a RESOLVED event gives its
// agent the case back. Unknown ids return false.
func (e *Engine) UpdateEscalationStatus(ctx context.Context, id string, status Status, assignedTo string) (Event, bool, error) {
	if !status.Valid() {
		return Event{}, false, fmt.Errorf("%w: unknown status %q", ErrInvalidEscalation, status)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok, err := e.store.GetEvent(ctx, id)
	if err != nil || !ok {
		return Event{}, false, err
	}
	if ev.Status == StatusClosed && status != StatusClosed {
		return Event{}, true, fmt.Errorf("%w: %s", ErrEscalationClosed, id)
	}

	// An agent holds a case exactly while the event is open.
	wasOpen, nowOpen := !ev.Status.Done(), !status.Done()
	holder := ev.AssignedTo
	if assignedTo != "" {
		holder = assignedTo
	}
	if wasOpen != nowOpen || holder != ev.AssignedTo {
		if wasOpen {
			if err := e.adjustCases(ctx, ev.AssignedTo, -1); err != nil {
				return Event{}, true, err
			}
		}
		if nowOpen {
			if err := e.adjustCases(ctx, holder, +1); err != nil {
				return Event{}, true, err
			}
		}
	}
	ev.AssignedTo = holder

	now := e.now().UTC()
	previous := ev.Status
	ev.Status = status
	ev.UpdatedAt = now
	if status == StatusResolved && ev.ResolvedAt == nil {
		ev.ResolvedAt = &now
	}
	if err := e.store.UpdateEvent(ctx, ev); err != nil {
		return Event{}, true, fmt.Errorf("saving escalation: %w", err)
	}

	metrics.EscalationTransitions.WithLabelValues(string(status)).Inc()
	e.logger.Info("escalation status updated",
		zap.String("escalation_id", ev.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))

	e.notify(ctx, notifications.Notification{
		Type:            notifications.TypeEscalationUpdated,
		Severity:        notifications.SeverityInfo,
		Title:           fmt.Sprintf("Escalation %s is %s", ev.ID, status),
		Message:         fmt.Sprintf("Escalation for incident %s moved from %s to %s.", ev.IncidentID, previous, status),
		EntityID:        ev.ID,
		AffectedMembers: nonEmpty(ev.AssignedTo),
	})
	return ev.Clone(), true, nil
}

// ResolveEscalation marks an event RESOLVED with res. Unknown ids return
// false.
func (e *Engine) ResolveEscalation(ctx context.Context, id string, res Resolution) (Event, bool, error) {
	if res.Summary == "" || res.ResolvedBy == "" {
		return Event{}, false, fmt.Errorf("%w: resolution needs a summary and resolver", ErrInvalidEscalation)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ev, ok, err := e.store.GetEvent(ctx, id)
	if err != nil || !ok {
		return Event{}, false, err
	}
	if ev.Status == StatusClosed {
		return Event{}, true, fmt.Errorf("%w: %s", ErrEscalationClosed, id)
	}
	if !ev.Status.Done() {
		if err := e.adjustCases(ctx, ev.AssignedTo, -1); err != nil {
			return Event{}, true, err
		}
	}

	now := e.now().UTC()
	ev.Status = StatusResolved
	ev.UpdatedAt = now
	if ev.ResolvedAt == nil {
		ev.ResolvedAt = &now
	}
	res.ActionsTaken = append([]string(nil), res.ActionsTaken...)
	ev.Resolution = &res
	if err := e.store.UpdateEvent(ctx, ev); err != nil {
		return Event{}, true, fmt.Errorf("saving escalation: %w", err)
	}

	metrics.EscalationTransitions.WithLabelValues(string(StatusResolved)).Inc()
	e.logger.Info("escalation resolved",
		zap.String("escalation_id", ev.ID),
		zap.String("resolved_by", res.ResolvedBy))

	e.notify(ctx, notifications.Notification{
		Type:            notifications.TypeEscalationResolved,
		Severity:        notifications.SeverityInfo,
		Title:           fmt.Sprintf("Escalation for incident %s resolved", ev.IncidentID),
		Message:         res.Summary,
		EntityID:        ev.ID,
		AffectedMembers: nonEmpty(ev.AssignedTo),
	})
	return ev.Clone(), true, nil
}

// EscalateFurther raises an event one level by creating a new event that
// links back to it; the original is left untouched. It returns false for
// unknown ids and for events already at the top level.
func (e *Engine) EscalateFurther(ctx context.Context, id, reason string) (Event, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev, ok, err := e.store.GetEvent(ctx, id)
	if err != nil || !ok {
		return Event{}, false, err
	}
	next, ok := prev.Level.Next()
	if !ok {
		return Event{}, false, nil
	}

	now := e.now().UTC()
	ev := Event{
		ID:              uuid.NewString(),
		IncidentID:      prev.IncidentID,
		AssignmentID:    prev.AssignmentID,
		PreviousEventID: prev.ID,
		Trigger:         prev.Trigger,
		Level:           next,
		Status:          StatusPending,
		Priority:        prev.Priority,
		Description:     fmt.Sprintf("%s [escalated from %s: %s]", prev.Description, prev.Level, reason),
		Context:         prev.Context.Clone(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := e.insert(ctx, ev, notifications.TypeEscalationRaised)
	if err != nil {
		return Event{}, false, err
	}
	return created, true, nil
}

// GetEscalation returns an event and whether it exists.
func (e *Engine) GetEscalation(ctx context.Context, id string) (Event, bool, error) {
	return e.store.GetEvent(ctx, id)
}

// GetEscalationsByIncident returns every event for an incident, newest
// first. Events created at the same instant are ordered by creation.
func (e *Engine) GetEscalationsByIncident(ctx context.Context, incidentID string) ([]Event, error) {
	events, err := e.store.ListEvents(ctx, EventFilter{IncidentID: incidentID})
	if err != nil {
		return nil, fmt.Errorf("listing escalations: %w", err)
	}
	newestFirst(events)
	return events, nil
}

// GetActiveEscalations returns events not yet resolved or closed, newest
// first.
func (e *Engine) GetActiveEscalations(ctx context.Context) ([]Event, error) {
	events, err := e.store.ListEvents(ctx, EventFilter{
		Statuses: []Status{StatusPending, StatusInReview, StatusAssigned, StatusInProgress},
	})
	if err != nil {
		return nil, fmt.Errorf("listing escalations: %w", err)
	}
	newestFirst(events)
	return events, nil
}

// GetEscalationStatistics summarises the events created within
// [start, end]. Zero bounds are open.
func (e *Engine) GetEscalationStatistics(ctx context.Context, start, end time.Time) (Statistics, error) {
	events, err := e.store.ListEvents(ctx, EventFilter{CreatedFrom: start, CreatedTo: end})
	if err != nil {
		return Statistics{}, fmt.Errorf("listing escalations: %w", err)
	}

	stats := Statistics{
		Start:     start,
		End:       end,
		Total:     len(events),
		ByLevel:   make(map[Level]int),
		ByTrigger: make(map[Trigger]int),
		ByStatus:  make(map[Status]int),
	}
	var resolved int
	var minutes float64
	for _, ev := range events {
		stats.ByLevel[ev.Level]++
		stats.ByTrigger[ev.Trigger]++
		stats.ByStatus[ev.Status]++
		if ev.ResolvedAt != nil {
			resolved++
			minutes += ev.ResolvedAt.Sub(ev.CreatedAt).Minutes()
		}
	}
	if resolved > 0 {
		stats.AverageResolutionTime = minutes / float64(resolved)
	}
	return stats, nil
}

// RegisterAgent adds or replaces an agent in the roster.
func (e *Engine) RegisterAgent(ctx context.Context, a Agent) (Agent, error) {
	if err := a.Validate(); err != nil {
		return Agent{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.saveAgent(ctx, a); err != nil {
		return Agent{}, err
	}
	return a.Clone(), nil
}

// GetAgent returns an agent and whether it exists.
func (e *Engine) GetAgent(ctx context.Context, id string) (Agent, bool, error) {
	return e.store.GetAgent(ctx, id)
}

// ListAgents returns the roster in registration order.
func (e *Engine) ListAgents(ctx context.Context) ([]Agent, error) {
	return e.store.ListAgents(ctx)
}

func (e *Engine) saveAgent(ctx context.Context, a Agent) error {
	if err := e.store.SaveAgent(ctx, a); err != nil {
		return fmt.Errorf("saving agent %s: %w", a.ID, err)
	}
	metrics.AgentOpenCases.WithLabelValues(a.ID).Set(float64(a.Availability.CurrentCases))
	return nil
}

// adjustCases changes an agent's open case count, never below zero. Ids
// that are not agents are ignored.
func (e *Engine) adjustCases(ctx context.Context, agentID string, delta int) error {
	if agentID == "" {
		return nil
	}
	a, ok, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("loading agent %s: %w", agentID, err)
	}
	if !ok {
		return nil
	}
	a.Availability.CurrentCases += delta
	if a.Availability.CurrentCases < 0 {
		a.Availability.CurrentCases = 0
	}
	return e.saveAgent(ctx, a)
}

func (e *Engine) notify(ctx context.Context, n notifications.Notification) {
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Warn("notification failed",
			zap.String("type", string(n.Type)),
			zap.String("entity_id", n.EntityID),
			zap.Error(err))
	}
}

func newestFirst(events []Event) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
}

func nonEmpty(ids ...string) []string {
	var out []string
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func severityFor(l Level) notifications.Severity {
	switch {
	case l >= LevelSeniorEngineer:
		return notifications.SeverityCritical
	case l >= LevelSupportEngineer:
		return notifications.SeverityWarning
	default:
		return notifications.SeverityInfo
	}
}

