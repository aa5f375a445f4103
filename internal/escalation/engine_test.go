package escalation

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/auto-assign/internal/db"
	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/notifications"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T, store Store, opts ...Option) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	base := []Option{WithClock(clock.Now), WithLogger(zaptest.NewLogger(t))}
	return NewEngine(store, append(base, opts...)...), clock
}

func seeded(t *testing.T, opts ...Option) (*Engine, *testClock) {
	t.Helper()
	e, clock := newTestEngine(t, NewMemoryStore(), opts...)
	require.NoError(t, e.SeedDefaultAgents(context.Background()))
	return e, clock
}

func attempts(n int) []AutoFixAttempt {
	out := make([]AutoFixAttempt, n)
	for i := range out {
		out[i] = AutoFixAttempt{Action: "restart service", Success: false}
	}
	return out
}

func TestDetermineLevel(t *testing.T) {
	high := Context{ErrorDetails: ErrorDetails{ImpactLevel: ImpactHigh}}
	tests := []struct {
		name     string
		trigger  Trigger
		priority incident.Priority
		ctx      Context
		want     Level
	}{
		{"safety critical", TriggerSafetyCritical, incident.PriorityLow, Context{}, LevelCustomerService},
		{"high impact beats everything", TriggerManualRequest, incident.PriorityLow, high, LevelCustomerService},
		{"auto fix below retry limit", TriggerAutoFixFailed, incident.PriorityCritical, Context{AutoFixAttempts: attempts(2)}, LevelSupportEngineer},
		{"auto fix at retry limit", TriggerAutoFixFailed, incident.PriorityCritical, Context{AutoFixAttempts: attempts(3)}, LevelSeniorEngineer},
		{"auto fix non critical", TriggerAutoFixFailed, incident.PriorityHigh, Context{AutoFixAttempts: attempts(5)}, LevelTeamLead},
		{"repeated failures critical", TriggerRepeatedFailures, incident.PriorityCritical, Context{}, LevelSupportEngineer},
		{"repeated failures high", TriggerRepeatedFailures, incident.PriorityHigh, Context{}, LevelSupportEngineer},
		{"repeated failures medium", TriggerRepeatedFailures, incident.PriorityMedium, Context{}, LevelTeamLead},
		{"no response critical", TriggerTimeoutNoResponse, incident.PriorityCritical, Context{}, LevelSupportEngineer},
		{"no progress high", TriggerTimeoutNoProgress, incident.PriorityHigh, Context{}, LevelTeamLead},
		{"manual", TriggerManualRequest, incident.PriorityLow, Context{}, LevelSupportEngineer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineLevel(tt.trigger, tt.priority, tt.ctx, 3)
			assert.Equal(t, tt.want, got)
			// Same inputs, same answer.
			assert.Equal(t, got, DetermineLevel(tt.trigger, tt.priority, tt.ctx, 3))
		})
	}
}

func TestAutoFixEscalationLevels(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()

	two, err := e.CreateEscalation(ctx, "inc-e", TriggerAutoFixFailed, incident.PriorityCritical, Context{AutoFixAttempts: attempts(2)}, "")
	require.NoError(t, err)
	assert.Equal(t, LevelSupportEngineer, two.Level)

	three, err := e.CreateEscalation(ctx, "inc-e", TriggerAutoFixFailed, incident.PriorityCritical, Context{AutoFixAttempts: attempts(3)}, "")
	require.NoError(t, err)
	assert.Equal(t, LevelSeniorEngineer, three.Level)
	assert.Equal(t, StatusPending, three.Status)
}

func TestAutoRetryLimitIsConfigurable(t *testing.T) {
	e, _ := seeded(t, WithConfig(Config{AutoRetryLimit: 2, SmartRouting: true}))
	ev, err := e.CreateEscalation(context.Background(), "inc", TriggerAutoFixFailed, incident.PriorityCritical, Context{AutoFixAttempts: attempts(2)}, "")
	require.NoError(t, err)
	assert.Equal(t, LevelSeniorEngineer, ev.Level)
}

func TestSafetyCriticalAssignsAgent(t *testing.T) {
	notes := &recorder{}
	e, _ := seeded(t, WithNotifier(notes))
	ctx := context.Background()

	ev, err := e.CreateEscalation(ctx, "inc-c", TriggerSafetyCritical, incident.PriorityHigh,
		Context{SystemType: "Robotics", ErrorDetails: ErrorDetails{Message: "arm collision"}}, "asg-1")
	require.NoError(t, err)
	assert.Equal(t, LevelCustomerService, ev.Level)
	assert.Equal(t, StatusAssigned, ev.Status)
	assert.Equal(t, "cs-priya", ev.AssignedTo)
	assert.Equal(t, "asg-1", ev.AssignmentID)
	assert.Contains(t, ev.Description, "arm collision")

	agent, ok, err := e.GetAgent(ctx, "cs-priya")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, agent.Availability.CurrentCases)

	require.Len(t, notes.sent, 1)
	assert.Equal(t, notifications.TypeEscalationCreated, notes.sent[0].Type)
	assert.Equal(t, notifications.SeverityCritical, notes.sent[0].Severity)
}

func TestSafetyCriticalPendingWithoutAgents(t *testing.T) {
	e, _ := newTestEngine(t, NewMemoryStore())
	ev, err := e.CreateEscalation(context.Background(), "inc-c", TriggerSafetyCritical, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)
	assert.Equal(t, LevelCustomerService, ev.Level)
	assert.Equal(t, StatusPending, ev.Status)
	assert.Empty(t, ev.AssignedTo)
}

func TestSafetyCriticalPendingWhenAgentsFull(t *testing.T) {
	e, _ := newTestEngine(t, NewMemoryStore())
	ctx := context.Background()
	_, err := e.RegisterAgent(ctx, Agent{
		TeamMember:   incident.TeamMember{ID: "full"},
		Availability: AgentAvailability{Status: AgentAvailable, MaxConcurrentCases: 1, CurrentCases: 1},
	})
	require.NoError(t, err)

	ev, err := e.CreateEscalation(ctx, "inc", TriggerSafetyCritical, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ev.Status)
}

func TestSmartRoutingDisabled(t *testing.T) {
	e, _ := seeded(t, WithConfig(Config{AutoRetryLimit: 3, SmartRouting: false}))
	ev, err := e.CreateEscalation(context.Background(), "inc", TriggerSafetyCritical, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ev.Status)
	assert.Empty(t, ev.AssignedTo)
}

func TestPickAgent(t *testing.T) {
	agent := func(id string, cur, max int, expertise ...string) Agent {
		return Agent{
			TeamMember:   incident.TeamMember{ID: id},
			Availability: AgentAvailability{Status: AgentAvailable, MaxConcurrentCases: max, CurrentCases: cur},
			Expertise:    expertise,
			Performance:  AgentPerformance{ResolutionRate: 0.8, CustomerSatisfaction: 4},
		}
	}

	t.Run("exact match beats generalist", func(t *testing.T) {
		got, ok := pickAgent([]Agent{agent("gen", 0, 5, generalistExpertise), agent("exact", 0, 5, "Drones")}, "drones")
		require.True(t, ok)
		assert.Equal(t, "exact", got.ID)
	})
	t.Run("generalist beats none", func(t *testing.T) {
		got, ok := pickAgent([]Agent{agent("none", 0, 5, "Billing"), agent("gen", 0, 5, generalistExpertise)}, "Drones")
		require.True(t, ok)
		assert.Equal(t, "gen", got.ID)
	})
	t.Run("lower load wins among equals", func(t *testing.T) {
		got, ok := pickAgent([]Agent{agent("busy", 4, 5), agent("idle", 0, 5)}, "")
		require.True(t, ok)
		assert.Equal(t, "idle", got.ID)
	})
	t.Run("ties keep registration order", func(t *testing.T) {
		got, ok := pickAgent([]Agent{agent("first", 1, 5), agent("second", 1, 5)}, "")
		require.True(t, ok)
		assert.Equal(t, "first", got.ID)
	})
	t.Run("ineligible agents skipped", func(t *testing.T) {
		off := agent("off", 0, 5, "Drones")
		off.Availability.Status = AgentOffline
		_, ok := pickAgent([]Agent{off, agent("full", 5, 5, "Drones")}, "Drones")
		assert.False(t, ok)
	})
}

func TestAgentCasesReleasedOnce(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()

	ev, err := e.CreateEscalation(ctx, "inc", TriggerSafetyCritical, incident.PriorityHigh, Context{SystemType: "Fleet Operations"}, "")
	require.NoError(t, err)
	require.Equal(t, "cs-lena", ev.AssignedTo)

	_, ok, err := e.ResolveEscalation(ctx, ev.ID, Resolution{Summary: "rebooted fleet controller", ResolvedBy: "cs-lena"})
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = e.UpdateEscalationStatus(ctx, ev.ID, StatusClosed, "")
	require.NoError(t, err)
	require.True(t, ok)

	agent, _, err := e.GetAgent(ctx, "cs-lena")
	require.NoError(t, err)
	assert.Equal(t, 0, agent.Availability.CurrentCases)
}

func TestReopenedEscalationKeepsAgentCase(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()
	cases := func() int {
		t.Helper()
		agent, ok, err := e.GetAgent(ctx, "cs-lena")
		require.NoError(t, err)
		require.True(t, ok)
		return agent.Availability.CurrentCases
	}

	routed, err := e.CreateEscalation(ctx, "inc-1", TriggerSafetyCritical, incident.PriorityHigh, Context{SystemType: "Fleet Operations"}, "")
	require.NoError(t, err)
	require.Equal(t, "cs-lena", routed.AssignedTo)
	manual, err := e.CreateEscalation(ctx, "inc-2", TriggerManualRequest, incident.PriorityMedium, Context{}, "")
	require.NoError(t, err)
	_, _, err = e.UpdateEscalationStatus(ctx, manual.ID, StatusInProgress, "cs-lena")
	require.NoError(t, err)
	require.Equal(t, 2, cases())

	_, _, err = e.ResolveEscalation(ctx, routed.ID, Resolution{Summary: "restarted dispatcher", ResolvedBy: "cs-lena"})
	require.NoError(t, err)
	assert.Equal(t, 1, cases())

	reopened, _, err := e.UpdateEscalationStatus(ctx, routed.ID, StatusInProgress, "")
	require.NoError(t, err)
	assert.Equal(t, "cs-lena", reopened.AssignedTo)
	assert.Equal(t, 2, cases())

	_, _, err = e.UpdateEscalationStatus(ctx, routed.ID, StatusResolved, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cases(), "the other open escalation keeps its case")

	// Same holder, open to open: no change.
	_, _, err = e.UpdateEscalationStatus(ctx, manual.ID, StatusInReview, "cs-lena")
	require.NoError(t, err)
	assert.Equal(t, 1, cases())
}

func TestUpdateEscalationStatus(t *testing.T) {
	e, clock := seeded(t)
	ctx := context.Background()

	ev, err := e.CreateEscalation(ctx, "inc", TriggerManualRequest, incident.PriorityMedium, Context{}, "")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	got, ok, err := e.UpdateEscalationStatus(ctx, ev.ID, StatusInReview, "lead-kim")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusInReview, got.Status)
	assert.Equal(t, "lead-kim", got.AssignedTo)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	got, _, err = e.UpdateEscalationStatus(ctx, ev.ID, StatusResolved, "")
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)

	_, _, err = e.UpdateEscalationStatus(ctx, ev.ID, "DONE", "")
	assert.ErrorIs(t, err, incident.ErrValidation)

	_, ok, err = e.UpdateEscalationStatus(ctx, "missing", StatusClosed, "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = e.UpdateEscalationStatus(ctx, ev.ID, StatusClosed, "")
	require.NoError(t, err)
	_, _, err = e.UpdateEscalationStatus(ctx, ev.ID, StatusInProgress, "")
	assert.ErrorIs(t, err, ErrEscalationClosed)
	assert.ErrorIs(t, err, incident.ErrInvalidState)
}

func TestReassigningMovesAgentCase(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()

	ev, err := e.CreateEscalation(ctx, "inc", TriggerSafetyCritical, incident.PriorityHigh, Context{SystemType: "Payments"}, "")
	require.NoError(t, err)
	require.Equal(t, "cs-marco", ev.AssignedTo)

	_, _, err = e.UpdateEscalationStatus(ctx, ev.ID, StatusInProgress, "cs-lena")
	require.NoError(t, err)

	marco, _, _ := e.GetAgent(ctx, "cs-marco")
	lena, _, _ := e.GetAgent(ctx, "cs-lena")
	assert.Equal(t, 0, marco.Availability.CurrentCases)
	assert.Equal(t, 1, lena.Availability.CurrentCases)
}

func TestResolveEscalation(t *testing.T) {
	e, clock := seeded(t)
	ctx := context.Background()

	ev, err := e.CreateEscalation(ctx, "inc", TriggerRepeatedFailures, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)

	_, _, err = e.ResolveEscalation(ctx, ev.ID, Resolution{})
	assert.ErrorIs(t, err, incident.ErrValidation)

	clock.Advance(45 * time.Minute)
	res := Resolution{Summary: "patched retry loop", RootCause: "unbounded retries", ActionsTaken: []string{"deploy fix"}, ResolvedBy: "eng-1", CustomerNotified: true}
	got, ok, err := e.ResolveEscalation(ctx, ev.ID, res)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusResolved, got.Status)
	require.NotNil(t, got.Resolution)
	assert.Equal(t, res, *got.Resolution)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, 45*time.Minute, got.ResolvedAt.Sub(got.CreatedAt))

	_, ok, err = e.ResolveEscalation(ctx, "missing", res)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEscalateFurther(t *testing.T) {
	e, clock := seeded(t)
	ctx := context.Background()

	first, err := e.CreateEscalation(ctx, "inc", TriggerAutoFixFailed, incident.PriorityCritical, Context{SystemType: "Robotics", AutoFixAttempts: attempts(3)}, "asg-1")
	require.NoError(t, err)
	require.Equal(t, LevelSeniorEngineer, first.Level)

	clock.Advance(time.Minute)
	second, ok, err := e.EscalateFurther(ctx, first.ID, "customer impact confirmed")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, LevelCustomerService, second.Level)
	assert.Equal(t, first.ID, second.PreviousEventID)
	assert.Equal(t, "asg-1", second.AssignmentID)
	assert.Equal(t, StatusAssigned, second.Status)
	assert.Contains(t, second.Description, "customer impact confirmed")
	assert.Equal(t, first.Context, second.Context)

	orig, _, err := e.GetEscalation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, LevelSeniorEngineer, orig.Level)

	_, ok, err = e.EscalateFurther(ctx, second.ID, "again")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = e.EscalateFurther(ctx, "missing", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetEscalationsByIncidentNewestFirst(t *testing.T) {
	e, clock := seeded(t)
	ctx := context.Background()

	a, err := e.CreateEscalation(ctx, "inc-d", TriggerTimeoutNoResponse, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)
	clock.Advance(time.Second)
	b, err := e.CreateEscalation(ctx, "inc-d", TriggerManualRequest, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)
	_, err = e.CreateEscalation(ctx, "other", TriggerManualRequest, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)

	events, err := e.GetEscalationsByIncident(ctx, "inc-d")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, b.ID, events[0].ID)
	assert.Equal(t, a.ID, events[1].ID)
}

func TestSameInstantOrderedByCreation(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()

	a, err := e.CreateEscalation(ctx, "inc", TriggerManualRequest, incident.PriorityLow, Context{}, "")
	require.NoError(t, err)
	b, err := e.CreateEscalation(ctx, "inc", TriggerRepeatedFailures, incident.PriorityLow, Context{}, "")
	require.NoError(t, err)

	events, err := e.GetEscalationsByIncident(ctx, "inc")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, b.ID, events[0].ID)
	assert.Equal(t, a.ID, events[1].ID)
}

func TestGetActiveEscalations(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()

	open, err := e.CreateEscalation(ctx, "inc-1", TriggerManualRequest, incident.PriorityLow, Context{}, "")
	require.NoError(t, err)
	done, err := e.CreateEscalation(ctx, "inc-2", TriggerManualRequest, incident.PriorityLow, Context{}, "")
	require.NoError(t, err)
	_, _, err = e.ResolveEscalation(ctx, done.ID, Resolution{Summary: "ok", ResolvedBy: "me"})
	require.NoError(t, err)

	active, err := e.GetActiveEscalations(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, open.ID, active[0].ID)
}

func TestGetEscalationStatistics(t *testing.T) {
	e, clock := seeded(t)
	ctx := context.Background()
	start := clock.Now()

	a, err := e.CreateEscalation(ctx, "inc-1", TriggerManualRequest, incident.PriorityLow, Context{}, "")
	require.NoError(t, err)
	_, err = e.CreateEscalation(ctx, "inc-2", TriggerTimeoutNoResponse, incident.PriorityCritical, Context{}, "")
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)
	_, _, err = e.ResolveEscalation(ctx, a.ID, Resolution{Summary: "done", ResolvedBy: "me"})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = e.CreateEscalation(ctx, "inc-3", TriggerManualRequest, incident.PriorityLow, Context{}, "")
	require.NoError(t, err)

	stats, err := e.GetEscalationStatistics(ctx, start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByLevel[LevelSupportEngineer])
	assert.Equal(t, 1, stats.ByTrigger[TriggerManualRequest])
	assert.Equal(t, 1, stats.ByTrigger[TriggerTimeoutNoResponse])
	assert.Equal(t, 1, stats.ByStatus[StatusResolved])
	assert.Equal(t, 1, stats.ByStatus[StatusPending])
	assert.InDelta(t, 30.0, stats.AverageResolutionTime, 1e-9)

	all, err := e.GetEscalationStatistics(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	raw, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"L3_SUPPORT_ENGINEER":2`)
}

func TestCreateEscalationValidation(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()

	_, err := e.CreateEscalation(ctx, "", TriggerManualRequest, incident.PriorityLow, Context{}, "")
	assert.ErrorIs(t, err, ErrInvalidEscalation)
	_, err = e.CreateEscalation(ctx, "inc", "PANIC", incident.PriorityLow, Context{}, "")
	assert.ErrorIs(t, err, ErrInvalidEscalation)
	_, err = e.CreateEscalation(ctx, "inc", TriggerManualRequest, "URGENT", Context{}, "")
	assert.ErrorIs(t, err, incident.ErrValidation)
}

func TestAgents(t *testing.T) {
	e, _ := seeded(t)
	ctx := context.Background()

	agents, err := e.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, len(DefaultAgents()))
	assert.Equal(t, "cs-lena", agents[0].ID)

	// Seeding twice leaves the roster alone.
	require.NoError(t, e.SeedDefaultAgents(ctx))
	agents, err = e.ListAgents(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, len(DefaultAgents()))

	_, err = e.RegisterAgent(ctx, Agent{TeamMember: incident.TeamMember{ID: "bad"}})
	assert.ErrorIs(t, err, ErrInvalidAgent)

	updated := agents[0]
	updated.Availability.Status = AgentBusy
	_, err = e.RegisterAgent(ctx, updated)
	require.NoError(t, err)
	agents, err = e.ListAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cs-lena", agents[0].ID)
	assert.Equal(t, AgentBusy, agents[0].Availability.Status)

	_, ok, err := e.GetAgent(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLevelText(t *testing.T) {
	for _, l := range Levels {
		b, err := l.MarshalText()
		require.NoError(t, err)
		var back Level
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, l, back)
	}
	_, ok := LevelCustomerService.Next()
	assert.False(t, ok)
	next, ok := LevelAuto.Next()
	assert.True(t, ok)
	assert.Equal(t, LevelTeamLead, next)
	_, err := ParseLevel("L9")
	assert.ErrorIs(t, err, incident.ErrValidation)
}

func TestSQLStore(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	e, clock := newTestEngine(t, NewSQLStore(database))
	ctx := context.Background()
	require.NoError(t, e.SeedDefaultAgents(ctx))

	first, err := e.CreateEscalation(ctx, "inc", TriggerSafetyCritical, incident.PriorityHigh,
		Context{SystemType: "Robotics", AutoFixAttempts: attempts(1), RelatedIncidents: []string{"inc-0"}}, "")
	require.NoError(t, err)
	assert.Equal(t, StatusAssigned, first.Status)

	clock.Advance(time.Minute)
	second, err := e.CreateEscalation(ctx, "inc", TriggerManualRequest, incident.PriorityHigh, Context{}, "")
	require.NoError(t, err)

	got, ok, err := e.GetEscalation(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Level, got.Level)
	assert.Equal(t, first.Context.RelatedIncidents, got.Context.RelatedIncidents)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))

	events, err := e.GetEscalationsByIncident(ctx, "inc")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, second.ID, events[0].ID)

	_, _, err = e.ResolveEscalation(ctx, first.ID, Resolution{Summary: "ok", ResolvedBy: "cs-priya"})
	require.NoError(t, err)
	active, err := e.GetActiveEscalations(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	agents, err := e.ListAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cs-lena", agents[0].ID)
	priya, _, err := e.GetAgent(ctx, "cs-priya")
	require.NoError(t, err)
	assert.Equal(t, 0, priya.Availability.CurrentCases)
}

type recorder struct {
	mu   sync.Mutex
	sent []notifications.Notification
}

func (r *recorder) Notify(_ context.Context, n notifications.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}
