package assignment

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ziadkadry99/auto-assign/internal/db"
	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/matrix"
	"github.com/ziadkadry99/auto-assign/internal/notifications"
	"github.com/ziadkadry99/auto-assign/internal/workload"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
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

func (r *recorder) types() []notifications.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notifications.NotificationType, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Type
	}
	return out
}

type fixture struct {
	engine   *Engine
	balancer *workload.Balancer
	clock    *testClock
	notes    *recorder
}

func newFixture(t *testing.T, dir Directory, store Store) *fixture {
	t.Helper()
	clock := newTestClock()
	balancer := workload.NewBalancer(workload.NewMemoryStore(), workload.WithClock(clock.Now))
	notes := &recorder{}
	engine := NewEngine(dir, balancer, store,
		WithClock(clock.Now),
		WithNotifier(notes),
		WithLogger(zaptest.NewLogger(t)))
	return &fixture{engine: engine, balancer: balancer, clock: clock, notes: notes}
}

func backendIncident(id string, p incident.Priority) incident.Incident {
	return incident.Incident{
		ID:          id,
		Type:        incident.ProblemBackendAPI,
		Priority:    p,
		Description: "checkout API returns 502",
		CreatedAt:   time.Date(2026, 3, 2, 11, 58, 0, 0, time.UTC),
	}
}

func TestAssignBackendHigh(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-a", incident.PriorityHigh))
	require.NoError(t, err)

	assert.Equal(t, incident.SLATarget{ResponseTime: 15, ResolutionTime: 240}, a.SLATarget)
	assert.Equal(t, StatusAssigned, a.Status)
	assert.Equal(t, "inc-a", a.IncidentID)
	assert.Equal(t, f.clock.Now(), a.AssignedAt)
	assert.NotEmpty(t, a.ID)

	backend, _ := matrix.New().GetTeamStructure("backend")
	var ids []string
	for _, m := range backend.Members {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, a.PrimaryOwner.ID)
	require.NotNil(t, a.SecondaryOwner)
	assert.NotEqual(t, a.PrimaryOwner.ID, a.SecondaryOwner.ID)

	m, ok, err := f.balancer.GetWorkloadMetrics(ctx, a.PrimaryOwner.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, m.ActiveAssignments)
	assert.Equal(t, 1, m.TotalAssignments)

	assert.Equal(t, []notifications.NotificationType{notifications.TypeAssignmentCreated}, f.notes.types())
}

func TestAssignSecurityCritical(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	inc := incident.Incident{ID: "inc-b", Type: incident.ProblemSecurity, Priority: incident.PriorityCritical, Description: "leaked token"}

	a, err := f.engine.AssignResponsibility(context.Background(), inc)
	require.NoError(t, err)
	assert.Equal(t, incident.SLATarget{ResponseTime: 5, ResolutionTime: 60}, a.SLATarget)
	assert.Equal(t, incident.PriorityCritical, a.Priority)
	assert.Equal(t, incident.ProblemSecurity, a.ProblemType)
}

func TestAssignInvalidPriority(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	_, err := f.engine.AssignResponsibility(context.Background(), backendIncident("inc-x", "URGENT"))
	require.ErrorIs(t, err, ErrInvalidPriority)
	assert.ErrorIs(t, err, incident.ErrValidation)
}

type staticDirectory struct {
	teams []incident.TeamStructure
}

func (d staticDirectory) IdentifyRelevantTeams(incident.ProblemType) []incident.TeamStructure {
	return d.teams
}

func (d staticDirectory) GetMemberByID(id string) (incident.TeamMember, bool) {
	for _, t := range d.teams {
		for _, m := range t.Members {
			if m.ID == id {
				return m, true
			}
		}
	}
	return incident.TeamMember{}, false
}

func TestAssignNoAvailableMembers(t *testing.T) {
	f := newFixture(t, staticDirectory{}, NewMemoryStore())
	_, err := f.engine.AssignResponsibility(context.Background(), backendIncident("inc-x", incident.PriorityLow))
	require.ErrorIs(t, err, ErrNoAvailableMembers)
	assert.ErrorIs(t, err, incident.ErrInvalidState)
	assert.Empty(t, f.notes.types())
}

func TestAssignSingleMemberHasNoSecondary(t *testing.T) {
	solo := incident.TeamMember{ID: "solo", Name: "Solo", Timezone: "UTC"}
	dir := staticDirectory{teams: []incident.TeamStructure{
		{Name: "a", Members: []incident.TeamMember{solo}},
		{Name: "b", Members: []incident.TeamMember{solo}},
	}}
	f := newFixture(t, dir, NewMemoryStore())

	a, err := f.engine.AssignResponsibility(context.Background(), backendIncident("inc-s", incident.PriorityMedium))
	require.NoError(t, err)
	assert.Equal(t, "solo", a.PrimaryOwner.ID)
	assert.Nil(t, a.SecondaryOwner)
}

func TestUpdateStatusTimestampsSetOnce(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityHigh))
	require.NoError(t, err)

	f.clock.Advance(3 * time.Minute)
	first, err := f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusAcknowledged)
	require.NoError(t, err)
	require.NotNil(t, first.AcknowledgedAt)

	f.clock.Advance(5 * time.Minute)
	second, err := f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusAcknowledged)
	require.NoError(t, err)
	assert.True(t, first.AcknowledgedAt.Equal(*second.AcknowledgedAt))

	started, err := f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusInProgress)
	require.NoError(t, err)
	require.NotNil(t, started.StartedAt)
	assert.True(t, started.StartedAt.Equal(f.clock.Now()))
	assert.Nil(t, started.ResolvedAt)
}

func TestResolveReleasesOwnerOnce(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityHigh))
	require.NoError(t, err)

	f.clock.Advance(30 * time.Minute)
	resolved, err := f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusResolved)
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusResolved)
	require.NoError(t, err)

	m, _, err := f.balancer.GetWorkloadMetrics(ctx, a.PrimaryOwner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, m.ActiveAssignments)
	assert.Equal(t, 1, m.ResolvedAssignments)
	assert.Equal(t, 30.0, m.AverageResolutionTime)
	assert.Equal(t, 1.0, m.SuccessRate)
}

func TestUpdateStatusErrors(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	_, err := f.engine.UpdateAssignmentStatus(ctx, "missing", StatusAcknowledged)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
	assert.ErrorIs(t, err, incident.ErrNotFound)

	_, err = f.engine.UpdateAssignmentStatus(ctx, "missing", "DONE")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReassignResponsibility(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityHigh))
	require.NoError(t, err)
	_, err = f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusAcknowledged)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	moved, err := f.engine.ReassignResponsibility(ctx, a.ID, "db-ravi")
	require.NoError(t, err)
	assert.Equal(t, "db-ravi", moved.PrimaryOwner.ID)
	assert.Equal(t, StatusAssigned, moved.Status)
	assert.True(t, moved.AssignedAt.Equal(f.clock.Now()))

	oldM, _, err := f.balancer.GetWorkloadMetrics(ctx, a.PrimaryOwner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, oldM.ActiveAssignments)
	assert.Equal(t, 1, oldM.TotalAssignments)

	newM, _, err := f.balancer.GetWorkloadMetrics(ctx, "db-ravi")
	require.NoError(t, err)
	assert.Equal(t, 1, newM.ActiveAssignments)
	assert.Equal(t, 0, newM.TotalAssignments)

	_, err = f.engine.ReassignResponsibility(ctx, a.ID, "nobody")
	assert.ErrorIs(t, err, ErrMemberNotFound)
	_, err = f.engine.ReassignResponsibility(ctx, "missing", "db-ravi")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestReassignToSecondarySwapsOwners(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityHigh))
	require.NoError(t, err)
	require.NotNil(t, a.SecondaryOwner)

	moved, err := f.engine.ReassignResponsibility(ctx, a.ID, a.SecondaryOwner.ID)
	require.NoError(t, err)
	assert.Equal(t, a.SecondaryOwner.ID, moved.PrimaryOwner.ID)
	require.NotNil(t, moved.SecondaryOwner)
	assert.Equal(t, a.PrimaryOwner.ID, moved.SecondaryOwner.ID)
}

func TestMarkEscalated(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityCritical))
	require.NoError(t, err)

	got, err := f.engine.MarkEscalated(ctx, a.ID, a.SecondaryOwner)
	require.NoError(t, err)
	assert.Equal(t, StatusEscalated, got.Status)
	require.NotNil(t, got.EscalationOwner)
	assert.Equal(t, a.SecondaryOwner.ID, got.EscalationOwner.ID)

	_, err = f.engine.MarkEscalated(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
	assert.Contains(t, f.notes.types(), notifications.TypeAssignmentEscalated)
}

func TestMarkEscalatedRejectsClosed(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	resolved, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityCritical))
	require.NoError(t, err)
	_, err = f.engine.UpdateAssignmentStatus(ctx, resolved.ID, StatusResolved)
	require.NoError(t, err)

	_, err = f.engine.MarkEscalated(ctx, resolved.ID, nil)
	assert.ErrorIs(t, err, ErrAssignmentClosed)
	assert.ErrorIs(t, err, incident.ErrInvalidState)
	got, _, err := f.engine.GetAssignment(ctx, resolved.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)

	escalated, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-2", incident.PriorityCritical))
	require.NoError(t, err)
	_, err = f.engine.MarkEscalated(ctx, escalated.ID, nil)
	require.NoError(t, err)
	_, err = f.engine.MarkEscalated(ctx, escalated.ID, escalated.SecondaryOwner)
	assert.ErrorIs(t, err, ErrAssignmentClosed)
	got, _, err = f.engine.GetAssignment(ctx, escalated.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EscalationOwner)
}

func TestActiveAssignmentsStayNonNegative(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	statuses := []Status{StatusAcknowledged, StatusInProgress, StatusResolved, StatusEscalated, StatusAssigned}
	members := []string{"be-sara", "be-omar", "be-mei", "db-ravi"}

	var ids []string
	for i := 0; i < 200; i++ {
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc", incident.PriorityMedium))
			require.NoError(t, err)
			ids = append(ids, a.ID)
		case op == 1:
			_, err := f.engine.UpdateAssignmentStatus(ctx, ids[rng.Intn(len(ids))], statuses[rng.Intn(len(statuses))])
			require.NoError(t, err)
		default:
			_, err := f.engine.ReassignResponsibility(ctx, ids[rng.Intn(len(ids))], members[rng.Intn(len(members))])
			if err != nil {
				require.ErrorIs(t, err, ErrAssignmentClosed)
			}
		}
		f.clock.Advance(time.Minute)
	}

	list, err := f.engine.ListAssignments(ctx, ListFilter{})
	require.NoError(t, err)
	unresolved := make(map[string]int)
	for _, a := range list {
		if a.ResolvedAt == nil {
			unresolved[a.PrimaryOwner.ID]++
		}
	}

	all, err := f.balancer.ListWorkloadMetrics(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for _, m := range all {
		assert.GreaterOrEqual(t, m.ActiveAssignments, 0, m.MemberID)
		assert.Equal(t, unresolved[m.MemberID], m.ActiveAssignments, m.MemberID)
	}
}

func TestReassignResolvedIsRejected(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	a, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityHigh))
	require.NoError(t, err)
	owner := a.PrimaryOwner.ID
	other := "db-ravi"

	_, err = f.balancer.RecordAssignment(ctx, owner)
	require.NoError(t, err)
	_, err = f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusResolved)
	require.NoError(t, err)

	_, err = f.engine.ReassignResponsibility(ctx, a.ID, other)
	assert.ErrorIs(t, err, ErrAssignmentClosed)
	assert.ErrorIs(t, err, incident.ErrInvalidState)

	// Reopening does not make the assignment movable again.
	_, err = f.engine.UpdateAssignmentStatus(ctx, a.ID, StatusInProgress)
	require.NoError(t, err)
	_, err = f.engine.ReassignResponsibility(ctx, a.ID, other)
	assert.ErrorIs(t, err, ErrAssignmentClosed)

	got, _, err := f.engine.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, got.PrimaryOwner.ID)

	ownerM, _, err := f.balancer.GetWorkloadMetrics(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, ownerM.ActiveAssignments)
	otherM, _, err := f.balancer.GetWorkloadMetrics(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, 0, otherM.ActiveAssignments)
}

func TestConcurrentAssignments(t *testing.T) {
	f := newFixture(t, matrix.New(), NewMemoryStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.AssignResponsibility(ctx, backendIncident("inc", incident.PriorityLow))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := f.engine.ListAssignments(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 20)

	total := 0
	all, err := f.balancer.ListWorkloadMetrics(ctx)
	require.NoError(t, err)
	for _, m := range all {
		total += m.TotalAssignments
	}
	assert.Equal(t, 20, total)
}

func TestStoresAgree(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sql":    NewSQLStore(database),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, matrix.New(), store)
			ctx := context.Background()

			a1, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-1", incident.PriorityHigh))
			require.NoError(t, err)
			a2, err := f.engine.AssignResponsibility(ctx, backendIncident("inc-2", incident.PriorityLow))
			require.NoError(t, err)
			_, err = f.engine.UpdateAssignmentStatus(ctx, a2.ID, StatusResolved)
			require.NoError(t, err)

			got, ok, err := f.engine.GetAssignment(ctx, a1.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, a1.IncidentID, got.IncidentID)
			assert.True(t, a1.AssignedAt.Equal(got.AssignedAt))
			assert.Equal(t, a1.SecondaryOwner, got.SecondaryOwner)

			_, ok, err = f.engine.GetAssignment(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			all, err := f.engine.ListAssignments(ctx, ListFilter{})
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, a1.ID, all[0].ID)
			assert.Equal(t, a2.ID, all[1].ID)

			open, err := f.engine.ListAssignments(ctx, ListFilter{Statuses: []Status{StatusAssigned}})
			require.NoError(t, err)
			require.Len(t, open, 1)
			assert.Equal(t, a1.ID, open[0].ID)

			byIncident, err := f.engine.ListAssignments(ctx, ListFilter{IncidentID: "inc-2"})
			require.NoError(t, err)
			require.Len(t, byIncident, 1)
			assert.Equal(t, StatusResolved, byIncident[0].Status)
			assert.NotNil(t, byIncident[0].ResolvedAt)

			assert.ErrorIs(t, store.Update(ctx, Assignment{ID: "missing"}), ErrAssignmentNotFound)
		})
	}
}
