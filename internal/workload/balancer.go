package workload

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/logging"
	"github.com/ziadkadry99/auto-assign/internal/metrics"
)

// Balancer ranks candidate owners and tracks their load.
type Balancer struct {
	store        Store
	availability AvailabilityProvider
	cfg          Config
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures a Balancer.
type Option func(*Balancer)

// WithConfig replaces the default weights and limits.
func WithConfig(cfg Config) Option {
	return func(b *Balancer) { b.cfg = cfg }
}

// WithAvailability replaces the core-hours heuristic.
func WithAvailability(p AvailabilityProvider) Option {
	return func(b *Balancer) { b.availability = p }
}

// WithClock sets the time source used for availability.
func WithClock(now func() time.Time) Option {
	return func(b *Balancer) { b.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Balancer) { b.logger = logging.OrNop(l) }
}

// NewBalancer creates a Balancer over store.
func NewBalancer(store Store, opts ...Option) *Balancer {
	b := &Balancer{
		store:  store,
		cfg:    DefaultConfig(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.availability == nil {
		b.availability = b.cfg.CoreHours
	}
	return b
}

// CalculateAssignmentScore scores member for inc.
func (b *Balancer) CalculateAssignmentScore(ctx context.Context, member incident.TeamMember, inc incident.Incident) (Score, error) {
	success := defaultSuccessRate
	active := 0
	m, ok, err := b.store.Get(ctx, member.ID)
	if err != nil {
		return Score{}, fmt.Errorf("scoring %s: %w", member.ID, err)
	}
	if ok {
		success = m.SuccessRate
		active = m.ActiveAssignments
	}

	f := Factors{
		Expertise:    expertiseMatch(member.Specialties, inc.DiagnosticText()),
		Availability: b.availability.Availability(member, b.now()),
		Load:         math.Min(float64(active)/float64(b.cfg.MaxLoad), 1),
		SuccessRate:  success,
	}
	w := b.cfg.Weights
	score := w.Expertise*f.Expertise +
		w.Availability*f.Availability +
		w.Load*(1-f.Load) +
		w.SuccessRate*f.SuccessRate

	return Score{Member: member.Clone(), Score: score, Factors: f}, nil
}

// RankCandidates scores every candidate and returns them best first. Equal
// scores keep their input order.
func (b *Balancer) RankCandidates(ctx context.Context, candidates []incident.TeamMember, inc incident.Incident) ([]Score, error) {
	scores := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		s, err := b.CalculateAssignmentScore(ctx, c, inc)
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores, nil
}

// SelectOptimalAssignee returns the highest scoring candidate.
func (b *Balancer) SelectOptimalAssignee(ctx context.Context, candidates []incident.TeamMember, inc incident.Incident) (incident.TeamMember, error) {
	if len(candidates) == 0 {
		return incident.TeamMember{}, ErrEmptyCandidateSet
	}
	ranked, err := b.RankCandidates(ctx, candidates, inc)
	if err != nil {
		return incident.TeamMember{}, err
	}
	best := ranked[0]
	b.logger.Debug("selected assignee",
		zap.String("incident_id", inc.ID),
		zap.String("member_id", best.Member.ID),
		zap.Float64("score", best.Score),
		zap.Int("candidates", len(candidates)))
	return best.Member, nil
}

// GetWorkloadMetrics returns the stored metrics for a member.
func (b *Balancer) GetWorkloadMetrics(ctx context.Context, memberID string) (WorkloadMetrics, bool, error) {
	return b.store.Get(ctx, memberID)
}

// ListWorkloadMetrics returns every member with recorded metrics.
func (b *Balancer) ListWorkloadMetrics(ctx context.Context) ([]WorkloadMetrics, error) {
	return b.store.List(ctx)
}

// UpdateWorkloadMetrics merges u into the member's metrics.
func (b *Balancer) UpdateWorkloadMetrics(ctx context.Context, memberID string, u MetricsUpdate) (WorkloadMetrics, error) {
	return b.mutate(ctx, memberID, u.apply)
}

// RecordAssignment counts a new assignment for the member.
func (b *Balancer) RecordAssignment(ctx context.Context, memberID string) (WorkloadMetrics, error) {
	return b.mutate(ctx, memberID, func(m *WorkloadMetrics) {
		m.ActiveAssignments++
		m.TotalAssignments++
	})
}

// RecordHandover counts an assignment moved to the member. The total is
// left alone; it only counts assignments created for the member.
func (b *Balancer) RecordHandover(ctx context.Context, memberID string) (WorkloadMetrics, error) {
	return b.mutate(ctx, memberID, func(m *WorkloadMetrics) {
		m.ActiveAssignments++
	})
}

// ReleaseAssignment drops one active assignment from the member.
func (b *Balancer) ReleaseAssignment(ctx context.Context, memberID string) (WorkloadMetrics, error) {
	return b.mutate(ctx, memberID, func(m *WorkloadMetrics) {
		m.ActiveAssignments--
	})
}

// RecordResolution releases an assignment and folds its resolution time
// and SLA outcome into the member's running averages.
func (b *Balancer) RecordResolution(ctx context.Context, memberID string, minutes float64, withinSLA bool) (WorkloadMetrics, error) {
	return b.mutate(ctx, memberID, func(m *WorkloadMetrics) {
		m.ActiveAssignments--
		m.ResolvedAssignments++
		n := float64(m.ResolvedAssignments)
		m.AverageResolutionTime += (minutes - m.AverageResolutionTime) / n
		outcome := 0.0
		if withinSLA {
			outcome = 1
		}
		if m.ResolvedAssignments == 1 {
			m.SuccessRate = outcome
		} else {
			m.SuccessRate += (outcome - m.SuccessRate) / n
		}
	})
}

// mutate applies fn and enforces the invariants every row must hold.
func (b *Balancer) mutate(ctx context.Context, memberID string, fn func(*WorkloadMetrics)) (WorkloadMetrics, error) {
	m, err := b.store.Update(ctx, memberID, func(m *WorkloadMetrics) {
		fn(m)
		if m.ActiveAssignments < 0 {
			m.ActiveAssignments = 0
		}
		m.SuccessRate = math.Max(0, math.Min(1, m.SuccessRate))
	})
	if err != nil {
		return WorkloadMetrics{}, fmt.Errorf("updating workload for %s: %w", memberID, err)
	}
	metrics.MemberActiveAssignments.WithLabelValues(memberID).Set(float64(m.ActiveAssignments))
	return m, nil
}

// expertiseMatch is the fraction of specialties that appear in text.
func expertiseMatch(specialties []string, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.5
	}
	if len(specialties) == 0 {
		return 0
	}
	text = strings.ToLower(text)
	matched := 0
	for _, s := range specialties {
		if s != "" && strings.Contains(text, strings.ToLower(s)) {
			matched++
		}
	}
	return float64(matched) / float64(len(specialties))
}
