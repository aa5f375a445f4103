// Package governance audits assignments against SLA budgets: it detects
// when an assignment needs escalating, measures compliance and scores
// resolution quality. It never changes an assignment itself.
package governance

import (
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/logging"
)

// Rule holds the escalation timeouts for one priority, in minutes.
type Rule struct {
	Priority          incident.Priority `json:"priority"`
	NoResponseTimeout int               `json:"no_response_timeout"`
	NoProgressTimeout int               `json:"no_progress_timeout"`
	UnresolvedTimeout int               `json:"unresolved_timeout"`
}

// DefaultRules returns the standard rule table, tightest first.
func DefaultRules() []Rule {
	return []Rule{
		{Priority: incident.PriorityCritical, NoResponseTimeout: 5, NoProgressTimeout: 15, UnresolvedTimeout: 60},
		{Priority: incident.PriorityHigh, NoResponseTimeout: 15, NoProgressTimeout: 60, UnresolvedTimeout: 240},
		{Priority: incident.PriorityMedium, NoResponseTimeout: 60, NoProgressTimeout: 240, UnresolvedTimeout: 480},
		{Priority: incident.PriorityLow, NoResponseTimeout: 240, NoProgressTimeout: 480, UnresolvedTimeout: 1440},
	}
}

// Governance evaluates assignments against a fixed rule table.
type Governance struct {
	rules  map[incident.Priority]Rule
	now    func() time.Time
	logger *zap.Logger
}

// Option configures Governance.
type Option func(*Governance)

// WithClock sets the time source all elapsed times are measured against.
func WithClock(now func() time.Time) Option {
	return func(g *Governance) { g.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Governance) { g.logger = logging.OrNop(l) }
}

// New creates Governance with the default rules.
func New(opts ...Option) *Governance {
	g := &Governance{
		rules:  make(map[incident.Priority]Rule),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, r := range DefaultRules() {
		g.rules[r.Priority] = r
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Rule returns the rule for a priority.
func (g *Governance) Rule(p incident.Priority) (Rule, bool) {
	r, ok := g.rules[p]
	return r, ok
}

// Rules returns the rule table, most urgent priority first.
func (g *Governance) Rules() []Rule {
	out := make([]Rule, 0, len(g.rules))
	for _, p := range incident.Priorities {
		if r, ok := g.rules[p]; ok {
			out = append(out, r)
		}
	}
	return out
}
