package escalation

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// generalistExpertise marks agents who can take any system type.
const generalistExpertise = "Autonomous Systems"

// AgentStatus is an agent's current availability.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentBusy      AgentStatus = "busy"
	AgentOffline   AgentStatus = "offline"
)

// AgentAvailability holds an agent's live case counter.
type AgentAvailability struct {
	Status             AgentStatus `json:"status"`
	MaxConcurrentCases int         `json:"max_concurrent_cases"`
	CurrentCases       int         `json:"current_cases"`
}

// AgentPerformance is an agent's track record. CustomerSatisfaction is on
// a 0-5 scale.
type AgentPerformance struct {
	ResolutionRate        float64 `json:"resolution_rate"`
	CustomerSatisfaction  float64 `json:"customer_satisfaction"`
	AverageResolutionTime float64 `json:"average_resolution_time"`
}

// Agent is a customer service responder for L5 escalations.
type Agent struct {
	incident.TeamMember
	Role         string            `json:"role"`
	Availability AgentAvailability `json:"availability"`
	Expertise    []string          `json:"expertise"`
	Performance  AgentPerformance  `json:"performance"`
}

// Clone returns a copy that shares no slices with a.
func (a Agent) Clone() Agent {
	a.TeamMember = a.TeamMember.Clone()
	a.Expertise = append([]string(nil), a.Expertise...)
	return a
}

// Validate checks the fields routing depends on.
func (a Agent) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidAgent)
	}
	if a.Availability.MaxConcurrentCases <= 0 {
		return fmt.Errorf("%w: max concurrent cases must be positive", ErrInvalidAgent)
	}
	if a.Availability.CurrentCases < 0 {
		return fmt.Errorf("%w: current cases must not be negative", ErrInvalidAgent)
	}
	switch a.Availability.Status {
	case AgentAvailable, AgentBusy, AgentOffline:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidAgent, a.Availability.Status)
	}
	return nil
}

// eligible reports whether a can take another case.
func (a Agent) eligible() bool {
	return a.Availability.Status == AgentAvailable &&
		a.Availability.CurrentCases < a.Availability.MaxConcurrentCases
}

// routingScore weighs specialization 40%, spare capacity 30% and track
// record 30%.
func (a Agent) routingScore(systemType string) float64 {
	specialization := 0.0
	for _, e := range a.Expertise {
		if systemType != "" && strings.EqualFold(e, systemType) {
			specialization = 1
			break
		}
		if e == generalistExpertise {
			specialization = 0.5
		}
	}
	capacity := 1 - float64(a.Availability.CurrentCases)/float64(a.Availability.MaxConcurrentCases)
	record := 0.5*a.Performance.ResolutionRate + 0.5*a.Performance.CustomerSatisfaction/5
	return 0.4*specialization + 0.3*capacity + 0.3*record
}

// pickAgent returns the best eligible agent; earlier agents win ties.
func pickAgent(agents []Agent, systemType string) (Agent, bool) {
	var (
		best      Agent
		bestScore float64
		found     bool
	)
	for _, a := range agents {
		if !a.eligible() {
			continue
		}
		if s := a.routingScore(systemType); !found || s > bestScore {
			best, bestScore, found = a, s, true
		}
	}
	return best, found
}

// DefaultAgents is the built-in customer service roster.
func DefaultAgents() []Agent {
	return []Agent{
		{
			TeamMember:   incident.TeamMember{ID: "cs-lena", Name: "Lena Vogel", Email: "lena.vogel@example.com", Timezone: "Europe/Berlin"},
			Role:         "Senior Customer Success Engineer",
			Availability: AgentAvailability{Status: AgentAvailable, MaxConcurrentCases: 5},
			Expertise:    []string{generalistExpertise, "Fleet Operations"},
			Performance:  AgentPerformance{ResolutionRate: 0.92, CustomerSatisfaction: 4.6, AverageResolutionTime: 95},
		},
		{
			TeamMember:   incident.TeamMember{ID: "cs-marco", Name: "Marco Silva", Email: "marco.silva@example.com", Timezone: "America/Sao_Paulo"},
			Role:         "Customer Support Specialist",
			Availability: AgentAvailability{Status: AgentAvailable, MaxConcurrentCases: 4},
			Expertise:    []string{"Payments", "Billing"},
			Performance:  AgentPerformance{ResolutionRate: 0.88, CustomerSatisfaction: 4.4, AverageResolutionTime: 120},
		},
		{
			TeamMember:   incident.TeamMember{ID: "cs-priya", Name: "Priya Nair", Email: "priya.nair@example.com", Timezone: "Asia/Kolkata"},
			Role:         "Technical Account Manager",
			Availability: AgentAvailability{Status: AgentAvailable, MaxConcurrentCases: 6},
			Expertise:    []string{"Robotics", generalistExpertise},
			Performance:  AgentPerformance{ResolutionRate: 0.9, CustomerSatisfaction: 4.7, AverageResolutionTime: 110},
		},
		{
			TeamMember:   incident.TeamMember{ID: "cs-jonas", Name: "Jonas Berg", Email: "jonas.berg@example.com", Timezone: "Europe/Oslo"},
			Role:         "Customer Support Specialist",
			Availability: AgentAvailability{Status: AgentOffline, MaxConcurrentCases: 4},
			Expertise:    []string{"Infrastructure", "Web Platform"},
			Performance:  AgentPerformance{ResolutionRate: 0.85, CustomerSatisfaction: 4.2, AverageResolutionTime: 140},
		},
	}
}
