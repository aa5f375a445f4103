package incident

import "fmt"

// SLATarget holds response and resolution budgets in minutes.
type SLATarget struct {
	ResponseTime   int `json:"response_time"`
	ResolutionTime int `json:"resolution_time"`
}

// SLATargetFor returns the fixed SLA budget for a priority.
func SLATargetFor(p Priority) (SLATarget, error) {
	switch p {
	case PriorityCritical:
		return SLATarget{ResponseTime: 5, ResolutionTime: 60}, nil
	case PriorityHigh:
		return SLATarget{ResponseTime: 15, ResolutionTime: 240}, nil
	case PriorityMedium:
		return SLATarget{ResponseTime: 60, ResolutionTime: 480}, nil
	case PriorityLow:
		return SLATarget{ResponseTime: 240, ResolutionTime: 1440}, nil
	default:
		return SLATarget{}, fmt.Errorf("%w: no SLA target for priority %q", ErrValidation, p)
	}
}
