// Package metrics defines Prometheus metrics for autoassign, covering
// assignments, workload, SLA governance, escalations and notifications.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AssignmentsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_assignments_created_total",
		Help: "Total number of assignments created",
	}, []string{"priority", "problem_type"})
	AssignmentFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_assignment_failures_total",
		Help: "Total number of incidents that could not be assigned",
	}, []string{"reason"})
	AssignmentTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_assignment_status_transitions_total",
		Help: "Total number of assignment status updates by target status",
	}, []string{"status"})
	Reassignments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autoassign_reassignments_total",
		Help: "Total number of assignments moved to a new owner",
	})
	MemberActiveAssignments = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autoassign_member_active_assignments",
		Help: "Current number of active assignments per member",
	}, []string{"member"})

	// Governance
	EscalationChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_escalation_checks_total",
		Help: "Escalation checks performed, by outcome reason (none when not needed)",
	}, []string{"reason"})
	SLAViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_sla_violations_total",
		Help: "SLA violations observed while monitoring assignments",
	}, []string{"target"})

	// Escalations
	EscalationsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_escalations_created_total",
		Help: "Total number of escalation events created",
	}, []string{"level", "trigger"})
	EscalationTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_escalation_status_transitions_total",
		Help: "Total number of escalation status updates by target status",
	}, []string{"status"})
	AgentOpenCases = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autoassign_agent_open_cases",
		Help: "Current number of cases held by each customer service agent",
	}, []string{"agent"})

	// Monitor
	MonitorSweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autoassign_monitor_sweeps_total",
		Help: "Total number of monitor sweeps over active assignments",
	})
	MonitorErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "autoassign_monitor_errors_total",
		Help: "Total number of errors raised during monitor sweeps",
	})

	// Notifications
	NotificationsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autoassign_notifications_dispatched_total",
		Help: "Total number of notifications recorded by the dispatcher",
	}, []string{"type"})
)

func init() {
	prometheus.MustRegister(AssignmentsCreated)
	prometheus.MustRegister(AssignmentFailures)
	prometheus.MustRegister(AssignmentTransitions)
	prometheus.MustRegister(Reassignments)
	prometheus.MustRegister(MemberActiveAssignments)
	prometheus.MustRegister(EscalationChecks)
	prometheus.MustRegister(SLAViolations)
	prometheus.MustRegister(EscalationsCreated)
	prometheus.MustRegister(EscalationTransitions)
	prometheus.MustRegister(AgentOpenCases)
	prometheus.MustRegister(MonitorSweeps)
	prometheus.MustRegister(MonitorErrors)
	prometheus.MustRegister(NotificationsDispatched)
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
