package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/auto-assign/internal/escalation"
	"github.com/ziadkadry99/auto-assign/internal/incident"
)

var (
	priorityValues    = enumOf(incident.Priorities)
	problemTypeValues = enumOf(incident.ProblemTypes)
	triggerValues     = []string{
		string(escalation.TriggerAutoFixFailed),
		string(escalation.TriggerSafetyCritical),
		string(escalation.TriggerRepeatedFailures),
		string(escalation.TriggerTimeoutNoResponse),
		string(escalation.TriggerTimeoutNoProgress),
		string(escalation.TriggerManualRequest),
	}
)

func enumOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// assignIncidentTool defines the assign_incident MCP tool.
var assignIncidentTool = mcp.NewTool("assign_incident",
	mcp.WithDescription("Assign an incident to the best available team member. Returns the assignment with primary and secondary owners and SLA targets."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Incident identifier"),
	),
	mcp.WithString("type",
		mcp.Required(),
		mcp.Description("Problem category used to pick the responsible teams"),
		mcp.Enum(problemTypeValues...),
	),
	mcp.WithString("priority",
		mcp.Required(),
		mcp.Description("Incident priority"),
		mcp.Enum(priorityValues...),
	),
	mcp.WithString("description",
		mcp.Description("What is going wrong; matched against member specialties"),
	),
	mcp.WithString("error_message",
		mcp.Description("Error output observed, if any"),
	),
)

// getAssignmentTool defines the get_assignment MCP tool.
var getAssignmentTool = mcp.NewTool("get_assignment",
	mcp.WithDescription("Get an assignment by id, including owners, status and lifecycle timestamps."),
	mcp.WithString("assignment_id",
		mcp.Required(),
		mcp.Description("Assignment identifier"),
	),
)

// checkEscalationTool defines the check_escalation MCP tool.
var checkEscalationTool = mcp.NewTool("check_escalation",
	mcp.WithDescription("Check whether an assignment has breached its governance timeouts and how it is tracking against its SLA."),
	mcp.WithString("assignment_id",
		mcp.Required(),
		mcp.Description("Assignment identifier"),
	),
	mcp.WithString("priority",
		mcp.Description("Evaluate against this priority instead of the assignment's own"),
		mcp.Enum(priorityValues...),
	),
)

// createEscalationTool defines the create_escalation MCP tool.
var createEscalationTool = mcp.NewTool("create_escalation",
	mcp.WithDescription("Escalate an incident. The responder level is derived from the trigger, priority and impact."),
	mcp.WithString("incident_id",
		mcp.Required(),
		mcp.Description("Incident identifier"),
	),
	mcp.WithString("trigger",
		mcp.Required(),
		mcp.Description("What caused the escalation"),
		mcp.Enum(triggerValues...),
	),
	mcp.WithString("priority",
		mcp.Required(),
		mcp.Description("Incident priority"),
		mcp.Enum(priorityValues...),
	),
	mcp.WithString("assignment_id",
		mcp.Description("Assignment the escalation belongs to"),
	),
	mcp.WithString("system_type",
		mcp.Description("Affected system, used to route customer service escalations"),
	),
	mcp.WithString("error_message",
		mcp.Description("Failure description"),
	),
	mcp.WithString("impact_level",
		mcp.Description("Blast radius of the failure"),
		mcp.Enum(string(escalation.ImpactLow), string(escalation.ImpactMedium), string(escalation.ImpactHigh)),
	),
	mcp.WithNumber("failed_fix_attempts",
		mcp.Description("Number of automated remediation attempts that already failed"),
	),
)

// escalationHistoryTool defines the escalation_history MCP tool.
var escalationHistoryTool = mcp.NewTool("escalation_history",
	mcp.WithDescription("List every escalation for an incident, newest first."),
	mcp.WithString("incident_id",
		mcp.Required(),
		mcp.Description("Incident identifier"),
	),
)

// escalationStatsTool defines the escalation_stats MCP tool.
var escalationStatsTool = mcp.NewTool("escalation_stats",
	mcp.WithDescription("Summarise escalations by level, trigger and status within a time window."),
	mcp.WithString("start",
		mcp.Description("Window start, RFC 3339 (default: unbounded)"),
	),
	mcp.WithString("end",
		mcp.Description("Window end, RFC 3339 (default: unbounded)"),
	),
)
