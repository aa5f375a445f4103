package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/auto-assign/internal/escalation"
	"github.com/ziadkadry99/auto-assign/internal/governance"
	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// handleAssignIncident validates an incident and routes it to an owner.
func (s *Server) handleAssignIncident(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	typ, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: type"), nil
	}
	priority, err := incident.ParsePriority(request.GetString("priority", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	inc := incident.Incident{
		ID:           id,
		Type:         incident.ProblemType(strings.ToUpper(typ)),
		Priority:     priority,
		Description:  request.GetString("description", ""),
		ErrorMessage: request.GetString("error_message", ""),
		CreatedAt:    time.Now().UTC(),
	}
	if err := inc.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	a, err := s.deps.Assignments.AssignResponsibility(ctx, inc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assignment failed: %v", err)), nil
	}
	return jsonResult(a)
}

// handleGetAssignment returns a stored assignment.
func (s *Server) handleGetAssignment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("assignment_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: assignment_id"), nil
	}

	a, ok, err := s.deps.Assignments.GetAssignment(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No assignment found with id %q.", id)), nil
	}
	return jsonResult(a)
}

// handleCheckEscalation evaluates an assignment against its governance rules.
func (s *Server) handleCheckEscalation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("assignment_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: assignment_id"), nil
	}

	a, ok, err := s.deps.Assignments.GetAssignment(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("No assignment found with id %q.", id)), nil
	}

	priority := a.Priority
	if v := request.GetString("priority", ""); v != "" {
		if priority, err = incident.ParsePriority(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	return jsonResult(struct {
		AssignmentID string                       `json:"assignment_id"`
		Status       string                       `json:"status"`
		Escalation   governance.EscalationCheck   `json:"escalation"`
		Performance  governance.PerformanceResult `json:"performance"`
	}{
		AssignmentID: a.ID,
		Status:       string(a.Status),
		Escalation:   s.deps.Governance.CheckEscalationNeeded(a, priority),
		Performance:  s.deps.Governance.MonitorAssignmentPerformance(a),
	})
}

// handleCreateEscalation raises a new escalation for an incident.
func (s *Server) handleCreateEscalation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	incidentID, err := request.RequireString("incident_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: incident_id"), nil
	}
	trigger, err := request.RequireString("trigger")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: trigger"), nil
	}
	priority, err := incident.ParsePriority(request.GetString("priority", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c := escalation.Context{
		SystemType: request.GetString("system_type", ""),
		ErrorDetails: escalation.ErrorDetails{
			Message:     request.GetString("error_message", ""),
			ImpactLevel: escalation.ImpactLevel(strings.ToUpper(request.GetString("impact_level", ""))),
		},
	}
	for i := 0; i < request.GetInt("failed_fix_attempts", 0); i++ {
		c.AutoFixAttempts = append(c.AutoFixAttempts, escalation.AutoFixAttempt{Action: "automated remediation", Success: false})
	}

	ev, err := s.deps.Escalations.CreateEscalation(ctx, incidentID, escalation.Trigger(strings.ToUpper(trigger)), priority, c, request.GetString("assignment_id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("escalation failed: %v", err)), nil
	}
	return jsonResult(ev)
}

// handleEscalationHistory lists the escalations of one incident.
func (s *Server) handleEscalationHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	incidentID, err := request.RequireString("incident_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: incident_id"), nil
	}

	events, err := s.deps.Escalations.GetEscalationsByIncident(ctx, incidentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No escalations recorded for incident %s.", incidentID)), nil
	}
	return mcp.NewToolResultText(formatHistory(incidentID, events)), nil
}

// handleEscalationStats summarises escalations in a window.
func (s *Server) handleEscalationStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var start, end time.Time
	for name, dst := range map[string]*time.Time{"start": &start, "end": &end} {
		v := request.GetString(name, "")
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid %s: %v", name, err)), nil
		}
		*dst = t
	}

	stats, err := s.deps.Escalations.GetEscalationStatistics(ctx, start, end)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("statistics failed: %v", err)), nil
	}
	return jsonResult(stats)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// formatHistory renders an escalation chain for AI agent consumption.
func formatHistory(incidentID string, events []escalation.Event) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d escalation(s) for incident %s, newest first:\n", len(events), incidentID))

	for i, ev := range events {
		sb.WriteString(fmt.Sprintf("\n--- Escalation %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("ID: %s\n", ev.ID))
		sb.WriteString(fmt.Sprintf("Level: %s\n", ev.Level))
		sb.WriteString(fmt.Sprintf("Trigger: %s\n", ev.Trigger))
		sb.WriteString(fmt.Sprintf("Status: %s\n", ev.Status))
		if ev.AssignedTo != "" {
			sb.WriteString(fmt.Sprintf("Assigned to: %s\n", ev.AssignedTo))
		}
		if ev.PreviousEventID != "" {
			sb.WriteString(fmt.Sprintf("Escalated from: %s\n", ev.PreviousEventID))
		}
		sb.WriteString(fmt.Sprintf("Created: %s\n", ev.CreatedAt.Format(time.RFC3339)))
		sb.WriteString("\n")
		sb.WriteString(ev.Description)
		sb.WriteString("\n")
	}

	return sb.String()
}
