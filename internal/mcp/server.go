// Package mcp exposes the assignment and escalation engines as Model
// Context Protocol tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/escalation"
	"github.com/ziadkadry99/auto-assign/internal/governance"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Deps are the engines the tools call into.
type Deps struct {
	Assignments *assignment.Engine
	Governance  *governance.Governance
	Escalations *escalation.Engine
}

// Server wraps an MCP server that exposes incident routing tools.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"autoassign",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(assignIncidentTool, s.handleAssignIncident)
	s.mcp.AddTool(getAssignmentTool, s.handleGetAssignment)
	s.mcp.AddTool(checkEscalationTool, s.handleCheckEscalation)
	s.mcp.AddTool(createEscalationTool, s.handleCreateEscalation)
	s.mcp.AddTool(escalationHistoryTool, s.handleEscalationHistory)
	s.mcp.AddTool(escalationStatsTool, s.handleEscalationStats)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
