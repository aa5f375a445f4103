package governance

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/auto-assign/internal/assignment"
	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// AssignmentSource reads assignments. *assignment.Engine implements it.
type AssignmentSource interface {
	GetAssignment(ctx context.Context, id string) (assignment.Assignment, bool, error)
	ListAssignments(ctx context.Context, f assignment.ListFilter) ([]assignment.Assignment, error)
}

// RegisterRoutes mounts the SLA governance endpoints.
func RegisterRoutes(r chi.Router, g *Governance, src AssignmentSource) {
	r.Get("/api/governance/rules", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, g.Rules())
	})
	r.Get("/api/assignments/{id}/escalation-check", withAssignment(src, func(w http.ResponseWriter, r *http.Request, a assignment.Assignment) {
		priority := a.Priority
		if v := r.URL.Query().Get("priority"); v != "" {
			p, err := incident.ParsePriority(v)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			priority = p
		}
		writeJSON(w, http.StatusOK, g.CheckEscalationNeeded(a, priority))
	}))
	r.Get("/api/assignments/{id}/performance", withAssignment(src, func(w http.ResponseWriter, r *http.Request, a assignment.Assignment) {
		writeJSON(w, http.StatusOK, g.MonitorAssignmentPerformance(a))
	}))
	r.Get("/api/assignments/{id}/quality", withAssignment(src, func(w http.ResponseWriter, r *http.Request, a assignment.Assignment) {
		writeJSON(w, http.StatusOK, g.EvaluateResolutionQuality(a))
	}))
	r.Get("/api/reports/performance", handleReport(g, src))
}

func withAssignment(src AssignmentSource, next func(http.ResponseWriter, *http.Request, assignment.Assignment)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok, err := src.GetAssignment(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "assignment not found", http.StatusNotFound)
			return
		}
		next(w, r, a)
	}
}

func handleReport(g *Governance, src AssignmentSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := src.ListAssignments(r.Context(), assignment.ListFilter{})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		report := g.GeneratePerformanceReport(all)

		switch r.URL.Query().Get("format") {
		case "markdown":
			w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
			w.Write([]byte(RenderMarkdown(report)))
		case "html":
			page, err := RenderHTML(report)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page)
		default:
			writeJSON(w, http.StatusOK, report)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
