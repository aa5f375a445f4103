package matrix

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/auto-assign/internal/workload"
)

// WorkloadSource reads per-member workload counters.
type WorkloadSource interface {
	GetWorkloadMetrics(ctx context.Context, memberID string) (workload.WorkloadMetrics, bool, error)
}

// RegisterRoutes mounts the read-only team directory endpoints.
func RegisterRoutes(r chi.Router, m *Matrix, wl WorkloadSource) {
	r.Get("/api/teams", handleListTeams(m))
	r.Get("/api/teams/{name}", handleGetTeam(m))
	r.Get("/api/members/{id}", handleGetMember(m))
	r.Get("/api/members/{id}/workload", handleMemberWorkload(m, wl))
}

func handleListTeams(m *Matrix) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, m.Teams())
	}
}

func handleGetTeam(m *Matrix) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := m.GetTeamStructure(chi.URLParam(r, "name"))
		if !ok {
			http.Error(w, "team not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func handleGetMember(m *Matrix) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		member, ok := m.GetMemberByID(chi.URLParam(r, "id"))
		if !ok {
			http.Error(w, "member not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, member)
	}
}

func handleMemberWorkload(m *Matrix, wl WorkloadSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := m.GetMemberByID(id); !ok {
			http.Error(w, "member not found", http.StatusNotFound)
			return
		}
		metrics, ok, err := wl.GetWorkloadMetrics(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			metrics = workload.WorkloadMetrics{MemberID: id, SuccessRate: 0.5}
		}
		writeJSON(w, http.StatusOK, metrics)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
