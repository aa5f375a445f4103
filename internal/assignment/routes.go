package assignment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// RegisterRoutes mounts the incident intake and assignment endpoints.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Post("/api/incidents", handleCreateIncident(engine))
	r.Get("/api/assignments", handleList(engine))
	r.Get("/api/assignments/{id}", handleGet(engine))
	r.Put("/api/assignments/{id}/status", handleUpdateStatus(engine))
	r.Post("/api/assignments/{id}/reassign", handleReassign(engine))
}

func handleCreateIncident(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var inc incident.Incident
		if err := json.NewDecoder(r.Body).Decode(&inc); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if inc.CreatedAt.IsZero() {
			inc.CreatedAt = time.Now().UTC()
		}
		if err := inc.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		a, err := engine.AssignResponsibility(r.Context(), inc)
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func handleList(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := ListFilter{
			OwnerID:    q.Get("owner"),
			IncidentID: q.Get("incident"),
		}
		if v := q.Get("status"); v != "" {
			for _, s := range strings.Split(v, ",") {
				st := Status(strings.ToUpper(strings.TrimSpace(s)))
				if !st.Valid() {
					http.Error(w, fmt.Sprintf("unknown status %q", s), http.StatusBadRequest)
					return
				}
				f.Statuses = append(f.Statuses, st)
			}
		}

		list, err := engine.ListAssignments(r.Context(), f)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []Assignment{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGet(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok, err := engine.GetAssignment(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "assignment not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleUpdateStatus(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		a, err := engine.UpdateAssignmentStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func handleReassign(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MemberID string `json:"member_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.MemberID == "" {
			http.Error(w, "member_id is required", http.StatusBadRequest)
			return
		}

		a, err := engine.ReassignResponsibility(r.Context(), chi.URLParam(r, "id"), body.MemberID)
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
