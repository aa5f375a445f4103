package escalation

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

type createRequest struct {
	IncidentID   string            `json:"incident_id"`
	AssignmentID string            `json:"assignment_id"`
	Trigger      Trigger           `json:"trigger"`
	Priority     incident.Priority `json:"priority"`
	Context      Context           `json:"context"`
}

// RegisterRoutes mounts escalation and agent endpoints.
func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Route("/api/escalations", func(r chi.Router) {
		r.Post("/", handleCreate(engine))
		r.Get("/active", handleActive(engine))
		r.Get("/stats", handleStats(engine))
		r.Get("/{id}", handleGet(engine))
		r.Put("/{id}/status", handleUpdateStatus(engine))
		r.Post("/{id}/resolve", handleResolve(engine))
		r.Post("/{id}/escalate", handleEscalate(engine))
	})
	r.Get("/api/incidents/{id}/escalations", handleByIncident(engine))
	r.Route("/api/agents", func(r chi.Router) {
		r.Get("/", handleListAgents(engine))
		r.Post("/", handleRegisterAgent(engine))
		r.Get("/{id}", handleGetAgent(engine))
	})
}

func handleCreate(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		ev, err := engine.CreateEscalation(r.Context(), req.IncidentID, req.Trigger, req.Priority, req.Context, req.AssignmentID)
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

func handleActive(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := engine.GetActiveEscalations(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeEvents(w, events)
	}
}

func handleStats(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var start, end time.Time
		q := r.URL.Query()
		for name, dst := range map[string]*time.Time{"start": &start, "end": &end} {
			v := q.Get(name)
			if v == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "invalid "+name+": "+err.Error(), http.StatusBadRequest)
				return
			}
			*dst = t
		}

		stats, err := engine.GetEscalationStatistics(r.Context(), start, end)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleGet(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ev, ok, err := engine.GetEscalation(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "escalation not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

func handleUpdateStatus(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status     Status `json:"status"`
			AssignedTo string `json:"assigned_to"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		ev, ok, err := engine.UpdateEscalationStatus(r.Context(), chi.URLParam(r, "id"), body.Status, body.AssignedTo)
		writeResult(w, ev, ok, err)
	}
}

func handleResolve(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res Resolution
		if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		ev, ok, err := engine.ResolveEscalation(r.Context(), chi.URLParam(r, "id"), res)
		writeResult(w, ev, ok, err)
	}
}

func handleEscalate(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		id := chi.URLParam(r, "id")
		if _, ok, err := engine.GetEscalation(r.Context(), id); err != nil || !ok {
			writeResult(w, Event{}, ok, err)
			return
		}
		ev, ok, err := engine.EscalateFurther(r.Context(), id, body.Reason)
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		if !ok {
			http.Error(w, "escalation is already at the highest level", http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusCreated, ev)
	}
}

func handleByIncident(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := engine.GetEscalationsByIncident(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeEvents(w, events)
	}
}

func handleListAgents(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agents, err := engine.ListAgents(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if agents == nil {
			agents = []Agent{}
		}
		writeJSON(w, http.StatusOK, agents)
	}
}

func handleRegisterAgent(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a Agent
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		saved, err := engine.RegisterAgent(r.Context(), a)
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}

func handleGetAgent(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok, err := engine.GetAgent(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "agent not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

func writeResult(w http.ResponseWriter, ev Event, ok bool, err error) {
	switch {
	case err != nil:
		http.Error(w, err.Error(), incident.StatusCode(err))
	case !ok:
		http.Error(w, "escalation not found", http.StatusNotFound)
	default:
		writeJSON(w, http.StatusOK, ev)
	}
}

func writeEvents(w http.ResponseWriter, events []Event) {
	if events == nil {
		events = []Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
