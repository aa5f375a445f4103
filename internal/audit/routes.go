package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/auto-assign/internal/incident"
)

// MaxQueryLimit caps the page size of audit queries.
const MaxQueryLimit = 500

// RegisterRoutes mounts the audit trail endpoints:
//
//	GET /api/audit                      filtered query, newest first
//	GET /api/audit/{id}                 one entry
//	GET /api/audit/{scope}/{scopeID}    history of one record, oldest first
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/", handleQuery(store))
		r.Get("/{id}", handleGetByID(store))
		r.Get("/{scope}/{scopeID}", handleHistory(store))
	})
}

func handleQuery(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseQueryFilter(r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		entries, err := store.Query(r.Context(), filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeEntries(w, entries)
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := store.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			http.Error(w, err.Error(), incident.StatusCode(err))
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

func handleHistory(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := Scope(chi.URLParam(r, "scope"))
		if !scope.Valid() {
			http.Error(w, fmt.Sprintf("unknown scope %q", scope), http.StatusNotFound)
			return
		}
		entries, err := store.Query(r.Context(), QueryFilter{
			Scope:   scope,
			ScopeID: chi.URLParam(r, "scopeID"),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		slices.Reverse(entries)
		writeEntries(w, entries)
	}
}

// parseQueryFilter reads actor, scope, scope_id, action, since, until,
// limit and offset. Malformed values are validation errors.
func parseQueryFilter(q url.Values) (QueryFilter, error) {
	filter := QueryFilter{
		ActorID: q.Get("actor"),
		ScopeID: q.Get("scope_id"),
		Action:  Action(q.Get("action")),
	}
	if v := q.Get("scope"); v != "" {
		filter.Scope = Scope(v)
		if !filter.Scope.Valid() {
			return QueryFilter{}, fmt.Errorf("%w: unknown scope %q", incident.ErrValidation, v)
		}
	}

	var err error
	if filter.Since, err = parseTimeParam(q, "since"); err != nil {
		return QueryFilter{}, err
	}
	if filter.Until, err = parseTimeParam(q, "until"); err != nil {
		return QueryFilter{}, err
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return QueryFilter{}, fmt.Errorf("%w: until is before since", incident.ErrValidation)
	}

	if filter.Limit, err = parseCountParam(q, "limit"); err != nil {
		return QueryFilter{}, err
	}
	filter.Limit = min(filter.Limit, MaxQueryLimit)
	if filter.Offset, err = parseCountParam(q, "offset"); err != nil {
		return QueryFilter{}, err
	}
	return filter, nil
}

func parseTimeParam(q url.Values, name string) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s %q, want RFC3339", incident.ErrValidation, name, v)
	}
	return &t, nil
}

func parseCountParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", incident.ErrValidation, name)
	}
	return n, nil
}

func writeEntries(w http.ResponseWriter, entries []Entry) {
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
