package assignment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/auto-assign/internal/matrix"
)

func setupRouter(t *testing.T) (chi.Router, *fixture) {
	t.Helper()
	f := newFixture(t, matrix.New(), NewMemoryStore())
	r := chi.NewRouter()
	RegisterRoutes(r, f.engine)
	return r, f
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestHTTPAssignmentLifecycle(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPost, "/api/incidents", `{"id":"inc-1","type":"BACKEND_API","priority":"HIGH","description":"502 from checkout api"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created Assignment
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, 15, created.SLATarget.ResponseTime)

	w = do(r, http.MethodGet, "/api/assignments/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, "/api/assignments/"+created.ID+"/status", `{"status":"ACKNOWLEDGED"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var acked Assignment
	require.NoError(t, json.NewDecoder(w.Body).Decode(&acked))
	assert.Equal(t, StatusAcknowledged, acked.Status)
	assert.NotNil(t, acked.AcknowledgedAt)

	w = do(r, http.MethodPost, "/api/assignments/"+created.ID+"/reassign", `{"member_id":"be-mei"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/assignments?owner=be-mei&status=assigned", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []Assignment
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	w = do(r, http.MethodPut, "/api/assignments/"+created.ID+"/status", `{"status":"RESOLVED"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(r, http.MethodPost, "/api/assignments/"+created.ID+"/reassign", `{"member_id":"be-sara"}`)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestHTTPErrorMapping(t *testing.T) {
	r, _ := setupRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed incident", http.MethodPost, "/api/incidents", `{`, http.StatusBadRequest},
		{"invalid incident", http.MethodPost, "/api/incidents", `{"id":"x","type":"NOPE","priority":"HIGH"}`, http.StatusBadRequest},
		{"unknown assignment", http.MethodGet, "/api/assignments/missing", "", http.StatusNotFound},
		{"status of unknown", http.MethodPut, "/api/assignments/missing/status", `{"status":"RESOLVED"}`, http.StatusNotFound},
		{"bad status", http.MethodPut, "/api/assignments/missing/status", `{"status":"DONE"}`, http.StatusBadRequest},
		{"reassign without member", http.MethodPost, "/api/assignments/missing/reassign", `{}`, http.StatusBadRequest},
		{"bad status filter", http.MethodGet, "/api/assignments?status=DONE", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestHTTPEmptyList(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(r, http.MethodGet, "/api/assignments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
