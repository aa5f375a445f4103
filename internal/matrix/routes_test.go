package matrix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/auto-assign/internal/incident"
	"github.com/ziadkadry99/auto-assign/internal/workload"
)

func TestRoutes(t *testing.T) {
	balancer := workload.NewBalancer(workload.NewMemoryStore())
	_, err := balancer.RecordAssignment(context.Background(), "be-sara")
	require.NoError(t, err)

	r := chi.NewRouter()
	RegisterRoutes(r, New(), balancer)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/api/teams")
	require.Equal(t, http.StatusOK, w.Code)
	var teams []incident.TeamStructure
	require.NoError(t, json.NewDecoder(w.Body).Decode(&teams))
	assert.Len(t, teams, 6)

	assert.Equal(t, http.StatusOK, get("/api/teams/backend").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/teams/sales").Code)
	assert.Equal(t, http.StatusOK, get("/api/members/db-ravi").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/members/nobody").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/members/nobody/workload").Code)

	w = get("/api/members/be-sara/workload")
	require.Equal(t, http.StatusOK, w.Code)
	var m workload.WorkloadMetrics
	require.NoError(t, json.NewDecoder(w.Body).Decode(&m))
	assert.Equal(t, 1, m.ActiveAssignments)

	w = get("/api/members/be-omar/workload")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&m))
	assert.Equal(t, workload.WorkloadMetrics{MemberID: "be-omar", SuccessRate: 0.5}, m)
}
