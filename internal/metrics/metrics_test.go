package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	AssignmentsCreated.WithLabelValues("HIGH", "BACKEND_API").Inc()
	if v := testutil.ToFloat64(AssignmentsCreated.WithLabelValues("HIGH", "BACKEND_API")); v < 1 {
		t.Fatalf("expected AssignmentsCreated >= 1, got %v", v)
	}
	EscalationsCreated.WithLabelValues("L5_CUSTOMER_SERVICE", "SAFETY_CRITICAL").Inc()
	if v := testutil.ToFloat64(EscalationsCreated.WithLabelValues("L5_CUSTOMER_SERVICE", "SAFETY_CRITICAL")); v < 1 {
		t.Fatalf("expected EscalationsCreated >= 1, got %v", v)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	MonitorSweeps.Inc()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "autoassign_monitor_sweeps_total") {
		t.Error("expected autoassign_monitor_sweeps_total in output")
	}
}
