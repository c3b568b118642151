package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(registrations.WithLabelValues("capacity_exceeded"))
	Registration("capacity_exceeded")
	Registration("capacity_exceeded")
	if got := testutil.ToFloat64(registrations.WithLabelValues("capacity_exceeded")); got != before+2 {
		t.Errorf("registrations = %v, want %v", got, before+2)
	}

	before = testutil.ToFloat64(auditFailures)
	AuditFailure()
	if got := testutil.ToFloat64(auditFailures); got != before+1 {
		t.Errorf("auditFailures = %v, want %v", got, before+1)
	}
}

func TestHandler(t *testing.T) {
	AdminAction("verify")
	RateLimited("signup")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"robohub_admin_actions_total", "robohub_rate_limit_rejections_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}
