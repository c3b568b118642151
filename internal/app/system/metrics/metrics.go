// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "robohub_registrations_total",
		Help: "Team registration attempts by outcome",
	}, []string{"outcome"})

	adminActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "robohub_admin_actions_total",
		Help: "Applied admin user-management actions by action",
	}, []string{"action"})

	auditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robohub_audit_write_failures_total",
		Help: "Audit entries that could not be persisted",
	})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "robohub_rate_limit_rejections_total",
		Help: "Requests rejected by a rate limiter, by limiter name",
	}, []string{"limiter"})
)

// Registration records one registration attempt. outcome is "ok" or an
// error code such as "capacity_exceeded".
func Registration(outcome string) { registrations.WithLabelValues(outcome).Inc() }

// AdminAction records an applied user-management action.
func AdminAction(action string) { adminActions.WithLabelValues(action).Inc() }

// AuditFailure records a failed audit write.
func AuditFailure() { auditFailures.Inc() }

// RateLimited records a rejected request.
func RateLimited(limiter string) { rateLimited.WithLabelValues(limiter).Inc() }

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler { return promhttp.Handler() }
