// Package metrics defines and registers the custom Prometheus metrics of the
// auth API. Metrics are registered with the default registry on import; the
// HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// Result label values shared by the counters below.
const (
	ResultSuccess  = "success"
	ResultConflict = "conflict"
	ResultInvalid  = "invalid"
	ResultError    = "error"
	ResultRejected = "rejected"
	ResultDropped  = "dropped"
)

// ── Account metrics ──────────────────────────────────────────────────────────

// SignupsTotal counts signup attempts.
// Label:
//   - result: success, invalid, conflict or error
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by result.",
	},
	[]string{"result"},
)

// SigninsTotal counts signin attempts.
// Label:
//   - result: success, rejected (bad credentials), invalid or error
var SigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of signin attempts, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts bearer token checks done by the auth middleware.
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// RateLimitedTotal counts requests refused by the rate limiter.
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter, by route.",
	},
	[]string{"route"},
)

// ── Audit metrics ────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events handled by the dispatcher workers.
// Labels:
//   - kind: signup, signin, signin_failed
//   - result: success, error or dropped
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by kind and result.",
	},
	[]string{"kind", "result"},
)

// AuditQueueDepth tracks pending events per dispatcher worker.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
