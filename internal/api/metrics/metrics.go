// Package metrics defines and registers all custom Prometheus metrics for
// the chat platform API. It is the single source of truth for metric
// names, labels, and help strings.
//
// All metrics register with the default Prometheus registry at package
// init through promauto; the gauge for live sessions is the exception and
// needs RegisterSessionsGauge once the registry exists.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chat"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts credential exchanges by outcome.
// Label:
//   - result: "success", "invalid_credentials", "disabled", "throttled"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// TokenRejectionsTotal counts bearer tokens the gate turned away.
// Label:
//   - reason: "missing", "malformed", "expired", "signature", "session_revoked", "identity_rejected"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of rejected bearer tokens, by reason.",
	},
	[]string{"reason"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthzDenialsTotal counts forbidden answers after successful authentication.
// Label:
//   - check: "role" (privilege tier too low) or "resource" (no ownership or share)
var AuthzDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authz_denials_total",
		Help:      "Total number of authorization denials, by check kind.",
	},
	[]string{"check"},
)

// MaintenanceRejectionsTotal counts requests bounced by maintenance mode.
var MaintenanceRejectionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "maintenance_rejections_total",
		Help:      "Total number of requests rejected while maintenance mode was on.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsRevokedTotal counts administrative and voluntary revocations.
// Label:
//   - scope: "single", "user", "all"
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of sessions revoked, by scope.",
	},
	[]string{"scope"},
)

// RegisterSessionsGauge exposes the number of live sessions as a gauge.
// Call once at startup with the registry's counter function.
func RegisterSessionsGauge(count func() float64) {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of live sessions currently held in the registry.",
		},
		count,
	)
}
