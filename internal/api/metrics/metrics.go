// Package metrics defines the portal's custom Prometheus metrics. Request
// level metrics come from echoprometheus; everything here is access control.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDecisionsTotal counts guard outcomes served over HTTP.
// Labels:
//   - group: route group name ("admin", "student")
//   - outcome: "loading", "redirect", "denied" or "render"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Access guard outcomes, by route group and outcome.",
	},
	[]string{"group", "outcome"},
)

// GuardStreamsActive is the number of open session streams.
var GuardStreamsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "guard_streams_active",
		Help:      "Currently open guard outcome streams.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsActive tracks live session contexts held by the registry.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Session contexts currently held in memory.",
	},
)

// SignInsTotal counts sign-in attempts.
// Labels:
//   - method: "password" or "oidc"
//   - result: "success", "invalid", "throttled" or "error"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Sign-in attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// LogoutFailuresTotal counts logouts the identity provider rejected.
var LogoutFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logout_failures_total",
		Help:      "Logouts that failed and left the session signed in.",
	},
)
