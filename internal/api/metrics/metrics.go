// Package metrics defines all custom Prometheus metrics for the examgate
// gateway. It is the single source of truth for metric names, labels, and
// help strings; promauto registers everything with the default registry at
// package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "examgate"

// GuardDecisionsTotal counts navigation-guard outcomes.
// Label:
//   - action: "proceed", "redirect_login", or "redirect_home"
var GuardDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_decisions_total",
		Help:      "Total number of navigation guard evaluations, by outcome.",
	},
	[]string{"action"},
)

// SessionOpsTotal counts session-manager operations driven through the
// gateway endpoints.
// Labels:
//   - op: "login", "register", "logout", "profile_update", "password_change"
//   - result: "ok" or "failed"
var SessionOpsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_ops_total",
		Help:      "Total number of session operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// ForcedClearsTotal counts sessions torn down without an explicit logout:
// profile-fetch failures and unauthorized backend responses.
var ForcedClearsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_clears_total",
		Help:      "Total number of forced session clears.",
	},
)

// SessionOpDuration measures how long a session operation takes end-to-end,
// including the backend round-trip.
// Label:
//   - op: operation name, as in SessionOpsTotal
var SessionOpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "session_op_duration_seconds",
		Help:      "Duration of session operations from request to backend response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)
