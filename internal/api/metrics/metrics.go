// Package metrics defines and registers all custom Prometheus metrics for
// the authentication service. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gestasso_auth"

// LoginsTotal counts authentication attempts.
// Labels:
//   - provider: "email", "google", or "apple"
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by provider and result.",
	},
	[]string{"provider", "result"},
)

// RegistrationsTotal counts completed registrations.
// Label:
//   - onboarding: the onboarding flow ("member", "club_owner")
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of completed registrations, by onboarding type.",
	},
	[]string{"onboarding"},
)

// TokenRotationsTotal counts refresh-token presentations.
// Label:
//   - result: "rotated", "expired", or "not_found"
var TokenRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rotations_total",
		Help:      "Total number of refresh-token presentations, by outcome.",
	},
	[]string{"result"},
)

// TokenReuseDetectedTotal counts theft signals: a rotated or revoked refresh
// token presented again. Each increment corresponds to a full chain
// revocation for the affected user.
var TokenReuseDetectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_reuse_detected_total",
		Help:      "Total number of refresh-token reuse detections (chain revocations).",
	},
)

// ProviderExchangesTotal counts authorization-code exchanges with external
// providers.
// Labels:
//   - provider: "google" or "apple"
//   - result: "success" or "failure"
var ProviderExchangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_exchanges_total",
		Help:      "Total number of OAuth code exchanges, by provider and result.",
	},
	[]string{"provider", "result"},
)

// SecurityQueueDepth tracks the number of security events waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var SecurityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "security_queue_depth",
		Help:      "Current number of security events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
