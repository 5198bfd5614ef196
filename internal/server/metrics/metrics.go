// Package metrics defines the Prometheus metrics of the auth service.
//
// All metrics are registered with the default prometheus registry, which the
// HTTP server exposes on /metrics.
//
// Naming:
//   - todoauth_ prefix for all custom metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const ResultSuccess = "success"

var (
	// LoginsTotal counts finished login attempts by role slug and result
	// (success or a failure reason).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoauth_logins_total",
			Help: "Total login attempts by role and result.",
		},
		[]string{"role", "result"},
	)

	// LoginFailuresByStage counts failed logins by the stage they stopped at.
	LoginFailuresByStage = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoauth_login_failures_by_stage_total",
			Help: "Failed login attempts by pipeline stage and reason.",
		},
		[]string{"stage", "reason"},
	)

	LoginDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoauth_login_duration_seconds",
			Help:    "Duration of login attempts in seconds.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"result"},
	)

	// VerificationsTotal counts token verifications by token use
	// (access, refresh) and result.
	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoauth_verifications_total",
			Help: "Total token verifications by token use and result.",
		},
		[]string{"use", "result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoauth_tokens_issued_total",
			Help: "Total tokens issued by token use.",
		},
		[]string{"use"},
	)

	RevocationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "todoauth_revocations_total",
			Help: "Total token ids added to the revocation list.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		LoginsTotal,
		LoginFailuresByStage,
		LoginDurationSeconds,
		VerificationsTotal,
		TokensIssuedTotal,
		RevocationsTotal,
	)
}

// RecordLogin records a finished login. An empty reason means success.
func RecordLogin(role, reason string, duration time.Duration) {
	result := reason
	if result == "" {
		result = ResultSuccess
	}
	LoginsTotal.WithLabelValues(role, result).Inc()
	LoginDurationSeconds.WithLabelValues(result).Observe(duration.Seconds())
}

func RecordLoginFailure(stage, reason string) {
	LoginFailuresByStage.WithLabelValues(stage, reason).Inc()
}

// RecordVerification records a token check. An empty reason means success.
func RecordVerification(use, reason string) {
	if reason == "" {
		reason = ResultSuccess
	}
	VerificationsTotal.WithLabelValues(use, reason).Inc()
}

func RecordTokenIssued(use string) {
	TokensIssuedTotal.WithLabelValues(use).Inc()
}

func RecordRevocation() {
	RevocationsTotal.Inc()
}
