// Package metrics defines the custom Prometheus metrics of the taskboard auth
// API. Metrics register themselves with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

const namespace = "taskboard"

// ── Auth metrics ─────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Labels:
//   - role: "admin", "user" or the rejected value
//   - result: "success" or the error kind (e.g. "invalid_credentials")
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by role and result.",
	},
	[]string{"role", "result"},
)

// RegistrationsTotal counts registration attempts.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// OTPTotal counts OTP operations.
// Labels:
//   - op: "send", "verify" or "resend"
//   - result: "success" or the error kind
var OTPTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_operations_total",
		Help:      "Total number of OTP operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// TokenRefreshTotal counts refresh-token exchanges.
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of access token refreshes, by result.",
	},
	[]string{"result"},
)

// PasswordResetsTotal counts reset requests and completions.
// Labels:
//   - stage: "requested" or "completed"
//   - result: "success" or the error kind
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset operations, by stage and result.",
	},
	[]string{"stage", "result"},
)

// ── Mail metrics ─────────────────────────────────────────────────────────────

// MailSentTotal counts mail deliveries.
// Labels:
//   - kind: "otp" or "password_reset"
//   - result: "success", "error" or "dropped"
var MailSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sent_total",
		Help:      "Total number of emails handed to the mail transport, by kind and result.",
	},
	[]string{"kind", "result"},
)

// MailQueueDepth tracks the number of emails waiting in each dispatcher shard.
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of emails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailSendDuration measures how long one delivery takes.
var MailSendDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mail_send_duration_seconds",
		Help:      "Duration of a single email delivery.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

// Result turns an operation error into a result label value.
func Result(err error) string {
	if err == nil {
		return "success"
	}
	return string(domain.KindOf(err))
}
