// Package metrics holds all Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UsersCreated      prometheus.Counter
	ChallengesIssued  prometheus.Counter
	APIKeysIssued     prometheus.Counter
	APIKeysCancelled  prometheus.Counter
	PasswordsChanged  prometheus.Counter
	MailSent          prometheus.Counter
	MailFailed        prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_users_created_total",
			Help: "Total number of users created.",
		}),
		ChallengesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_verification_challenges_issued_total",
			Help: "Total number of verification challenges issued.",
		}),
		APIKeysIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_api_keys_issued_total",
			Help: "Total number of API keys issued.",
		}),
		APIKeysCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_api_keys_cancelled_total",
			Help: "Total number of API keys cancelled.",
		}),
		PasswordsChanged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_passwords_changed_total",
			Help: "Total number of password changes, including resets.",
		}),
		MailSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_mail_sent_total",
			Help: "Total number of transactional emails handed to the mail service.",
		}),
		MailFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custos_mail_failed_total",
			Help: "Total number of transactional emails that failed to send.",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custos_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request. Safe on a nil receiver so
// tests can pass a nil *Metrics without stubbing.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}

func (m *Metrics) IncUsersCreated() {
	if m != nil {
		m.UsersCreated.Inc()
	}
}

func (m *Metrics) IncChallengesIssued() {
	if m != nil {
		m.ChallengesIssued.Inc()
	}
}

func (m *Metrics) IncAPIKeysIssued() {
	if m != nil {
		m.APIKeysIssued.Inc()
	}
}

func (m *Metrics) IncAPIKeysCancelled() {
	if m != nil {
		m.APIKeysCancelled.Inc()
	}
}

func (m *Metrics) IncPasswordsChanged() {
	if m != nil {
		m.PasswordsChanged.Inc()
	}
}

func (m *Metrics) IncMailSent() {
	if m != nil {
		m.MailSent.Inc()
	}
}

func (m *Metrics) IncMailFailed() {
	if m != nil {
		m.MailFailed.Inc()
	}
}
