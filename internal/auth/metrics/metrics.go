package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks login resolution. All metrics use the "doorman_" prefix.
// Methods handle a nil receiver, so a nil *Metrics is a no-op.
type Metrics struct {
	// LoginAttempts counts resolved attempts.
	// Labels: outcome=[authenticated, rejected, error], reason=[..., ""]
	LoginAttempts *prometheus.CounterVec

	// LoginDuration tracks end to end resolution time by outcome.
	LoginDuration *prometheus.HistogramVec

	// DirectoryRequests counts directory authentications.
	// Labels: result=[ok, invalid_credentials, rejected, timeout, skipped]
	DirectoryRequests *prometheus.CounterVec

	// AccountsProvisioned counts accounts created from directory interactions.
	// Labels: authenticated=[true, false]
	AccountsProvisioned *prometheus.CounterVec

	// ProvisionRaces counts provisioning inserts that lost to a concurrent one.
	ProvisionRaces prometheus.Counter
}

// New creates and registers the metrics. If registerer is nil,
// prometheus.DefaultRegisterer is used.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorman_login_attempts_total",
				Help: "Total login attempts by outcome and rejection reason",
			},
			[]string{"outcome", "reason"},
		),
		LoginDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "doorman_login_duration_seconds",
				Help:    "Login resolution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		DirectoryRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorman_directory_requests_total",
				Help: "Total directory authentication requests by result",
			},
			[]string{"result"},
		),
		AccountsProvisioned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doorman_accounts_provisioned_total",
				Help: "Total accounts provisioned from the directory",
			},
			[]string{"authenticated"},
		),
		ProvisionRaces: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "doorman_provision_races_total",
				Help: "Provisioning inserts that found the account already created",
			},
		),
	}

	registerer.MustRegister(
		m.LoginAttempts,
		m.LoginDuration,
		m.DirectoryRequests,
		m.AccountsProvisioned,
		m.ProvisionRaces,
	)

	return m
}

// RecordLogin records a resolved login attempt.
func (m *Metrics) RecordLogin(outcome, reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome, reason).Inc()
	m.LoginDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordDirectory records a directory request result.
func (m *Metrics) RecordDirectory(result string) {
	if m == nil {
		return
	}
	m.DirectoryRequests.WithLabelValues(result).Inc()
}

// RecordProvisioned records a newly provisioned account.
func (m *Metrics) RecordProvisioned(authenticated bool) {
	if m == nil {
		return
	}
	label := "false"
	if authenticated {
		label = "true"
	}
	m.AccountsProvisioned.WithLabelValues(label).Inc()
}

func (m *Metrics) RecordProvisionRace() {
	if m == nil {
		return
	}
	m.ProvisionRaces.Inc()
}
