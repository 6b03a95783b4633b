package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus collectors
type Metrics struct {
	ProviderRequests     *prometheus.CounterVec
	ProviderDuration     *prometheus.HistogramVec
	RegistrationOutcomes *prometheus.CounterVec
	DepositsCompleted    prometheus.Counter
	DepositedUSD         prometheus.Counter
}

// New registers all collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProviderRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domainbot_provider_requests_total",
			Help: "Upstream provider HTTP requests by service, method and status",
		}, []string{"service", "method", "status"}),
		ProviderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "domainbot_provider_request_duration_seconds",
			Help:    "Upstream provider request latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		}, []string{"service"}),
		RegistrationOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "domainbot_registrations_total",
			Help: "Domain registration attempts by outcome",
		}, []string{"outcome"}),
		DepositsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "domainbot_deposits_completed_total",
			Help: "Wallet deposits credited",
		}),
		DepositedUSD: f.NewCounter(prometheus.CounterOpts{
			Name: "domainbot_deposited_usd_total",
			Help: "USD credited to wallets",
		}),
	}
}

// ObserveProvider records one upstream call. status is 0 on transport failure.
func (m *Metrics) ObserveProvider(service, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.ProviderRequests.WithLabelValues(service, method, label).Inc()
	m.ProviderDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
}

// IncRegistration counts a registration outcome
func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationOutcomes.WithLabelValues(outcome).Inc()
}

// AddDeposit counts a credited deposit
func (m *Metrics) AddDeposit(usd float64) {
	if m == nil {
		return
	}
	m.DepositsCompleted.Inc()
	m.DepositedUSD.Add(usd)
}
