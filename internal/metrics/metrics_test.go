package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveProvider(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveProvider("cloudflare", "POST", 200, time.Now())
	m.ObserveProvider("cloudflare", "POST", 200, time.Now())
	m.ObserveProvider("cloudflare", "POST", 0, time.Now())

	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("cloudflare", "POST", "200")); got != 2 {
		t.Errorf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("cloudflare", "POST", "error")); got != 1 {
		t.Errorf("expected 1 failed request, got %v", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveProvider("x", "GET", 200, time.Now())
	m.IncRegistration("registered")
	m.AddDeposit(10)
}

func TestAddDeposit(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddDeposit(20)
	m.AddDeposit(5.5)

	if got := testutil.ToFloat64(m.DepositedUSD); got != 25.5 {
		t.Errorf("expected 25.5, got %v", got)
	}
}
