package providerhttp

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"go_domainbot/internal/metrics"
	"go_domainbot/internal/model"
)

// UsageRecorder persists one upstream call
type UsageRecorder interface {
	RecordUsage(ctx context.Context, entry *model.APIUsageLog) error
}

// Instrumentation builds HTTP clients whose calls are counted in Prometheus
// and written to the API usage log. A nil *Instrumentation yields plain clients.
type Instrumentation struct {
	Metrics  *metrics.Metrics
	Recorder UsageRecorder
	Logger   *logrus.Entry
	Base     http.RoundTripper
}

// Client returns an http.Client for service with a fixed timeout
func (in *Instrumentation) Client(service string, timeout time.Duration) *http.Client {
	if in == nil {
		return &http.Client{Timeout: timeout}
	}
	base := in.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &transport{
			base:    base,
			service: service,
			in:      in,
		},
	}
}

type transport struct {
	base    http.RoundTripper
	service string
	in      *Instrumentation
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.in.Metrics.ObserveProvider(t.service, req.Method, status, start)

	if t.in.Recorder != nil {
		entry := &model.APIUsageLog{
			Service:    t.service,
			Endpoint:   truncate(req.URL.Path, 255),
			Method:     req.Method,
			StatusCode: status,
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			entry.Error = truncate(err.Error(), 255)
		}
		// detached from the request context so cancelled calls are still logged
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if recErr := t.in.Recorder.RecordUsage(ctx, entry); recErr != nil && t.in.Logger != nil {
			t.in.Logger.WithError(recErr).Warn("failed to record api usage")
		}
		cancel()
	}

	return resp, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
