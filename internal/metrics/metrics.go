// Package metrics records batch-run metrics and pushes them to a
// Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/smukkama/farm-report/internal/report"
)

type Metrics struct {
	registry *prometheus.Registry
	job      string

	runDuration    prometheus.Gauge
	samples        prometheus.Gauge
	patternMembers *prometheus.GaugeVec
	lastSuccess    prometheus.Gauge
	failures       prometheus.Counter
}

// New creates metrics on a private registry for the given job name
func New(job string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		job:      job,
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farm_report_run_duration_seconds",
			Help: "Duration of the last successful report run.",
		}),
		samples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farm_report_samples",
			Help: "Aligned samples analyzed by the last successful run.",
		}),
		patternMembers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "farm_report_pattern_members",
			Help: "Samples per discovered pattern in the last successful run.",
		}, []string{"pattern", "label"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "farm_report_last_success_timestamp_seconds",
			Help: "Unix time of the last successful report run.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "farm_report_failures_total",
			Help: "Report runs that failed before the report was written.",
		}),
	}

	m.registry.MustRegister(
		m.runDuration,
		m.samples,
		m.patternMembers,
		m.lastSuccess,
		m.failures,
	)

	return m
}

// ObserveSuccess records a written report
func (m *Metrics) ObserveSuccess(r *report.Report, duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Set(duration.Seconds())
	m.samples.Set(float64(r.TotalSamples))
	m.lastSuccess.Set(float64(r.GeneratedAt.Unix()))

	m.patternMembers.Reset()
	for _, c := range r.Clusters {
		label := string(r.Label(c.ID))
		if label == "" {
			label = "none"
		}
		m.patternMembers.WithLabelValues(strconv.Itoa(c.Pattern), label).Set(float64(c.MemberCount))
	}
}

// ObserveFailure counts a failed run
func (m *Metrics) ObserveFailure() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push replaces this job's metric group on the Pushgateway at url
func (m *Metrics) Push(ctx context.Context, url string) error {
	if m == nil || url == "" {
		return nil
	}
	if err := push.New(url, m.job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
