// Package metrics exposes Prometheus collectors for the process tracker.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"processos/internal/core"
	"processos/internal/services"
)

const namespace = "processos"

var _ services.Recorder = (*Metrics)(nil)

// Metrics groups every collector. Build one per registry.
type Metrics struct {
	// alertsActive holds the size of the latest derived alert set by kind and status
	alertsActive *prometheus.GaugeVec

	processesCreated  prometheus.Counter
	paymentsConfirmed *prometheus.CounterVec

	alertRuns        *prometheus.CounterVec
	digestsPublished prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	rateLimited  prometheus.Counter
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		alertsActive: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_active",
			Help:      "Alerts in the latest derivation by kind and status",
		}, []string{"kind", "status"}),
		processesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processes_created_total",
			Help:      "Processes added",
		}),
		paymentsConfirmed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_confirmed_total",
			Help:      "Payment confirmations by outcome",
		}, []string{"outcome"}),
		alertRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_worker_runs_total",
			Help:      "Alert worker evaluations by result",
		}, []string{"result"}),
		digestsPublished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_digests_published_total",
			Help:      "Alert digests published to the broker",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "path"}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveAlerts replaces the active alert gauges with the given set.
func (m *Metrics) ObserveAlerts(alerts []services.Alert, today core.Date) {
	m.alertsActive.Reset()
	for _, kind := range []services.AlertKind{services.KindProcess, services.KindInstallment} {
		for _, status := range []services.AlertStatus{services.StatusUpcoming, services.StatusDueSoon, services.StatusPassed} {
			if kind == services.KindProcess && status == services.StatusDueSoon {
				continue
			}
			if kind == services.KindInstallment && status == services.StatusUpcoming {
				continue
			}
			m.alertsActive.WithLabelValues(string(kind), string(status)).Set(0)
		}
	}
	for _, a := range alerts {
		m.alertsActive.WithLabelValues(string(a.Kind), string(a.Status(today))).Inc()
	}
}

func (m *Metrics) ProcessCreated() { m.processesCreated.Inc() }

func (m *Metrics) PaymentConfirmed(outcome string) {
	m.paymentsConfirmed.WithLabelValues(outcome).Inc()
}

// AlertRun records one worker evaluation.
func (m *Metrics) AlertRun(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.alertRuns.WithLabelValues(result).Inc()
}

func (m *Metrics) DigestPublished() { m.digestsPublished.Inc() }

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RateLimited() { m.rateLimited.Inc() }
