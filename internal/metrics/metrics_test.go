package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"processos/internal/core"
	"processos/internal/services"
)

func TestObserveAlertsReplacesGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())
	today := core.NewDate(2024, 1, 10)

	m.ObserveAlerts([]services.Alert{
		{Kind: services.KindProcess, ReceiptDate: core.NewDate(2024, 1, 9)},
		{Kind: services.KindProcess, ReceiptDate: core.NewDate(2024, 1, 12)},
		{Kind: services.KindInstallment, DueDate: core.NewDate(2024, 1, 11)},
	}, today)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsActive.WithLabelValues("process", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsActive.WithLabelValues("process", "upcoming")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsActive.WithLabelValues("installment", "due_soon")))

	m.ObserveAlerts(nil, today)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.alertsActive.WithLabelValues("process", "passed")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.alertsActive))
}

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ProcessCreated()
	m.ProcessCreated()
	m.PaymentConfirmed("installment_paid")
	m.PaymentConfirmed("not_found")
	m.AlertRun(nil)
	m.AlertRun(errors.New("boom"))
	m.DigestPublished()
	m.RateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsConfirmed.WithLabelValues("installment_paid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsConfirmed.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertRuns.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.digestsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("GET", "/", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "/", 200, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
