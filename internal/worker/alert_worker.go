package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"processos/internal/core"
	applog "processos/internal/log"
	"processos/internal/services"
)

// AlertSource derives the alerts for the current day.
type AlertSource interface {
	Alerts(ctx context.Context) ([]services.Alert, core.Date, error)
}

// DigestPublisher sends the derived alert set downstream.
type DigestPublisher interface {
	PublishAlertDigest(ctx context.Context, today core.Date, alerts []services.Alert) error
}

// Recorder counts worker runs and published digests.
type Recorder interface {
	AlertRun(err error)
	DigestPublished()
}

// AlertWorker periodically derives alerts, logs them and publishes a digest.
type AlertWorker struct {
	source    AlertSource
	publisher DigestPublisher
	metrics   Recorder
	interval  time.Duration

	// PublishEmpty also publishes digests with no alerts.
	PublishEmpty bool
}

// NewAlertWorker builds a worker. publisher and metrics may be nil.
func NewAlertWorker(source AlertSource, publisher DigestPublisher, metrics Recorder, interval time.Duration) *AlertWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AlertWorker{
		source:    source,
		publisher: publisher,
		metrics:   metrics,
		interval:  interval,
	}
}

// Run performs a check immediately and then once per interval until ctx is
// done. A failed check is logged and retried at the next tick.
func (w *AlertWorker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Alert worker started", applog.FieldInterval, w.interval.String())

	if err := w.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup alert check failed", applog.FieldError, err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Alert worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic alert check failed", applog.FieldError, err)
			}
		}
	}
}

// RunOnce derives today's alerts and publishes them.
func (w *AlertWorker) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if w.metrics != nil {
			w.metrics.AlertRun(err)
		}
	}()

	alerts, today, err := w.source.Alerts(ctx)
	if err != nil {
		return fmt.Errorf("derive alerts: %w", err)
	}

	slog.InfoContext(ctx, "Alert check completed", applog.FieldToday, today.String(), applog.FieldAlerts, len(alerts))
	for _, a := range alerts {
		slog.InfoContext(ctx, a.Message(today),
			applog.FieldAlertKind, string(a.Kind),
			applog.FieldAlertStatus, string(a.Status(today)),
			applog.FieldProcess, a.ProcessNum,
			applog.FieldCounterparty, a.Counterparty,
			applog.FieldInstallment, a.InstallmentNumber,
			applog.FieldExpiration, a.Expiration.String())
	}

	if w.publisher == nil || (len(alerts) == 0 && !w.PublishEmpty) {
		return nil
	}
	if err := w.publisher.PublishAlertDigest(ctx, today, alerts); err != nil {
		return fmt.Errorf("publish alert digest: %w", err)
	}
	if w.metrics != nil {
		w.metrics.DigestPublished()
	}
	return nil
}
