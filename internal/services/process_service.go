package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"processos/internal/core"
	applog "processos/internal/log"
	"processos/internal/store"
)

// EventPublisher receives domain events after a successful save.
type EventPublisher interface {
	PublishProcessCreated(ctx context.Context, p core.Process) error
	PublishPaymentConfirmed(ctx context.Context, processNumber string, installment int, outcome string) error
}

// Recorder collects service metrics.
type Recorder interface {
	ObserveAlerts(alerts []Alert, today core.Date)
	ProcessCreated()
	PaymentConfirmed(outcome string)
}

// Options tune a ProcessService. Zero values fall back to defaults.
type Options struct {
	// LookaheadDays overrides DefaultLookaheadDays when set; zero is a valid
	// lookahead.
	LookaheadDays *int
	Location      *time.Location
	Now           func() time.Time
	Publisher     EventPublisher
	Metrics       Recorder
}

// ProcessService runs the load-mutate-save cycle around the alert engine.
// Every call loads the collection fresh; mutations save the full collection.
type ProcessService struct {
	repo      store.Repository
	lookahead int
	loc       *time.Location
	now       func() time.Time
	publisher EventPublisher
	metrics   Recorder
}

func NewProcessService(repo store.Repository, opts Options) *ProcessService {
	s := &ProcessService{
		repo:      repo,
		lookahead: DefaultLookaheadDays,
		loc:       opts.Location,
		now:       opts.Now,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
	}
	if opts.LookaheadDays != nil && *opts.LookaheadDays >= 0 {
		s.lookahead = *opts.LookaheadDays
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today is the current day in the configured timezone.
func (s *ProcessService) Today() core.Date {
	return Today(s.now(), s.loc)
}

// List returns the whole collection.
func (s *ProcessService) List(ctx context.Context) ([]core.Process, error) {
	processes, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load processes: %w", err)
	}
	slog.DebugContext(ctx, "Processes listed",
		applog.FieldOperation, applog.OpList,
		applog.FieldProcesses, len(processes))
	return processes, nil
}

// Alerts derives the active alerts for today.
func (s *ProcessService) Alerts(ctx context.Context) ([]Alert, core.Date, error) {
	today := s.Today()
	alerts, err := s.AlertsAt(ctx, today)
	return alerts, today, err
}

// AlertsAt derives the alerts as they would be on the given day.
func (s *ProcessService) AlertsAt(ctx context.Context, today core.Date) ([]Alert, error) {
	processes, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load processes: %w", err)
	}
	alerts := DeriveAlerts(processes, today, s.lookahead)
	if s.metrics != nil {
		s.metrics.ObserveAlerts(alerts, today)
	}
	slog.DebugContext(ctx, "Alerts derived",
		applog.FieldToday, today.String(),
		applog.FieldProcesses, len(processes),
		applog.FieldAlerts, len(alerts))
	return alerts, nil
}

// AddProcess validates the input, appends the new process and saves.
func (s *ProcessService) AddProcess(ctx context.Context, in NewProcess) (core.Process, error) {
	if err := in.Validate(); err != nil {
		return core.Process{}, err
	}

	processes, err := s.repo.Load(ctx)
	if err != nil {
		return core.Process{}, fmt.Errorf("load processes: %w", err)
	}

	updated, created, err := AddProcess(processes, in)
	if err != nil {
		return core.Process{}, err
	}

	if err := s.repo.Save(ctx, updated); err != nil {
		return core.Process{}, fmt.Errorf("save processes: %w", err)
	}

	slog.InfoContext(ctx, "Process added",
		applog.FieldProcess, created.Number,
		applog.FieldCounterparty, created.Counterparty,
		applog.FieldReceiptDate, created.ReceiptDate.String(),
		applog.FieldInstallments, len(created.Installments),
		applog.FieldTotalCents, created.Total().Cents)

	if s.metrics != nil {
		s.metrics.ProcessCreated()
	}
	if s.publisher != nil {
		if err := s.publisher.PublishProcessCreated(ctx, created); err != nil {
			// The record is saved; the event is best effort.
			slog.ErrorContext(ctx, "Failed to publish process event",
				applog.FieldProcess, created.Number, applog.FieldError, err)
		}
	}
	return created, nil
}

// ConfirmPayment applies the confirmation and saves the collection, also when
// nothing matched.
func (s *ProcessService) ConfirmPayment(ctx context.Context, target Target) (Outcome, error) {
	processes, err := s.repo.Load(ctx)
	if err != nil {
		return OutcomeNotFound, fmt.Errorf("load processes: %w", err)
	}

	updated, outcome := ConfirmPayment(processes, target)

	if err := s.repo.Save(ctx, updated); err != nil {
		return outcome, fmt.Errorf("save processes: %w", err)
	}

	if outcome == OutcomeNotFound {
		slog.WarnContext(ctx, "Payment confirmation matched nothing",
			applog.FieldProcess, target.Process,
			applog.FieldInstallment, target.Installment)
	} else {
		slog.InfoContext(ctx, "Payment confirmed",
			applog.FieldProcess, target.Process,
			applog.FieldInstallment, target.Installment,
			applog.FieldOutcome, outcome.String())
	}

	if s.metrics != nil {
		s.metrics.PaymentConfirmed(outcome.String())
	}
	if s.publisher != nil && outcome != OutcomeNotFound {
		if err := s.publisher.PublishPaymentConfirmed(ctx, target.Process, target.Installment, outcome.String()); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment event",
				applog.FieldProcess, target.Process, applog.FieldError, err)
		}
	}
	return outcome, nil
}
