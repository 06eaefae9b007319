package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"processos/internal/core"
	"processos/internal/store/memory"
)

type publishedEvent struct {
	kind        string
	process     string
	installment int
	outcome     string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishProcessCreated(_ context.Context, proc core.Process) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{kind: "created", process: proc.Number})
	return p.err
}

func (p *fakePublisher) PublishPaymentConfirmed(_ context.Context, number string, installment int, outcome string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{kind: "confirmed", process: number, installment: installment, outcome: outcome})
	return p.err
}

type fakeRecorder struct {
	observed  int
	lastCount int
	created   int
	outcomes  []string
}

func (r *fakeRecorder) ObserveAlerts(alerts []Alert, _ core.Date) {
	r.observed++
	r.lastCount = len(alerts)
}

func (r *fakeRecorder) ProcessCreated() { r.created++ }

func (r *fakeRecorder) PaymentConfirmed(outcome string) { r.outcomes = append(r.outcomes, outcome) }

type failingRepo struct{ err error }

func (f failingRepo) Load(context.Context) ([]core.Process, error) { return nil, f.err }

func (f failingRepo) Save(context.Context, []core.Process) error { return f.err }

var serviceNow = time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, seed ...core.Process) (*ProcessService, *memory.Store, *fakePublisher, *fakeRecorder) {
	t.Helper()
	st := memory.New(seed...)
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	svc := NewProcessService(st, Options{
		Location:  time.UTC,
		Now:       func() time.Time { return serviceNow },
		Publisher: pub,
		Metrics:   rec,
	})
	return svc, st, pub, rec
}

func scenarioProcess() core.Process {
	return core.Process{
		ProcessDate:  d(2024, 1, 2),
		Number:       "P2",
		Counterparty: "ACME",
		ReceiptDate:  d(2024, 1, 9),
		Installments: []core.Installment{
			installment(1, 500, d(2024, 1, 10), false),
			installment(2, 500, d(2024, 2, 9), false),
		},
	}
}

func TestProcessService_Defaults(t *testing.T) {
	svc := NewProcessService(memory.New(), Options{})
	assert.Equal(t, DefaultLookaheadDays, svc.lookahead)
	assert.Equal(t, time.Local, svc.loc)
	assert.NotNil(t, svc.now)
}

func TestProcessService_LookaheadOption(t *testing.T) {
	receiptInTwoDays := core.Process{
		Number:       "P3",
		ReceiptDate:  d(2024, 1, 12),
		Installments: []core.Installment{installment(1, 100, d(2024, 3, 1), false)},
	}
	zero, five := 0, 5
	tests := []struct {
		name      string
		lookahead *int
		want      int
	}{
		{"unset uses default", nil, 1},
		{"zero is honoured", &zero, 0},
		{"explicit value", &five, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewProcessService(memory.New(receiptInTwoDays), Options{
				LookaheadDays: tt.lookahead,
				Location:      time.UTC,
				Now:           func() time.Time { return serviceNow },
			})
			alerts, _, err := svc.Alerts(context.Background())
			require.NoError(t, err)
			assert.Len(t, alerts, tt.want)
		})
	}
}

func TestProcessService_Alerts(t *testing.T) {
	svc, _, _, rec := newTestService(t, scenarioProcess())

	alerts, today, err := svc.Alerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", today.String())
	require.Len(t, alerts, 2)
	assert.Equal(t, KindProcess, alerts[0].Kind)
	assert.Equal(t, KindInstallment, alerts[1].Kind)
	assert.Equal(t, 1, rec.observed)
	assert.Equal(t, 2, rec.lastCount)
}

func TestProcessService_ConfirmInstallmentKeepsProcessAlert(t *testing.T) {
	ctx := context.Background()
	svc, st, pub, rec := newTestService(t, scenarioProcess())

	outcome, err := svc.ConfirmPayment(ctx, Target{Process: "P2", Installment: 1})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInstallmentPaid, outcome)

	alerts, _, err := svc.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, KindProcess, alerts[0].Kind)
	assert.Equal(t, "P2", alerts[0].ProcessNum)

	saved, err := st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, saved[0].Installments[0].Paid)
	assert.Equal(t, []publishedEvent{{kind: "confirmed", process: "P2", installment: 1, outcome: "installment_paid"}}, pub.events)
	assert.Equal(t, []string{"installment_paid"}, rec.outcomes)
}

func TestProcessService_ConfirmProcessRemovesIt(t *testing.T) {
	ctx := context.Background()
	svc, st, _, _ := newTestService(t, scenarioProcess())

	outcome, err := svc.ConfirmPayment(ctx, Target{Process: "P2"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessRemoved, outcome)

	saved, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)

	alerts, _, err := svc.Alerts(ctx)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestProcessService_ConfirmUnknownStillSaves(t *testing.T) {
	ctx := context.Background()
	svc, st, pub, rec := newTestService(t, scenarioProcess())

	outcome, err := svc.ConfirmPayment(ctx, Target{Process: "P2", Installment: 9})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, outcome)
	assert.Equal(t, 1, st.Saves())
	assert.Empty(t, pub.events, "nothing changed, nothing announced")
	assert.Equal(t, []string{"not_found"}, rec.outcomes)

	saved, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Process{scenarioProcess()}, saved)
}

func TestProcessService_AddProcess(t *testing.T) {
	ctx := context.Background()
	svc, st, pub, rec := newTestService(t)

	created, err := svc.AddProcess(ctx, NewProcess{
		ProcessDate:      d(2024, 2, 20),
		Number:           "P4",
		Counterparty:     "Gamma",
		ReceiptDate:      d(2024, 3, 1),
		Installments:     3,
		InstallmentValue: core.Reais(200, 0),
	})
	require.NoError(t, err)
	require.Len(t, created.Installments, 3)
	assert.Equal(t, "2024-05-30", created.Installments[2].DueDate.String())

	saved, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Process{created}, saved)
	assert.Equal(t, 1, rec.created)
	assert.Equal(t, []publishedEvent{{kind: "created", process: "P4"}}, pub.events)
}

func TestProcessService_AddProcessRejectsBeforeLoading(t *testing.T) {
	svc := NewProcessService(failingRepo{err: errors.New("must not be called")}, Options{})

	_, err := svc.AddProcess(context.Background(), NewProcess{Installments: 0})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotContains(t, err.Error(), "must not be called")
}

func TestProcessService_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	svc, st, pub, _ := newTestService(t, scenarioProcess())
	pub.err = errors.New("circuit breaker is open")

	outcome, err := svc.ConfirmPayment(ctx, Target{Process: "P2", Installment: 2})
	require.NoError(t, err)
	assert.Equal(t, OutcomeInstallmentPaid, outcome)

	saved, err := st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, saved[0].Installments[1].Paid)
}

func TestProcessService_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	repoErr := errors.New("disk full")
	svc := NewProcessService(failingRepo{err: repoErr}, Options{})

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, repoErr)

	_, _, err = svc.Alerts(ctx)
	assert.ErrorIs(t, err, repoErr)

	_, err = svc.ConfirmPayment(ctx, Target{Process: "P1"})
	assert.ErrorIs(t, err, repoErr)

	_, err = svc.AddProcess(ctx, NewProcess{Installments: 1})
	assert.ErrorIs(t, err, repoErr)
}

func TestProcessService_AlertsAtIsReadOnly(t *testing.T) {
	svc, st, _, _ := newTestService(t, scenarioProcess())

	_, err := svc.AlertsAt(context.Background(), d(2024, 1, 12))
	require.NoError(t, err)
	assert.Equal(t, 0, st.Saves())
}
