package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"processos/internal/core"
)

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

func installment(n int, reais int64, due core.Date, paid bool) core.Installment {
	return core.Installment{Number: n, Value: core.Reais(reais, 0), DueDate: due, Paid: paid}
}

func TestDeriveAlerts_UpcomingReceipt(t *testing.T) {
	today := d(2024, 1, 10)
	processes := []core.Process{{
		ProcessDate:  d(2024, 1, 2),
		Number:       "P1",
		Counterparty: "ACME",
		ReceiptDate:  d(2024, 1, 11),
		Installments: []core.Installment{installment(1, 1000, d(2024, 2, 10), false)},
	}}

	alerts := DeriveAlerts(processes, today, DefaultLookaheadDays)

	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, KindProcess, a.Kind)
	assert.Equal(t, "P1", a.ProcessNum)
	assert.Equal(t, int64(100000), a.Total.Cents)
	assert.Equal(t, core.SinglePayment, a.PaymentType)
	assert.Equal(t, StatusUpcoming, a.Status(today))
	assert.Equal(t, "Data de recebimento próxima!", a.Message(today))
	assert.Equal(t, "2024-01-13", a.Expiration.String())
}

func TestDeriveAlerts_InstallmentDueToday(t *testing.T) {
	today := d(2024, 1, 10)
	processes := []core.Process{{
		Number:      "P2",
		ReceiptDate: d(2023, 12, 1),
		Installments: []core.Installment{
			installment(1, 500, d(2024, 1, 10), false),
			installment(2, 500, d(2024, 2, 9), false),
		},
	}}

	alerts := DeriveAlerts(processes, today, DefaultLookaheadDays)

	// The receipt alert expired on 2023-12-03 even though the receipt
	// date is still in the past.
	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, KindInstallment, a.Kind)
	assert.Equal(t, 1, a.InstallmentNumber)
	assert.Equal(t, StatusDueSoon, a.Status(today))
	assert.Equal(t, "Vencimento da parcela em 1 dia!", a.Message(today))
	assert.Equal(t, Target{Process: "P2", Installment: 1}, a.Target())
}

func TestDeriveAlerts_PassedReceiptWithinGrace(t *testing.T) {
	today := d(2024, 1, 10)
	processes := []core.Process{{
		Number:      "P2",
		ReceiptDate: d(2024, 1, 8),
		Installments: []core.Installment{
			installment(1, 500, d(2024, 1, 9), false),
			installment(2, 500, d(2024, 2, 7), false),
		},
	}}

	alerts := DeriveAlerts(processes, today, DefaultLookaheadDays)

	require.Len(t, alerts, 2)
	assert.Equal(t, KindProcess, alerts[0].Kind)
	assert.Equal(t, StatusPassed, alerts[0].Status(today))
	assert.Equal(t, "Data de recebimento já passou!", alerts[0].Message(today))
	assert.Equal(t, core.Parceled, alerts[0].PaymentType)
	assert.Equal(t, Target{Process: "P2"}, alerts[0].Target())

	assert.Equal(t, KindInstallment, alerts[1].Kind)
	assert.Equal(t, StatusPassed, alerts[1].Status(today))
	assert.Equal(t, "Parcela vencida!", alerts[1].Message(today))
}

func TestDeriveAlerts_PaidInstallmentsNeverAlert(t *testing.T) {
	today := d(2024, 1, 10)
	processes := []core.Process{{
		Number:       "P2",
		ReceiptDate:  d(2024, 1, 9),
		Installments: []core.Installment{installment(1, 500, d(2024, 1, 10), true)},
	}}

	alerts := DeriveAlerts(processes, today, DefaultLookaheadDays)

	require.Len(t, alerts, 1)
	assert.Equal(t, KindProcess, alerts[0].Kind, "process alert ignores payment state")
}

func TestDeriveAlerts_Windows(t *testing.T) {
	today := d(2024, 1, 10)
	tests := []struct {
		name      string
		receipt   core.Date
		due       core.Date
		lookahead int
		want      []AlertKind
	}{
		{"receipt at horizon", d(2024, 1, 12), d(2024, 3, 1), 2, []AlertKind{KindProcess}},
		{"receipt past horizon", d(2024, 1, 13), d(2024, 3, 1), 2, nil},
		{"wider lookahead", d(2024, 1, 13), d(2024, 3, 1), 5, []AlertKind{KindProcess}},
		{"zero lookahead", d(2024, 1, 11), d(2024, 3, 1), 0, nil},
		{"installment tomorrow", d(2024, 3, 1), d(2024, 1, 11), 2, []AlertKind{KindInstallment}},
		{"installment in two days", d(2024, 3, 1), d(2024, 1, 12), 2, nil},
		{"expiration equals today", d(2024, 1, 8), d(2024, 1, 8), 2, []AlertKind{KindProcess, KindInstallment}},
		{"expired yesterday", d(2024, 1, 7), d(2024, 1, 7), 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processes := []core.Process{{
				Number:       "P",
				ReceiptDate:  tt.receipt,
				Installments: []core.Installment{installment(1, 10, tt.due, false)},
			}}
			var kinds []AlertKind
			for _, a := range DeriveAlerts(processes, today, tt.lookahead) {
				kinds = append(kinds, a.Kind)
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestDeriveAlerts_Properties(t *testing.T) {
	today := d(2024, 1, 10)
	var processes []core.Process
	for i := -6; i <= 6; i++ {
		receipt := today.AddDays(i)
		processes = append(processes, core.Process{
			Number:      "P" + receipt.String(),
			ReceiptDate: receipt,
			Installments: []core.Installment{
				installment(1, 100, today.AddDays(i), false),
				installment(2, 100, today.AddDays(-i), i%2 == 0),
			},
		})
	}

	alerts := DeriveAlerts(processes, today, DefaultLookaheadDays)
	require.NotEmpty(t, alerts)

	lastProcess := -1
	for _, a := range alerts {
		assert.False(t, a.Expiration.Before(today), "expired alert %+v", a)
		if a.Kind == KindInstallment {
			assert.False(t, a.DueDate.After(today.AddDays(1)))
		} else {
			assert.False(t, a.ReceiptDate.After(today.AddDays(DefaultLookaheadDays)))
		}

		idx := -1
		for i, p := range processes {
			if p.Number == a.ProcessNum {
				idx = i
			}
		}
		assert.GreaterOrEqual(t, idx, lastProcess, "alerts follow process order")
		lastProcess = idx
	}

	// Deriving is pure: same inputs, same output, inputs untouched.
	snapshot := core.CloneAll(processes)
	assert.Equal(t, alerts, DeriveAlerts(processes, today, DefaultLookaheadDays))
	assert.Equal(t, snapshot, processes)
}

func TestDeriveAlerts_ZeroInstallments(t *testing.T) {
	today := d(2024, 1, 10)
	processes := []core.Process{{
		ProcessDate:  d(2024, 1, 2),
		Number:       "P0",
		Counterparty: "ACME",
		ReceiptDate:  d(2024, 1, 11),
	}}

	alerts := DeriveAlerts(processes, today, DefaultLookaheadDays)
	require.Len(t, alerts, 1)
	a := alerts[0]
	assert.Equal(t, KindProcess, a.Kind)
	assert.Equal(t, "P0", a.ProcessNum)
	assert.Equal(t, int64(0), a.Total.Cents)
	assert.Equal(t, core.SinglePayment, a.PaymentType)
	assert.Equal(t, StatusUpcoming, a.Status(today))
}

func TestDeriveAlerts_Empty(t *testing.T) {
	assert.Empty(t, DeriveAlerts(nil, d(2024, 1, 10), DefaultLookaheadDays))
}

func TestToday(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)

	now := time.Date(2024, 1, 11, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-10", Today(now, sp).String())
	assert.Equal(t, "2024-01-11", Today(now, nil).String())
}
