package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"processos/internal/core"
)

func newProcessInput() NewProcess {
	return NewProcess{
		ProcessDate:      d(2024, 2, 20),
		Number:           "P4",
		Counterparty:     "Gamma",
		ReceiptDate:      d(2024, 3, 1),
		Installments:     3,
		InstallmentValue: core.Reais(200, 0),
	}
}

func TestBuildProcess_Schedule(t *testing.T) {
	p, err := BuildProcess(newProcessInput())
	require.NoError(t, err)

	require.Len(t, p.Installments, 3)
	want := []string{"2024-03-31", "2024-04-30", "2024-05-30"}
	for i, inst := range p.Installments {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, want[i], inst.DueDate.String())
		assert.Equal(t, int64(20000), inst.Value.Cents)
		assert.False(t, inst.Paid)
	}
	assert.Equal(t, int64(60000), p.Total().Cents)
	assert.Equal(t, core.Parceled, p.PaymentType())
}

func TestNewProcess_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewProcess)
		wantErr error
		fields  []string
	}{
		{name: "minimum count", mutate: func(in *NewProcess) { in.Installments = 1 }},
		{name: "maximum count", mutate: func(in *NewProcess) { in.Installments = 30 }},
		{name: "zero value", mutate: func(in *NewProcess) { in.InstallmentValue = core.Money{} }},
		{name: "empty counterparty accepted", mutate: func(in *NewProcess) { in.Counterparty = "" }},
		{
			name:    "zero count",
			mutate:  func(in *NewProcess) { in.Installments = 0 },
			wantErr: ErrInvalidInstallmentCount,
			fields:  []string{"Installments"},
		},
		{
			name:    "too many",
			mutate:  func(in *NewProcess) { in.Installments = 31 },
			wantErr: ErrInvalidInstallmentCount,
			fields:  []string{"Installments"},
		},
		{
			name:    "negative value",
			mutate:  func(in *NewProcess) { in.InstallmentValue = core.Money{Cents: -1} },
			wantErr: ErrNegativeInstallmentValue,
			fields:  []string{"InstallmentValue"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newProcessInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.fields, verr.Fields)
		})
	}
}

func TestNewProcess_ValidateReportsEveryField(t *testing.T) {
	in := newProcessInput()
	in.Installments = 0
	in.InstallmentValue = core.Money{Cents: -500}

	err := in.Validate()
	assert.True(t, errors.Is(err, ErrInvalidInstallmentCount))
	assert.True(t, errors.Is(err, ErrNegativeInstallmentValue))
	assert.Contains(t, err.Error(), "invalid process")
}

func TestAddProcess_AppendsCopy(t *testing.T) {
	existing := []core.Process{{Number: "P1", ReceiptDate: d(2024, 1, 1)}}

	out, created, err := AddProcess(existing, newProcessInput())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Len(t, existing, 1, "input collection is untouched")
	assert.Equal(t, "P4", out[1].Number)
	assert.Equal(t, created, out[1])

	// Duplicate numbers are accepted.
	out, _, err = AddProcess(out, newProcessInput())
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestAddProcess_RejectsInvalid(t *testing.T) {
	in := newProcessInput()
	in.Installments = 40
	existing := []core.Process{{Number: "P1"}}

	out, _, err := AddProcess(existing, in)
	assert.Error(t, err)
	assert.Equal(t, existing, out)
}

func TestConfirmPayment(t *testing.T) {
	collection := func() []core.Process {
		return []core.Process{
			{
				Number:      "P1",
				ReceiptDate: d(2024, 1, 1),
				Installments: []core.Installment{
					installment(1, 100, d(2024, 1, 31), false),
					installment(2, 100, d(2024, 3, 1), false),
				},
			},
			{Number: "P2", ReceiptDate: d(2024, 1, 5)},
			{Number: "P1", ReceiptDate: d(2024, 2, 1)},
		}
	}

	t.Run("installment marked paid on first match", func(t *testing.T) {
		in := collection()
		out, outcome := ConfirmPayment(in, Target{Process: "P1", Installment: 2})
		assert.Equal(t, OutcomeInstallmentPaid, outcome)
		assert.True(t, out[0].Installments[1].Paid)
		assert.False(t, out[0].Installments[0].Paid)
		assert.False(t, in[0].Installments[1].Paid, "input collection is untouched")
	})

	t.Run("process removed keeps order", func(t *testing.T) {
		out, outcome := ConfirmPayment(collection(), Target{Process: "P1"})
		assert.Equal(t, OutcomeProcessRemoved, outcome)
		require.Len(t, out, 2)
		assert.Equal(t, "P2", out[0].Number)
		assert.Equal(t, "P1", out[1].Number)
		assert.Equal(t, "2024-02-01", out[1].ReceiptDate.String())
	})

	t.Run("confirming twice is idempotent", func(t *testing.T) {
		out, _ := ConfirmPayment(collection(), Target{Process: "P1", Installment: 1})
		again, outcome := ConfirmPayment(out, Target{Process: "P1", Installment: 1})
		assert.Equal(t, OutcomeInstallmentPaid, outcome)
		assert.Equal(t, out, again)
	})

	t.Run("unknown targets change nothing", func(t *testing.T) {
		for _, target := range []Target{
			{Process: "P9"},
			{Process: "P9", Installment: 1},
			{Process: "P1", Installment: 7},
		} {
			out, outcome := ConfirmPayment(collection(), target)
			assert.Equal(t, OutcomeNotFound, outcome, "%+v", target)
			assert.Equal(t, collection(), out)
		}
	})
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "process_removed", OutcomeProcessRemoved.String())
	assert.Equal(t, "installment_paid", OutcomeInstallmentPaid.String())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
}
