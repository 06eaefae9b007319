package http

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"processos/internal/core"
	"processos/internal/services"
)

func TestParseNewProcessForm(t *testing.T) {
	today := core.NewDate(2024, 1, 10)

	t.Run("full form", func(t *testing.T) {
		in, err := parseNewProcessForm(url.Values{
			"data_processo":    {"2024-01-05"},
			"numero_processo":  {"  0001234-56\x00 "},
			"contra_quem":      {"ACME Ltda"},
			"data_recebimento": {"2024-01-20"},
			"num_parcelas":     {"4"},
			"valor_parcela":    {"1250,75"},
		}, today)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-05", in.ProcessDate.String())
		assert.Equal(t, "0001234-56", in.Number)
		assert.Equal(t, "ACME Ltda", in.Counterparty)
		assert.Equal(t, "2024-01-20", in.ReceiptDate.String())
		assert.Equal(t, 4, in.Installments)
		assert.Equal(t, int64(125075), in.InstallmentValue.Cents)
	})

	t.Run("defaults", func(t *testing.T) {
		in, err := parseNewProcessForm(url.Values{"data_recebimento": {"2024-01-20"}}, today)
		require.NoError(t, err)
		assert.True(t, in.ProcessDate.Equal(today))
		assert.Equal(t, services.MinInstallments, in.Installments)
		assert.Equal(t, int64(0), in.InstallmentValue.Cents)
	})

	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"missing receipt date", url.Values{}, "data_recebimento"},
		{"bad process date", url.Values{"data_processo": {"ontem"}, "data_recebimento": {"2024-01-20"}}, "data_processo"},
		{"bad count", url.Values{"data_recebimento": {"2024-01-20"}, "num_parcelas": {"x"}}, "num_parcelas"},
		{"bad value", url.Values{"data_recebimento": {"2024-01-20"}, "valor_parcela": {"12a"}}, "valor_parcela"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseNewProcessForm(tt.form, today)
			var fe *FormError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestParseConfirmForm(t *testing.T) {
	target, err := parseConfirmForm(url.Values{"numero_processo": {"P1"}})
	require.NoError(t, err)
	assert.Equal(t, services.Target{Process: "P1"}, target)

	target, err = parseConfirmForm(url.Values{"numero_processo": {"P1"}, "parcela_numero": {"3"}})
	require.NoError(t, err)
	assert.Equal(t, services.Target{Process: "P1", Installment: 3}, target)

	target, err = parseConfirmForm(url.Values{"numero_processo": {"P1"}, "parcela_numero": {""}})
	require.NoError(t, err)
	assert.Equal(t, 0, target.Installment)

	for _, bad := range []string{"0", "-2", "um"} {
		_, err = parseConfirmForm(url.Values{"numero_processo": {"P1"}, "parcela_numero": {bad}})
		assert.Error(t, err, bad)
	}

	_, err = parseConfirmForm(url.Values{"parcela_numero": {"1"}})
	assert.Error(t, err)
}

func TestFormatReais(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{99999, "R$ 999,99"},
		{100000, "R$ 1.000,00"},
		{123456789, "R$ 1.234.567,89"},
		{-150050, "-R$ 1.500,50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatReais(core.Money{Cents: tt.cents}))
	}
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "abc", sanitizeInput("  a\x00b\x07c  "))
	assert.Equal(t, "linha\tcom tab", sanitizeInput("linha\tcom tab"))
}
