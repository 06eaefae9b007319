// Package http provides HTTP server and handler implementations.
//
// This file turns form submissions into service inputs.
package http

import (
	"net/url"
	"strconv"
	"strings"

	"processos/internal/core"
	"processos/internal/services"
)

// FormError reports a field that could not be parsed. Message is shown to
// the operator as is.
type FormError struct {
	Field   string
	Message string
}

func (e *FormError) Error() string { return e.Field + ": " + e.Message }

// parseNewProcessForm reads the add-process form. Empty process dates fall
// back to today; the installment count defaults to 1 and the value to 0.
// Range checks are left to the service.
func parseNewProcessForm(form url.Values, today core.Date) (services.NewProcess, error) {
	in := services.NewProcess{
		ProcessDate:  today,
		Number:       sanitizeInput(form.Get("numero_processo")),
		Counterparty: sanitizeInput(form.Get("contra_quem")),
		Installments: services.MinInstallments,
	}

	if v := strings.TrimSpace(form.Get("data_processo")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return in, &FormError{Field: "data_processo", Message: "Data do processo inválida"}
		}
		in.ProcessDate = d
	}

	d, err := core.ParseDate(form.Get("data_recebimento"))
	if err != nil {
		return in, &FormError{Field: "data_recebimento", Message: "Data de recebimento inválida"}
	}
	in.ReceiptDate = d

	if v := strings.TrimSpace(form.Get("num_parcelas")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, &FormError{Field: "num_parcelas", Message: "Número de parcelas inválido"}
		}
		in.Installments = n
	}

	if v := strings.TrimSpace(form.Get("valor_parcela")); v != "" {
		m, err := core.ParseMoney(v)
		if err != nil {
			return in, &FormError{Field: "valor_parcela", Message: "Valor da parcela inválido"}
		}
		in.InstallmentValue = m
	}

	return in, nil
}

// parseConfirmForm reads a confirmation. A missing or empty parcela_numero
// targets the whole process.
func parseConfirmForm(form url.Values) (services.Target, error) {
	target := services.Target{Process: strings.TrimSpace(form.Get("numero_processo"))}
	if target.Process == "" {
		return target, &FormError{Field: "numero_processo", Message: "Número do processo obrigatório"}
	}
	if v := strings.TrimSpace(form.Get("parcela_numero")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return target, &FormError{Field: "parcela_numero", Message: "Número da parcela inválido"}
		}
		target.Installment = n
	}
	return target, nil
}
