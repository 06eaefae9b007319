// Package services provides business logic and orchestration services.
//
// This file implements alert derivation: given the process collection and the
// current day it computes which receipts and installments need attention.
package services

import (
	"time"

	"processos/internal/core"
)

const (
	// DefaultLookaheadDays is how many days before the receipt date a process
	// starts raising an alert.
	DefaultLookaheadDays = 2

	// installmentLookaheadDays is fixed: installments alert one day ahead.
	installmentLookaheadDays = 1

	// expirationGraceDays is how long an alert survives its trigger date.
	expirationGraceDays = 2
)

const (
	KindProcess     AlertKind = "process"
	KindInstallment AlertKind = "installment"
)

const (
	StatusUpcoming AlertStatus = "upcoming"
	StatusDueSoon  AlertStatus = "due_soon"
	StatusPassed   AlertStatus = "passed"
)

type (
	AlertKind   string
	AlertStatus string

	// Alert is a derived notice. Process alerts fill the process fields,
	// installment alerts fill InstallmentNumber, Value and DueDate.
	Alert struct {
		Kind         AlertKind
		ProcessNum   string
		Counterparty string
		Expiration   core.Date

		ProcessDate core.Date
		ReceiptDate core.Date
		Total       core.Money
		PaymentType core.PaymentType

		InstallmentNumber int
		Value             core.Money
		DueDate           core.Date
	}
)

// Today returns the calendar day of now in loc (UTC when loc is nil).
func Today(now time.Time, loc *time.Location) core.Date {
	if loc != nil {
		now = now.In(loc)
	}
	return core.DateOf(now)
}

// DeriveAlerts returns the active alerts for today. Alerts keep the process
// iteration order; a process alert precedes the installment alerts of the
// same process. Alerts whose expiration is before today are dropped even if
// the triggering condition still holds.
func DeriveAlerts(processes []core.Process, today core.Date, lookaheadDays int) []Alert {
	processHorizon := today.AddDays(lookaheadDays)
	installmentHorizon := today.AddDays(installmentLookaheadDays)

	var alerts []Alert
	for _, p := range processes {
		if !p.ReceiptDate.After(processHorizon) {
			alerts = append(alerts, Alert{
				Kind:         KindProcess,
				ProcessNum:   p.Number,
				Counterparty: p.Counterparty,
				ProcessDate:  p.ProcessDate,
				ReceiptDate:  p.ReceiptDate,
				Total:        p.Total(),
				PaymentType:  p.PaymentType(),
				Expiration:   p.ReceiptDate.AddDays(expirationGraceDays),
			})
		}

		for _, inst := range p.Installments {
			if inst.Paid || inst.DueDate.After(installmentHorizon) {
				continue
			}
			alerts = append(alerts, Alert{
				Kind:              KindInstallment,
				ProcessNum:        p.Number,
				Counterparty:      p.Counterparty,
				InstallmentNumber: inst.Number,
				Value:             inst.Value,
				DueDate:           inst.DueDate,
				Expiration:        inst.DueDate.AddDays(expirationGraceDays),
			})
		}
	}

	active := alerts[:0]
	for _, a := range alerts {
		if !a.Expiration.Before(today) {
			active = append(active, a)
		}
	}
	return active
}

// Status classifies the urgency of the alert relative to today.
func (a Alert) Status(today core.Date) AlertStatus {
	switch a.Kind {
	case KindProcess:
		if a.ReceiptDate.Before(today) {
			return StatusPassed
		}
		return StatusUpcoming
	default:
		if a.DueDate.Before(today) {
			return StatusPassed
		}
		return StatusDueSoon
	}
}

// Message is the operator-facing status line for the alert.
func (a Alert) Message(today core.Date) string {
	status := a.Status(today)
	if a.Kind == KindProcess {
		if status == StatusPassed {
			return "Data de recebimento já passou!"
		}
		return "Data de recebimento próxima!"
	}
	if status == StatusPassed {
		return "Parcela vencida!"
	}
	return "Vencimento da parcela em 1 dia!"
}

// Target returns the confirmation that retires this alert.
func (a Alert) Target() Target {
	if a.Kind == KindProcess {
		return Target{Process: a.ProcessNum}
	}
	return Target{Process: a.ProcessNum, Installment: a.InstallmentNumber}
}
