package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"processos/internal/core"
)

const (
	// installmentInterval is the spacing in days between installment due dates.
	installmentInterval = 30

	MinInstallments = 1
	MaxInstallments = 30
)

const (
	OutcomeNotFound Outcome = iota
	OutcomeProcessRemoved
	OutcomeInstallmentPaid
)

var (
	ErrInvalidInstallmentCount  = errors.New("installment count must be between 1 and 30")
	ErrNegativeInstallmentValue = errors.New("installment value cannot be negative")
)

type (
	// Target identifies what a confirmation retires. Installment 0 means the
	// process as a whole.
	Target struct {
		Process     string
		Installment int
	}

	// Outcome reports what ConfirmPayment changed.
	Outcome int

	// NewProcess is the input of AddProcess.
	NewProcess struct {
		ProcessDate      core.Date
		Number           string
		Counterparty     string
		ReceiptDate      core.Date
		Installments     int        `validate:"min=1,max=30"`
		InstallmentValue core.Money `validate:"gte=0"`
	}

	// ValidationError lists the rejected fields of a NewProcess.
	ValidationError struct {
		Fields []string
		errs   []error
	}
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessRemoved:
		return "process_removed"
	case OutcomeInstallmentPaid:
		return "installment_paid"
	default:
		return "not_found"
	}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.errs))
	for i, err := range e.errs {
		msgs[i] = err.Error()
	}
	return "invalid process: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error { return e.errs }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Money is range-checked on its cents.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if m, ok := field.Interface().(core.Money); ok {
			return m.Cents
		}
		return nil
	}, core.Money{})
	return v
}

// Validate checks the installment bounds. Duplicate numbers, empty
// counterparties and date ordering are accepted as given.
func (in NewProcess) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate process: %w", err)
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, fe.Field())
		switch fe.Field() {
		case "Installments":
			verr.errs = append(verr.errs, ErrInvalidInstallmentCount)
		case "InstallmentValue":
			verr.errs = append(verr.errs, ErrNegativeInstallmentValue)
		default:
			verr.errs = append(verr.errs, fe)
		}
	}
	return verr
}

// BuildProcess creates the process record with its installment schedule:
// installment i is due i*30 days after the receipt date, all unpaid.
func BuildProcess(in NewProcess) (core.Process, error) {
	if err := in.Validate(); err != nil {
		return core.Process{}, err
	}
	p := core.Process{
		ProcessDate:  in.ProcessDate,
		Number:       in.Number,
		Counterparty: in.Counterparty,
		ReceiptDate:  in.ReceiptDate,
		Installments: make([]core.Installment, 0, in.Installments),
	}
	for i := 1; i <= in.Installments; i++ {
		p.Installments = append(p.Installments, core.Installment{
			Number:  i,
			Value:   in.InstallmentValue,
			DueDate: in.ReceiptDate.AddDays(installmentInterval * i),
		})
	}
	return p, nil
}

// AddProcess appends a new process to a copy of the collection.
func AddProcess(processes []core.Process, in NewProcess) ([]core.Process, core.Process, error) {
	p, err := BuildProcess(in)
	if err != nil {
		return processes, core.Process{}, err
	}
	out := core.CloneAll(processes)
	out = append(out, p)
	return out, p, nil
}

// ConfirmPayment applies a confirmation to a copy of the collection. The
// first process with the target number is affected. Without an installment
// the whole process is removed; otherwise the matching installment is marked
// paid. Unknown processes or installments leave the collection unchanged.
func ConfirmPayment(processes []core.Process, target Target) ([]core.Process, Outcome) {
	idx := indexOfProcess(processes, target.Process)
	if idx < 0 {
		return core.CloneAll(processes), OutcomeNotFound
	}

	if target.Installment == 0 {
		out := make([]core.Process, 0, len(processes)-1)
		out = append(out, core.CloneAll(processes[:idx])...)
		out = append(out, core.CloneAll(processes[idx+1:])...)
		return out, OutcomeProcessRemoved
	}

	out := core.CloneAll(processes)
	for i := range out[idx].Installments {
		if out[idx].Installments[i].Number == target.Installment {
			out[idx].Installments[i].Paid = true
			return out, OutcomeInstallmentPaid
		}
	}
	return out, OutcomeNotFound
}

func indexOfProcess(processes []core.Process, number string) int {
	for i, p := range processes {
		if p.Number == number {
			return i
		}
	}
	return -1
}
