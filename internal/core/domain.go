package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of every date field in persisted records.
const DateLayout = "2006-01-02"

const (
	Parceled      PaymentType = "Parceled"
	SinglePayment PaymentType = "Single payment"
)

type (
	// PaymentType is derived from the installment count and never stored.
	PaymentType string

	// Date is a calendar day. The time-of-day is always midnight UTC so that
	// comparisons happen at day granularity.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Installment is one scheduled payment (parcela) of a process.
	Installment struct {
		Number  int   `json:"numero"`
		Value   Money `json:"valor"`
		DueDate Date  `json:"vencimento"`
		Paid    bool  `json:"pago"`
	}

	// Process is a case awaiting payment.
	Process struct {
		ProcessDate  Date          `json:"data_processo"`
		Number       string        `json:"numero_processo"`
		Counterparty string        `json:"contra_quem"`
		ReceiptDate  Date          `json:"data_recebimento"`
		Installments []Installment `json:"parcelas"`
	}
)

var (
	ErrInvalidDay    = errors.New("invalid day")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrZeroDate      = errors.New("date cannot be zero")
)

// ParseError reports a date or amount that could not be decoded at the
// store boundary.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, &ParseError{Value: s, Err: err}
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// AddDays returns the date n calendar days later (earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// String returns the wire format (YYYY-MM-DD).
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display returns the date as DD/MM/YYYY.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Total returns the sum of all installment values, paid or not.
func (p Process) Total() Money {
	var total Money
	for _, inst := range p.Installments {
		total = total.Add(inst.Value)
	}
	return total
}

// PaymentType reports Parceled for more than one installment.
func (p Process) PaymentType() PaymentType {
	if len(p.Installments) > 1 {
		return Parceled
	}
	return SinglePayment
}

// Clone returns a deep copy so callers can mutate installments freely.
func (p Process) Clone() Process {
	out := p
	out.Installments = append([]Installment(nil), p.Installments...)
	return out
}

// Label is the Portuguese name shown to operators.
func (t PaymentType) Label() string {
	if t == Parceled {
		return "Parcelado"
	}
	return "À Vista"
}

// CloneAll deep-copies a collection.
func CloneAll(in []Process) []Process {
	if in == nil {
		return nil
	}
	out := make([]Process, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}
