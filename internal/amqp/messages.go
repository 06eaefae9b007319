package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"processos/internal/core"
	"processos/internal/services"
)

// Message types carried in the AMQP Type property and the envelope.
const (
	TypeProcessCreated   = "process.created"
	TypePaymentConfirmed = "payment.confirmed"
	TypeAlertDigest      = "alerts.digest"
)

// Message is anything the client can publish.
type Message interface {
	Meta() Envelope
	ToJSON() ([]byte, error)
}

// Envelope carries the fields shared by every message.
type Envelope struct {
	MessageID string    `json:"message_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func newEnvelope(typ string) Envelope {
	return Envelope{
		MessageID: uuid.NewString(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
	}
}

// ProcessCreatedMessage announces a new process with its installment schedule.
type ProcessCreatedMessage struct {
	Envelope
	Process core.Process `json:"processo"`
}

func NewProcessCreatedMessage(p core.Process) *ProcessCreatedMessage {
	return &ProcessCreatedMessage{Envelope: newEnvelope(TypeProcessCreated), Process: p.Clone()}
}

func (m *ProcessCreatedMessage) Meta() Envelope { return m.Envelope }

func (m *ProcessCreatedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

// PaymentConfirmedMessage announces a confirmation. Installment 0 means the
// whole process was retired.
type PaymentConfirmedMessage struct {
	Envelope
	ProcessNumber string `json:"numero_processo"`
	Installment   int    `json:"parcela_numero,omitempty"`
	Outcome       string `json:"outcome"`
}

func NewPaymentConfirmedMessage(processNumber string, installment int, outcome string) *PaymentConfirmedMessage {
	return &PaymentConfirmedMessage{
		Envelope:      newEnvelope(TypePaymentConfirmed),
		ProcessNumber: processNumber,
		Installment:   installment,
		Outcome:       outcome,
	}
}

func (m *PaymentConfirmedMessage) Meta() Envelope { return m.Envelope }

func (m *PaymentConfirmedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

// AlertEntry is one alert as carried in a digest.
type AlertEntry struct {
	Kind          string     `json:"kind"`
	ProcessNumber string     `json:"numero_processo"`
	Counterparty  string     `json:"contra_quem"`
	Installment   int        `json:"parcela_numero,omitempty"`
	Status        string     `json:"status"`
	Message       string     `json:"mensagem"`
	Expiration    core.Date  `json:"expira_em"`
	Amount        core.Money `json:"valor"`
}

// AlertDigestMessage is the alert set derived for one day.
type AlertDigestMessage struct {
	Envelope
	Today  core.Date    `json:"hoje"`
	Alerts []AlertEntry `json:"alertas"`
}

func NewAlertDigestMessage(today core.Date, alerts []services.Alert) *AlertDigestMessage {
	m := &AlertDigestMessage{
		Envelope: newEnvelope(TypeAlertDigest),
		Today:    today,
		Alerts:   make([]AlertEntry, 0, len(alerts)),
	}
	for _, a := range alerts {
		e := AlertEntry{
			Kind:          string(a.Kind),
			ProcessNumber: a.ProcessNum,
			Counterparty:  a.Counterparty,
			Installment:   a.InstallmentNumber,
			Status:        string(a.Status(today)),
			Message:       a.Message(today),
			Expiration:    a.Expiration,
			Amount:        a.Value,
		}
		if a.Kind == services.KindProcess {
			e.Amount = a.Total
		}
		m.Alerts = append(m.Alerts, e)
	}
	return m
}

func (m *AlertDigestMessage) Meta() Envelope { return m.Envelope }

func (m *AlertDigestMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

// AlertDigestFromJSON decodes a digest body.
func AlertDigestFromJSON(data []byte) (*AlertDigestMessage, error) {
	var msg AlertDigestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode alert digest: %w", err)
	}
	return &msg, nil
}
