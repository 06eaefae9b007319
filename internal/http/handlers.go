package http

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"processos/internal/core"
	applog "processos/internal/log"
	"processos/internal/services"
)

const (
	msgProcessAdded     = "Processo adicionado com sucesso!"
	msgProcessPaid      = "Processo marcado como pago!"
	msgInstallmentPaid  = "Parcela marcada como paga!"
	msgTargetNotFound   = "Processo ou parcela não encontrado(a)."
	msgInvalidForm      = "Dados do formulário inválidos"
	msgInvalidDate      = "Data inválida, use AAAA-MM-DD"
	msgUnexpectedFailed = "Erro ao processar a solicitação. Tente novamente."
)

// alertView is one alert as rendered by alerts.html.
type alertView struct {
	Status       string
	IsProcess    bool
	ProcessNum   string
	Counterparty string
	Message      string
	Amount       string

	ProcessDate string
	ReceiptDate string
	PaymentType string

	InstallmentNumber int
	DueDate           string
}

type alertsData struct {
	Notice string
	Items  []alertView
}

type indexData struct {
	Today           string
	MinInstallments int
	MaxInstallments int
	Alerts          alertsData
}

func newAlertsData(alerts []services.Alert, today core.Date, notice string) alertsData {
	data := alertsData{Notice: notice, Items: make([]alertView, 0, len(alerts))}
	for _, a := range alerts {
		v := alertView{
			Status:       string(a.Status(today)),
			IsProcess:    a.Kind == services.KindProcess,
			ProcessNum:   a.ProcessNum,
			Counterparty: a.Counterparty,
			Message:      a.Message(today),
		}
		if v.IsProcess {
			v.Amount = formatReais(a.Total)
			v.ProcessDate = a.ProcessDate.Display()
			v.ReceiptDate = a.ReceiptDate.Display()
			v.PaymentType = a.PaymentType.Label()
		} else {
			v.Amount = formatReais(a.Value)
			v.InstallmentNumber = a.InstallmentNumber
			v.DueDate = a.DueDate.Display()
		}
		data.Items = append(data.Items, v)
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET, HEAD").Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)
	today := s.svc.Today()

	alerts, err := s.svc.AlertsAt(ctx, today)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to derive alerts", applog.FieldOperation, applog.OpAlerts, applog.FieldError, err)
		InternalServerError(msgUnexpectedFailed).Write(w)
		return
	}

	s.render(w, r, "index.html", indexData{
		Today:           today.String(),
		MinInstallments: services.MinInstallments,
		MaxInstallments: services.MaxInstallments,
		Alerts:          newAlertsData(alerts, today, ""),
	})
}

// handleAlerts renders the alerts partial. An optional ?date=YYYY-MM-DD
// evaluates the alerts as of that day.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	ctx := r.Context()
	today := s.svc.Today()
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			UnprocessableEntityError(msgInvalidDate).Write(w)
			return
		}
		today = d
	}

	alerts, err := s.svc.AlertsAt(ctx, today)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Failed to derive alerts",
			applog.FieldOperation, applog.OpAlerts, applog.FieldError, err)
		InternalServerError(msgUnexpectedFailed).Write(w)
		return
	}
	s.render(w, r, "alerts.html", newAlertsData(alerts, today, ""))
}

func (s *Server) handleCreateProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		BadRequestError(msgInvalidForm).Write(w)
		return
	}

	in, err := parseNewProcessForm(r.PostForm, s.svc.Today())
	if err != nil {
		var fe *FormError
		if errors.As(err, &fe) {
			UnprocessableEntityError(fe.Message).Write(w)
			return
		}
		BadRequestError(msgInvalidForm).Write(w)
		return
	}

	created, err := s.svc.AddProcess(ctx, in)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			logger.WarnContext(ctx, "Rejected process",
				applog.FieldOperation, applog.OpValidate,
				applog.FieldProcess, in.Number,
				applog.FieldError, err)
			UnprocessableEntityError(validationMessage(verr)).Write(w)
			return
		}
		logger.ErrorContext(ctx, "Failed to add process",
			applog.FieldOperation, applog.OpCreate,
			applog.FieldProcess, in.Number,
			applog.FieldError, err)
		InternalServerError(msgUnexpectedFailed).Write(w)
		return
	}

	NewHTMXResponse().
		TriggerProcessCreated(created.Number, len(created.Installments)).
		TriggerAlertsRefresh().
		TriggerFormReset().
		TriggerSuccessNotification(msgProcessAdded).
		BodyHTML(`<div class="success">` + msgProcessAdded + `</div>`).
		Write(w)
}

// handleConfirmPayment retires a process or installment and re-renders the
// alerts for today.
func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		BadRequestError(msgInvalidForm).Write(w)
		return
	}
	target, err := parseConfirmForm(r.PostForm)
	if err != nil {
		var fe *FormError
		if errors.As(err, &fe) {
			UnprocessableEntityError(fe.Message).Write(w)
			return
		}
		BadRequestError(msgInvalidForm).Write(w)
		return
	}

	outcome, err := s.svc.ConfirmPayment(ctx, target)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to confirm payment",
			applog.FieldOperation, applog.OpConfirm,
			applog.FieldProcess, target.Process,
			applog.FieldInstallment, target.Installment,
			applog.FieldError, err)
		InternalServerError(msgUnexpectedFailed).Write(w)
		return
	}

	var notice string
	switch outcome {
	case services.OutcomeProcessRemoved:
		notice = msgProcessPaid
	case services.OutcomeInstallmentPaid:
		notice = msgInstallmentPaid
	default:
		NotFoundError(msgTargetNotFound).Write(w)
		return
	}

	today := s.svc.Today()
	alerts, err := s.svc.AlertsAt(ctx, today)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to derive alerts",
			applog.FieldOperation, applog.OpAlerts, applog.FieldError, err)
		InternalServerError(msgUnexpectedFailed).Write(w)
		return
	}

	body, err := s.execute("alerts.html", newAlertsData(alerts, today, notice))
	if err != nil {
		logger.ErrorContext(ctx, "Alerts template execution failed",
			applog.FieldOperation, applog.OpRender, applog.FieldError, err)
		InternalServerError(msgUnexpectedFailed).Write(w)
		return
	}

	NewHTMXResponse().
		TriggerPaymentConfirmed(target.Process, target.Installment).
		TriggerSuccessNotification(notice).
		BodyHTML(body).
		Write(w)
}

func validationMessage(verr *services.ValidationError) string {
	var msgs []string
	if errors.Is(verr, services.ErrInvalidInstallmentCount) {
		msgs = append(msgs, "O número de parcelas deve estar entre 1 e 30.")
	}
	if errors.Is(verr, services.ErrNegativeInstallmentValue) {
		msgs = append(msgs, "O valor da parcela não pode ser negativo.")
	}
	if len(msgs) == 0 {
		return msgInvalidForm
	}
	return strings.Join(msgs, " ")
}

func (s *Server) execute(name string, data any) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// render executes a template into a buffer first so a failure never leaves a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	body, err := s.execute(name, data)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldOperation, applog.OpRender,
			"template", name,
			applog.FieldError, err)
		InternalServerError(msgUnexpectedFailed).Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}
