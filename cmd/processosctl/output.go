package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"processos/internal/core"
	"processos/internal/services"
)

func writeAlerts(w io.Writer, alerts []services.Alert, today core.Date) error {
	if len(alerts) == 0 {
		_, err := fmt.Fprintln(w, "Nenhum processo ou parcela próximo(a) ou com data de recebimento/vencimento passada.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tPROCESSO\tCONTRA\tPARCELA\tVALOR\tDATA\tMENSAGEM")
	for _, a := range alerts {
		installment, value, date := "-", a.Total, a.ReceiptDate
		if a.Kind == services.KindInstallment {
			installment, value, date = strconv.Itoa(a.InstallmentNumber), a.Value, a.DueDate
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Status(today), a.ProcessNum, a.Counterparty, installment, value, date, a.Message(today))
	}
	return tw.Flush()
}

type alertJSON struct {
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Process     string     `json:"numero_processo"`
	Against     string     `json:"contra_quem"`
	Installment int        `json:"parcela_numero,omitempty"`
	Amount      core.Money `json:"valor"`
	Date        core.Date  `json:"data"`
	Expiration  core.Date  `json:"expira_em"`
	Message     string     `json:"mensagem"`
}

func writeAlertsJSON(w io.Writer, alerts []services.Alert, today core.Date) error {
	out := make([]alertJSON, 0, len(alerts))
	for _, a := range alerts {
		e := alertJSON{
			Kind:       string(a.Kind),
			Status:     string(a.Status(today)),
			Process:    a.ProcessNum,
			Against:    a.Counterparty,
			Amount:     a.Total,
			Date:       a.ReceiptDate,
			Expiration: a.Expiration,
			Message:    a.Message(today),
		}
		if a.Kind == services.KindInstallment {
			e.Installment, e.Amount, e.Date = a.InstallmentNumber, a.Value, a.DueDate
		}
		out = append(out, e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeProcesses(w io.Writer, processes []core.Process) error {
	if len(processes) == 0 {
		_, err := fmt.Fprintln(w, "Nenhum processo cadastrado.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCESSO\tCONTRA\tDATA PROCESSO\tRECEBIMENTO\tTIPO\tTOTAL")
	for _, p := range processes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Number, p.Counterparty, p.ProcessDate, p.ReceiptDate, p.PaymentType().Label(), p.Total())
		for _, inst := range p.Installments {
			paid := "pendente"
			if inst.Paid {
				paid = "paga"
			}
			fmt.Fprintf(tw, "  parcela %d\t\t\t%s\t%s\t%s\n", inst.Number, inst.DueDate, paid, inst.Value)
		}
	}
	return tw.Flush()
}
