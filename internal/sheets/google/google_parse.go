package google

import (
	"fmt"
	"strconv"
	"strings"

	"processos/internal/core"
)

// Column order of the processes sheet. One row per installment; a process
// without installments occupies a single row with the installment columns
// left empty.
const (
	colNumber = iota
	colCounterparty
	colProcessDate
	colReceiptDate
	colInstallment
	colValue
	colDueDate
	colPaid
	columnCount
)

var header = []interface{}{
	"numero_processo", "contra_quem", "data_processo", "data_recebimento",
	"parcela", "valor", "vencimento", "pago",
}

// parseRows groups sheet rows into processes. Consecutive rows with the same
// process number belong to the same process; order is preserved.
func parseRows(values [][]interface{}) ([]core.Process, error) {
	processes := []core.Process{}
	for i, raw := range values {
		row := toStrings(raw)
		number := safeGet(row, colNumber)
		if number == "" {
			continue
		}
		// Data starts on row 2.
		line := i + 2

		last := len(processes) - 1
		if last < 0 || processes[last].Number != number {
			p := core.Process{
				Number:       number,
				Counterparty: safeGet(row, colCounterparty),
			}
			var err error
			if p.ProcessDate, err = parseCell(row, colProcessDate, "data_processo"); err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			if p.ReceiptDate, err = parseCell(row, colReceiptDate, "data_recebimento"); err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			processes = append(processes, p)
			last++
		}

		if safeGet(row, colInstallment) == "" {
			continue
		}
		inst, err := parseInstallment(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		processes[last].Installments = append(processes[last].Installments, inst)
	}
	return processes, nil
}

func parseInstallment(row []string) (core.Installment, error) {
	var inst core.Installment

	raw := safeGet(row, colInstallment)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return inst, &core.ParseError{Field: "parcela", Value: raw, Err: err}
	}
	inst.Number = n

	raw = safeGet(row, colValue)
	if inst.Value, err = core.ParseMoney(raw); err != nil {
		return inst, &core.ParseError{Field: "valor", Value: raw, Err: err}
	}

	if inst.DueDate, err = parseCell(row, colDueDate, "vencimento"); err != nil {
		return inst, err
	}

	raw = safeGet(row, colPaid)
	if raw != "" {
		if inst.Paid, err = strconv.ParseBool(raw); err != nil {
			return inst, &core.ParseError{Field: "pago", Value: raw, Err: err}
		}
	}
	return inst, nil
}

// formatRows renders the collection, header included, as sheet values.
func formatRows(processes []core.Process) [][]interface{} {
	out := [][]interface{}{header}
	for _, p := range processes {
		base := []interface{}{p.Number, p.Counterparty, p.ProcessDate.String(), p.ReceiptDate.String()}
		if len(p.Installments) == 0 {
			out = append(out, append(base, "", "", "", ""))
			continue
		}
		for _, inst := range p.Installments {
			row := make([]interface{}, 0, columnCount)
			row = append(row, base...)
			row = append(row, inst.Number, inst.Value.String(), inst.DueDate.String(), inst.Paid)
			out = append(out, row)
		}
	}
	return out
}

func parseCell(row []string, col int, field string) (core.Date, error) {
	raw := safeGet(row, col)
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, &core.ParseError{Field: field, Value: raw, Err: err}
	}
	return d, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
