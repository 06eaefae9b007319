package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"processos/internal/core"
	"processos/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements store.Repository
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Process, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, numero_processo, contra_quem, data_processo, data_recebimento
		FROM processes
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	processes := []core.Process{}
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			id                        int64
			p                         core.Process
			processDate, receiptDate string
		)
		if err := rows.Scan(&id, &p.Number, &p.Counterparty, &processDate, &receiptDate); err != nil {
			return nil, fmt.Errorf("scan process: %w", err)
		}
		if p.ProcessDate, err = parseColumn("data_processo", processDate); err != nil {
			return nil, fmt.Errorf("process %s: %w", p.Number, err)
		}
		if p.ReceiptDate, err = parseColumn("data_recebimento", receiptDate); err != nil {
			return nil, fmt.Errorf("process %s: %w", p.Number, err)
		}
		byID[id] = len(processes)
		processes = append(processes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processes: %w", err)
	}

	instRows, err := r.db.QueryContext(ctx, `
		SELECT process_id, numero, valor_cents, vencimento, pago
		FROM installments
		ORDER BY process_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer instRows.Close()

	for instRows.Next() {
		var (
			processID int64
			inst      core.Installment
			dueDate   string
			paid      int64
		)
		if err := instRows.Scan(&processID, &inst.Number, &inst.Value.Cents, &dueDate, &paid); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		idx, ok := byID[processID]
		if !ok {
			slog.WarnContext(ctx, "Orphan installment skipped", "process_id", processID, "numero", inst.Number)
			continue
		}
		if inst.DueDate, err = parseColumn("vencimento", dueDate); err != nil {
			return nil, fmt.Errorf("process %s installment %d: %w", processes[idx].Number, inst.Number, err)
		}
		inst.Paid = paid != 0
		processes[idx].Installments = append(processes[idx].Installments, inst)
	}
	if err := instRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate installments: %w", err)
	}

	return processes, nil
}

// Save implements store.Repository. The previous collection is replaced
// inside a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, processes []core.Process) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM installments`); err != nil {
		return fmt.Errorf("clear installments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM processes`); err != nil {
		return fmt.Errorf("clear processes: %w", err)
	}

	insertProcess, err := tx.PrepareContext(ctx, `
		INSERT INTO processes (position, numero_processo, contra_quem, data_processo, data_recebimento)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare process insert: %w", err)
	}
	defer insertProcess.Close()

	insertInstallment, err := tx.PrepareContext(ctx, `
		INSERT INTO installments (process_id, position, numero, valor_cents, vencimento, pago)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare installment insert: %w", err)
	}
	defer insertInstallment.Close()

	for i, p := range processes {
		res, err := insertProcess.ExecContext(ctx, i, p.Number, p.Counterparty, p.ProcessDate.String(), p.ReceiptDate.String())
		if err != nil {
			return fmt.Errorf("insert process %s: %w", p.Number, err)
		}
		processID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("process %s id: %w", p.Number, err)
		}
		for j, inst := range p.Installments {
			paid := 0
			if inst.Paid {
				paid = 1
			}
			if _, err := insertInstallment.ExecContext(ctx, processID, j, inst.Number, inst.Value.Cents, inst.DueDate.String(), paid); err != nil {
				return fmt.Errorf("insert installment %d of %s: %w", inst.Number, p.Number, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Processes saved to SQLite", "count", len(processes))
	return nil
}

func parseColumn(column, value string) (core.Date, error) {
	d, err := core.ParseDate(value)
	if err != nil {
		var pe *core.ParseError
		if errors.As(err, &pe) {
			pe.Field = column
			return core.Date{}, pe
		}
		return core.Date{}, &core.ParseError{Field: column, Value: value, Err: err}
	}
	return d, nil
}
