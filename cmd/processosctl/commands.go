package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"processos/internal/core"
	"processos/internal/services"
)

type processService interface {
	Today() core.Date
	List(ctx context.Context) ([]core.Process, error)
	AlertsAt(ctx context.Context, today core.Date) ([]services.Alert, error)
	AddProcess(ctx context.Context, in services.NewProcess) (core.Process, error)
	ConfirmPayment(ctx context.Context, target services.Target) (services.Outcome, error)
}

// serviceOpener builds the service for one command run. The returned func
// releases the backend.
type serviceOpener func(ctx context.Context) (processService, func() error, error)

func newRootCmd(open serviceOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "processosctl",
		Short:         "Manage legal processes and their installment alerts",
		SilenceUsage: true,
	}
	root.AddCommand(
		newAlertsCmd(open),
		newListCmd(open),
		newAddCmd(open),
		newConfirmCmd(open),
	)
	return root
}

// withService opens the service, runs fn and closes the backend.
func withService(cmd *cobra.Command, open serviceOpener, fn func(ctx context.Context, svc processService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	runErr := fn(ctx, svc)
	if closeFn != nil {
		if err := closeFn(); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func newAlertsCmd(open serviceOpener) *cobra.Command {
	var (
		date      string
		lookahead int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show receipts and installments that need attention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc processService) error {
				today := svc.Today()
				if date != "" {
					d, err := core.ParseDate(date)
					if err != nil {
						return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", date)
					}
					today = d
				}

				var alerts []services.Alert
				if cmd.Flags().Changed("lookahead") {
					if lookahead < 0 {
						return fmt.Errorf("invalid --lookahead %d: must not be negative", lookahead)
					}
					processes, err := svc.List(ctx)
					if err != nil {
						return err
					}
					alerts = services.DeriveAlerts(processes, today, lookahead)
				} else {
					var err error
					if alerts, err = svc.AlertsAt(ctx, today); err != nil {
						return err
					}
				}

				if asJSON {
					return writeAlertsJSON(cmd.OutOrStdout(), alerts, today)
				}
				return writeAlerts(cmd.OutOrStdout(), alerts, today)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "evaluate alerts as of this day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&lookahead, "lookahead", services.DefaultLookaheadDays, "days before the receipt date a process alerts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newListCmd(open serviceOpener) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every process with its installments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc processService) error {
				processes, err := svc.List(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(processes)
				}
				return writeProcesses(cmd.OutOrStdout(), processes)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAddCmd(open serviceOpener) *cobra.Command {
	var (
		processDate  string
		number       string
		counterparty string
		receiptDate  string
		installments int
		value        string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a process and its installment schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc processService) error {
				in := services.NewProcess{
					ProcessDate:  svc.Today(),
					Number:       number,
					Counterparty: counterparty,
					Installments: installments,
				}
				if processDate != "" {
					d, err := core.ParseDate(processDate)
					if err != nil {
						return fmt.Errorf("invalid --data-processo %q: use YYYY-MM-DD", processDate)
					}
					in.ProcessDate = d
				}
				d, err := core.ParseDate(receiptDate)
				if err != nil {
					return fmt.Errorf("invalid --recebimento %q: use YYYY-MM-DD", receiptDate)
				}
				in.ReceiptDate = d
				m, err := core.ParseMoney(value)
				if err != nil {
					return fmt.Errorf("invalid --valor %q", value)
				}
				in.InstallmentValue = m

				created, err := svc.AddProcess(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processo %s adicionado com %d parcela(s).\n",
					created.Number, len(created.Installments))
				return writeProcesses(cmd.OutOrStdout(), []core.Process{created})
			})
		},
	}
	cmd.Flags().StringVar(&processDate, "data-processo", "", "process date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&number, "numero", "", "process number")
	cmd.Flags().StringVar(&counterparty, "contra", "", "counterparty")
	cmd.Flags().StringVar(&receiptDate, "recebimento", "", "receipt date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&installments, "parcelas", services.MinInstallments, "number of installments (1-30)")
	cmd.Flags().StringVar(&value, "valor", "0", "value of each installment")
	_ = cmd.MarkFlagRequired("numero")
	_ = cmd.MarkFlagRequired("recebimento")
	return cmd
}

func newConfirmCmd(open serviceOpener) *cobra.Command {
	var installment int
	cmd := &cobra.Command{
		Use:   "confirm <numero_processo>",
		Short: "Mark a process or one of its installments as paid",
		Long: `Without --parcela the whole process is removed from the collection.
With --parcela only that installment is marked as paid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("parcela") && installment < 1 {
				return fmt.Errorf("invalid --parcela %d: installments are numbered from 1", installment)
			}
			return withService(cmd, open, func(ctx context.Context, svc processService) error {
				target := services.Target{Process: args[0], Installment: installment}
				outcome, err := svc.ConfirmPayment(ctx, target)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch outcome {
				case services.OutcomeProcessRemoved:
					fmt.Fprintln(out, "Processo marcado como pago!")
				case services.OutcomeInstallmentPaid:
					fmt.Fprintln(out, "Parcela marcada como paga!")
				default:
					label := target.Process
					if target.Installment > 0 {
						label += " parcela " + strconv.Itoa(target.Installment)
					}
					return fmt.Errorf("nothing to confirm for %s", label)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&installment, "parcela", 0, "installment number (omit to retire the whole process)")
	return cmd
}
