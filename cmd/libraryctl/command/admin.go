package command

import (
	"fmt"

	"libraryhub/internal/microservices/http-api/dto"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// desk and back-office commands; the server enforces the admin role
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Desk and back-office commands (admin role)",
}

var scanCmd = &cobra.Command{
	Use:   "scan [token]",
	Short: "Verify a pickup code and show its manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		loan, err := c.Scan(ctx, args[0])
		if err != nil {
			return err
		}
		printLoan(loan)
		fmt.Printf("\nhand over the books, then: libraryctl admin confirm %d\n", loan.LoanID)
		return nil
	},
}

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "List invoices of every reader",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		result, err := c.Invoices(ctx, true, status)
		if err != nil {
			return err
		}
		if len(result.Data) == 0 {
			fmt.Println("No invoices.")
			return nil
		}
		for _, inv := range result.Data {
			fmt.Printf("%-6d loan %-6d %-8s %3d days %10d VND  %s\n",
				inv.InvoiceID, inv.LoanID, inv.Status, inv.DaysOverdue, inv.AmountVND, inv.UserID)
		}
		return nil
	},
}

var markPaidCmd = &cobra.Command{
	Use:   "mark-paid [invoice_id]",
	Short: "Record payment of an overdue invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		var req dto.MarkPaidRequest
		req.Provider, _ = cmd.Flags().GetString("provider")
		req.TxRef, _ = cmd.Flags().GetString("ref")
		req.Note, _ = cmd.Flags().GetString("note")

		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		resp, err := c.MarkPaid(ctx, id, req)
		if err != nil {
			return err
		}
		success("Invoice %d paid: %d VND via %s (ref %s)",
			resp.Invoice.InvoiceID, resp.Transaction.AmountVND, resp.Transaction.Provider, resp.Transaction.TxRef)
		return nil
	},
}

var voidCmd = &cobra.Command{
	Use:   "void [invoice_id]",
	Short: "Waive an unpaid invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		note, _ := cmd.Flags().GetString("note")
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		inv, err := c.VoidInvoice(ctx, id, note)
		if err != nil {
			return err
		}
		success("Invoice %d is %s", inv.InvoiceID, inv.Status)
		return nil
	},
}

var runOverdueCmd = &cobra.Command{
	Use:   "run-overdue",
	Short: "Run the overdue sweep now",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := c.RunOverdue(ctx)
		if err != nil {
			return err
		}
		if res.LockHeld {
			color.Yellow("another sweep is running, nothing done")
			return nil
		}
		success("Sweep %s: %d candidates, %d escalated, %d invoiced, %d skipped, %d failed",
			res.Date, res.Candidates, res.Escalated, res.Invoiced, res.Skipped, res.Failed)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Payment reconciliation per provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		provider, _ := cmd.Flags().GetString("provider")
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		report, err := c.PaymentReport(ctx, from, to, provider)
		if err != nil {
			return err
		}
		for _, row := range report.Rows {
			fmt.Printf("%-14s %-10s %5d %12d VND\n", row.Provider, row.Status, row.Count, row.TotalVND)
		}
		fmt.Printf("collected: %d VND\n", report.TotalVND)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(scanCmd, invoicesCmd, markPaidCmd, voidCmd, runOverdueCmd, reportCmd,
		loanActionCmd("confirm", "Hand over a reserved loan", "borrowed"),
		loanActionCmd("return", "Check a loan back in", "returned"),
		loanActionCmd("lost", "Write off the copies of a loan", "marked lost"),
	)

	invoicesCmd.Flags().String("status", "", "unpaid, paid or void")
	markPaidCmd.Flags().String("provider", "", "cash (default), momo, zalopay, vnpay or bank_transfer")
	markPaidCmd.Flags().String("ref", "", "provider reference")
	markPaidCmd.Flags().String("note", "", "free text note")
	voidCmd.Flags().String("note", "", "reason for waiving")
	reportCmd.Flags().String("from", "", "first day, YYYY-MM-DD")
	reportCmd.Flags().String("to", "", "last day, YYYY-MM-DD")
	reportCmd.Flags().String("provider", "", "single provider")
}
