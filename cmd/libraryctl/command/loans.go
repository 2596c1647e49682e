package command

import (
	"fmt"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Reserve every book in the cart as a new loan",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		loan, err := c.Checkout(ctx)
		if err != nil {
			return err
		}
		success("Reserved loan %d (%s). Show the pickup code at the desk:", loan.LoanID, loan.Code)
		fmt.Printf("  libraryctl loans pickup %d\n", loan.LoanID)
		return nil
	},
}

var loansCmd = &cobra.Command{
	Use:   "loans",
	Short: "List your loans",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		page, _ := cmd.Flags().GetInt("page")
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		result, err := c.Loans(ctx, status, page, 20)
		if err != nil {
			return err
		}
		if len(result.Data) == 0 {
			fmt.Println("No loans.")
			return nil
		}
		for _, l := range result.Data {
			fmt.Printf("%-6d %-16s %-18s due %-10s renewed %d\n", l.LoanID, l.Code, statusColor(l.Status), orDash(l.DueDate), l.RenewCount)
		}
		if result.Pagination.HasNext {
			fmt.Printf("\nmore: --page %d\n", result.Pagination.Page+1)
		}
		return nil
	},
}

var loanGetCmd = &cobra.Command{
	Use:   "get [loan_id]",
	Short: "Show one loan with its items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		loan, err := c.Loan(ctx, id)
		if err != nil {
			return err
		}
		printLoan(loan)
		return nil
	},
}

var loanPickupCmd = &cobra.Command{
	Use:   "pickup [loan_id]",
	Short: "Get the pickup code for a reserved loan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		tok, err := c.PickupToken(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("Loan:    %d (%s)\n", tok.LoanID, tok.Code)
		fmt.Printf("URL:     %s\n", tok.URL)
		fmt.Printf("Expires: %s\n", tok.ExpiresAt.Format("2006-01-02 15:04 MST"))
		return nil
	},
}

// loanActionCmd builds the one-argument transition commands.
func loanActionCmd(action, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " [loan_id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, _, err := authedClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			loan, err := c.LoanAction(ctx, id, action)
			if err != nil {
				return err
			}
			success("Loan %d %s", loan.LoanID, done)
			printLoan(loan)
			return nil
		},
	}
}

var payCmd = &cobra.Command{
	Use:   "pay [invoice_id]",
	Short: "Pay an invoice online",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		provider, _ := cmd.Flags().GetString("provider")
		c, _, err := authedClient()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		txn, err := c.PayInvoice(ctx, id, provider)
		if err != nil {
			return err
		}
		success("Payment %d of %d VND started via %s (ref %s).", txn.TxnID, txn.AmountVND, txn.Provider, txn.TxRef)
		fmt.Println("The invoice is marked paid once the provider confirms.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkoutCmd, loansCmd, payCmd)
	payCmd.Flags().String("provider", "momo", "momo, zalopay, vnpay or bank_transfer")
	loansCmd.AddCommand(loanGetCmd, loanPickupCmd,
		loanActionCmd("cancel", "Cancel a reserved loan", "canceled"),
		loanActionCmd("renew", "Extend the due date of a borrowed loan", "renewed"),
	)
	loansCmd.Flags().String("status", "", "filter by status (pending, borrowed, overdue, returned, canceled, lost)")
	loansCmd.Flags().Int("page", 1, "page number")
}

func printLoan(l *dto.LoanResponse) {
	fmt.Printf("Loan %d  %s  %s\n", l.LoanID, l.Code, statusColor(l.Status))
	fmt.Printf("  user:    %s\n", l.UserID)
	fmt.Printf("  due:     %s (renewed %d)\n", orDash(l.DueDate), l.RenewCount)
	for _, it := range l.Items {
		fmt.Printf("  - book %d x%d %s\n", it.BookID, it.Quantity, it.Title)
	}
}

func statusColor(s models.LoanStatus) string {
	switch s {
	case models.LoanOverdue, models.LoanLost:
		return color.RedString(string(s))
	case models.LoanPending:
		return color.YellowString(string(s))
	case models.LoanBorrowed:
		return color.CyanString(string(s))
	default:
		return string(s)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
