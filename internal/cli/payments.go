package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"aqve/internal/entities"
	"aqve/internal/service"
)

func (a *App) paymentsCommand() *cobra.Command {
	cmd := requireAuth(&cobra.Command{
		Use:     "payments",
		Aliases: []string{"pay"},
		Short:   "Manage payment methods and the wallet",
	})
	cmd.AddCommand(
		a.paymentsMethodsCommand(),
		a.paymentsAddCardCommand(),
		a.paymentsRemoveCommand(),
		a.paymentsDefaultCommand(),
		a.paymentsWalletCommand(),
		a.paymentsTopUpCommand(),
		a.paymentsTransactionsCommand(),
		a.paymentsPayCommand(),
	)
	return cmd
}

func (a *App) paymentsMethodsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List payment methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			methods, err := fetch(cmd.Context(), a.svc.Payments.Methods(), service.NoKey{})
			if err != nil {
				return err
			}
			t := &table{header: []string{"", "ID", "TYPE", "BRAND", "LAST4", "EXPIRES"}}
			for _, m := range methods {
				expires := "-"
				if m.ExpMonth > 0 {
					expires = fmt.Sprintf("%02d/%d", m.ExpMonth, m.ExpYear%100)
				}
				t.add(mark(m.IsDefault), m.ID, string(m.Type), orDash(m.Brand), orDash(m.Last4), expires)
			}
			return a.out.Print(methods, t)
		},
	}
}

func (a *App) paymentsAddCardCommand() *cobra.Command {
	var req entities.AddCardRequest
	cmd := &cobra.Command{
		Use:   "add-card",
		Short: "Add a card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.CardNumber, err = a.valueOr(cmd, req.CardNumber, "Card number: ", true); err != nil {
				return err
			}
			if req.CVV, err = a.valueOr(cmd, req.CVV, "CVV: ", true); err != nil {
				return err
			}
			m, err := a.svc.Payments.AddCard().Mutate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.out.Fields(m, "ID", m.ID, "Brand", m.Brand, "Last4", m.Last4, "Default", yesNo(m.IsDefault))
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.CardholderName, "name", "", "cardholder name")
	f.StringVar(&req.Expiry, "expiry", "", "expiry as MM/YY")
	f.StringVar(&req.CardNumber, "number", "", "card number (prompted when omitted)")
	f.StringVar(&req.CVV, "cvv", "", "security code (prompted when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("expiry")
	return cmd
}

func (a *App) paymentsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Delete a payment method",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.svc.Payments.DeleteMethod().Mutate(cmd.Context(), args[0])
			return err
		},
	}
}

func (a *App) paymentsDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "default ID",
		Short: "Make a payment method the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.svc.Payments.SetDefaultMethod().Mutate(cmd.Context(), args[0])
			return err
		},
	}
}

func (a *App) printWallet(w entities.WalletBalance) error {
	return a.out.Fields(w, "Balance", money(w.Balance)+" "+w.Currency)
}

func (a *App) paymentsWalletCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet",
		Short: "Show the wallet balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := fetch(cmd.Context(), a.svc.Payments.Wallet(), service.NoKey{})
			if err != nil {
				return err
			}
			return a.printWallet(w)
		},
	}
}

func (a *App) paymentsTopUpCommand() *cobra.Command {
	var method string
	cmd := &cobra.Command{
		Use:   "topup AMOUNT",
		Short: "Add funds to the wallet from a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := entities.NewMoney(args[0])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}
			w, err := a.svc.Payments.TopUp().Mutate(cmd.Context(), service.TopUpVars{Amount: amount, MethodID: method})
			if err != nil {
				return err
			}
			return a.printWallet(w)
		},
	}
	cmd.Flags().StringVar(&method, "card", "", "payment method id of the card to charge")
	_ = cmd.MarkFlagRequired("card")
	return cmd
}

func (a *App) paymentsTransactionsCommand() *cobra.Command {
	var (
		filter entities.TransactionFilter
		typ    string
	)
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List wallet and card transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter.Type = entities.TransactionType(typ)
			res, err := fetch(cmd.Context(), a.svc.Payments.Transactions(), filter)
			if err != nil {
				return err
			}
			t := &table{header: []string{"ID", "DATE", "TYPE", "AMOUNT", "STATUS", "DESCRIPTION"}}
			for _, tx := range res.Transactions {
				t.add(tx.ID, when(tx.CreatedAt), string(tx.Type), money(tx.Amount), tx.Status, tx.Description)
			}
			if err := a.out.Print(res, t); err != nil {
				return err
			}
			if a.format == formatTable && res.Total > len(res.Transactions) {
				fmt.Fprintf(cmd.OutOrStdout(), "showing %d of %d\n", len(res.Transactions), res.Total)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&typ, "type", "", "payment, refund or topup")
	f.IntVar(&filter.Page, "page", 0, "page number")
	f.IntVar(&filter.Limit, "limit", 0, "page size")
	return cmd
}

// paymentsPayCommand settles what a booking still owes. Without --amount
// the backend charges the full amount due.
func (a *App) paymentsPayCommand() *cobra.Command {
	var method, amount string
	cmd := &cobra.Command{
		Use:   "pay BOOKING_ID",
		Short: "Pay for a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := entities.ProcessPaymentRequest{BookingID: args[0], PaymentMethodID: method}
			if amount != "" {
				m, err := entities.NewMoney(amount)
				if err != nil {
					return fmt.Errorf("amount %q: %w", amount, err)
				}
				req.Amount = m
			}
			res, err := a.svc.Payments.Process().Mutate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.out.Fields(res,
				"Payment", res.ID,
				"Booking", res.BookingID,
				"Amount", money(res.Amount),
				"Status", string(res.Status),
				"Transaction", orDash(res.TransactionID),
			)
		},
	}
	cmd.Flags().StringVar(&method, "with", "wallet", `payment method id, or "wallet"`)
	cmd.Flags().StringVar(&amount, "amount", "", "amount to pay; must match what is due")
	return cmd
}
