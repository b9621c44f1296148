package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"sparks/internal/service"
)

func init() {
	creditCmd.Flags().Int64Var(&creditTelegramID, "user", 0, "Telegram id of the user to credit")
	creditCmd.Flags().Int64Var(&creditSparks, "sparks", 0, "Number of sparks to add")
	creditCmd.Flags().StringVar(&creditTON, "ton", "", "TON amount paid, e.g. 1.5")
	creditCmd.Flags().StringVar(&creditHash, "hash", "", "TON transaction hash")
	creditCmd.Flags().StringVar(&creditFrom, "from", "", "Sender wallet address")
	creditCmd.Flags().StringVar(&creditNote, "note", "", "Transaction description")
	_ = creditCmd.MarkFlagRequired("user")
	_ = creditCmd.MarkFlagRequired("sparks")
	rootCmd.AddCommand(creditCmd)
}

var (
	creditTelegramID int64
	creditSparks     int64
	creditTON        string
	creditHash       string
	creditFrom       string
	creditNote       string
)

var creditCmd = &cobra.Command{
	Use:   "credit",
	Short: "Credit sparks bought outside the app",
	Example: `  sparks credit --user 123456 --sparks 100
  sparks credit --user 123456 --sparks 500 --ton 2.5 --hash abc... --from EQ...`,
	RunE: runCredit,
}

func runCredit(cmd *cobra.Command, args []string) error {
	in := service.TopUp{
		Sparks:      creditSparks,
		TonHash:     creditHash,
		FromAddress: creditFrom,
		Description: creditNote,
	}
	if creditTON != "" {
		amount, err := decimal.NewFromString(creditTON)
		if err != nil {
			return fmt.Errorf("invalid --ton amount %q: %w", creditTON, err)
		}
		if !amount.IsPositive() {
			return fmt.Errorf("--ton must be positive")
		}
		in.TonAmount = &amount
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	user, err := a.users.ByTelegramID(ctx, creditTelegramID)
	if err != nil {
		return fmt.Errorf("user %d: %w", creditTelegramID, err)
	}
	in.UserID = user.ID

	tx, balance, err := a.ledger.CreditTopUp(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "credited %d sparks to %d (ref %s), balance %d\n",
		in.Sparks, creditTelegramID, tx.Reference, balance)
	return nil
}
