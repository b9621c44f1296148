package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sparks/internal/clock"
)

func init() {
	resetCmd.Flags().StringVar(&resetDate, "date", "", "Reference day to reset (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(resetCmd)
}

var resetDate string

var resetCmd = &cobra.Command{
	Use:   "reset-day",
	Short: "Zero the free task counters for a reference day",
	Long: `Run the daily reset sweep by hand. Purchased slots are kept.
The scheduler normally does this at midnight in the reference timezone.`,
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	day := a.calendar.Today()
	if resetDate != "" {
		day, err = clock.ParseDate(resetDate)
		if err != nil {
			return err
		}
	}

	n, err := a.entitlements.ResetAllForDay(context.Background(), day)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reset %d entitlement rows for %s\n", n, day)
	return nil
}
