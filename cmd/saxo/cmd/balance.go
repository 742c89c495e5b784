package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show an account's balance",
	RunE:  runBalance,
}

var balanceAccountKey string

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&balanceAccountKey, "account", "a", "", "account id or key (default: first active)")
}

func runBalance(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	account, err := findAccount(ctx, client, balanceAccountKey)
	if err != nil {
		return err
	}

	bal, err := account.Balance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}

	fmt.Printf("Account %s (%s)\n", account.ID, bal.Currency)
	fmt.Printf("  Cash balance:     %12.2f\n", bal.CashBalance)
	fmt.Printf("  Cash available:   %12.2f\n", bal.CashAvailable)
	fmt.Printf("  Total value:      %12.2f\n", bal.TotalValue)
	fmt.Printf("  Margin used:      %12.2f\n", bal.MarginUsed)
	fmt.Printf("  Margin available: %12.2f\n", bal.MarginAvailable)
	fmt.Printf("  Unrealized P/L:   %12.2f\n", bal.UnrealizedPnL)
	return nil
}
