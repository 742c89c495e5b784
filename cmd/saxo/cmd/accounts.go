package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List the client's accounts",
	RunE:  runAccounts,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Client %s (%s) key=%s\n\n", client.Name(), client.ID(), client.Key())

	accounts, err := client.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		state := "inactive"
		if a.Active {
			state = "active"
		}
		fmt.Printf("  %-10s key=%-12s %-8s %s\n", a.ID, a.Key, state, a.Currency)
	}
	return nil
}
