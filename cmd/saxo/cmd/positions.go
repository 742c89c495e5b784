package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List open positions",
	Long: `List the client's open positions.

Positions are a lenient read: when the gateway call fails the list is simply
empty, matching the library's behavior.`,
	RunE: runPositions,
}

func init() {
	rootCmd.AddCommand(positionsCmd)
}

func runPositions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	positions := client.Positions(ctx)
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return nil
	}
	for _, p := range positions {
		fmt.Printf("  %-12s uic=%-8d %-8s qty=%.0f open=%.5f value=%.5f %s\n",
			p.ID, p.Uic, p.Status, p.Quantity, p.Price, p.Value, p.Currency)
	}
	return nil
}
