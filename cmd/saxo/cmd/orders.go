package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List open orders",
	RunE:  runOrders,
}

func init() {
	rootCmd.AddCommand(ordersCmd)
}

func runOrders(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}

	orders := client.Orders(ctx)
	if len(orders) == 0 {
		fmt.Println("no open orders")
		return nil
	}
	for _, o := range orders {
		fmt.Printf("  %-12s %-4s %-10s uic=%-8d qty=%.0f price=%.5f %s\n",
			o.ID, o.Side, o.OrderType, o.Uic, o.Quantity, o.Price, o.Status)
	}
	return nil
}
