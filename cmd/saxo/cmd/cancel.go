package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [order-id]",
	Short: "Cancel one order, or all orders for an instrument",
	Long: `Cancel a single order by id, or with --uic every order on the
account for that instrument.

Examples:
  saxo -f saxo.yaml cancel 76000001
  saxo -f saxo.yaml cancel --uic 21`,
	RunE: runCancel,
}

var (
	cancelAccountKey string
	cancelUic        int
	cancelAssetType  string
)

func init() {
	rootCmd.AddCommand(cancelCmd)
	cancelCmd.Flags().StringVarP(&cancelAccountKey, "account", "a", "", "account id or key (default: first active)")
	cancelCmd.Flags().IntVar(&cancelUic, "uic", 0, "cancel all orders for this instrument")
	cancelCmd.Flags().StringVar(&cancelAssetType, "asset", "", "asset type (default FxSpot)")
}

func runCancel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) == 0 && cancelUic == 0 {
		return fmt.Errorf("pass an order id or --uic")
	}

	client, _, err := newClient(ctx)
	if err != nil {
		return err
	}
	account, err := findAccount(ctx, client, cancelAccountKey)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		if err := account.CancelOrder(ctx, args[0]); err != nil {
			return fmt.Errorf("cancel order %s: %w", args[0], err)
		}
		fmt.Printf("cancelled order %s\n", args[0])
		return nil
	}

	if err := account.CancelAllOrders(ctx, cancelAssetType, cancelUic); err != nil {
		return fmt.Errorf("cancel orders for uic %d: %w", cancelUic, err)
	}
	fmt.Printf("cancelled all orders for uic %d\n", cancelUic)
	return nil
}
