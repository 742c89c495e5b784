package cmd

import (
	"fmt"

	"github.com/rustyeddy/saxo/broker"
	"github.com/rustyeddy/saxo/config"
	"github.com/rustyeddy/saxo/journal"
	"github.com/rustyeddy/saxo/pkg/id"
	"github.com/spf13/cobra"
)

var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "Place a buy order",
	Long: `Place a buy order and report how it resolved.

The gateway may execute the order immediately, in which case the submission
resolves to a position rather than a working order; the output says which.

Example:
  saxo -f saxo.yaml buy --uic 21 --qty 10000 --type limit --price 1.0850`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, broker.Buy)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell",
	Short: "Place a sell order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, broker.Sell)
	},
}

var (
	tradeAccountKey string
	tradeUic        int
	tradeQty        float64
	tradeType       string
	tradePrice      float64
	tradeStopLimit  float64
	tradeAssetType  string
)

func init() {
	for _, c := range []*cobra.Command{buyCmd, sellCmd} {
		rootCmd.AddCommand(c)
		c.Flags().StringVarP(&tradeAccountKey, "account", "a", "", "account id or key (default: first active)")
		c.Flags().IntVar(&tradeUic, "uic", 0, "instrument UIC (required)")
		c.Flags().Float64Var(&tradeQty, "qty", 0, "order quantity (required)")
		c.Flags().StringVar(&tradeType, "type", "market", "order type: market, limit, stop, stop_limit")
		c.Flags().Float64Var(&tradePrice, "price", 0, "order price (limit and stop_limit)")
		c.Flags().Float64Var(&tradeStopLimit, "stop", 0, "stop trigger price (stop orders)")
		c.Flags().StringVar(&tradeAssetType, "asset", "", "asset type (default FxSpot)")
		c.MarkFlagRequired("uic")
		c.MarkFlagRequired("qty")
	}
}

func runTrade(cmd *cobra.Command, side broker.Side) error {
	ctx := cmd.Context()
	client, cfg, err := newClient(ctx)
	if err != nil {
		return err
	}

	account, err := findAccount(ctx, client, tradeAccountKey)
	if err != nil {
		return err
	}

	req := broker.OrderRequest{
		Uic:               tradeUic,
		Quantity:          tradeQty,
		OrderType:         broker.OrderType(tradeType),
		AssetType:         tradeAssetType,
		ExternalReference: id.New(),
	}
	if cmd.Flags().Changed("price") {
		req.Price = &tradePrice
	}
	if cmd.Flags().Changed("stop") {
		req.StopLimit = &tradeStopLimit
	}

	var outcome broker.OrderOutcome
	if side == broker.Buy {
		outcome, err = account.Buy(ctx, req)
	} else {
		outcome, err = account.Sell(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}

	if err := journalOutcome(cfg, account.Key, req, outcome); err != nil {
		return fmt.Errorf("journal order: %w", err)
	}

	switch outcome.Kind {
	case broker.OutcomePosition:
		p := outcome.Position
		fmt.Printf("executed immediately: position %s (from order %s) qty=%.0f @ %.5f\n",
			p.ID, p.OrderID, p.Quantity, p.Price)
	default:
		o := outcome.Order
		fmt.Printf("order %s %s: %s %s uic=%d qty=%.0f price=%.5f\n",
			o.ID, o.Status, o.Side, o.OrderType, o.Uic, o.Quantity, o.Price)
	}
	return nil
}

func journalOutcome(cfg *config.Config, accountKey string, req broker.OrderRequest, outcome broker.OrderOutcome) error {
	var j journal.Journal
	var err error
	switch cfg.Journal.Type {
	case "csv":
		j, err = journal.NewCSV(cfg.Journal.OrdersFile)
	case "sqlite":
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	defer j.Close()

	return j.RecordOrder(journal.FromOutcome(accountKey, req, outcome, id.New()))
}
