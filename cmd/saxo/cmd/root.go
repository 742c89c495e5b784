package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/saxo/config"
	"github.com/rustyeddy/saxo/saxo"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "saxo",
	Short: "A command-line client for the Saxo-style OpenAPI trading gateway",
	Long: `Saxo is a command-line client for a Saxo-style OpenAPI trading gateway.

It provides tools for:
  - Authenticating with account credentials or an existing access token
  - Listing accounts, positions, orders and balances
  - Placing, modifying and cancelling orders
  - Journaling every order submission to CSV or SQLite

Credentials are read from the environment (or a .env file):
  SAXO_TOKEN     use an existing access token, or
  SAXO_USERID and SAXO_PASSWORD to run the login flow.`,
}

var cfgPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		// A missing .env file is fine; the variables may be set directly.
		_ = godotenv.Load()
	})
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
}

// newClient loads the config file, resolves credentials from the
// environment, and constructs the authenticated client.
func newClient(ctx context.Context) (*saxo.Client, *config.Config, error) {
	if cfgPath == "" {
		return nil, nil, fmt.Errorf("pass a config file with --config")
	}
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var creds saxo.Credentials
	switch {
	case os.Getenv("SAXO_TOKEN") != "":
		creds = saxo.TokenCredentials(os.Getenv("SAXO_TOKEN"))
	case os.Getenv("SAXO_USERID") != "":
		creds = saxo.AccountCredentials(os.Getenv("SAXO_USERID"), os.Getenv("SAXO_PASSWORD"))
	default:
		return nil, nil, fmt.Errorf("set SAXO_TOKEN, or SAXO_USERID and SAXO_PASSWORD")
	}

	client, err := saxo.NewClient(ctx, cfg.AppConfigValue(), creds)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}
	return client, cfg, nil
}

// findAccount picks the named account, or the only active one when key is
// empty.
func findAccount(ctx context.Context, client *saxo.Client, key string) (saxo.Account, error) {
	accounts, err := client.Accounts(ctx)
	if err != nil {
		return saxo.Account{}, fmt.Errorf("list accounts: %w", err)
	}
	if key == "" {
		for _, a := range accounts {
			if a.Active {
				return a, nil
			}
		}
		return saxo.Account{}, fmt.Errorf("no active account")
	}
	for _, a := range accounts {
		if a.Key == key || a.ID == key {
			return a, nil
		}
	}
	return saxo.Account{}, fmt.Errorf("account %q not found", key)
}
