// Package config loads the CLI's configuration file. The library itself
// takes an explicit saxo.AppConfig at construction; this package only exists
// so the command line has a place to keep application registration and
// journal settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/saxo/saxo"
	"gopkg.in/yaml.v3"
)

// Config is the CLI configuration.
type Config struct {
	App     AppConfig     `json:"app" yaml:"app"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// AppConfig mirrors the application registration with the gateway. Endpoints
// left empty default to the simulation environment.
type AppConfig struct {
	AppKey       string `json:"app_key" yaml:"app_key"`
	AppSecret    string `json:"app_secret" yaml:"app_secret"`
	RedirectURI  string `json:"redirect_uri" yaml:"redirect_uri"`
	APIEndpoint  string `json:"api_endpoint,omitempty" yaml:"api_endpoint,omitempty"`
	AuthEndpoint string `json:"auth_endpoint,omitempty" yaml:"auth_endpoint,omitempty"`
}

// JournalConfig selects where order submissions are recorded.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite", or "none"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.App.AppKey == "" {
		return fmt.Errorf("app.app_key is required")
	}
	if c.App.RedirectURI == "" {
		return fmt.Errorf("app.redirect_uri is required")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.OrdersFile == "" {
			return fmt.Errorf("journal.orders_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// AppConfigValue converts the file section into the client's AppConfig.
func (c *Config) AppConfigValue() saxo.AppConfig {
	return saxo.AppConfig{
		AppKey:       c.App.AppKey,
		AppSecret:    c.App.AppSecret,
		RedirectURI:  c.App.RedirectURI,
		APIEndpoint:  strings.TrimSuffix(c.App.APIEndpoint, "/"),
		AuthEndpoint: strings.TrimSuffix(c.App.AuthEndpoint, "/"),
	}
}

// Default returns a configuration pointing at the simulation environment.
func Default() *Config {
	return &Config{
		App: AppConfig{
			RedirectURI: "http://localhost:5000/callback",
		},
		Journal: JournalConfig{
			Type:       "csv",
			OrdersFile: "./orders.csv",
		},
	}
}
