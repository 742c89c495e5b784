package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeFile(t, "saxo.yaml", `
app:
  app_key: app-key
  app_secret: app-secret
  redirect_uri: http://localhost:5000/callback
  api_endpoint: https://example.test/openapi
journal:
  type: csv
  orders_file: ./orders.csv
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "app-key", cfg.App.AppKey)
	assert.Equal(t, "csv", cfg.Journal.Type)

	app := cfg.AppConfigValue()
	assert.Equal(t, "app-key", app.AppKey)
	assert.Equal(t, "https://example.test/openapi", app.APIEndpoint)
	assert.Empty(t, app.AuthEndpoint, "unset endpoints are left for the client's defaults")
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeFile(t, "saxo.json", `{
		"app": {
			"app_key": "app-key",
			"redirect_uri": "http://localhost:5000/callback"
		},
		"journal": {"type": "sqlite", "db_path": "./orders.db"}
	}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "./orders.db", cfg.Journal.DBPath)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App: AppConfig{AppKey: "k", RedirectURI: "http://localhost:5000/callback"},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.App.AppKey = ""
	assert.ErrorContains(t, cfg.Validate(), "app_key")

	cfg = valid()
	cfg.App.RedirectURI = ""
	assert.ErrorContains(t, cfg.Validate(), "redirect_uri")

	cfg = valid()
	cfg.Journal.Type = "csv"
	assert.ErrorContains(t, cfg.Validate(), "orders_file")

	cfg = valid()
	cfg.Journal.Type = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "db_path")

	cfg = valid()
	cfg.Journal.Type = "ledger"
	assert.ErrorContains(t, cfg.Validate(), "journal.type")

	cfg = valid()
	cfg.Journal.Type = "none"
	assert.NoError(t, cfg.Validate())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "csv", cfg.Journal.Type)
	assert.NotEmpty(t, cfg.App.RedirectURI)
}
