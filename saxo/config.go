// Package saxo is a client for a Saxo-style OpenAPI trading gateway. It
// performs the browser-less authorization-code login, normalizes the
// gateway's external schema into the broker entity model, and runs the
// order-lifecycle reconciliation after submissions.
package saxo

import "fmt"

// Default endpoints point at the gateway's simulation environment. Live
// endpoints must be supplied explicitly through AppConfig.
const (
	SimAPIEndpoint  = "https://gateway.saxobank.com/sim/openapi"
	SimAuthEndpoint = "https://sim.logonvalidation.net"
)

// AppConfig identifies a registered application. Each client owns its own
// resolved config; there is no process-wide configuration.
type AppConfig struct {
	AppKey      string
	AppSecret   string
	RedirectURI string

	// APIEndpoint and AuthEndpoint default to the simulation environment
	// when empty.
	APIEndpoint  string
	AuthEndpoint string
}

func (c AppConfig) withDefaults() AppConfig {
	if c.APIEndpoint == "" {
		c.APIEndpoint = SimAPIEndpoint
	}
	if c.AuthEndpoint == "" {
		c.AuthEndpoint = SimAuthEndpoint
	}
	return c
}

func (c AppConfig) validate() error {
	if c.AppKey == "" {
		return fmt.Errorf("app key is required")
	}
	if c.RedirectURI == "" {
		return fmt.Errorf("redirect URI is required")
	}
	return nil
}

type credentialKind int

const (
	credentialToken credentialKind = iota
	credentialAccount
)

// Credentials selects how the client obtains its access token: either an
// already-issued token, or account credentials run through the login flow.
// Credentials are used once at construction and never persisted.
type Credentials struct {
	kind     credentialKind
	token    string
	username string
	password string
}

// TokenCredentials wraps an existing access token.
func TokenCredentials(token string) Credentials {
	return Credentials{kind: credentialToken, token: token}
}

// AccountCredentials carries a username/password pair for the login flow.
func AccountCredentials(username, password string) Credentials {
	return Credentials{kind: credentialAccount, username: username, password: password}
}
