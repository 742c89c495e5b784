package saxo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rustyeddy/saxo/broker"
)

// Session is the resolved identity of an authenticated client. It is
// immutable after construction; there is exactly one session per Client and
// no renewal.
type Session struct {
	Token     string
	ClientID  string
	ClientKey string
	Name      string
}

// Client is the entry point to the gateway. Construction authenticates once
// and fetches the caller's own client identity; every subsequent operation is
// an independent request/response exchange with no shared mutable state, so a
// Client may be used from multiple goroutines.
type Client struct {
	cfg     AppConfig
	session Session
	tr      *transport
}

type clientMeBody struct {
	ClientID  string `json:"ClientId"`
	ClientKey string `json:"ClientKey"`
	Name      string `json:"Name"`
}

type accountBody struct {
	AccountID  string `json:"AccountId"`
	AccountKey string `json:"AccountKey"`
	Active     bool   `json:"Active"`
	Currency   string `json:"Currency"`
}

// NewClient resolves the credentials to an access token (running the login
// flow for account credentials), fetches the caller's client identity, and
// returns the ready client. Any authentication failure aborts construction;
// there is no partial client state.
func NewClient(ctx context.Context, cfg AppConfig, creds Credentials) (*Client, error) {
	return newClient(ctx, cfg, creds, nil)
}

// newClient additionally accepts an http.Client so tests can shorten
// timeouts; nil means a default client.
func newClient(ctx context.Context, cfg AppConfig, creds Credentials, httpClient *http.Client) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("app config: %w", err)
	}

	token := creds.token
	if creds.kind == credentialAccount {
		var err error
		token, err = authenticate(ctx, creds.username, creds.password, cfg)
		if err != nil {
			return nil, err
		}
	}

	c := &Client{
		cfg: cfg,
		tr:  newTransport(cfg.APIEndpoint, token, httpClient),
	}

	raw, err := c.tr.get(ctx, "/port/v1/clients/me", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch client identity: %w", err)
	}
	var me clientMeBody
	if err := json.Unmarshal(raw, &me); err != nil {
		return nil, fmt.Errorf("decode client identity: %w", err)
	}

	c.session = Session{
		Token:     token,
		ClientID:  me.ClientID,
		ClientKey: me.ClientKey,
		Name:      me.Name,
	}
	return c, nil
}

// ID returns the provider-assigned client identifier.
func (c *Client) ID() string { return c.session.ClientID }

// Key returns the client key used to scope portfolio requests.
func (c *Client) Key() string { return c.session.ClientKey }

// Name returns the client's display name.
func (c *Client) Name() string { return c.session.Name }

// Session returns a copy of the resolved session.
func (c *Client) Session() Session { return c.session }

// Accounts fetches the caller's accounts with their operations bound.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	raw, err := c.tr.get(ctx, "/port/v1/accounts/me", nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(raw)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(items))
	for _, item := range items {
		var body accountBody
		if err := json.Unmarshal(item, &body); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		accounts = append(accounts, Account{
			Account: broker.Account{
				ID:       body.AccountID,
				Key:      body.AccountKey,
				Active:   body.Active,
				Currency: body.Currency,
			},
			client: c,
		})
	}
	return accounts, nil
}

// The read-list operations below are deliberately lenient: any fetch failure
// yields an empty result instead of an error. Trading mutations, Balance,
// and PreCheckOrder propagate failures; this asymmetry is intentional.

// Positions lists the client's open positions, empty on failure.
func (c *Client) Positions(ctx context.Context) []broker.Position {
	positions, err := c.accountPositions(ctx, "")
	if err != nil {
		return []broker.Position{}
	}
	return positions
}

// Orders lists the client's open orders, empty on failure.
func (c *Client) Orders(ctx context.Context) []broker.Order {
	orders, err := c.accountOrders(ctx, "")
	if err != nil {
		return []broker.Order{}
	}
	return orders
}

// NetPositions lists the client's net positions, empty on failure.
func (c *Client) NetPositions(ctx context.Context) []broker.NetPosition {
	raw, err := c.portfolioList(ctx, "netpositions", "", nil)
	if err != nil {
		return []broker.NetPosition{}
	}
	out := make([]broker.NetPosition, 0, len(raw))
	for _, item := range raw {
		np, err := normalizeNetPosition(item)
		if err != nil {
			return []broker.NetPosition{}
		}
		out = append(out, np)
	}
	return out
}

// ClosedPositions lists the client's closed positions, empty on failure.
// The zero time for either bound leaves that bound open.
func (c *Client) ClosedPositions(ctx context.Context, opts ClosedPositionsOptions) []broker.ClosedPosition {
	params := url.Values{}
	if !opts.From.IsZero() {
		params.Set("FromDateTime", opts.From.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if !opts.To.IsZero() {
		params.Set("ToDateTime", opts.To.UTC().Format("2006-01-02T15:04:05Z"))
	}
	raw, err := c.portfolioList(ctx, "closedpositions", opts.AccountKey, params)
	if err != nil {
		return []broker.ClosedPosition{}
	}
	out := make([]broker.ClosedPosition, 0, len(raw))
	for _, item := range raw {
		cp, err := normalizeClosedPosition(item)
		if err != nil {
			return []broker.ClosedPosition{}
		}
		out = append(out, cp)
	}
	return out
}

// Exposure lists the client's instrument exposure, empty on failure.
func (c *Client) Exposure(ctx context.Context) []broker.Exposure {
	raw, err := c.portfolioList(ctx, "exposure", "", nil)
	if err != nil {
		return []broker.Exposure{}
	}
	out := make([]broker.Exposure, 0, len(raw))
	for _, item := range raw {
		ex, err := normalizeExposure(item)
		if err != nil {
			return []broker.Exposure{}
		}
		out = append(out, ex)
	}
	return out
}

// portfolioList fetches a /port/v1 collection. With no account key the
// request uses the me-scoped endpoint; otherwise it is scoped by
// ClientKey/AccountKey query parameters.
func (c *Client) portfolioList(ctx context.Context, resource, accountKey string, params url.Values) ([]json.RawMessage, error) {
	path := "/port/v1/" + resource + "/me"
	if accountKey != "" {
		path = "/port/v1/" + resource
		if params == nil {
			params = url.Values{}
		}
		params.Set("ClientKey", c.session.ClientKey)
		params.Set("AccountKey", accountKey)
	}
	raw, err := c.tr.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return decodeList(raw)
}

// accountPositions fetches positions, me-scoped when accountKey is empty.
// Used both by the lenient reads and by the reconciliation lookup, so it
// returns its error.
func (c *Client) accountPositions(ctx context.Context, accountKey string) ([]broker.Position, error) {
	items, err := c.portfolioList(ctx, "positions", accountKey, nil)
	if err != nil {
		return nil, err
	}
	out := make([]broker.Position, 0, len(items))
	for _, item := range items {
		pos, err := normalizePosition(item)
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

func (c *Client) accountOrders(ctx context.Context, accountKey string) ([]broker.Order, error) {
	items, err := c.portfolioList(ctx, "orders", accountKey, nil)
	if err != nil {
		return nil, err
	}
	out := make([]broker.Order, 0, len(items))
	for _, item := range items {
		ord, err := normalizeOrder(item)
		if err != nil {
			return nil, err
		}
		out = append(out, ord)
	}
	return out, nil
}

func (c *Client) accountBalance(ctx context.Context, accountKey string) (broker.Balance, error) {
	params := url.Values{
		"ClientKey":  {c.session.ClientKey},
		"AccountKey": {accountKey},
	}
	raw, err := c.tr.get(ctx, "/port/v1/balances", params)
	if err != nil {
		return broker.Balance{}, err
	}
	return normalizeBalance(raw)
}
