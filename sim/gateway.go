// Package sim is an in-process stand-in for the trading gateway. It serves
// the same HTTP surface the client consumes — the redirect-driven login
// chain, the token endpoint, the portfolio reads, and the order endpoints —
// so flows can be exercised end to end without a provider account.
//
// A Gateway is not a market simulator: orders either stay working or, with
// FillOrders set, execute synchronously into positions. That switch is what
// makes the client's post-submission reconciliation paths testable.
package sim

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rustyeddy/saxo/pkg/id"
)

// Error is a provider error payload the gateway can be told to serve.
type Error struct {
	Code       string
	Message    string
	ModelState map[string]any
}

type order struct {
	OrderID           string  `json:"OrderId"`
	OrderTime         string  `json:"OrderTime"`
	Uic               int     `json:"Uic"`
	BuySell           string  `json:"BuySell"`
	OpenOrderType     string  `json:"OpenOrderType"`
	Status            string  `json:"Status"`
	Price             float64 `json:"Price"`
	Amount            float64 `json:"Amount"`
	ClientID          string  `json:"ClientId"`
	AccountID         string  `json:"AccountId"`
	ExchangeID        string  `json:"ExchangeId"`
	AssetType         string  `json:"AssetType"`
	ExternalReference string  `json:"ExternalReference,omitempty"`
}

type position struct {
	PositionID   string       `json:"PositionId"`
	PositionBase positionBase `json:"PositionBase"`
	PositionView positionView `json:"PositionView"`
}

type positionBase struct {
	Uic           int     `json:"Uic"`
	ClientID      string  `json:"ClientId"`
	AccountID     string  `json:"AccountId"`
	SourceOrderID string  `json:"SourceOrderId"`
	Amount        float64 `json:"Amount"`
	OpenPrice     float64 `json:"OpenPrice"`
	Status        string  `json:"Status"`
	Currency      string  `json:"Currency"`
}

type positionView struct {
	CurrentPrice float64 `json:"CurrentPrice"`
	ProfitLoss   float64 `json:"ProfitLoss"`
}

type account struct {
	AccountID  string `json:"AccountId"`
	AccountKey string `json:"AccountKey"`
	Active     bool   `json:"Active"`
	Currency   string `json:"Currency"`
}

// Gateway holds the simulated provider state. The zero value is not usable;
// call New.
type Gateway struct {
	mu sync.Mutex

	// Registered application and user. The login flow and token exchange
	// verify against these.
	AppKey   string
	Username string
	Password string

	// FillOrders makes every accepted order execute synchronously: the
	// order disappears and a position carrying its id as SourceOrderId
	// appears.
	FillOrders bool

	// OrderError, when set, makes order submission answer with this
	// provider error payload instead of accepting the order.
	OrderError *Error

	ClientID   string
	ClientKey  string
	ClientName string

	accounts  []account
	orders    map[string]*order
	positions map[string]*position
	closed    []position
	tokens    map[string]bool

	// single in-flight login
	pendingRedirect string
	pendingState    string
	sessionCookie   string
	pendingCode     string

	seq int
}

// New returns a gateway seeded with one client, one active account, and the
// given application/user registration.
func New(appKey, username, password string) *Gateway {
	return &Gateway{
		AppKey:     appKey,
		Username:   username,
		Password:   password,
		ClientID:   "90001",
		ClientKey:  "CK-90001",
		ClientName: "Sim Trader",
		accounts: []account{
			{AccountID: "ACC-1", AccountKey: "AK-1", Active: true, Currency: "USD"},
		},
		orders:    make(map[string]*order),
		positions: make(map[string]*position),
		tokens:    make(map[string]bool),
	}
}

// AcceptToken registers an access token as valid, for clients constructed
// from token credentials rather than the login flow.
func (g *Gateway) AcceptToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens[token] = true
}

// OpenOrders reports how many orders are currently working.
func (g *Gateway) OpenOrders() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.orders)
}

// Handler returns the gateway's HTTP surface.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	// Authentication chain.
	mux.HandleFunc("GET /authorize", g.handleAuthorize)
	mux.HandleFunc("POST /login", g.handleLogin)
	mux.HandleFunc("GET /login/callback", g.handleCallback)
	mux.HandleFunc("POST /token", g.handleToken)

	// Portfolio.
	mux.HandleFunc("GET /port/v1/clients/me", g.auth(g.handleClientsMe))
	mux.HandleFunc("GET /port/v1/accounts/me", g.auth(g.handleAccountsMe))
	mux.HandleFunc("GET /port/v1/positions/me", g.auth(g.handlePositions))
	mux.HandleFunc("GET /port/v1/positions", g.auth(g.handlePositions))
	mux.HandleFunc("GET /port/v1/orders/me", g.auth(g.handleOrders))
	mux.HandleFunc("GET /port/v1/orders", g.auth(g.handleOrders))
	mux.HandleFunc("GET /port/v1/netpositions/me", g.auth(g.handleNetPositions))
	mux.HandleFunc("GET /port/v1/closedpositions/me", g.auth(g.handleClosedPositions))
	mux.HandleFunc("GET /port/v1/closedpositions", g.auth(g.handleClosedPositions))
	mux.HandleFunc("GET /port/v1/exposure/me", g.auth(g.handleExposure))
	mux.HandleFunc("GET /port/v1/balances", g.auth(g.handleBalances))

	// Trading.
	mux.HandleFunc("POST /trade/v2/orders", g.auth(g.handleCreateOrder))
	mux.HandleFunc("GET /trade/v2/orders/{clientKey}/{orderID}", g.auth(g.handleGetOrder))
	mux.HandleFunc("PATCH /trade/v2/orders", g.auth(g.handleModifyOrder))
	mux.HandleFunc("DELETE /trade/v2/orders/{orderID}", g.auth(g.handleCancelOrder))
	mux.HandleFunc("DELETE /trade/v2/orders", g.auth(g.handleCancelAll))
	mux.HandleFunc("POST /trade/v2/orders/precheck", g.auth(g.handlePreCheck))

	return mux
}

func (g *Gateway) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := ""
		if h := r.Header.Get("Authorization"); len(h) > len("Bearer ") {
			token = h[len("Bearer "):]
		}
		g.mu.Lock()
		ok := g.tokens[token]
		g.mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid or missing token", nil)
			return
		}
		next(w, r)
	}
}

func (g *Gateway) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("response_type") != "code" || q.Get("client_id") != g.AppKey || q.Get("redirect_uri") == "" {
		http.Error(w, "bad authorize request", http.StatusBadRequest)
		return
	}
	g.mu.Lock()
	g.pendingRedirect = q.Get("redirect_uri")
	g.pendingState = q.Get("state")
	g.mu.Unlock()

	w.Header().Set("Location", "/login")
	w.WriteHeader(http.StatusFound)
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("field_userid") != g.Username || r.PostForm.Get("field_password") != g.Password {
		// A real login page re-renders with an error; the decisive signal
		// for the client is the missing Location header.
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html>invalid credentials</html>")
		return
	}

	cookie := "SIM_SESSION=" + id.New()
	g.mu.Lock()
	g.sessionCookie = cookie
	g.mu.Unlock()

	w.Header().Set("Set-Cookie", cookie)
	w.Header().Set("Location", "/login/callback")
	w.WriteHeader(http.StatusFound)
}

func (g *Gateway) handleCallback(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	cookie := g.sessionCookie
	redirect := g.pendingRedirect
	state := g.pendingState
	g.mu.Unlock()

	// No code is minted until the session cookie checks out; a stray hit
	// here must not disturb an in-flight login.
	if cookie == "" || r.Header.Get("Cookie") != cookie {
		http.Error(w, "no session", http.StatusForbidden)
		return
	}

	code := "AC-" + id.New()
	g.mu.Lock()
	g.pendingCode = code
	g.mu.Unlock()

	loc := redirect + "?" + url.Values{"code": {code}, "state": {state}}.Encode()
	w.Header().Set("Location", loc)
	w.WriteHeader(http.StatusFound)
}

func (g *Gateway) handleToken(w http.ResponseWriter, r *http.Request) {
	user, _, ok := r.BasicAuth()
	if !ok || user != g.AppKey {
		http.Error(w, "bad app credentials", http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	g.mu.Lock()
	code := g.pendingCode
	g.mu.Unlock()
	if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != code || code == "" {
		http.Error(w, "bad grant", http.StatusBadRequest)
		return
	}

	token := "ST-" + id.New()
	g.mu.Lock()
	g.tokens[token] = true
	g.pendingCode = ""
	g.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   1200,
	})
}

func (g *Gateway) handleClientsMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ClientId":  g.ClientID,
		"ClientKey": g.ClientKey,
		"Name":      g.ClientName,
	})
}

func (g *Gateway) handleAccountsMe(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"Data": g.accounts})
}

func (g *Gateway) handlePositions(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*position, 0, len(g.positions))
	for _, p := range g.positions {
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"Data": out})
}

func (g *Gateway) handleOrders(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*order, 0, len(g.orders))
	for _, o := range g.orders {
		out = append(out, o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"Data": out})
}

func (g *Gateway) handleNetPositions(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// One net position per instrument, aggregated over open positions.
	type netAgg struct {
		amount float64
		value  float64
		price  float64
		acct   string
		source string
		count  int
	}
	byUic := make(map[int]*netAgg)
	for _, p := range g.positions {
		agg := byUic[p.PositionBase.Uic]
		if agg == nil {
			agg = &netAgg{}
			byUic[p.PositionBase.Uic] = agg
		}
		agg.amount += p.PositionBase.Amount
		agg.value += p.PositionBase.Amount * p.PositionView.CurrentPrice
		agg.price = p.PositionBase.OpenPrice
		agg.acct = p.PositionBase.AccountID
		agg.source = p.PositionBase.SourceOrderID
		agg.count++
	}

	data := make([]map[string]any, 0, len(byUic))
	for uic, agg := range byUic {
		base := map[string]any{
			"Uic":              uic,
			"ClientId":         g.ClientID,
			"AccountId":        agg.acct,
			"Amount":           agg.amount,
			"AverageOpenPrice": agg.price,
			"Status":           "Open",
			"Currency":         "USD",
			"AssetType":        "FxSpot",
		}
		// A single-position net names its source order.
		if agg.count == 1 {
			base["SourceOrderId"] = agg.source
		}
		data = append(data, map[string]any{
			"NetPositionId":   fmt.Sprintf("NP-%d", uic),
			"NetPositionBase": base,
			"NetPositionView": map[string]any{"MarketValue": agg.value},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"Data": data})
}

func (g *Gateway) handleClosedPositions(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"Data": g.closed})
}

func (g *Gateway) handleExposure(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	byUic := make(map[int]float64)
	for _, p := range g.positions {
		byUic[p.PositionBase.Uic] += p.PositionBase.Amount
	}
	data := make([]map[string]any, 0, len(byUic))
	for uic, amount := range byUic {
		data = append(data, map[string]any{
			"Uic":       uic,
			"AssetType": "FxSpot",
			"Amount":    amount,
			"Currency":  "USD",
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"Data": data})
}

func (g *Gateway) handleBalances(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"CashBalance":                  100000.0,
		"CashAvailableForTrading":      98000.0,
		"TotalValue":                   100500.0,
		"MarginUsedByCurrentPositions": 2000.0,
		"MarginAvailableForTrading":    98500.0,
		"UnrealizedPositionsValue":     500.0,
		"Currency":                     "USD",
	})
}

func (g *Gateway) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccountKey     string   `json:"AccountKey"`
		Uic            int      `json:"Uic"`
		AssetType      string   `json:"AssetType"`
		BuySell        string   `json:"BuySell"`
		Amount         float64  `json:"Amount"`
		OrderType      string   `json:"OrderType"`
		OrderPrice     *float64 `json:"OrderPrice"`
		StopLimitPrice *float64 `json:"StopLimitPrice"`

		ExternalReference string `json:"ExternalReference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "unreadable order body", nil)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.OrderError != nil {
		e := g.OrderError
		writeError(w, http.StatusBadRequest, e.Code, e.Message, e.ModelState)
		return
	}

	g.seq++
	orderID := strconv.Itoa(76000000 + g.seq)
	price := 0.0
	if body.OrderPrice != nil {
		price = *body.OrderPrice
	}

	if g.FillOrders {
		g.seq++
		posID := strconv.Itoa(81000000 + g.seq)
		g.positions[posID] = &position{
			PositionID: posID,
			PositionBase: positionBase{
				Uic:           body.Uic,
				ClientID:      g.ClientID,
				AccountID:     body.AccountKey,
				SourceOrderID: orderID,
				Amount:        body.Amount,
				OpenPrice:     price,
				Status:        "Open",
				Currency:      "USD",
			},
			PositionView: positionView{CurrentPrice: price},
		}
	} else {
		g.orders[orderID] = &order{
			OrderID:           orderID,
			OrderTime:         time.Now().UTC().Format(time.RFC3339),
			Uic:               body.Uic,
			BuySell:           body.BuySell,
			OpenOrderType:     body.OrderType,
			Status:            "Working",
			Price:             price,
			Amount:            body.Amount,
			ClientID:          g.ClientID,
			AccountID:         body.AccountKey,
			ExchangeID:        "SIM",
			AssetType:         body.AssetType,
			ExternalReference: body.ExternalReference,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"OrderId": orderID})
}

func (g *Gateway) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[r.PathValue("orderID")]
	if !ok {
		writeError(w, http.StatusNotFound, "OrderNotFound", "order not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (g *Gateway) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID    string   `json:"OrderId"`
		OrderPrice *float64 `json:"OrderPrice"`
		Amount     *float64 `json:"Amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "unreadable modification body", nil)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[body.OrderID]
	if !ok {
		writeError(w, http.StatusNotFound, "OrderNotFound", "order not found", nil)
		return
	}
	if body.OrderPrice != nil {
		o.Price = *body.OrderPrice
	}
	if body.Amount != nil {
		o.Amount = *body.Amount
	}
	writeJSON(w, http.StatusOK, map[string]any{"OrderId": o.OrderID})
}

func (g *Gateway) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()
	// Cancelling an order the gateway no longer knows is a no-op; the order
	// simply does not appear in later listings.
	delete(g.orders, r.PathValue("orderID"))
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	uic, _ := strconv.Atoi(r.URL.Query().Get("Uic"))
	g.mu.Lock()
	defer g.mu.Unlock()
	for orderID, o := range g.orders {
		if o.Uic == uic {
			delete(g.orders, orderID)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handlePreCheck(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount     float64  `json:"Amount"`
		OrderPrice *float64 `json:"OrderPrice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "unreadable precheck body", nil)
		return
	}
	price := 1.0
	if body.OrderPrice != nil {
		price = *body.OrderPrice
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"EstimatedCashRequired": body.Amount * price * 0.05,
		"MarginImpact":          body.Amount * price * 0.02,
		"Commissions":           3.0,
		"Currency":              "USD",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, modelState map[string]any) {
	body := map[string]any{"ErrorCode": code, "Message": message}
	if modelState != nil {
		body["ModelState"] = modelState
	}
	writeJSON(w, status, body)
}
