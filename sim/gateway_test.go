package sim

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, method, url, token, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestGatewayRejectsUnknownToken(t *testing.T) {
	gw := New("app-key", "jane", "s3cret")
	server := httptest.NewServer(gw.Handler())
	defer server.Close()

	status, body := doJSON(t, http.MethodGet, server.URL+"/port/v1/positions/me", "bogus", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["ErrorCode"])
}

func TestGatewayStrayCallbackDoesNotDisturbLogin(t *testing.T) {
	gw := New("app-key", "jane", "s3cret")
	server := httptest.NewServer(gw.Handler())
	defer server.Close()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(server.URL + "/authorize?" + url.Values{
		"response_type": {"code"},
		"client_id":     {"app-key"},
		"state":         {"s"},
		"redirect_uri":  {"http://localhost:5000/callback"},
	}.Encode())
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = client.PostForm(server.URL+"/login", url.Values{
		"field_userid":   {"jane"},
		"field_password": {"s3cret"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	cookie := resp.Header.Get("Set-Cookie")
	require.NotEmpty(t, cookie)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/login/callback", nil)
	require.NoError(t, err)
	req.Header.Set("Cookie", cookie)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	// A callback hit without the session cookie is rejected and must not
	// invalidate the code already handed to the real login.
	resp, err = client.Get(server.URL + "/login/callback")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	tokenReq, err := http.NewRequest(http.MethodPost, server.URL+"/token", strings.NewReader(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {"http://localhost:5000/callback"},
	}.Encode()))
	require.NoError(t, err)
	tokenReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	tokenReq.SetBasicAuth("app-key", "app-secret")
	resp, err = client.Do(tokenReq)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var tok map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
	assert.NotEmpty(t, tok["access_token"])
}

func TestGatewayFillSwitch(t *testing.T) {
	gw := New("app-key", "jane", "s3cret")
	gw.FillOrders = true
	gw.AcceptToken("t")
	server := httptest.NewServer(gw.Handler())
	defer server.Close()

	status, created := doJSON(t, http.MethodPost, server.URL+"/trade/v2/orders", "t",
		`{"AccountKey":"AK-1","Uic":21,"BuySell":"Buy","Amount":1000,"OrderType":"Market"}`)
	require.Equal(t, http.StatusOK, status)
	orderID, _ := created["OrderId"].(string)
	require.NotEmpty(t, orderID)

	// The order executed: it is gone from the order book and a position
	// carrying its id as source has appeared.
	assert.Equal(t, 0, gw.OpenOrders())
	status, _ = doJSON(t, http.MethodGet, server.URL+"/trade/v2/orders/CK-90001/"+orderID, "t", "")
	assert.Equal(t, http.StatusNotFound, status)

	_, listing := doJSON(t, http.MethodGet, server.URL+"/port/v1/positions/me", "t", "")
	data, _ := listing["Data"].([]any)
	require.Len(t, data, 1)
	pos := data[0].(map[string]any)
	base := pos["PositionBase"].(map[string]any)
	assert.Equal(t, orderID, base["SourceOrderId"])
	assert.Equal(t, "Open", base["Status"])
}
