package saxo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/saxo/broker"
	"github.com/rustyeddy/saxo/pkg/id"
)

// Fixed fields the login form expects alongside the credentials. They
// identify the submitting environment, not the user.
const (
	loginPlatform = "Desktop"
	loginLocality = "en-GB"
)

// tokenResponse is the token endpoint's payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// authenticate runs the five-step authorization-code login without a browser
// and exchanges the resulting code for an access token.
//
// Every step's request is derived from the previous response's headers, so
// the sequence cannot be reordered. No step is retried; the first irregular
// response aborts the whole flow with a classified *broker.AuthError.
func authenticate(ctx context.Context, username, password string, cfg AppConfig) (string, error) {
	// Redirects are read out of Location headers by hand, never followed.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	authBase, err := url.Parse(cfg.AuthEndpoint)
	if err != nil {
		return "", fmt.Errorf("parse auth endpoint: %w", err)
	}

	// Step 1: opaque correlation state. The provider is never checked to
	// echo it back; it exists for request correlation only.
	state := id.New()

	// Step 2: authorize request, expecting a redirect to the login page.
	authorizeURL := fmt.Sprintf("%s/authorize?%s", strings.TrimSuffix(cfg.AuthEndpoint, "/"), url.Values{
		"response_type": {"code"},
		"client_id":     {cfg.AppKey},
		"state":         {state},
		"redirect_uri":  {cfg.RedirectURI},
	}.Encode())

	authorizeResp, err := getNoFollow(ctx, httpClient, authorizeURL, "")
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthUnexpectedRedirect, Err: err}
	}

	// Step 3: the redirect must target the provider's login domain.
	loginURL, err := resolveLocation(authBase, authorizeResp.Header.Get("Location"))
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthUnexpectedRedirect, Detail: "authorize response carried no Location header"}
	}
	if !sameLoginDomain(authBase, loginURL) {
		return "", &broker.AuthError{
			Reason: broker.AuthUnexpectedRedirect,
			Detail: fmt.Sprintf("redirected to foreign host %s", loginURL.Host),
		}
	}

	// Step 4: submit the login form to the redirect target.
	form := url.Values{
		"PageLoadInfo":    {""},
		"LoginSubmitTime": {strconv.FormatInt(time.Now().UnixMilli(), 10)},
		"field_userid":    {username},
		"field_password":  {password},
		"Platform":        {loginPlatform},
		"IsMobile":        {"false"},
		"Locality":        {loginLocality},
		"field_isSrp":     {"false"},
	}
	loginResp, err := postFormNoFollow(ctx, httpClient, loginURL.String(), form)
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthLoginFailed, Err: err}
	}

	// Step 5a: a successful login answers with a redirect. Anything else
	// (typically a re-rendered login page) means the credentials were
	// rejected.
	callbackURL, err := resolveLocation(loginURL, loginResp.Header.Get("Location"))
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthLoginFailed, Detail: "login response carried no Location header"}
	}

	// Step 5b: follow the callback by hand, carrying the login session
	// cookie, and pull the auth code out of the final redirect.
	callbackResp, err := getNoFollow(ctx, httpClient, callbackURL.String(), loginResp.Header.Get("Set-Cookie"))
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthNoAuthCode, Err: err}
	}
	finalURL, err := resolveLocation(callbackURL, callbackResp.Header.Get("Location"))
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthNoAuthCode, Detail: "callback response carried no Location header"}
	}
	code := finalURL.Query().Get("code")
	if code == "" {
		return "", &broker.AuthError{Reason: broker.AuthNoAuthCode, Detail: "redirect carried no code parameter"}
	}

	// Step 6: exchange the code for a token.
	return exchangeCode(ctx, httpClient, cfg, code)
}

// exchangeCode trades an authorization code for an access token using the
// application's Basic credentials.
func exchangeCode(ctx context.Context, httpClient *http.Client, cfg AppConfig, code string) (string, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {cfg.RedirectURI},
	}

	tokenURL := strings.TrimSuffix(cfg.AuthEndpoint, "/") + "/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthTokenExchangeFailed, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.AppKey, cfg.AppSecret)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthTokenExchangeFailed, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &broker.AuthError{Reason: broker.AuthTokenExchangeFailed, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &broker.AuthError{
			Reason: broker.AuthTokenExchangeFailed,
			Detail: fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &broker.AuthError{Reason: broker.AuthTokenExchangeFailed, Err: err}
	}
	if tok.AccessToken == "" {
		return "", &broker.AuthError{Reason: broker.AuthTokenExchangeFailed, Detail: "token response carried no access_token"}
	}
	return tok.AccessToken, nil
}

func getNoFollow(ctx context.Context, httpClient *http.Client, rawURL, cookie string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	// Only the headers matter; the body is drained so the connection can be
	// reused across the flow's steps.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp, nil
}

func postFormNoFollow(ctx context.Context, httpClient *http.Client, rawURL string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp, nil
}

// resolveLocation resolves a Location header value (absolute or relative)
// against the response it came from.
func resolveLocation(base *url.URL, location string) (*url.URL, error) {
	if location == "" {
		return nil, fmt.Errorf("empty location")
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(u), nil
}

// sameLoginDomain reports whether target belongs to the auth endpoint's
// login domain: either the same host, or a sibling under the endpoint's
// registrable domain (e.g. live.logonvalidation.net alongside
// sim.logonvalidation.net).
func sameLoginDomain(authBase, target *url.URL) bool {
	if target.Host == authBase.Host {
		return true
	}
	base := registrableDomain(authBase.Hostname())
	if base == "" {
		return false
	}
	host := target.Hostname()
	return host == base || strings.HasSuffix(host, "."+base)
}

func registrableDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[len(parts)-2:], ".")
}
