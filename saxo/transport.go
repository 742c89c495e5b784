package saxo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/saxo/broker"
)

// transport issues authenticated JSON requests against the gateway. It is the
// only place that talks HTTP for data calls; the login flow has its own
// redirect-aware client in auth.go.
type transport struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newTransport(baseURL, token string, httpClient *http.Client) *transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &transport{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (t *transport) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return t.do(ctx, http.MethodGet, path, params, nil)
}

func (t *transport) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return t.do(ctx, http.MethodPost, path, nil, body)
}

func (t *transport) patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return t.do(ctx, http.MethodPatch, path, nil, body)
}

func (t *transport) delete(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return t.do(ctx, http.MethodDelete, path, params, nil)
}

func (t *transport) do(ctx context.Context, method, path string, params url.Values, body any) (json.RawMessage, error) {
	reqURL := t.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// Classified error payloads win over the bare status code, and the
	// gateway may also ship them on 2xx responses.
	if apiErr := classifyError(payload); apiErr != nil {
		return nil, apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &broker.TransportError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
	}

	if len(payload) == 0 {
		return nil, nil
	}
	return json.RawMessage(payload), nil
}
