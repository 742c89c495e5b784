package saxo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rustyeddy/saxo/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportSetsHeaders(t *testing.T) {
	var gotAuth, gotAccept, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr := newTransport(server.URL, "tok-1", nil)
	_, err := tr.post(context.Background(), "/x", map[string]string{"a": "b"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "application/json", gotContentType)
}

func TestTransportClassifiesErrorPayloadOn2xx(t *testing.T) {
	// An error-shaped payload is a provider error even under a 200.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ErrorCode":"TooLate","Message":"market closed"}`))
	}))
	defer server.Close()

	tr := newTransport(server.URL, "t", nil)
	_, err := tr.get(context.Background(), "/x", nil)

	var apiErr *broker.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "TooLate", apiErr.Code)
}

func TestTransportUnclassifiableFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	tr := newTransport(server.URL, "t", nil)
	_, err := tr.get(context.Background(), "/x", nil)

	var transportErr *broker.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	assert.Equal(t, "gateway exploded", transportErr.Body)
}

func TestTransportEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr := newTransport(server.URL, "t", nil)
	raw, err := tr.delete(context.Background(), "/x", nil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}
