package http_test

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus/sdmx-core/internal/connector/http"
)

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(nethttp.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := http.NewClient(&http.ClientConfig{BaseURL: srv.URL, MaxRetries: 3, RateLimit: 100})
	resp, err := client.Get(context.Background(), "/data", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ZeroMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		w.WriteHeader(nethttp.StatusBadGateway)
	}))
	defer srv.Close()

	client := http.NewClient(&http.ClientConfig{BaseURL: srv.URL, MaxRetries: 0, RateLimit: 100})
	_, err := client.Get(context.Background(), "/data", nil)

	var httpErr *http.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, nethttp.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
		w.WriteHeader(nethttp.StatusNotFound)
		w.Write([]byte("No Results Found"))
	}))
	defer srv.Close()

	client := http.NewClient(&http.ClientConfig{BaseURL: srv.URL, RateLimit: 100})
	_, err := client.Get(context.Background(), "/data/x/all", nil)
	require.Error(t, err)

	var httpErr *http.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.True(t, httpErr.IsNotFound())
	assert.False(t, httpErr.RetryableStatus())
	assert.Equal(t, "E_HTTP_404", httpErr.CodeValue())
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_HeadersAndAuth(t *testing.T) {
	var got nethttp.Header
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		got = r.Header.Clone()
		assert.Equal(t, "all", r.URL.Query().Get("detail"))
	}))
	defer srv.Close()

	base := http.NewBase("http.test", "Test", "Test", &http.ClientConfig{
		BaseURL:   srv.URL + "/",
		Auth:      http.BearerToken{Token: "secret"},
		RateLimit: 100,
	})
	_, err := base.FetchBytes(context.Background(), "/structure", url.Values{"detail": {"all"}}, "application/xml")
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "application/xml", got.Get("Accept"))
	assert.Equal(t, "sdmx-core/1.0", got.Get("User-Agent"))
}

func TestClient_ContextCancelStopsRetries(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(nethttp.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	client := http.NewClient(&http.ClientConfig{BaseURL: srv.URL, MaxRetries: 3, RateLimit: 100})
	_, err := client.Get(ctx, "/", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_URL(t *testing.T) {
	client := http.NewClient(&http.ClientConfig{BaseURL: "https://example.org/sdmx/2.1/"})
	got := client.URL(&http.Request{Path: "/data/nama_10_gdp/A..DE", Query: url.Values{"format": {"SDMX-CSV"}}})
	assert.Equal(t, "https://example.org/sdmx/2.1/data/nama_10_gdp/A..DE?format=SDMX-CSV", got)
}

// =============================================================================
// BASE TESTS
// =============================================================================

func TestBase_ProbeConnection(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(nethttp.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	base := http.NewBase("http.test", "Test", "Test", &http.ClientConfig{BaseURL: srv.URL, RateLimit: 100})

	res, err := base.ProbeConnection(context.Background(), "/ok", nil, "")
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = base.ProbeConnection(context.Background(), "/bad", nil, "")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "401")
}

// =============================================================================
// AUTH TESTS
// =============================================================================

func TestAuthFromConfig(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
		want   http.AuthConfig
	}{
		{"none", map[string]any{}, http.NoAuth{}},
		{"bearer", map[string]any{"token": "t"}, http.BearerToken{Token: "t"}},
		{"api key", map[string]any{"apiKey": "k", "apiKeyHeader": "X-Key"}, http.APIKey{Key: "k", Header: "X-Key"}},
		{"basic", map[string]any{"username": "u", "password": "p"}, http.BasicAuth{Username: "u", Password: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, http.AuthFromConfig(tt.config))
		})
	}
}
