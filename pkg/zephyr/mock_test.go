package zephyr

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestClient wires a Client to a mock API. Retries are disabled so
// failure-path tests see exactly one request per call.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	return newTestClientWithConfig(t, nil, handler)
}

// newTestClientWithConfig is newTestClient with a hook to adjust the
// configuration before the client is built.
func newTestClientWithConfig(t *testing.T, adjust func(*Config), handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := NewConfig(srv.URL, "test-token")
	cfg.MaxRetries = 0
	if adjust != nil {
		adjust(cfg)
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
