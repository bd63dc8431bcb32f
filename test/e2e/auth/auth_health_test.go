//go:build e2e

package auth_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/bonechkabonechka/tgauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLivezEndpoint verifies the liveness check endpoint.
func TestLivezEndpoint(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := authsdk.NewClient(baseURL)

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
	require.NotEmpty(t, health.Version)
}

// TestReadyzEndpoint verifies the database and issuer checks pass on a
// fresh container.
func TestReadyzEndpoint(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := authsdk.NewClient(baseURL)

	health, err := client.GetReadiness(t.Context())
	assertHealthy(t, health, err)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Issuer)
}

// TestMetricsEndpoint verifies the Prometheus endpoint records traffic.
func TestMetricsEndpoint(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := authsdk.NewClient(baseURL)

	_, err := client.BeginHandshake(t.Context())
	require.NoError(t, err)

	resp, err := http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "tgauth_handshake_begin_total 1")
	require.Contains(t, string(body), "go_goroutines")
}

// TestSwaggerServed verifies the API docs are mounted.
func TestSwaggerServed(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)

	resp, err := http.Get(baseURL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
