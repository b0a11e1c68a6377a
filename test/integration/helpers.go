//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/lineup/internal/config"
	"github.com/stwalsh4118/lineup/internal/server"
	"github.com/stwalsh4118/lineup/internal/testutil"
)

// testServer is the full HTTP stack with the sweeper running over a fresh database
type testServer struct {
	*httptest.Server
	fixtures *testutil.Fixtures
}

// setupTestServer starts the server's handler and sweeper; both stop at test cleanup
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	f := testutil.NewFixtures(t)

	gen := config.DefaultGeneratorConfig()
	gen.SweepInterval = 50 * time.Millisecond
	cfg := &config.Config{
		Logging:   config.LoggingConfig{Level: "info"},
		Generator: gen,
	}

	srv := server.New(cfg, f.DB)
	require.NoError(t, srv.StartSweeper())

	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		httpServer.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return &testServer{Server: httpServer, fixtures: f}
}

// do sends a JSON request and decodes the JSON response into out when out is not nil
func (s *testServer) do(t *testing.T, method, path string, body, out interface{}) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, s.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
