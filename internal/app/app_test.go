package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/plan-mcp-server/internal/dsl"
)

func TestNew_Routes(t *testing.T) {
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("mcp"))
	})
	cfg := dsl.ServerConfig{HTTP: dsl.HTTPConfig{Listen: "127.0.0.1:0", Path: "/mcp"}}

	a, err := New(context.Background(), cfg, mcpHandler, 2, nil, 0)
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/mcp")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	a.Health().SetReady(2)
	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_RequiresHandler(t *testing.T) {
	_, err := New(context.Background(), dsl.ServerConfig{}, nil, 0, nil, 0)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := dsl.ServerConfig{HTTP: dsl.HTTPConfig{Listen: "127.0.0.1:0", Path: "/mcp"}}
	a, err := New(context.Background(), cfg, http.NotFoundHandler(), 1, nil, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, a.Run(ctx))
}
