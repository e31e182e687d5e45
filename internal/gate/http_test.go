package gate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/plan-mcp-server/internal/plan"
	"github.com/codex-k8s/plan-mcp-server/internal/protocol"
)

func TestHTTP_PostsRedactedPlan(t *testing.T) {
	var got protocol.ValidatorRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(protocol.Validation{Valid: false, Errors: []string{"x"}, Warnings: []string{"w"}})
	}))
	defer srv.Close()

	v := HTTP{
		Label:         "policy",
		URL:           srv.URL,
		Headers:       map[string]string{"Authorization": "Bearer t"},
		Timeout:       time.Second,
		CorrelationID: func(context.Context) string { return "corr-1" },
	}
	verdict, err := v.Validate(context.Background(), plan.Plan{
		Query: "grants last quarter",
		Steps: []plan.Step{{ID: "a", Tool: "query_grants", Params: map[string]any{"api_key": "k", "dept": "eng"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, plan.ValidationResult{Valid: false, Errors: []string{"x"}, Warnings: []string{"w"}}, verdict)

	assert.Equal(t, "Bearer t", auth)
	assert.Equal(t, "corr-1", got.CorrelationID)
	assert.Equal(t, "grants last quarter", got.Query)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "***", got.Steps[0].Params["api_key"])
	assert.Equal(t, "eng", got.Steps[0].Params["dept"])
	assert.Equal(t, "policy", v.Name())
}

func TestHTTP_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad-json" {
			_, _ = w.Write([]byte("nope"))
			return
		}
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := HTTP{URL: srv.URL + "/status"}.Validate(context.Background(), onePlan)
	assert.ErrorContains(t, err, "validator status 502")

	_, err = HTTP{URL: srv.URL + "/bad-json"}.Validate(context.Background(), onePlan)
	assert.ErrorContains(t, err, "invalid validator response")

	_, err = HTTP{}.Validate(context.Background(), onePlan)
	assert.ErrorContains(t, err, "validator url is empty")
	assert.Equal(t, "http", HTTP{}.Name())
}
