package handler

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
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

func priorWith(t *testing.T, outputs map[string]any) *plan.Result {
	t.Helper()
	prior := plan.NewResult("run-1")
	for id, out := range outputs {
		require.NoError(t, prior.Record(plan.StepResult{StepID: id, Status: plan.StatusSuccess, Output: out}))
	}
	return prior
}

func TestStatic_RendersParamsAndResults(t *testing.T) {
	h := Static{Value: map[string]any{
		"department": `[[ param "department" ]]`,
		"as_of":      `[[ result "dates" ]]`,
		"ids":        []any{"fixed", `[[ .StepID ]]`},
		"count":      3,
	}}
	out, err := h.Handle(context.Background(), registry.Call{
		StepID:    "people",
		Params:    map[string]any{"department": "eng"},
		DependsOn: []string{"dates"},
		Prior:     priorWith(t, map[string]any{"dates": "2026-09-30"}),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"department": "eng",
		"as_of":      "2026-09-30",
		"ids":        []any{"fixed", "people"},
		"count":      3,
	}, out)
}

func TestStatic_MissingResultFails(t *testing.T) {
	_, err := Static{Value: `[[ result "nope" ]]`}.Handle(context.Background(), registry.Call{})
	assert.ErrorContains(t, err, `no result for step "nope"`)
}

func TestStatic_ResultSeesOnlyDeclaredDependencies(t *testing.T) {
	prior := priorWith(t, map[string]any{"dates": "2026-09-30"})

	_, err := Static{Value: `[[ result "dates" ]]`}.Handle(context.Background(), registry.Call{Prior: prior})
	assert.ErrorContains(t, err, `no result for step "dates"`)

	out, err := Static{Value: `[[ result "dates" ]]`}.Handle(context.Background(), registry.Call{Prior: prior, DependsOn: []string{"dates"}})
	require.NoError(t, err)
	assert.Equal(t, "2026-09-30", out)
}

func TestShell_TextAndJSONOutput(t *testing.T) {
	text, err := Shell{Command: `echo "dept=[[ param "dept" ]]"`}.Handle(context.Background(), registry.Call{
		Params: map[string]any{"dept": "eng"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dept=eng", text)

	decoded, err := Shell{Command: `echo '{"grants": 3}'`, Output: OutputJSON}.Handle(context.Background(), registry.Call{})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"grants": float64(3)}, decoded)
}

func TestShell_ExposesRunEnv(t *testing.T) {
	out, err := Shell{Command: `echo "$PLAN_RUN_ID/$PLAN_STEP_ID/$PLAN_TOOL/$EXTRA"`, Env: map[string]string{"EXTRA": `[[ param "x" ]]`}}.Handle(context.Background(), registry.Call{
		RunID: "run-9", StepID: "s", Tool: "t", Params: map[string]any{"x": "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, "run-9/s/t/y", out)
}

func TestShell_FailureIncludesOutput(t *testing.T) {
	_, err := Shell{Command: "echo broken >&2; exit 2"}.Handle(context.Background(), registry.Call{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit 2")
	assert.Contains(t, err.Error(), "broken")
}

func TestHTTP_PostsStepAndParsesResult(t *testing.T) {
	var got protocol.HandlerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v", r.Header.Get("X-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(protocol.HandlerResponse{Status: "success", Result: map[string]any{"grants": 2}})
	}))
	defer srv.Close()

	out, err := HTTP{URL: srv.URL, Headers: map[string]string{"X-Key": "v"}, Spec: map[string]any{"table": "grants"}, Timeout: time.Second}.Handle(context.Background(), registry.Call{
		RunID:     "run-1",
		StepID:    "grants",
		Tool:      "query_grants",
		Params:    map[string]any{"year": "2026"},
		DependsOn: []string{"people"},
		Prior:     priorWith(t, map[string]any{"people": []any{"p-1"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"grants": float64(2)}, out)

	assert.Equal(t, "grants", got.StepID)
	assert.Equal(t, "query_grants", got.Tool)
	assert.Equal(t, map[string]any{"year": "2026"}, got.Params)
	assert.Equal(t, map[string]any{"people": []any{"p-1"}}, got.Dependencies)
	assert.Equal(t, map[string]any{"table": "grants"}, got.Spec)
}

func TestHTTP_ErrorsAndPlainBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/plain":
			_, _ = w.Write([]byte("just text\n"))
		case "/error":
			_ = json.NewEncoder(w).Encode(protocol.HandlerResponse{Status: "error", Result: "no access"})
		default:
			http.Error(w, "oops", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	out, err := HTTP{URL: srv.URL + "/plain"}.Handle(context.Background(), registry.Call{})
	require.NoError(t, err)
	assert.Equal(t, "just text", out)

	_, err = HTTP{URL: srv.URL + "/error"}.Handle(context.Background(), registry.Call{})
	assert.EqualError(t, err, "no access")

	_, err = HTTP{URL: srv.URL + "/fail"}.Handle(context.Background(), registry.Call{})
	assert.ErrorContains(t, err, "handler status 500")

	_, err = HTTP{}.Handle(context.Background(), registry.Call{})
	assert.Error(t, err)
}

func TestDecodeOutput(t *testing.T) {
	assert.Equal(t, "plain", decodeOutput(OutputText, " plain \n"))
	assert.Equal(t, "not json", decodeOutput(OutputJSON, "not json"))
	assert.Equal(t, []any{float64(1)}, decodeOutput(OutputJSON, "[1]"))
}
