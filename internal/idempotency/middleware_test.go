package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/plan-mcp-server/internal/plan"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
	"github.com/codex-k8s/plan-mcp-server/internal/runtime/handler"
)

func priorWithDates(t *testing.T, value string) *plan.Result {
	t.Helper()
	prior := plan.NewResult("run")
	require.NoError(t, prior.Record(plan.StepResult{StepID: "dates", Status: plan.StatusSuccess, Output: value}))
	return prior
}

func TestWrap_TemplateResultsFollowCacheKey(t *testing.T) {
	h := Wrap(handler.Static{Value: `[[ result "dates" ]]`}, NewCache[any](time.Minute, 10), nil)

	first, err := h.Handle(context.Background(), registry.Call{
		Tool: "report", DependsOn: []string{"dates"}, Prior: priorWithDates(t, "2026-06-30"),
	})
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), registry.Call{
		Tool: "report", DependsOn: []string{"dates"}, Prior: priorWithDates(t, "2026-09-30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-30", first)
	assert.Equal(t, "2026-09-30", second)

	// An undeclared step is invisible to the template, so nothing stale is cached.
	_, err = h.Handle(context.Background(), registry.Call{Tool: "report", Prior: priorWithDates(t, "2026-12-31")})
	assert.ErrorContains(t, err, `no result for step "dates"`)
}

func TestWrap_ServesRepeatedCallsFromCache(t *testing.T) {
	calls := 0
	h := Wrap(registry.HandlerFunc(func(context.Context, registry.Call) (any, error) {
		calls++
		return calls, nil
	}), NewCache[any](time.Minute, 10), nil)

	call := registry.Call{Tool: "t", Params: map[string]any{"a": 1}}
	first, err := h.Handle(context.Background(), call)
	require.NoError(t, err)

	stats := &registry.Stats{}
	call.Stats = stats
	second, err := h.Handle(context.Background(), call)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, stats.Cached())
}

func TestWrap_DoesNotCacheFailures(t *testing.T) {
	calls := 0
	h := Wrap(registry.HandlerFunc(func(context.Context, registry.Call) (any, error) {
		calls++
		return nil, errors.New("boom")
	}), NewCache[any](time.Minute, 10), nil)

	call := registry.Call{Tool: "t"}
	_, err := h.Handle(context.Background(), call)
	require.Error(t, err)
	_, err = h.Handle(context.Background(), call)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWrap_NilCacheReturnsHandler(t *testing.T) {
	h := registry.HandlerFunc(func(context.Context, registry.Call) (any, error) { return 1, nil })
	out, err := Wrap(h, nil, nil).Handle(context.Background(), registry.Call{})
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}
