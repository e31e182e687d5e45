package startup

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/plan-mcp-server/internal/dsl"
	"github.com/codex-k8s/plan-mcp-server/internal/log"
	"github.com/codex-k8s/plan-mcp-server/internal/plan"
)

type stubRunner struct {
	statuses map[string]plan.Status
	err      error
	got      plan.Plan
}

func (s *stubRunner) Run(_ context.Context, p plan.Plan) (*plan.Result, error) {
	s.got = p
	if s.err != nil {
		return nil, s.err
	}
	result := plan.NewResult("run-startup")
	for _, step := range p.Steps {
		res := plan.StepResult{StepID: step.ID, Tool: step.Tool, Status: s.statuses[step.ID]}
		if res.Status != plan.StatusSuccess {
			res.Err = errors.New("boom")
		}
		_ = result.Record(res)
	}
	return result, nil
}

func TestRun_NoPlan(t *testing.T) {
	result, err := Run(context.Background(), nil, &stubRunner{}, nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRun_Success(t *testing.T) {
	runner := &stubRunner{statuses: map[string]plan.Status{"warm": plan.StatusSuccess}}
	result, err := Run(context.Background(), &dsl.StartupPlanConfig{
		Timeout: "5s",
		Steps:   []plan.Step{{ID: "warm", Tool: "calculate_date_range"}},
	}, runner, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-startup", result.RunID())
	assert.Equal(t, "startup", runner.got.Query)
}

func TestRun_FailsOnAnyUnsuccessfulStep(t *testing.T) {
	runner := &stubRunner{statuses: map[string]plan.Status{"a": plan.StatusSuccess, "b": plan.StatusFailed}}
	_, err := Run(context.Background(), &dsl.StartupPlanConfig{
		Steps: []plan.Step{{ID: "a", Tool: "t"}, {ID: "b", Tool: "t"}},
	}, runner, nil)
	assert.EqualError(t, err, "startup plan: step b failed: boom")
}

func TestRun_PlanError(t *testing.T) {
	runner := &stubRunner{err: &plan.CyclicDependencyError{Steps: []string{"a"}}}
	_, err := Run(context.Background(), &dsl.StartupPlanConfig{Steps: []plan.Step{{ID: "a", Tool: "t"}}}, runner, nil)
	assert.ErrorIs(t, err, plan.ErrCyclicDependency)
}

func TestRun_InvalidTimeout(t *testing.T) {
	_, err := Run(context.Background(), &dsl.StartupPlanConfig{Timeout: "soon", Steps: []plan.Step{{ID: "a"}}}, &stubRunner{}, nil)
	assert.Error(t, err)
}

func TestRun_LogsResultInCompletionOrder(t *testing.T) {
	var buf bytes.Buffer
	runner := &stubRunner{statuses: map[string]plan.Status{"z": plan.StatusSuccess, "a": plan.StatusFailed}}
	_, err := Run(context.Background(), &dsl.StartupPlanConfig{
		Steps: []plan.Step{{ID: "z", Tool: "t"}, {ID: "a", Tool: "t"}},
	}, runner, log.NewWithWriter(&buf, "info"))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"result":{"run_id":"run-startup","steps":{"z":{"step_id":"z","tool":"t","status":"success"`)
	assert.Contains(t, out, `"a":{"step_id":"a","tool":"t","status":"failed","error":"boom"`)
}
