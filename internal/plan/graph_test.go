package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(steps []Step) []string {
	out := make([]string, len(steps))
	for i, step := range steps {
		out[i] = step.ID
	}
	return out
}

func serialOrder(t *testing.T, p Plan) []string {
	t.Helper()
	g, err := NewGraph(p)
	require.NoError(t, err)
	return ids(g.Order())
}

func TestOrder_RespectsDependencies(t *testing.T) {
	p := Plan{Steps: []Step{
		{ID: "report", Tool: "create_report", DependsOn: []string{"grants"}},
		{ID: "grants", Tool: "query_grants", DependsOn: []string{"participants"}},
		{ID: "participants", Tool: "query_participants", DependsOn: []string{"dates"}},
		{ID: "dates", Tool: "calculate_date_range"},
	}}

	assert.Equal(t, []string{"dates", "participants", "grants", "report"}, serialOrder(t, p))
}

func TestOrder_TiesFollowDeclaredOrder(t *testing.T) {
	// d is released once c and a finish and, declared before b, goes first.
	p := Plan{Steps: []Step{
		{ID: "c", Tool: "t"},
		{ID: "a", Tool: "t"},
		{ID: "d", Tool: "t", DependsOn: []string{"c", "a"}},
		{ID: "b", Tool: "t"},
	}}

	assert.Equal(t, []string{"c", "a", "d", "b"}, serialOrder(t, p))
}

func TestOrder_IndependentStepsKeepDeclaredOrder(t *testing.T) {
	p := Plan{Steps: []Step{
		{ID: "z", Tool: "t"},
		{ID: "m", Tool: "t"},
		{ID: "a", Tool: "t"},
	}}

	assert.Equal(t, []string{"z", "m", "a"}, serialOrder(t, p))
}

func TestOrder_ReleasedStepsKeepDeclaredPriority(t *testing.T) {
	// x is released after a; it was declared before b and must run first.
	p := Plan{Steps: []Step{
		{ID: "a", Tool: "t"},
		{ID: "x", Tool: "t", DependsOn: []string{"a"}},
		{ID: "b", Tool: "t"},
	}}

	assert.Equal(t, []string{"a", "x", "b"}, serialOrder(t, p))
}

func TestNewGraph_Cycle(t *testing.T) {
	p := Plan{Steps: []Step{
		{ID: "free", Tool: "t"},
		{ID: "a", Tool: "t", DependsOn: []string{"b"}},
		{ID: "b", Tool: "t", DependsOn: []string{"a"}},
	}}

	_, err := NewGraph(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCyclicDependency))

	var cyclic *CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	assert.Equal(t, []string{"a", "b"}, cyclic.Steps)
}

func TestNewGraph_SelfLoop(t *testing.T) {
	_, err := NewGraph(Plan{Steps: []Step{{ID: "a", Tool: "t", DependsOn: []string{"a"}}}})
	assert.ErrorIs(t, err, ErrCyclicDependency)
}

func TestNewGraph_InvalidPlans(t *testing.T) {
	tests := []struct {
		name   string
		steps  []Step
		reason string
	}{
		{
			name:   "empty id",
			steps:  []Step{{ID: "", Tool: "t"}},
			reason: "steps[0].id is required",
		},
		{
			name:   "duplicate id",
			steps:  []Step{{ID: "a", Tool: "t"}, {ID: "a", Tool: "t"}},
			reason: "duplicate step id: a",
		},
		{
			name:   "unknown dependency",
			steps:  []Step{{ID: "a", Tool: "t", DependsOn: []string{"ghost"}}},
			reason: "step a depends on unknown step ghost",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph(Plan{Steps: tt.steps})
			require.ErrorIs(t, err, ErrInvalidPlan)
			var invalid *InvalidPlanError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.reason, invalid.Reason)
		})
	}
}

func TestNewGraph_DeduplicatesDependencies(t *testing.T) {
	g, err := NewGraph(Plan{Steps: []Step{
		{ID: "a", Tool: "t"},
		{ID: "b", Tool: "t", DependsOn: []string{"a", "a"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, g.Deps(1))
	assert.Equal(t, []int{1}, g.Dependents(0))
	assert.Equal(t, []int{0, 1}, g.Indegrees())
}

func TestNewGraph_EmptyPlan(t *testing.T) {
	g, err := NewGraph(Plan{})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Order())
}

func TestInsertSorted(t *testing.T) {
	assert.Equal(t, []int{1, 3, 5}, InsertSorted([]int{1, 5}, 3))
	assert.Equal(t, []int{0, 1}, InsertSorted([]int{1}, 0))
	assert.Equal(t, []int{2}, InsertSorted(nil, 2))
}
