package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/codex-k8s/plan-mcp-server/internal/plan"
)

// ToolSet reports whether a tool is registered.
type ToolSet interface {
	Has(name string) bool
}

// Structural checks a plan against the registry and configured limits.
// Graph defects are left to the executor, which reports them as plan-level
// errors of their own kind.
type Structural struct {
	Tools    ToolSet
	MaxSteps int
}

// Name returns the validator name.
func (Structural) Name() string { return "structural" }

// Validate reports empty plans and oversize plans as errors and
// unregistered tools as warnings.
func (s Structural) Validate(_ context.Context, p plan.Plan) (plan.ValidationResult, error) {
	verdict := plan.ValidationResult{Valid: true}
	if len(p.Steps) == 0 {
		verdict.Errors = append(verdict.Errors, "plan has no steps")
	}
	if s.MaxSteps > 0 && len(p.Steps) > s.MaxSteps {
		verdict.Errors = append(verdict.Errors, fmt.Sprintf("plan has %d steps, limit is %d", len(p.Steps), s.MaxSteps))
	}
	for i, step := range p.Steps {
		if strings.TrimSpace(step.Tool) == "" {
			verdict.Errors = append(verdict.Errors, fmt.Sprintf("steps[%d].tool is required", i))
			continue
		}
		if s.Tools != nil && !s.Tools.Has(step.Tool) {
			verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("step %s uses unregistered tool %s", step.ID, step.Tool))
		}
	}
	verdict.Valid = len(verdict.Errors) == 0
	return verdict, nil
}
