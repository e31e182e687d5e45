package gate

import (
	"context"
	"fmt"

	"github.com/codex-k8s/plan-mcp-server/internal/plan"
)

// Validator produces a verdict for a plan before it runs.
type Validator interface {
	// Name returns the validator identifier.
	Name() string
	// Validate inspects the plan.
	Validate(ctx context.Context, p plan.Plan) (plan.ValidationResult, error)
}

// Static returns a fixed verdict. It carries a verdict computed elsewhere,
// for example one supplied by the caller together with the plan.
type Static struct {
	Label   string
	Verdict plan.ValidationResult
}

// Name returns the validator name.
func (s Static) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return "static"
}

// Validate returns the fixed verdict.
func (s Static) Validate(context.Context, plan.Plan) (plan.ValidationResult, error) {
	return s.Verdict, nil
}

// Chain runs validators in order and merges their verdicts. A validator
// that fails to answer rejects the plan.
type Chain struct {
	Validators []Validator
}

// Validate runs every validator; it stops early only when ctx is done.
func (c Chain) Validate(ctx context.Context, p plan.Plan) (plan.ValidationResult, error) {
	verdicts := make([]plan.ValidationResult, 0, len(c.Validators))
	for _, item := range c.Validators {
		if err := ctx.Err(); err != nil {
			return plan.ValidationResult{}, err
		}
		verdict, err := item.Validate(ctx, p)
		if err != nil {
			verdict = plan.ValidationResult{
				Valid:  false,
				Errors: []string{fmt.Sprintf("validator %s: %v", item.Name(), err)},
			}
		}
		verdicts = append(verdicts, verdict)
	}
	return Merge(verdicts...), nil
}
