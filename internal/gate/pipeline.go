package gate

import (
	"context"
	"log/slog"

	"github.com/codex-k8s/plan-mcp-server/internal/audit"
	"github.com/codex-k8s/plan-mcp-server/internal/plan"
)

// Runner executes an admitted plan.
type Runner interface {
	Run(ctx context.Context, p plan.Plan) (*plan.Result, error)
}

// Outcome is what the caller receives for an admitted plan.
type Outcome struct {
	// Result holds one entry per step.
	Result *plan.Result
	// Warnings are the validation warnings, unchanged.
	Warnings []string
}

// Pipeline gates a plan on its validation verdict and then runs it.
type Pipeline struct {
	// Validators are consulted in addition to any supplied verdict.
	Validators Chain
	// Runner executes admitted plans.
	Runner Runner
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records rejections.
	Audit audit.Logger
}

// Process validates p and runs it. A non-nil supplied verdict is consulted
// first, ahead of the configured validators; when it rejects the plan the
// configured validators are not called. A rejected plan never reaches the runner
// and the error list is returned verbatim in a ValidationRejectedError.
func (p Pipeline) Process(ctx context.Context, pl plan.Plan, supplied *plan.ValidationResult) (Outcome, error) {
	chain := p.Validators
	switch {
	case supplied != nil && !supplied.Valid:
		chain.Validators = []Validator{Static{Label: "caller", Verdict: *supplied}}
	case supplied != nil:
		chain.Validators = append([]Validator{Static{Label: "caller", Verdict: *supplied}}, p.Validators.Validators...)
	}

	var verdict plan.ValidationResult
	if len(chain.Validators) == 0 {
		verdict = plan.ValidationResult{Valid: true}
	} else {
		var err error
		if verdict, err = chain.Validate(ctx, pl); err != nil {
			return Outcome{}, err
		}
	}

	warnings, err := Admit(verdict)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn("plan rejected by validation", "query", pl.Query, "error", err)
		}
		if p.Audit != nil {
			p.Audit.Record(ctx, audit.Event{Type: audit.PlanRejected, Reason: err.Error()})
		}
		return Outcome{}, err
	}
	for _, warning := range warnings {
		if p.Logger != nil {
			p.Logger.Info("plan validation warning", "warning", warning)
		}
	}

	result, err := p.Runner.Run(ctx, pl)
	if result == nil {
		return Outcome{Warnings: warnings}, err
	}
	return Outcome{Result: result, Warnings: warnings}, err
}
