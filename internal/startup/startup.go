package startup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codex-k8s/plan-mcp-server/internal/dsl"
	"github.com/codex-k8s/plan-mcp-server/internal/plan"
	"github.com/codex-k8s/plan-mcp-server/internal/timeutil"
)

// Runner executes a plan.
type Runner interface {
	Run(ctx context.Context, p plan.Plan) (*plan.Result, error)
}

// Run executes the configured startup plan once. Any step that does not
// succeed fails startup.
func Run(ctx context.Context, cfg *dsl.StartupPlanConfig, runner Runner, logger *slog.Logger) (*plan.Result, error) {
	if cfg == nil || len(cfg.Steps) == 0 {
		return nil, nil
	}
	timeout, err := timeutil.ParseOptional(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("startup plan: invalid timeout: %w", err)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if logger != nil {
		logger.Info("running startup plan", "steps", len(cfg.Steps))
	}
	result, err := runner.Run(ctx, plan.Plan{Query: "startup", Steps: cfg.Steps})
	if err != nil {
		return result, fmt.Errorf("startup plan: %w", err)
	}
	if logger != nil {
		logger.Info("startup plan finished", "result", result)
	}
	for _, entry := range result.Entries() {
		if !entry.OK() {
			return result, fmt.Errorf("startup plan: step %s %s: %w", entry.StepID, entry.Status, entry.Err)
		}
	}
	return result, nil
}
