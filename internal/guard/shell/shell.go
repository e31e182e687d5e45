package shell

import (
	"context"
	"slices"
	"strings"

	"github.com/codex-k8s/plan-mcp-server/internal/executil"
	"github.com/codex-k8s/plan-mcp-server/internal/guard"
)

// Guard runs a command and allows the call when it exits successfully.
type Guard struct {
	// Label is a human-friendly name.
	Label string
	// Command is the command to execute.
	Command string
	// Args are optional command arguments.
	Args []string
	// Env adds environment variables for the command.
	Env map[string]string
	// AllowExitCodes declares additional success exit codes.
	AllowExitCodes []int
}

// Name returns guard name for audit and logging.
func (g Guard) Name() string {
	if g.Label != "" {
		return g.Label
	}
	return "shell"
}

// Check executes the command; its output becomes the decision reason.
func (g Guard) Check(ctx context.Context, req guard.Request) (guard.Decision, error) {
	output, exitCode, err := executil.RunCommand(ctx, g.Command, g.Args, g.Env, executil.TemplateData{
		Params:   req.Params,
		ToolName: req.ToolName,
		StepID:   req.StepID,
		RunID:    req.RunID,
	})

	allowed := err == nil || slices.Contains(g.AllowExitCodes, exitCode)
	reason := strings.TrimSpace(output)
	if reason == "" {
		if allowed {
			reason = "allowed"
		} else {
			reason = "denied"
		}
	}
	return guard.Decision{Allowed: allowed, Reason: reason, Source: g.Name()}, nil
}
