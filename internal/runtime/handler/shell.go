package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/codex-k8s/plan-mcp-server/internal/executil"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

// Shell runs a command for each step. Command, args and env are templates.
type Shell struct {
	// Command is the shell command to execute.
	Command string
	// Args are command arguments.
	Args []string
	// Env adds environment variables.
	Env map[string]string
	// Output selects text or json decoding of stdout.
	Output string
}

// Handle runs the configured command.
func (s Shell) Handle(ctx context.Context, call registry.Call) (any, error) {
	output, exitCode, err := executil.RunCommand(ctx, s.Command, s.Args, s.Env, templateData(call))
	if err != nil {
		trimmed := strings.TrimSpace(output)
		if trimmed == "" {
			return nil, fmt.Errorf("command failed (exit %d): %w", exitCode, err)
		}
		return nil, fmt.Errorf("command failed (exit %d): %w: %s", exitCode, err, trimmed)
	}
	return decodeOutput(s.Output, output), nil
}
