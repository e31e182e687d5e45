package executil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"text/template"
)

// TemplateData defines the fields available in command, arg and env templates.
type TemplateData struct {
	// Params are the step parameters.
	Params map[string]any
	// ToolName is the tool name.
	ToolName string
	// StepID is the step being executed.
	StepID string
	// RunID identifies the plan run.
	RunID string
	// Results are the outputs of completed steps keyed by step id.
	Results map[string]any
}

// FuncMap returns the helpers shared by every template rendered for a step:
// param, result and json.
func FuncMap(data TemplateData) template.FuncMap {
	return template.FuncMap{
		"param": func(name string) any {
			if data.Params == nil {
				return nil
			}
			return data.Params[name]
		},
		"result": func(stepID string) (any, error) {
			value, ok := data.Results[stepID]
			if !ok {
				return nil, fmt.Errorf("no result for step %q", stepID)
			}
			return value, nil
		},
		"json": func(value any) (string, error) {
			encoded, err := json.Marshal(value)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}
}

// Step templates use [[ ]] delimiters; {{ }} is taken by config rendering.
const (
	LeftDelim  = "[["
	RightDelim = "]]"
)

// RenderTemplate renders a string template with TemplateData.
func RenderTemplate(value string, data TemplateData) (string, error) {
	tmpl, err := template.New("value").Delims(LeftDelim, RightDelim).Funcs(FuncMap(data)).Option("missingkey=zero").Parse(value)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template render: %w", err)
	}
	return buf.String(), nil
}

// BuildCommand builds an exec.Cmd with rendered command, args and env.
// Without args the command runs through bash -c.
func BuildCommand(ctx context.Context, command string, args []string, env map[string]string, data TemplateData) (*exec.Cmd, error) {
	renderedCommand, err := RenderTemplate(command, data)
	if err != nil {
		return nil, err
	}

	renderedArgs := make([]string, 0, len(args))
	for _, arg := range args {
		rendered, err := RenderTemplate(arg, data)
		if err != nil {
			return nil, err
		}
		renderedArgs = append(renderedArgs, rendered)
	}

	var cmd *exec.Cmd
	if len(renderedArgs) == 0 {
		cmd = exec.CommandContext(ctx, "bash", "-c", renderedCommand)
	} else {
		cmd = exec.CommandContext(ctx, renderedCommand, renderedArgs...)
	}

	cmd.Env = os.Environ()
	for key, value := range env {
		rendered, err := RenderTemplate(value, data)
		if err != nil {
			return nil, err
		}
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, rendered))
	}
	cmd.Env = append(cmd.Env, "PLAN_RUN_ID="+data.RunID, "PLAN_STEP_ID="+data.StepID, "PLAN_TOOL="+data.ToolName)

	return cmd, nil
}

// RunCommand executes a command and returns combined output, exit code and error.
func RunCommand(ctx context.Context, command string, args []string, env map[string]string, data TemplateData) (string, int, error) {
	cmd, err := BuildCommand(ctx, command, args, env, data)
	if err != nil {
		return "", -1, err
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	err = cmd.Run()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	return output.String(), exitCode, err
}
