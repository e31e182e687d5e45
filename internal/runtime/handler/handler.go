package handler

import (
	"encoding/json"
	"strings"

	"github.com/codex-k8s/plan-mcp-server/internal/executil"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

// Output formats for text-producing handlers.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// templateData exposes only the outputs of declared dependencies, which is
// also what the idempotency key covers.
func templateData(call registry.Call) executil.TemplateData {
	return executil.TemplateData{
		Params:   call.Params,
		ToolName: call.Tool,
		StepID:   call.StepID,
		RunID:    call.RunID,
		Results:  call.DependencyOutputs(),
	}
}

// decodeOutput returns text as-is or, for the json format, the decoded value.
// Text that is not valid JSON is returned unchanged.
func decodeOutput(format, text string) any {
	text = strings.TrimSpace(text)
	if !strings.EqualFold(format, OutputJSON) || text == "" {
		return text
	}
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return text
	}
	return decoded
}
