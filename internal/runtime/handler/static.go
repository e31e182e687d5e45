package handler

import (
	"context"

	"github.com/codex-k8s/plan-mcp-server/internal/executil"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

// Static returns a configured value. String leaves are rendered as templates
// so the value can echo params and earlier results.
type Static struct {
	Value any
}

// Handle renders the value for the call.
func (s Static) Handle(_ context.Context, call registry.Call) (any, error) {
	return renderValue(s.Value, templateData(call))
}

func renderValue(value any, data executil.TemplateData) (any, error) {
	switch v := value.(type) {
	case string:
		return executil.RenderTemplate(v, data)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}
			out[key] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			rendered, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return value, nil
	}
}
