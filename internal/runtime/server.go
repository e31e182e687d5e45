package runtime

import (
	"context"
	"maps"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/plan-mcp-server/internal/constants"
	"github.com/codex-k8s/plan-mcp-server/internal/dsl"
	"github.com/codex-k8s/plan-mcp-server/internal/protocol"
	"github.com/codex-k8s/plan-mcp-server/internal/security"
)

type listToolsInput struct{}

func (r *Runtime) newServer(cfg *dsl.Config) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: cfg.Server.Version,
	}, nil)

	for _, res := range cfg.Resources {
		resource := res
		server.AddResource(&mcp.Resource{
			Name:        resource.Name,
			URI:         resource.URI,
			Description: resource.Description,
			MIMEType:    resource.MIMEType,
		}, func(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{
					{URI: resource.URI, MIMEType: resource.MIMEType, Text: resource.Text},
				},
			}, nil
		})
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        constants.ToolExecutePlan,
		Title:       "Execute plan",
		Description: "Validate a multi-step tool plan and run it in dependency order. Independent steps run concurrently.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, req protocol.PlanRequest) (*mcp.CallToolResult, protocol.PlanResponse, error) {
		return nil, r.ExecutePlan(ctx, req), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        constants.ToolListTools,
		Title:       "List plan tools",
		Description: "List the tools that plan steps may reference.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, func(context.Context, *mcp.CallToolRequest, listToolsInput) (*mcp.CallToolResult, protocol.ToolList, error) {
		return nil, r.ListTools(), nil
	})

	for _, tool := range cfg.Tools {
		if !tool.Exposed() {
			continue
		}
		r.addTool(server, tool)
	}
	return server
}

func (r *Runtime) addTool(server *mcp.Server, tool dsl.ToolConfig) {
	mcpTool := &mcp.Tool{
		Name:        tool.Name,
		Title:       tool.Title,
		Description: tool.Description,
		Annotations: buildAnnotations(tool.Annotations),
	}
	if len(tool.InputSchema) > 0 {
		mcpTool.InputSchema = tool.InputSchema
	}
	name := tool.Name
	mcp.AddTool(server, mcpTool, func(ctx context.Context, _ *mcp.CallToolRequest, input map[string]any) (*mcp.CallToolResult, protocol.ToolResponse, error) {
		params := maps.Clone(input)
		provided, _ := params["correlation_id"].(string)
		delete(params, "correlation_id")
		return nil, r.CallTool(ctx, name, params, provided), nil
	})
}

// ListTools describes every registered tool, exposed or not.
func (r *Runtime) ListTools() protocol.ToolList {
	out := protocol.ToolList{Tools: make([]protocol.ToolInfo, 0, len(r.tools))}
	for _, tool := range r.tools {
		out.Tools = append(out.Tools, protocol.ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			Executor:    normalizeType(tool.Executor.Type),
		})
	}
	return out
}

func (r *Runtime) logCall(tool, correlationID string, params map[string]any) {
	if r.logger != nil {
		r.logger.Info("tool call", "tool", tool, "correlation_id", correlationID, "params", security.RedactParams(params))
	}
}

func buildAnnotations(cfg *dsl.ToolAnnotationsConfig) *mcp.ToolAnnotations {
	if cfg == nil {
		return nil
	}
	return &mcp.ToolAnnotations{
		ReadOnlyHint:    cfg.ReadOnlyHint,
		DestructiveHint: cfg.DestructiveHint,
		IdempotentHint:  cfg.IdempotentHint,
		OpenWorldHint:   cfg.OpenWorldHint,
		Title:           cfg.Title,
	}
}
