package runtime

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/plan-mcp-server/internal/audit"
	"github.com/codex-k8s/plan-mcp-server/internal/constants"
	"github.com/codex-k8s/plan-mcp-server/internal/dsl"
	"github.com/codex-k8s/plan-mcp-server/internal/gate"
	"github.com/codex-k8s/plan-mcp-server/internal/idempotency"
	"github.com/codex-k8s/plan-mcp-server/internal/planexec"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
	"github.com/codex-k8s/plan-mcp-server/internal/templates"
	"github.com/codex-k8s/plan-mcp-server/internal/timeutil"
)

// Builder constructs the plan runtime from the DSL config.
type Builder struct {
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records plan, step and guard events.
	Audit audit.Logger
	// Templates provides localized messages.
	Templates templates.Renderer
	// Cache stores outputs of idempotent tools. Nil disables caching.
	Cache *idempotency.Cache[any]
	// MaxConcurrency overrides server.plan.max_concurrency when positive.
	MaxConcurrency int
}

// Runtime bundles the wired components of a server.
type Runtime struct {
	// Server is the MCP server exposing execute_plan and the tools.
	Server *mcp.Server
	// Registry holds the tool handlers.
	Registry *registry.Registry
	// Executor runs plans.
	Executor *planexec.Executor
	// Pipeline gates plans on validation and then runs them.
	Pipeline gate.Pipeline

	tools     []dsl.ToolConfig
	logger    *slog.Logger
	templates templates.Renderer
}

// Build registers every tool, wires the executor and validators, and
// creates the MCP server.
func (b Builder) Build(cfg *dsl.Config) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	reg := registry.New()
	for _, tool := range cfg.Tools {
		handler, err := b.toolHandler(tool)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool.Name, err)
		}
		if err := reg.Register(tool.Name, handler); err != nil {
			return nil, err
		}
	}

	stepTimeout, err := timeutil.ParseOptional(cfg.Server.Plan.StepTimeout)
	if err != nil {
		return nil, fmt.Errorf("server.plan.step_timeout: %w", err)
	}
	maxConcurrency := cfg.Server.Plan.MaxConcurrency
	if b.MaxConcurrency > 0 {
		maxConcurrency = b.MaxConcurrency
	}
	executor := &planexec.Executor{
		Resolver:       reg,
		MaxConcurrency: maxConcurrency,
		StepTimeout:    stepTimeout,
		Logger:         b.Logger,
		Audit:          b.Audit,
	}

	validators, err := b.validators(cfg.Server, reg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		Registry: reg,
		Executor: executor,
		Pipeline: gate.Pipeline{
			Validators: gate.Chain{Validators: validators},
			Runner:     executor,
			Logger:     b.Logger,
			Audit:      b.Audit,
		},
		tools:     cfg.Tools,
		logger:    b.Logger,
		templates: b.Templates,
	}
	rt.Server = rt.newServer(cfg)
	return rt, nil
}

func (b Builder) validators(server dsl.ServerConfig, tools gate.ToolSet) ([]gate.Validator, error) {
	var out []gate.Validator
	for i, cfg := range server.Validators {
		switch normalizeType(cfg.Type) {
		case constants.ValidatorStructural:
			out = append(out, gate.Structural{Tools: tools, MaxSteps: server.Plan.MaxSteps})
		case constants.ValidatorHTTP:
			timeout, err := timeutil.ParseOptional(cfg.Timeout)
			if err != nil {
				return nil, fmt.Errorf("server.validators[%d].timeout: %w", i, err)
			}
			if timeout == 0 {
				timeout = 10 * time.Second
			}
			out = append(out, gate.HTTP{
				Label:         cfg.Name,
				URL:           cfg.URL,
				Method:        cfg.Method,
				Headers:       cfg.Headers,
				Timeout:       timeout,
				CorrelationID: CorrelationIDFromContext,
			})
		default:
			return nil, fmt.Errorf("server.validators[%d]: unknown validator type: %s", i, cfg.Type)
		}
	}
	return out, nil
}
