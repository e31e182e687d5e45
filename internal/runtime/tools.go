package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codex-k8s/plan-mcp-server/internal/constants"
	"github.com/codex-k8s/plan-mcp-server/internal/dsl"
	"github.com/codex-k8s/plan-mcp-server/internal/guard"
	"github.com/codex-k8s/plan-mcp-server/internal/guard/limits"
	"github.com/codex-k8s/plan-mcp-server/internal/guard/shell"
	"github.com/codex-k8s/plan-mcp-server/internal/idempotency"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
	"github.com/codex-k8s/plan-mcp-server/internal/runtime/handler"
	"github.com/codex-k8s/plan-mcp-server/internal/timeutil"
)

// toolHandler layers middleware around the executor handler. From the
// outside in: tool timeout, idempotency cache, guards, retries.
func (b Builder) toolHandler(tool dsl.ToolConfig) (registry.Handler, error) {
	base, err := buildHandler(tool.Executor)
	if err != nil {
		return nil, err
	}
	chain, err := b.buildGuards(tool.Guards)
	if err != nil {
		return nil, err
	}

	h := registry.WithRetry(base, registry.RetryConfig{MaxAttempts: tool.MaxAttempts})
	h = guard.Wrap(h, chain, b.Audit)
	if b.Cache != nil && tool.Annotations != nil && tool.Annotations.IdempotentHint {
		h = idempotency.Wrap(h, b.Cache, b.Logger)
	}

	timeout, err := timeutil.ParseOptional(tool.Timeout)
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	return withTimeout(h, timeout), nil
}

func withTimeout(h registry.Handler, timeout time.Duration) registry.Handler {
	if timeout <= 0 {
		return h
	}
	return registry.HandlerFunc(func(ctx context.Context, call registry.Call) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := h.Handle(ctx, call)
		if err != nil && ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("tool timeout after %s: %w", timeout, err)
		}
		return out, err
	})
}

func buildHandler(cfg dsl.ExecutorConfig) (registry.Handler, error) {
	switch normalizeType(cfg.Type) {
	case constants.ExecutorShell:
		return handler.Shell{
			Command: cfg.Command,
			Args:    cfg.Args,
			Env:     cfg.Env,
			Output:  cfg.Output,
		}, nil
	case constants.ExecutorHTTP:
		return handler.HTTP{
			URL:     cfg.URL,
			Method:  cfg.Method,
			Headers: cfg.Headers,
			Timeout: timeutil.ParseDurationOrDefault(cfg.Timeout, 30*time.Second),
			Spec:    cfg.Spec,
		}, nil
	case constants.ExecutorStatic:
		return handler.Static{Value: cfg.Value}, nil
	default:
		return nil, fmt.Errorf("unknown executor type: %s", cfg.Type)
	}
}

func (b Builder) buildGuards(configs []dsl.GuardConfig) (guard.Chain, error) {
	if len(configs) == 0 {
		return guard.Chain{}, nil
	}

	items := make([]guard.Guard, 0, len(configs))
	for i, cfg := range configs {
		timeout, err := timeutil.ParseOptional(cfg.Timeout)
		if err != nil {
			return guard.Chain{}, fmt.Errorf("guards[%d].timeout: %w", i, err)
		}
		var item guard.Guard
		switch normalizeType(cfg.Type) {
		case constants.GuardLimits:
			limiter, err := limits.New(limits.Policy{
				Name:          cfg.Name,
				MaxTotal:      cfg.MaxTotal,
				RatePerMinute: cfg.RatePerMinute,
				Fields:        toFieldPolicies(cfg.Fields),
			}, b.Templates)
			if err != nil {
				return guard.Chain{}, fmt.Errorf("guards[%d]: %w", i, err)
			}
			item = limiter
		case constants.GuardShell:
			item = shell.Guard{
				Label:          cfg.Name,
				Command:        cfg.Command,
				Args:           cfg.Args,
				Env:            cfg.Env,
				AllowExitCodes: cfg.AllowExitCodes,
			}
		default:
			return guard.Chain{}, fmt.Errorf("guards[%d]: unknown guard type: %s", i, cfg.Type)
		}
		items = append(items, guard.WithTimeout(item, timeout))
	}
	return guard.Chain{Guards: items}, nil
}

func toFieldPolicies(policies map[string]dsl.FieldPolicy) map[string]limits.FieldPolicy {
	if policies == nil {
		return nil
	}
	out := make(map[string]limits.FieldPolicy, len(policies))
	for key, value := range policies {
		out[key] = limits.FieldPolicy{
			Regex:     value.Regex,
			Min:       value.Min,
			Max:       value.Max,
			MinLength: value.MinLength,
			MaxLength: value.MaxLength,
			OneOf:     value.OneOf,
			Required:  value.Required,
		}
	}
	return out
}

func normalizeType(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
