package idempotency

import (
	"context"
	"log/slog"

	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

// Wrap serves repeated calls with equal params and dependency outputs from
// cache. Only successful outputs are stored.
func Wrap(handler registry.Handler, cache *Cache[any], logger *slog.Logger) registry.Handler {
	if handler == nil || cache == nil {
		return handler
	}
	return registry.HandlerFunc(func(ctx context.Context, call registry.Call) (any, error) {
		key, err := Key(call.Tool, call.Params, call.DependencyOutputs())
		if err != nil {
			if logger != nil {
				logger.Warn("cache key build failed", "tool", call.Tool, "step_id", call.StepID, "error", err)
			}
			return handler.Handle(ctx, call)
		}
		if cached, ok := cache.Get(key); ok {
			call.Stats.MarkCached()
			return cached, nil
		}
		out, err := handler.Handle(ctx, call)
		if err != nil {
			return nil, err
		}
		cache.Set(key, out)
		return out, nil
	})
}
