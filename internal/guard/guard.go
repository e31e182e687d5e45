package guard

import (
	"context"
	"errors"
	"time"

	"github.com/codex-k8s/plan-mcp-server/internal/audit"
	"github.com/codex-k8s/plan-mcp-server/internal/plan"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

// Request is what a guard sees before a step handler runs.
type Request struct {
	// RunID identifies the plan run.
	RunID string
	// StepID is the guarded step.
	StepID string
	// ToolName is the tool being called.
	ToolName string
	// Params are the step parameters.
	Params map[string]any
}

// Decision is a guard verdict.
type Decision struct {
	// Allowed lets the call proceed.
	Allowed bool
	// Reason explains the decision.
	Reason string
	// Source identifies the guard.
	Source string
}

// Guard checks whether a tool call may proceed.
type Guard interface {
	// Name returns the guard identifier.
	Name() string
	// Check returns a decision for the request.
	Check(ctx context.Context, req Request) (Decision, error)
}

// Chain runs guards in order until one denies.
type Chain struct {
	Guards []Guard
}

// Check executes all guards in order.
func (c Chain) Check(ctx context.Context, req Request) (Decision, error) {
	for _, item := range c.Guards {
		decision, err := item.Check(ctx, req)
		if err != nil {
			return Decision{Allowed: false, Reason: err.Error(), Source: item.Name()}, err
		}
		if !decision.Allowed {
			if decision.Source == "" {
				decision.Source = item.Name()
			}
			return decision, nil
		}
	}
	return Decision{Allowed: true, Reason: "allowed"}, nil
}

// Timeout bounds an inner guard with a deadline. Running out of time denies.
type Timeout struct {
	Inner   Guard
	Timeout time.Duration
}

// Name returns the inner guard name.
func (t Timeout) Name() string {
	if t.Inner != nil {
		return t.Inner.Name()
	}
	return "timeout"
}

// Check executes the inner guard with timeout.
func (t Timeout) Check(ctx context.Context, req Request) (Decision, error) {
	if t.Inner == nil || t.Timeout <= 0 {
		return Decision{Allowed: false, Reason: "invalid timeout guard", Source: t.Name()}, nil
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()
	decision, err := t.Inner.Check(ctxTimeout, req)
	if errors.Is(ctxTimeout.Err(), context.DeadlineExceeded) {
		return Decision{Allowed: false, Reason: "guard timeout", Source: t.Name()}, nil
	}
	return decision, err
}

// WithTimeout wraps item when timeout is positive.
func WithTimeout(item Guard, timeout time.Duration) Guard {
	if timeout <= 0 {
		return item
	}
	return Timeout{Inner: item, Timeout: timeout}
}

// Wrap runs chain before handler. A denial fails the step with a
// GuardDeniedError and the handler is not called.
func Wrap(handler registry.Handler, chain Chain, auditLog audit.Logger) registry.Handler {
	if handler == nil || len(chain.Guards) == 0 {
		return handler
	}
	return registry.HandlerFunc(func(ctx context.Context, call registry.Call) (any, error) {
		decision, err := chain.Check(ctx, Request{
			RunID:    call.RunID,
			StepID:   call.StepID,
			ToolName: call.Tool,
			Params:   call.Params,
		})
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			if auditLog != nil {
				auditLog.Record(ctx, audit.Event{Type: audit.GuardDenied, RunID: call.RunID, StepID: call.StepID, Tool: call.Tool, Reason: decision.Reason})
			}
			return nil, &plan.GuardDeniedError{Tool: call.Tool, Guard: decision.Source, Reason: decision.Reason}
		}
		return handler.Handle(ctx, call)
	})
}
