package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/codex-k8s/plan-mcp-server/internal/plan"
)

var (
	ErrToolNameEmpty = errors.New("tool name is empty")
	ErrNilHandler    = errors.New("tool handler is nil")
)

// Call is the input handed to a handler for one step.
type Call struct {
	// RunID identifies the plan run.
	RunID string
	// StepID is the step being executed.
	StepID string
	// Tool is the resolved tool name.
	Tool string
	// Params are the step parameters.
	Params map[string]any
	// DependsOn lists the step's direct dependencies.
	DependsOn []string
	// Prior is the execution result accumulated so far.
	Prior *plan.Result
	// Stats collects facts reported by middleware. May be nil.
	Stats *Stats
}

// Stats records how a call was served.
type Stats struct {
	attempts atomic.Int32
	cached   atomic.Bool
}

// Attempts returns the number of handler invocations, at least 1.
func (s *Stats) Attempts() int {
	if s == nil {
		return 1
	}
	return max(int(s.attempts.Load()), 1)
}

// Cached reports whether the output came from a cache.
func (s *Stats) Cached() bool {
	return s != nil && s.cached.Load()
}

// MarkCached flags the call as served from a cache.
func (s *Stats) MarkCached() {
	if s != nil {
		s.cached.Store(true)
	}
}

func (s *Stats) addAttempt() {
	if s != nil {
		s.attempts.Add(1)
	}
}

// DependencyOutputs returns the outputs of the call's direct dependencies.
func (c Call) DependencyOutputs() map[string]any {
	out := make(map[string]any, len(c.DependsOn))
	if c.Prior == nil {
		return out
	}
	for _, id := range c.DependsOn {
		if value, ok := c.Prior.Output(id); ok {
			out[id] = value
		}
	}
	return out
}

// Handler implements a named tool.
type Handler interface {
	Handle(ctx context.Context, call Call) (any, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, call Call) (any, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, call Call) (any, error) {
	return f(ctx, call)
}

// Registry maps tool names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func New() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Names are unique.
func (r *Registry) Register(name string, handler Handler) error {
	if strings.TrimSpace(name) == "" {
		return ErrToolNameEmpty
	}
	if handler == nil {
		return fmt.Errorf("%w: %q", ErrNilHandler, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return &plan.DuplicateToolError{Tool: name}
	}
	r.handlers[name] = handler
	return nil
}

// Resolve returns the handler registered under name.
func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &plan.UnknownToolError{Tool: name}
	}
	return handler, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[name]
	return ok
}

// Names returns registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
