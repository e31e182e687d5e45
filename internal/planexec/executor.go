package planexec

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codex-k8s/plan-mcp-server/internal/audit"
	"github.com/codex-k8s/plan-mcp-server/internal/plan"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

// Resolver looks up tool handlers by name.
type Resolver interface {
	Resolve(name string) (registry.Handler, error)
}

// Executor runs plans in dependency order.
type Executor struct {
	// Resolver supplies handlers for step tools.
	Resolver Resolver
	// MaxConcurrency bounds concurrently running steps; 0 means unbounded.
	MaxConcurrency int
	// StepTimeout limits each handler call; 0 disables it.
	StepTimeout time.Duration
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records run and step events.
	Audit audit.Logger
	// Now overrides the clock.
	Now func() time.Time
	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Run executes p and returns one entry per step.
//
// Plan-level defects (cycles, duplicate or dangling ids) are returned
// without a result and no step runs. Step failures are recorded in the
// result. When ctx is done before every step started, the remaining steps
// are recorded as canceled and the context error is returned alongside
// the result.
func (e *Executor) Run(ctx context.Context, p plan.Plan) (*plan.Result, error) {
	if e.Resolver == nil {
		return nil, fmt.Errorf("executor resolver is nil")
	}
	runID := e.runID()
	graph, err := plan.NewGraph(p.Clone())
	if err != nil {
		e.logWarn("plan rejected", "run_id", runID, "error", err)
		e.record(ctx, audit.Event{Type: audit.PlanRejected, RunID: runID, Reason: err.Error()})
		return nil, err
	}

	e.logInfo("plan started", "run_id", runID, "steps", graph.Len(), "query", p.Query)
	if e.Logger != nil {
		e.Logger.Debug("plan order", "run_id", runID, "order", stepIDs(graph.Order()))
	}
	e.record(ctx, audit.Event{Type: audit.PlanStarted, RunID: runID})

	r := &run{
		exec:   e,
		graph:  graph,
		result: plan.NewResult(runID),
	}
	canceled := r.execute(ctx)

	e.logInfo("plan finished", "run_id", runID, "steps", r.result.Len(), "failed", r.result.Failed())
	e.record(ctx, audit.Event{Type: audit.PlanFinished, RunID: runID})

	if canceled {
		return r.result, fmt.Errorf("plan run %s interrupted: %w", runID, context.Cause(ctx))
	}
	return r.result, nil
}

type run struct {
	exec   *Executor
	graph  *plan.Graph
	result *plan.Result
}

// execute dispatches steps as their dependencies finish. Only this
// goroutine touches the ready queue and the indegree counters; workers
// record their own entry and then report the step index on done.
func (r *run) execute(ctx context.Context) bool {
	n := r.graph.Len()
	indegree := r.graph.Indegrees()
	var ready []int
	for i, deps := range indegree {
		if deps == 0 {
			ready = append(ready, i)
		}
	}

	release := func(i int) {
		for _, dependent := range r.graph.Dependents(i) {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = plan.InsertSorted(ready, dependent)
			}
		}
	}

	var group errgroup.Group
	if r.exec.MaxConcurrency > 0 {
		group.SetLimit(r.exec.MaxConcurrency)
	}
	done := make(chan int, n)
	finished := 0
	canceled := false

	for finished < n {
		for len(ready) > 0 {
			i := ready[0]
			ready = ready[1:]

			if ctx.Err() != nil {
				canceled = true
				r.skip(ctx, i, plan.StatusCanceled, context.Cause(ctx))
				finished++
				release(i)
				continue
			}
			if dep, failed := r.failedDependency(i); failed {
				step := r.graph.Step(i)
				r.skip(ctx, i, plan.StatusDependencyFailed, &plan.DependencyFailedError{StepID: step.ID, Dependency: dep})
				finished++
				release(i)
				continue
			}

			group.Go(func() error {
				r.runStep(ctx, i)
				done <- i
				return nil
			})
		}
		if finished == n {
			break
		}
		i := <-done
		finished++
		release(i)
	}
	_ = group.Wait()
	return canceled
}

// failedDependency returns the first direct dependency, in declared order,
// that did not succeed.
func (r *run) failedDependency(i int) (string, bool) {
	for _, dep := range r.graph.Deps(i) {
		id := r.graph.Step(dep).ID
		res, ok := r.result.Get(id)
		if !ok || !res.OK() {
			return id, true
		}
	}
	return "", false
}

func (r *run) skip(ctx context.Context, i int, status plan.Status, err error) {
	step := r.graph.Step(i)
	r.store(plan.StepResult{
		StepID:     step.ID,
		Tool:       step.Tool,
		Status:     status,
		Err:        err,
		FinishedAt: r.exec.now(),
	})
	r.exec.logWarn("step skipped", "run_id", r.result.RunID(), "step_id", step.ID, "tool", step.Tool, "status", status, "error", err)
	r.exec.record(ctx, audit.Event{Type: audit.StepSkipped, RunID: r.result.RunID(), StepID: step.ID, Tool: step.Tool, Status: string(status), Reason: err.Error()})
}

func (r *run) runStep(ctx context.Context, i int) {
	step := r.graph.Step(i)
	runID := r.result.RunID()
	started := r.exec.now()
	r.exec.record(ctx, audit.Event{Type: audit.StepStarted, RunID: runID, StepID: step.ID, Tool: step.Tool})

	res := plan.StepResult{
		StepID:    step.ID,
		Tool:      step.Tool,
		StartedAt: started,
		Attempts:  1,
	}

	handler, err := r.exec.Resolver.Resolve(step.Tool)
	if err != nil {
		res.Status = plan.StatusFailed
		res.Err = err
		res.FinishedAt = r.exec.now()
		r.finish(ctx, res)
		return
	}

	stepCtx := ctx
	if r.exec.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, r.exec.StepTimeout)
		defer cancel()
	}

	stats := &registry.Stats{}
	output, err := invoke(stepCtx, handler, registry.Call{
		RunID:     runID,
		StepID:    step.ID,
		Tool:      step.Tool,
		Params:    step.Params,
		DependsOn: step.DependsOn,
		Prior:     r.result,
		Stats:     stats,
	})
	res.FinishedAt = r.exec.now()
	res.Attempts = stats.Attempts()
	res.Cached = stats.Cached()
	if err != nil {
		res.Status = plan.StatusFailed
		res.Err = &plan.StepError{StepID: step.ID, Tool: step.Tool, Err: err}
	} else {
		res.Status = plan.StatusSuccess
		res.Output = output
	}
	r.finish(ctx, res)
}

func (r *run) finish(ctx context.Context, res plan.StepResult) {
	r.store(res)
	event := audit.Event{RunID: r.result.RunID(), StepID: res.StepID, Tool: res.Tool, Status: string(res.Status)}
	if res.Cached {
		r.exec.record(ctx, audit.Event{Type: audit.CacheHit, RunID: event.RunID, StepID: res.StepID, Tool: res.Tool})
	}
	if res.OK() {
		event.Type = audit.StepOK
		r.exec.logInfo("step ok", "run_id", event.RunID, "step_id", res.StepID, "tool", res.Tool, "duration", res.FinishedAt.Sub(res.StartedAt), "cached", res.Cached)
	} else {
		event.Type = audit.StepFailed
		event.Reason = res.Err.Error()
		r.exec.logWarn("step failed", "run_id", event.RunID, "step_id", res.StepID, "tool", res.Tool, "error", res.Err)
	}
	r.exec.record(ctx, event)
}

func (r *run) store(res plan.StepResult) {
	if err := r.result.Record(res); err != nil {
		// The dispatcher hands each index out once, so this is a bug.
		panic(err)
	}
}

func invoke(ctx context.Context, handler registry.Handler, call registry.Call) (output any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
		}
	}()
	return handler.Handle(ctx, call)
}

func stepIDs(steps []plan.Step) []string {
	out := make([]string, len(steps))
	for i, step := range steps {
		out[i] = step.ID
	}
	return out
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Executor) runID() string {
	if e.NewRunID != nil {
		return e.NewRunID()
	}
	return "run-" + uuid.NewString()
}

func (e *Executor) record(ctx context.Context, event audit.Event) {
	if e.Audit != nil {
		e.Audit.Record(ctx, event)
	}
}

func (e *Executor) logInfo(msg string, args ...any) {
	if e.Logger != nil {
		e.Logger.Info(msg, args...)
	}
}

func (e *Executor) logWarn(msg string, args ...any) {
	if e.Logger != nil {
		e.Logger.Warn(msg, args...)
	}
}
