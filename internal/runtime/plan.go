package runtime

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/codex-k8s/plan-mcp-server/internal/gate"
	"github.com/codex-k8s/plan-mcp-server/internal/plan"
	"github.com/codex-k8s/plan-mcp-server/internal/protocol"
	"github.com/codex-k8s/plan-mcp-server/internal/templates"
)

// ExecutePlan gates and runs a submitted plan and reports the outcome.
func (r *Runtime) ExecutePlan(ctx context.Context, req protocol.PlanRequest) protocol.PlanResponse {
	id := correlationID(req.CorrelationID)
	ctx = WithCorrelationID(ctx, id)
	if r.logger != nil {
		r.logger.Info("plan received", "correlation_id", id, "steps", len(req.Steps), "query", req.Query)
	}

	var supplied *plan.ValidationResult
	if req.Validation != nil {
		supplied = &plan.ValidationResult{
			Valid:    req.Validation.Valid,
			Warnings: req.Validation.Warnings,
			Errors:   req.Validation.Errors,
		}
	}
	outcome, err := r.Pipeline.Process(ctx, toPlan(req), supplied)
	return r.planResponse(id, outcome, err)
}

// CallTool runs a single tool as a one-step plan.
func (r *Runtime) CallTool(ctx context.Context, tool string, params map[string]any, provided string) protocol.ToolResponse {
	id := correlationID(provided)
	ctx = WithCorrelationID(ctx, id)
	r.logCall(tool, id, params)

	outcome, err := r.Pipeline.Process(ctx, plan.Plan{
		Steps: []plan.Step{{ID: tool, Tool: tool, Params: params}},
	}, nil)

	resp := protocol.ToolResponse{CorrelationID: id}
	var rejected *plan.ValidationRejectedError
	if errors.As(err, &rejected) {
		resp.Status = protocol.StatusRejected
		resp.Reason = strings.Join(rejected.Errors, "; ")
		return resp
	}
	if outcome.Result != nil {
		if res, ok := outcome.Result.Get(tool); ok {
			if res.OK() {
				resp.Status = protocol.StatusSuccess
				resp.Output = res.Output
				return resp
			}
			resp.Status = protocol.StatusError
			resp.Reason = errorText(res.Err)
			return resp
		}
	}
	resp.Status = protocol.StatusError
	resp.Reason = errorText(err)
	return resp
}

func (r *Runtime) planResponse(id string, outcome gate.Outcome, err error) protocol.PlanResponse {
	resp := protocol.PlanResponse{CorrelationID: id, Warnings: outcome.Warnings}

	var rejected *plan.ValidationRejectedError
	if errors.As(err, &rejected) {
		resp.Status = protocol.StatusRejected
		resp.Errors = rejected.Errors
		resp.Warnings = rejected.Warnings
		resp.Message = templates.RenderOr(r.templates, "plan.rejected",
			map[string]any{"Reason": strings.Join(rejected.Errors, "; ")}, rejected.Error())
		return resp
	}

	if outcome.Result != nil {
		resp.RunID = outcome.Result.RunID()
		resp.Steps = stepReports(outcome.Result)
	}
	switch {
	case err != nil:
		resp.Status = protocol.StatusError
		resp.Errors = []string{err.Error()}
		if outcome.Result != nil {
			resp.Message = templates.RenderOr(r.templates, "plan.interrupted", nil, "plan run was interrupted")
		}
	case outcome.Result != nil && outcome.Result.Failed():
		resp.Status = protocol.StatusPartial
		failed := 0
		for _, step := range resp.Steps {
			if step.Status != string(plan.StatusSuccess) {
				failed++
			}
		}
		resp.Message = templates.RenderOr(r.templates, "plan.partial",
			map[string]any{"Failed": failed, "Total": len(resp.Steps)}, "some steps did not complete")
	default:
		resp.Status = protocol.StatusSuccess
	}
	return resp
}

func toPlan(req protocol.PlanRequest) plan.Plan {
	out := plan.Plan{Query: req.Query, Steps: make([]plan.Step, len(req.Steps))}
	for i, step := range req.Steps {
		out.Steps[i] = plan.Step{
			ID:        step.ID,
			Tool:      step.Tool,
			Params:    step.Params,
			DependsOn: step.DependsOn,
			Rationale: step.Rationale,
		}
	}
	return out
}

func stepReports(result *plan.Result) []protocol.StepReport {
	entries := result.Entries()
	out := make([]protocol.StepReport, 0, len(entries))
	for _, entry := range entries {
		report := protocol.StepReport{
			StepID:     entry.StepID,
			Tool:       entry.Tool,
			Status:     string(entry.Status),
			Output:     entry.Output,
			Error:      errorText(entry.Err),
			StartedAt:  formatTime(entry.StartedAt),
			FinishedAt: formatTime(entry.FinishedAt),
			Attempts:   entry.Attempts,
			Cached:     entry.Cached,
		}
		out = append(out, report)
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
