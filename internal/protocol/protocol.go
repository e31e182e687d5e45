package protocol

// Plan run statuses returned to MCP clients.
const (
	StatusSuccess  = "success"
	StatusPartial  = "partial"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// PlanRequest is the input of the execute_plan tool.
type PlanRequest struct {
	// Query is the originating user query.
	Query string `json:"query,omitempty" jsonschema:"originating user query, informational"`
	// Steps are the planned steps in declared order.
	Steps []PlanStep `json:"steps" jsonschema:"ordered steps with dependencies"`
	// Validation is the verdict of the caller's validator, if any.
	Validation *Validation `json:"validation,omitempty" jsonschema:"verdict of an external validator"`
	// CorrelationID links related requests.
	CorrelationID string `json:"correlation_id,omitempty"`
}

// PlanStep is a step as submitted by the planner.
type PlanStep struct {
	ID        string         `json:"id"`
	Tool      string         `json:"tool"`
	Params    map[string]any `json:"params,omitempty"`
	DependsOn []string       `json:"depends_on,omitempty"`
	Rationale string         `json:"rationale,omitempty"`
}

// Validation is the wire form of a validation verdict.
type Validation struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// PlanResponse is the fixed JSON response of the execute_plan tool.
type PlanResponse struct {
	// Status summarizes the run.
	Status string `json:"status"`
	// RunID identifies the executor run.
	RunID string `json:"run_id,omitempty"`
	// CorrelationID links related requests.
	CorrelationID string `json:"correlation_id"`
	// Warnings are passed through from validation.
	Warnings []string `json:"warnings,omitempty"`
	// Errors holds plan-level errors; validator errors are verbatim.
	Errors []string `json:"errors,omitempty"`
	// Message is a localized summary for non-success runs.
	Message string `json:"message,omitempty"`
	// Steps lists step outcomes in completion order.
	Steps []StepReport `json:"steps,omitempty"`
}

// StepReport is the wire form of a step outcome.
type StepReport struct {
	StepID     string `json:"step_id"`
	Tool       string `json:"tool"`
	Status     string `json:"status"`
	Output     any    `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at"`
	Attempts   int    `json:"attempts,omitempty"`
	Cached     bool   `json:"cached,omitempty"`
}

// ToolResponse is the response of a directly called tool.
type ToolResponse struct {
	// Status indicates the execution status.
	Status string `json:"status"`
	// Output is the handler output.
	Output any `json:"output,omitempty"`
	// Reason is a human-readable error message.
	Reason string `json:"reason,omitempty"`
	// CorrelationID links related requests.
	CorrelationID string `json:"correlation_id"`
}

// ToolInfo describes a registered tool for list_plan_tools.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Executor    string `json:"executor,omitempty"`
}

// ToolList is the response of list_plan_tools.
type ToolList struct {
	Tools []ToolInfo `json:"tools"`
}

// ValidatorRequest is the payload sent to HTTP validators.
type ValidatorRequest struct {
	CorrelationID string     `json:"correlation_id"`
	Query         string     `json:"query,omitempty"`
	Steps         []PlanStep `json:"steps"`
}

// HandlerRequest is the payload sent to HTTP step handlers.
type HandlerRequest struct {
	RunID        string         `json:"run_id"`
	StepID       string         `json:"step_id"`
	Tool         string         `json:"tool"`
	Params       map[string]any `json:"params,omitempty"`
	Dependencies map[string]any `json:"dependencies,omitempty"`
	Spec         map[string]any `json:"spec,omitempty"`
	TimeoutSec   int            `json:"timeout_sec,omitempty"`
}

// HandlerResponse is the structured response expected from HTTP step handlers.
type HandlerResponse struct {
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
}
