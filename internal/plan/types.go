package plan

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Step is one unit of planned work.
type Step struct {
	// ID identifies the step within its plan.
	ID string `json:"id" yaml:"id"`
	// Tool names the registered handler that runs the step.
	Tool string `json:"tool" yaml:"tool"`
	// Params are passed to the handler as-is.
	Params map[string]any `json:"params,omitempty" yaml:"params"`
	// DependsOn lists step ids that must finish first.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on"`
	// Rationale is informational only.
	Rationale string `json:"rationale,omitempty" yaml:"rationale"`
}

// Plan is an ordered sequence of steps produced for one query.
type Plan struct {
	// Query is the originating user query, used for logging.
	Query string `json:"query,omitempty" yaml:"query"`
	// Steps are kept in declared order.
	Steps []Step `json:"steps" yaml:"steps"`
}

// Clone returns a deep copy so the executor never shares params with the planner.
func (p Plan) Clone() Plan {
	out := Plan{Query: p.Query, Steps: make([]Step, len(p.Steps))}
	for i, step := range p.Steps {
		out.Steps[i] = step
		if step.Params != nil {
			out.Steps[i].Params = maps.Clone(step.Params)
		}
		out.Steps[i].DependsOn = slices.Clone(step.DependsOn)
	}
	return out
}

// ValidationResult is the verdict of an external validator.
type ValidationResult struct {
	// Valid gates execution.
	Valid bool `json:"valid"`
	// Warnings are passed through to the caller.
	Warnings []string `json:"warnings,omitempty"`
	// Errors are returned verbatim when Valid is false.
	Errors []string `json:"errors,omitempty"`
}

// Status is the terminal state of a step within one run.
type Status string

// Step statuses.
const (
	StatusSuccess          Status = "success"
	StatusFailed           Status = "failed"
	StatusDependencyFailed Status = "dependency_failed"
	StatusCanceled         Status = "canceled"
)

// StepResult is the recorded outcome of one step.
type StepResult struct {
	StepID     string
	Tool       string
	Status     Status
	Output     any
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
	Attempts   int
	Cached     bool
}

// OK reports whether the step completed successfully.
func (r StepResult) OK() bool {
	return r.Status == StatusSuccess
}

type stepResultJSON struct {
	StepID     string     `json:"step_id"`
	Tool       string     `json:"tool"`
	Status     Status     `json:"status"`
	Output     any        `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time  `json:"finished_at"`
	Attempts   int        `json:"attempts,omitempty"`
	Cached     bool       `json:"cached,omitempty"`
}

// MarshalJSON renders the error as a message string.
func (r StepResult) MarshalJSON() ([]byte, error) {
	out := stepResultJSON{
		StepID:     r.StepID,
		Tool:       r.Tool,
		Status:     r.Status,
		Output:     r.Output,
		FinishedAt: r.FinishedAt,
		Attempts:   r.Attempts,
		Cached:     r.Cached,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	if !r.StartedAt.IsZero() {
		started := r.StartedAt
		out.StartedAt = &started
	}
	return json.Marshal(out)
}

// Result accumulates step outcomes for a single run in completion order.
// Readers may call Get and Output while the executor is still recording.
type Result struct {
	runID string

	mu      sync.RWMutex
	entries *orderedmap.OrderedMap[string, StepResult]
}

// NewResult creates an empty result for runID.
func NewResult(runID string) *Result {
	return &Result{
		runID:   runID,
		entries: orderedmap.New[string, StepResult](),
	}
}

// RunID returns the identifier of the run that owns the result.
func (r *Result) RunID() string {
	return r.runID
}

// Record stores the outcome of a step. Each step may be recorded once.
func (r *Result) Record(res StepResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries.Get(res.StepID); exists {
		return fmt.Errorf("step %q already recorded", res.StepID)
	}
	r.entries.Set(res.StepID, res)
	return nil
}

// Get returns the recorded outcome of a step.
func (r *Result) Get(stepID string) (StepResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Get(stepID)
}

// Output returns the output of a successful step.
func (r *Result) Output(stepID string) (any, bool) {
	res, ok := r.Get(stepID)
	if !ok || !res.OK() {
		return nil, false
	}
	return res.Output, true
}

// Len returns the number of recorded steps.
func (r *Result) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Len()
}

// Entries returns a snapshot of recorded steps in completion order.
func (r *Result) Entries() []StepResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StepResult, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Failed reports whether any recorded step did not succeed.
func (r *Result) Failed() bool {
	for _, entry := range r.Entries() {
		if !entry.OK() {
			return true
		}
	}
	return false
}

// MarshalJSON renders the run id and the steps keyed by id in completion order.
func (r *Result) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return json.Marshal(struct {
		RunID string                                     `json:"run_id"`
		Steps *orderedmap.OrderedMap[string, StepResult] `json:"steps"`
	}{RunID: r.runID, Steps: r.entries})
}
