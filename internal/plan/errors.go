package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrCyclicDependency   = errors.New("cyclic dependency")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrValidationRejected = errors.New("validation rejected")
	ErrUnknownTool        = errors.New("unknown tool")
	ErrDuplicateTool      = errors.New("duplicate tool")
	ErrDependencyFailed   = errors.New("dependency failed")
	ErrStepFailed         = errors.New("step failed")
	ErrGuardDenied        = errors.New("guard denied")
)

// CyclicDependencyError is raised when no topological order exists.
type CyclicDependencyError struct {
	// Steps lists the steps that could not be ordered, in declared order.
	Steps []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency among steps: %s", strings.Join(e.Steps, ", "))
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// InvalidPlanError reports a structural defect found before execution.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return "invalid plan: " + e.Reason
}

func (e *InvalidPlanError) Unwrap() error { return ErrInvalidPlan }

// ValidationRejectedError carries the validator's errors verbatim.
type ValidationRejectedError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationRejectedError) Error() string {
	if len(e.Errors) == 0 {
		return "validation rejected"
	}
	return "validation rejected: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationRejectedError) Unwrap() error { return ErrValidationRejected }

// UnknownToolError is returned when a tool is not registered.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

func (e *UnknownToolError) Unwrap() error { return ErrUnknownTool }

// DuplicateToolError is returned when a tool name is registered twice.
type DuplicateToolError struct {
	Tool string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Tool)
}

func (e *DuplicateToolError) Unwrap() error { return ErrDuplicateTool }

// DependencyFailedError marks a step skipped because an upstream step failed.
type DependencyFailedError struct {
	StepID     string
	Dependency string
}

func (e *DependencyFailedError) Error() string {
	return fmt.Sprintf("step %q skipped: dependency %q failed", e.StepID, e.Dependency)
}

func (e *DependencyFailedError) Unwrap() error { return ErrDependencyFailed }

// StepError wraps a handler failure uniformly.
type StepError struct {
	StepID string
	Tool   string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q (%s): %v", e.StepID, e.Tool, e.Err)
}

func (e *StepError) Unwrap() []error { return []error{ErrStepFailed, e.Err} }

// GuardDeniedError is returned when a tool guard refuses a call.
type GuardDeniedError struct {
	Tool   string
	Guard  string
	Reason string
}

func (e *GuardDeniedError) Error() string {
	return fmt.Sprintf("tool %q denied by %s: %s", e.Tool, e.Guard, e.Reason)
}

func (e *GuardDeniedError) Unwrap() error { return ErrGuardDenied }
