package gate

import (
	"slices"

	"github.com/codex-k8s/plan-mcp-server/internal/plan"
)

// Admit applies a validation verdict. An invalid verdict yields a
// ValidationRejectedError carrying the errors verbatim; a valid one returns
// its warnings unchanged.
func Admit(verdict plan.ValidationResult) ([]string, error) {
	if !verdict.Valid {
		return nil, &plan.ValidationRejectedError{
			Errors:   slices.Clone(verdict.Errors),
			Warnings: slices.Clone(verdict.Warnings),
		}
	}
	return slices.Clone(verdict.Warnings), nil
}

// Merge combines verdicts: valid only when all are valid, lists concatenated in order.
func Merge(verdicts ...plan.ValidationResult) plan.ValidationResult {
	out := plan.ValidationResult{Valid: true}
	for _, verdict := range verdicts {
		if !verdict.Valid {
			out.Valid = false
		}
		out.Warnings = append(out.Warnings, verdict.Warnings...)
		out.Errors = append(out.Errors, verdict.Errors...)
	}
	return out
}
