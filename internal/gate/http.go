package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codex-k8s/plan-mcp-server/internal/plan"
	"github.com/codex-k8s/plan-mcp-server/internal/protocol"
	"github.com/codex-k8s/plan-mcp-server/internal/security"
)

// HTTP asks an external service to validate a plan. The service receives
// the plan with sensitive params masked and answers with a ValidationResult.
type HTTP struct {
	// Label is a human-friendly name.
	Label string
	// URL is the validator endpoint.
	URL string
	// Method overrides HTTP method.
	Method string
	// Headers adds HTTP headers.
	Headers map[string]string
	// Timeout is the HTTP timeout.
	Timeout time.Duration
	// Client overrides the HTTP client.
	Client *http.Client
	// CorrelationID returns the id sent with each request.
	CorrelationID func(ctx context.Context) string
}

// Name returns validator name for audit and logging.
func (h HTTP) Name() string {
	if h.Label != "" {
		return h.Label
	}
	return "http"
}

// Validate posts the plan and parses the verdict.
func (h HTTP) Validate(ctx context.Context, p plan.Plan) (plan.ValidationResult, error) {
	if strings.TrimSpace(h.URL) == "" {
		return plan.ValidationResult{}, fmt.Errorf("validator url is empty")
	}

	payload := protocol.ValidatorRequest{Query: p.Query, Steps: make([]protocol.PlanStep, len(p.Steps))}
	if h.CorrelationID != nil {
		payload.CorrelationID = h.CorrelationID(ctx)
	}
	for i, step := range p.Steps {
		payload.Steps[i] = protocol.PlanStep{
			ID:        step.ID,
			Tool:      step.Tool,
			Params:    security.RedactParams(step.Params),
			DependsOn: step.DependsOn,
			Rationale: step.Rationale,
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return plan.ValidationResult{}, fmt.Errorf("encode request: %w", err)
	}

	method := strings.ToUpper(strings.TrimSpace(h.Method))
	if method == "" {
		method = http.MethodPost
	}
	request, err := http.NewRequestWithContext(ctx, method, h.URL, bytes.NewReader(body))
	if err != nil {
		return plan.ValidationResult{}, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for key, value := range h.Headers {
		request.Header.Set(key, value)
	}

	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: h.Timeout}
	}
	resp, err := client.Do(request)
	if err != nil {
		return plan.ValidationResult{}, fmt.Errorf("validator request failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return plan.ValidationResult{}, fmt.Errorf("validator status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed protocol.Validation
	if err := json.Unmarshal(data, &parsed); err != nil {
		return plan.ValidationResult{}, fmt.Errorf("invalid validator response: %w", err)
	}
	return plan.ValidationResult{
		Valid:    parsed.Valid,
		Warnings: parsed.Warnings,
		Errors:   parsed.Errors,
	}, nil
}
