package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codex-k8s/plan-mcp-server/internal/protocol"
	"github.com/codex-k8s/plan-mcp-server/internal/registry"
)

// Response statuses understood from HTTP handlers.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// HTTP delegates a step to an external service.
type HTTP struct {
	// URL is the handler endpoint.
	URL string
	// Method overrides HTTP method.
	Method string
	// Headers adds HTTP headers.
	Headers map[string]string
	// Timeout is the HTTP client timeout.
	Timeout time.Duration
	// Spec contains declarative handler settings forwarded as-is.
	Spec map[string]any
	// Client overrides the HTTP client.
	Client *http.Client
}

// Handle posts the step and parses the result.
//
// A JSON body of the form {"status": ..., "result": ...} is interpreted;
// any other 2xx body is returned as text.
func (h HTTP) Handle(ctx context.Context, call registry.Call) (any, error) {
	if strings.TrimSpace(h.URL) == "" {
		return nil, errors.New("handler url is empty")
	}

	timeoutSec := 0
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			timeoutSec = max(int(remaining.Seconds()), 1)
		}
	}

	body, err := json.Marshal(protocol.HandlerRequest{
		RunID:        call.RunID,
		StepID:       call.StepID,
		Tool:         call.Tool,
		Params:       call.Params,
		Dependencies: call.DependencyOutputs(),
		Spec:         h.Spec,
		TimeoutSec:   timeoutSec,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	method := strings.ToUpper(strings.TrimSpace(h.Method))
	if method == "" {
		method = http.MethodPost
	}
	request, err := http.NewRequestWithContext(ctx, method, h.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for key, value := range h.Headers {
		request.Header.Set(key, value)
	}

	client := h.Client
	if client == nil {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	resp, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("handler request failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	trimmed := strings.TrimSpace(string(data))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("handler status %d: %s", resp.StatusCode, trimmed)
	}

	var parsed protocol.HandlerResponse
	if err := json.Unmarshal(data, &parsed); err != nil || strings.TrimSpace(parsed.Status) == "" {
		return trimmed, nil
	}
	switch strings.ToLower(strings.TrimSpace(parsed.Status)) {
	case statusSuccess:
		return parsed.Result, nil
	case statusError:
		message := stringify(parsed.Result)
		if message == "" {
			message = "handler error"
		}
		return nil, errors.New(message)
	default:
		return nil, fmt.Errorf("unknown handler status: %s", parsed.Status)
	}
}

func stringify(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}
		return strings.TrimSpace(string(data))
	}
}
