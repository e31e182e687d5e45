package dsl

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/codex-k8s/plan-mcp-server/internal/constants"
	"github.com/codex-k8s/plan-mcp-server/internal/timeutil"
)

// Validate applies defaults and verifies required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if cfg.Server.Version == "" {
		return fmt.Errorf("server.version is required")
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = constants.TransportHTTP
	}
	switch cfg.Server.Transport {
	case constants.TransportHTTP, constants.TransportStdio:
	default:
		return fmt.Errorf("server.transport must be http or stdio")
	}
	if strings.TrimSpace(cfg.Server.HTTP.Listen) == "" {
		cfg.Server.HTTP.Listen = ":8080"
	}
	if cfg.Server.HTTP.Path == "" {
		cfg.Server.HTTP.Path = "/mcp"
	}
	if !strings.HasPrefix(cfg.Server.HTTP.Path, "/") {
		return fmt.Errorf("server.http.path must start with /")
	}
	for name, value := range map[string]string{
		"server.shutdown_timeout":   cfg.Server.ShutdownTimeout,
		"server.http.read_timeout":  cfg.Server.HTTP.ReadTimeout,
		"server.http.write_timeout": cfg.Server.HTTP.WriteTimeout,
		"server.http.idle_timeout":  cfg.Server.HTTP.IdleTimeout,
		"server.plan.step_timeout":  cfg.Server.Plan.StepTimeout,
	} {
		if err := checkDuration(value); err != nil {
			return fmt.Errorf("%s is invalid: %w", name, err)
		}
	}

	if cfg.Server.Plan.MaxConcurrency < 0 {
		return fmt.Errorf("server.plan.max_concurrency must be >= 0")
	}
	if cfg.Server.Plan.MaxSteps < 0 {
		return fmt.Errorf("server.plan.max_steps must be >= 0")
	}

	if cfg.Server.Idempotency.Enabled {
		if cfg.Server.Idempotency.TTL == "" {
			cfg.Server.Idempotency.TTL = "1h"
		}
		if cfg.Server.Idempotency.MaxEntries == 0 {
			cfg.Server.Idempotency.MaxEntries = 1000
		}
		if cfg.Server.Idempotency.MaxEntries < 0 {
			return fmt.Errorf("server.idempotency_cache.max_entries must be >= 0")
		}
		if err := checkDuration(cfg.Server.Idempotency.TTL); err != nil {
			return fmt.Errorf("server.idempotency_cache.ttl is invalid: %w", err)
		}
	}

	for i, validator := range cfg.Server.Validators {
		switch strings.ToLower(strings.TrimSpace(validator.Type)) {
		case constants.ValidatorStructural:
		case constants.ValidatorHTTP:
			if _, err := parseAbsoluteURL(validator.URL); err != nil {
				return fmt.Errorf("server.validators[%d].url is invalid: %w", i, err)
			}
		case "":
			return fmt.Errorf("server.validators[%d].type is required", i)
		default:
			return fmt.Errorf("server.validators[%d].type must be structural or http", i)
		}
		if err := checkDuration(validator.Timeout); err != nil {
			return fmt.Errorf("server.validators[%d].timeout is invalid: %w", i, err)
		}
	}

	toolNames := map[string]struct{}{
		constants.ToolExecutePlan: {},
		constants.ToolListTools:   {},
	}
	for i, tool := range cfg.Tools {
		if err := validateTool(i, tool, toolNames); err != nil {
			return err
		}
		toolNames[tool.Name] = struct{}{}
	}

	if cfg.StartupPlan != nil {
		if err := checkDuration(cfg.StartupPlan.Timeout); err != nil {
			return fmt.Errorf("startup_plan.timeout is invalid: %w", err)
		}
		for i, step := range cfg.StartupPlan.Steps {
			if strings.TrimSpace(step.ID) == "" {
				return fmt.Errorf("startup_plan.steps[%d].id is required", i)
			}
			if _, ok := toolNames[step.Tool]; !ok {
				return fmt.Errorf("startup_plan.steps[%d].tool %q is not declared", i, step.Tool)
			}
		}
	}

	resourceURIs := map[string]struct{}{}
	for i, res := range cfg.Resources {
		if res.URI == "" {
			return fmt.Errorf("resources[%d].uri is required", i)
		}
		if _, exists := resourceURIs[res.URI]; exists {
			return fmt.Errorf("duplicate resource uri: %s", res.URI)
		}
		resourceURIs[res.URI] = struct{}{}
	}

	return nil
}

func validateTool(i int, tool ToolConfig, seen map[string]struct{}) error {
	if tool.Name == "" {
		return fmt.Errorf("tools[%d].name is required", i)
	}
	if _, exists := seen[tool.Name]; exists {
		return fmt.Errorf("duplicate tool name: %s", tool.Name)
	}
	if tool.MaxAttempts < 0 {
		return fmt.Errorf("tools[%d].max_attempts must be >= 0", i)
	}
	if err := checkDuration(tool.Timeout); err != nil {
		return fmt.Errorf("tools[%d].timeout is invalid: %w", i, err)
	}
	if tool.InputSchema != nil && tool.InputSchema["type"] != "object" {
		return fmt.Errorf("tools[%d].input_schema.type must be object", i)
	}

	exec := tool.Executor
	switch strings.ToLower(strings.TrimSpace(exec.Type)) {
	case constants.ExecutorShell:
		if strings.TrimSpace(exec.Command) == "" {
			return fmt.Errorf("tools[%d].executor.command is required", i)
		}
	case constants.ExecutorHTTP:
		if _, err := parseAbsoluteURL(exec.URL); err != nil {
			return fmt.Errorf("tools[%d].executor.url is invalid: %w", i, err)
		}
	case constants.ExecutorStatic:
	case "":
		return fmt.Errorf("tools[%d].executor.type is required", i)
	default:
		return fmt.Errorf("tools[%d].executor.type must be shell, http or static", i)
	}
	if err := checkDuration(exec.Timeout); err != nil {
		return fmt.Errorf("tools[%d].executor.timeout is invalid: %w", i, err)
	}

	for j, item := range tool.Guards {
		switch strings.ToLower(strings.TrimSpace(item.Type)) {
		case constants.GuardLimits:
			if item.MaxTotal < 0 || item.RatePerMinute < 0 {
				return fmt.Errorf("tools[%d].guards[%d] limits must be >= 0", i, j)
			}
		case constants.GuardShell:
			if strings.TrimSpace(item.Command) == "" {
				return fmt.Errorf("tools[%d].guards[%d].command is required", i, j)
			}
		case "":
			return fmt.Errorf("tools[%d].guards[%d].type is required", i, j)
		default:
			return fmt.Errorf("tools[%d].guards[%d].type must be limits or shell", i, j)
		}
		if err := checkDuration(item.Timeout); err != nil {
			return fmt.Errorf("tools[%d].guards[%d].timeout is invalid: %w", i, j, err)
		}
	}
	return nil
}

func checkDuration(value string) error {
	_, err := timeutil.ParseOptional(value)
	return err
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("url must be absolute")
	}
	return parsed, nil
}
