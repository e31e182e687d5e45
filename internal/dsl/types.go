package dsl

import "github.com/codex-k8s/plan-mcp-server/internal/plan"

// Config is the top-level YAML configuration.
type Config struct {
	// Server describes the MCP server settings.
	Server ServerConfig `yaml:"server"`
	// Tools lists all tool declarations.
	Tools []ToolConfig `yaml:"tools"`
	// Resources lists static resources.
	Resources []ResourceConfig `yaml:"resources"`
	// StartupPlan is run through the executor before serving.
	StartupPlan *StartupPlanConfig `yaml:"startup_plan"`
}

// ServerConfig defines MCP server settings.
type ServerConfig struct {
	// Name is the MCP server name.
	Name string `yaml:"name"`
	// Version is the MCP server version.
	Version string `yaml:"version"`
	// Transport selects the server transport ("http" or "stdio").
	Transport string `yaml:"transport"`
	// ShutdownTimeout overrides graceful shutdown duration.
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	// Idempotency configures caching of step outputs.
	Idempotency IdempotencyConfig `yaml:"idempotency_cache"`
	// HTTP configures HTTP transport.
	HTTP HTTPConfig `yaml:"http"`
	// Plan configures the plan executor.
	Plan PlanConfig `yaml:"plan"`
	// Validators are consulted before a plan runs.
	Validators []ValidatorConfig `yaml:"validators"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// Path is the MCP HTTP endpoint path.
	Path string `yaml:"path"`
	// ReadTimeout limits request read time.
	ReadTimeout string `yaml:"read_timeout"`
	// WriteTimeout limits response write time.
	WriteTimeout string `yaml:"write_timeout"`
	// IdleTimeout controls idle connections.
	IdleTimeout string `yaml:"idle_timeout"`
	// Stateless disables session tracking.
	Stateless bool `yaml:"stateless"`
}

// PlanConfig configures plan execution.
type PlanConfig struct {
	// MaxConcurrency bounds concurrently running steps; 0 is unbounded.
	MaxConcurrency int `yaml:"max_concurrency"`
	// StepTimeout limits each step unless the tool sets its own timeout.
	StepTimeout string `yaml:"step_timeout"`
	// MaxSteps rejects larger plans during validation; 0 disables the check.
	MaxSteps int `yaml:"max_steps"`
}

// ValidatorConfig declares a plan validator.
type ValidatorConfig struct {
	// Type selects validator implementation (structural, http).
	Type string `yaml:"type"`
	// Name is a human-friendly validator name.
	Name string `yaml:"name"`
	// URL is the HTTP validator endpoint.
	URL string `yaml:"url"`
	// Method overrides HTTP method.
	Method string `yaml:"method"`
	// Headers adds HTTP headers.
	Headers map[string]string `yaml:"headers"`
	// Timeout limits the validator call.
	Timeout string `yaml:"timeout"`
}

// ToolConfig declares a tool available to plans.
type ToolConfig struct {
	// Name is the tool name used in plan steps.
	Name string `yaml:"name"`
	// Title is the human-friendly tool title.
	Title string `yaml:"title"`
	// Description explains the tool for the planner.
	Description string `yaml:"description"`
	// Annotations provides optional tool hints.
	Annotations *ToolAnnotationsConfig `yaml:"annotations,omitempty"`
	// Timeout is the per-step timeout for this tool.
	Timeout string `yaml:"timeout"`
	// MaxAttempts retries handler errors; 0 or 1 disables retries.
	MaxAttempts int `yaml:"max_attempts"`
	// Expose publishes the tool as its own MCP tool.
	Expose *bool `yaml:"expose"`
	// InputSchema defines JSON Schema for tool params.
	InputSchema map[string]any `yaml:"input_schema"`
	// Executor describes how the tool is executed.
	Executor ExecutorConfig `yaml:"executor"`
	// Guards run before every call.
	Guards []GuardConfig `yaml:"guards"`
	// Tags is an optional list of tags.
	Tags []string `yaml:"tags"`
}

// Exposed reports whether the tool is published as its own MCP tool.
func (t ToolConfig) Exposed() bool {
	return t.Expose == nil || *t.Expose
}

// ExecutorConfig defines how to execute a tool.
type ExecutorConfig struct {
	// Type selects executor implementation (shell, http, static).
	Type string `yaml:"type"`
	// Command is the executable or shell command.
	Command string `yaml:"command"`
	// Args contains command arguments.
	Args []string `yaml:"args"`
	// Env adds environment variables for execution.
	Env map[string]string `yaml:"env"`
	// Output selects text or json decoding of shell output.
	Output string `yaml:"output"`
	// URL is the HTTP handler endpoint.
	URL string `yaml:"url"`
	// Method overrides HTTP method.
	Method string `yaml:"method"`
	// Headers adds HTTP headers.
	Headers map[string]string `yaml:"headers"`
	// Timeout is the HTTP client timeout.
	Timeout string `yaml:"timeout"`
	// Spec is forwarded to HTTP handlers.
	Spec map[string]any `yaml:"spec"`
	// Value is returned by static executors.
	Value any `yaml:"value"`
}

// GuardConfig defines a single guard.
type GuardConfig struct {
	// Type selects guard implementation (limits, shell).
	Type string `yaml:"type"`
	// Name is a human-friendly guard name.
	Name string `yaml:"name"`
	// Timeout limits guard execution time.
	Timeout string `yaml:"timeout"`
	// MaxTotal limits total tool calls.
	MaxTotal int `yaml:"max_total"`
	// RatePerMinute limits calls per minute.
	RatePerMinute int `yaml:"rate_per_minute"`
	// Fields validates step params.
	Fields map[string]FieldPolicy `yaml:"fields"`
	// Command is a shell guard command.
	Command string `yaml:"command"`
	// Args are shell guard arguments.
	Args []string `yaml:"args"`
	// Env adds environment variables for the guard.
	Env map[string]string `yaml:"env"`
	// AllowExitCodes defines additional allowed exit codes.
	AllowExitCodes []int `yaml:"allow_exit_codes"`
}

// FieldPolicy defines validation rules for a step param.
type FieldPolicy struct {
	// Regex validates string value format.
	Regex string `yaml:"regex"`
	// Min sets numeric minimum.
	Min *float64 `yaml:"min"`
	// Max sets numeric maximum.
	Max *float64 `yaml:"max"`
	// MinLength sets string minimum length.
	MinLength *int `yaml:"min_length"`
	// MaxLength sets string maximum length.
	MaxLength *int `yaml:"max_length"`
	// OneOf restricts string values.
	OneOf []string `yaml:"one_of"`
	// Required denies calls without the param.
	Required bool `yaml:"required"`
}

// ResourceConfig declares a static MCP resource.
type ResourceConfig struct {
	// Name is a human-friendly resource name.
	Name string `yaml:"name"`
	// URI is the resource identifier.
	URI string `yaml:"uri"`
	// Description explains the resource.
	Description string `yaml:"description"`
	// MIMEType sets the content type.
	MIMEType string `yaml:"mime_type"`
	// Text is the static resource content.
	Text string `yaml:"text"`
}

// IdempotencyConfig configures caching of step outputs for idempotent tools.
type IdempotencyConfig struct {
	// Enabled toggles caching.
	Enabled bool `yaml:"enabled"`
	// TTL controls how long cached outputs are kept.
	TTL string `yaml:"ttl"`
	// MaxEntries limits the cache size.
	MaxEntries int `yaml:"max_entries"`
}

// ToolAnnotationsConfig defines tool behavior hints.
type ToolAnnotationsConfig struct {
	// ReadOnlyHint indicates a read-only tool.
	ReadOnlyHint bool `yaml:"read_only_hint,omitempty"`
	// DestructiveHint indicates the tool may be destructive.
	DestructiveHint *bool `yaml:"destructive_hint,omitempty"`
	// IdempotentHint marks outputs as cacheable.
	IdempotentHint bool `yaml:"idempotent_hint,omitempty"`
	// OpenWorldHint indicates interaction with external entities.
	OpenWorldHint *bool `yaml:"open_world_hint,omitempty"`
	// Title is an optional tool display title.
	Title string `yaml:"title,omitempty"`
}

// StartupPlanConfig is a plan executed once on start.
type StartupPlanConfig struct {
	// Timeout bounds the whole startup plan.
	Timeout string `yaml:"timeout"`
	// Steps are the plan steps.
	Steps []plan.Step `yaml:"steps"`
}
