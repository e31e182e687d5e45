package constants

// Transports.
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
)

// Executor type aliases.
const (
	ExecutorShell  = "shell"
	ExecutorHTTP   = "http"
	ExecutorStatic = "static"
)

// Guard type aliases.
const (
	GuardLimits = "limits"
	GuardShell  = "shell"
)

// Validator type aliases.
const (
	ValidatorStructural = "structural"
	ValidatorHTTP       = "http"
)

// Names of the built-in MCP tools.
const (
	ToolExecutePlan = "execute_plan"
	ToolListTools   = "list_plan_tools"
)
