package limits

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/codex-k8s/plan-mcp-server/internal/guard"
	"github.com/codex-k8s/plan-mcp-server/internal/templates"
)

// Policy configures a limits guard.
type Policy struct {
	// Name is a human-friendly name.
	Name string
	// MaxTotal limits total calls per tool over the process lifetime.
	MaxTotal int
	// RatePerMinute limits calls per minute per tool.
	RatePerMinute int
	// Fields validates step params.
	Fields map[string]FieldPolicy
}

// FieldPolicy describes validation rules for a single param.
type FieldPolicy struct {
	// Regex validates string value format.
	Regex string
	// Min sets numeric minimum.
	Min *float64
	// Max sets numeric maximum.
	Max *float64
	// MinLength sets string minimum length.
	MinLength *int
	// MaxLength sets string maximum length.
	MaxLength *int
	// OneOf restricts string values to a fixed set.
	OneOf []string
	// Required denies calls that omit the param.
	Required bool
}

type toolState struct {
	count   int
	limiter *rate.Limiter
}

// Guard enforces call budgets, rates and param policies.
type Guard struct {
	policy   Policy
	compiled map[string]*regexp.Regexp
	renderer templates.Renderer

	mu     sync.Mutex
	byTool map[string]*toolState
}

var _ guard.Guard = (*Guard)(nil)

// New creates a limits guard and compiles its regex rules.
func New(policy Policy, renderer templates.Renderer) (*Guard, error) {
	compiled := make(map[string]*regexp.Regexp, len(policy.Fields))
	for field, rule := range policy.Fields {
		if rule.Regex == "" {
			continue
		}
		re, err := regexp.Compile(rule.Regex)
		if err != nil {
			return nil, fmt.Errorf("invalid regex for field %s: %w", field, err)
		}
		compiled[field] = re
	}
	return &Guard{
		policy:   policy,
		compiled: compiled,
		renderer: renderer,
		byTool:   make(map[string]*toolState),
	}, nil
}

// Name returns guard name for audit and logging.
func (g *Guard) Name() string {
	if g.policy.Name != "" {
		return g.policy.Name
	}
	return "limits"
}

// Check validates params first, then spends one call from the budget.
func (g *Guard) Check(_ context.Context, req guard.Request) (guard.Decision, error) {
	if err := g.checkFields(req.Params); err != nil {
		return guard.Decision{Allowed: false, Reason: err.Error(), Source: g.Name()}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.byTool[req.ToolName]
	if state == nil {
		state = &toolState{}
		if g.policy.RatePerMinute > 0 {
			state.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(g.policy.RatePerMinute)), g.policy.RatePerMinute)
		}
		g.byTool[req.ToolName] = state
	}

	if g.policy.MaxTotal > 0 && state.count >= g.policy.MaxTotal {
		return guard.Decision{Allowed: false, Reason: g.render("limits.max_total", map[string]any{"Tool": req.ToolName}, "Maximum number of calls exceeded"), Source: g.Name()}, nil
	}
	if state.limiter != nil && !state.limiter.Allow() {
		return guard.Decision{Allowed: false, Reason: g.render("limits.rate_limit", map[string]any{"Tool": req.ToolName}, "Rate limit exceeded"), Source: g.Name()}, nil
	}

	state.count++
	return guard.Decision{Allowed: true, Reason: "allowed", Source: g.Name()}, nil
}

func (g *Guard) checkFields(params map[string]any) error {
	for field, rule := range g.policy.Fields {
		value, ok := params[field]
		if !ok {
			if rule.Required {
				return g.fieldError("limits.field_required", field, nil, "Field "+field+" is required")
			}
			continue
		}

		switch v := value.(type) {
		case string:
			if rule.MinLength != nil && len(v) < *rule.MinLength {
				return g.fieldError("limits.field_min_length", field, map[string]any{"MinLength": *rule.MinLength}, "Field "+field+" is too short")
			}
			if rule.MaxLength != nil && len(v) > *rule.MaxLength {
				return g.fieldError("limits.field_max_length", field, map[string]any{"MaxLength": *rule.MaxLength}, "Field "+field+" is too long")
			}
			if re := g.compiled[field]; re != nil && !re.MatchString(v) {
				return g.fieldError("limits.field_regex", field, nil, "Field "+field+" does not match required format")
			}
			if len(rule.OneOf) > 0 && !slices.Contains(rule.OneOf, v) {
				return g.fieldError("limits.field_one_of", field, map[string]any{"OneOf": rule.OneOf}, "Field "+field+" has an unsupported value")
			}
		case float64, int, int64:
			if err := g.checkNumber(field, rule, toFloat(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Guard) checkNumber(field string, rule FieldPolicy, value float64) error {
	if rule.Min != nil && value < *rule.Min {
		return g.fieldError("limits.field_min", field, map[string]any{"Min": *rule.Min}, "Field "+field+" is below minimum value")
	}
	if rule.Max != nil && value > *rule.Max {
		return g.fieldError("limits.field_max", field, map[string]any{"Max": *rule.Max}, "Field "+field+" is above maximum value")
	}
	return nil
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func (g *Guard) fieldError(key, field string, data map[string]any, fallback string) error {
	if data == nil {
		data = map[string]any{}
	}
	data["Field"] = field
	return errors.New(g.render(key, data, fallback))
}

func (g *Guard) render(key string, data map[string]any, fallback string) string {
	if g.renderer == nil {
		return fallback
	}
	rendered, err := g.renderer.Render(key, data)
	if err != nil {
		return fallback
	}
	return rendered
}
