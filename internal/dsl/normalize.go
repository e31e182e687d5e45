package dsl

import "fmt"

// normalizeConfig converts YAML maps with interface keys into string-keyed
// maps so schemas, static values and params encode as JSON.
func normalizeConfig(cfg *Config) error {
	for i := range cfg.Tools {
		input, err := normalizeMap(cfg.Tools[i].InputSchema)
		if err != nil {
			return fmt.Errorf("tools[%d].input_schema: %w", i, err)
		}
		if input != nil {
			if _, ok := input["type"]; !ok {
				input["type"] = "object"
			}
		}
		cfg.Tools[i].InputSchema = input

		spec, err := normalizeMap(cfg.Tools[i].Executor.Spec)
		if err != nil {
			return fmt.Errorf("tools[%d].executor.spec: %w", i, err)
		}
		cfg.Tools[i].Executor.Spec = spec

		value, err := normalizeValue(cfg.Tools[i].Executor.Value)
		if err != nil {
			return fmt.Errorf("tools[%d].executor.value: %w", i, err)
		}
		cfg.Tools[i].Executor.Value = value
	}
	if cfg.StartupPlan != nil {
		for i := range cfg.StartupPlan.Steps {
			params, err := normalizeMap(cfg.StartupPlan.Steps[i].Params)
			if err != nil {
				return fmt.Errorf("startup_plan.steps[%d].params: %w", i, err)
			}
			cfg.StartupPlan.Steps[i].Params = params
		}
	}
	return nil
}

func normalizeMap(values map[string]any) (map[string]any, error) {
	if values == nil {
		return nil, nil
	}
	normalized, err := normalizeValue(values)
	if err != nil {
		return nil, err
	}
	result, ok := normalized.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("value must be an object")
	}
	return result, nil
}

func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			normalized, err := normalizeValue(val)
			if err != nil {
				return nil, err
			}
			out[key] = normalized
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			keyStr, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("key must be string, got %T", key)
			}
			normalized, err := normalizeValue(val)
			if err != nil {
				return nil, err
			}
			out[keyStr] = normalized
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			normalized, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	default:
		return value, nil
	}
}
