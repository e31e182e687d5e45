package render

import (
	"strconv"
	"strings"
	"text/template"
)

// FuncMap returns template helpers for YAML rendering. env fails the render
// when the variable is unset; envOr and envInt fall back to a default.
func FuncMap(r *Renderer) template.FuncMap {
	return template.FuncMap{
		"env": func(key string) string {
			value, ok := r.lookup(key)
			if !ok {
				r.markMissing(key)
			}
			return value
		},
		"envOr": func(key, def string) string {
			if value, ok := r.lookup(key); ok && value != "" {
				return value
			}
			return def
		},
		"envInt": func(key string, def int) int {
			value, ok := r.lookup(key)
			if !ok {
				return def
			}
			parsed, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return def
			}
			return parsed
		},
		"default": func(def, value string) string {
			if value == "" {
				return def
			}
			return value
		},
		"quote": strconv.Quote,
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
