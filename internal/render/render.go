package render

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/template"
)

// Renderer expands environment references in YAML configuration templates.
type Renderer struct {
	// LookupEnv resolves variables; defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)

	used    map[string]struct{}
	missing map[string]struct{}
}

func (r *Renderer) lookup(key string) (string, bool) {
	if r.used == nil {
		r.used = map[string]struct{}{}
	}
	r.used[key] = struct{}{}
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(key)
	return value, ok
}

func (r *Renderer) markMissing(key string) {
	if r.missing == nil {
		r.missing = map[string]struct{}{}
	}
	r.missing[key] = struct{}{}
}

// Missing returns the sorted list of required variables that were unset.
func (r *Renderer) Missing() []string {
	return sortedKeys(r.missing)
}

// Used returns the sorted list of variables referenced by the last render.
func (r *Renderer) Used() []string {
	return sortedKeys(r.used)
}

// Render expands raw as a template named name.
func (r *Renderer) Render(name string, raw []byte) ([]byte, error) {
	r.used, r.missing = nil, nil
	if strings.TrimSpace(name) == "" {
		name = "config"
	}
	tmpl, err := template.New(name).Funcs(FuncMap(r)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	execErr := tmpl.Execute(&buf, map[string]any{})
	if missing := r.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("missing env vars: %s", strings.Join(missing, ", "))
	}
	if execErr != nil {
		return nil, fmt.Errorf("render template: %w", execErr)
	}
	return buf.Bytes(), nil
}

// RenderFile loads and renders a YAML template file using the process environment.
func RenderFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return RenderBytes(path, raw)
}

// RenderBytes renders a YAML template from raw bytes using the process environment.
func RenderBytes(name string, raw []byte) ([]byte, error) {
	return (&Renderer{}).Render(name, raw)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}
