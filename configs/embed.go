// Package configs ships example plan server configurations.
package configs

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Default is the config used by examples and tests.
const Default = "equity-assistant.yaml"

//go:embed *.yaml
var files embed.FS

// Names lists the embedded configs, sorted.
func Names() []string {
	names, _ := fs.Glob(files, "*.yaml")
	slices.Sort(names)
	return names
}

// Load returns an embedded config. The .yaml extension may be omitted.
func Load(name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("embedded config name is empty")
	}
	if path.Ext(name) == "" {
		name += ".yaml"
	}
	data, err := fs.ReadFile(files, name)
	if err != nil {
		return nil, fmt.Errorf("embedded config %q not found (available: %s): %w", name, strings.Join(Names(), ", "), err)
	}
	return data, nil
}
