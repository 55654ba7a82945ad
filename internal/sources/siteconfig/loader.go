// Package siteconfig reads the YAML seed for the site configuration.
package siteconfig

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of site.yaml
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

// NewLoader creates a new site config loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		lookup:   os.LookupEnv,
	}
}

// Load reads and parses the seed file
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read site config file: %w", err)
	}

	data = l.expandVariables(data)

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse site config yaml: %w", err)
	}

	return f, nil
}

var templateVar = regexp.MustCompile(`\{\{\s*(PINMAP_VAR_[A-Za-z0-9_]+)\s*\}\}`)

// expandVariables replaces {{PINMAP_VAR_...}} with the environment value.
// Unset variables become "".
func (l *Loader) expandVariables(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		v, ok := l.lookup(string(name))
		if !ok {
			return []byte(`""`)
		}
		return []byte(v)
	})
}
