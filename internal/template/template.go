// Package template loads the deployment template that declares the functions
// to build. The template is a YAML document; this package parses it into a
// generic mapping and offers typed access to the sections the build cares
// about, leaving unknown keys intact for the packaging stage to carry
// through verbatim.
package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFileName is the name of the processed template written at the root
// of the build directory once a build completes.
const OutputFileName = "template.yaml"

// ParseError indicates the template file exists but is not valid YAML or not
// a mapping at the top level.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse template %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Template is the parsed deployment template.
type Template struct {
	data map[string]interface{}
}

// Load reads and parses the template file at path.
// It returns a *ParseError when the content is malformed, and the underlying
// I/O error when the file cannot be read.
func Load(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	return &Template{data: data}, nil
}

// Data returns the full template mapping.
func (t *Template) Data() map[string]interface{} {
	return t.data
}

// Resources returns the Resources section, or an empty mapping when the
// template declares none.
func (t *Template) Resources() map[string]interface{} {
	return t.section("Resources")
}

// Parameters returns the Parameters section, or an empty mapping when the
// template declares none.
func (t *Template) Parameters() map[string]interface{} {
	return t.section("Parameters")
}

func (t *Template) section(key string) map[string]interface{} {
	if section, ok := t.data[key].(map[string]interface{}); ok {
		return section
	}
	return map[string]interface{}{}
}
