// Package function resolves the buildable function definitions declared in a
// deployment template.
package function

import (
	"sort"

	"github.com/quarry-build/quarry/internal/template"
)

// Resource types whose declarations describe a buildable function.
const (
	serverlessFunctionType = "AWS::Serverless::Function"
	lambdaFunctionType     = "AWS::Lambda::Function"
)

// Function is one buildable function definition extracted from the template.
type Function struct {
	Name    string
	Runtime string
	Handler string
	CodeURI string
}

// Provider enumerates the buildable functions of a template, with parameter
// overrides applied on top of the template's declared parameter defaults.
type Provider struct {
	functions map[string]Function
}

// NewProvider derives the function set from the template.
//
// Parameter resolution is intentionally shallow: a string property equal to a
// parameter name wrapped in a Ref mapping is substituted with the override
// value when one was supplied, or the parameter's declared default otherwise.
func NewProvider(tmpl *template.Template, overrides map[string]string) *Provider {
	params := resolveParameters(tmpl, overrides)

	functions := make(map[string]Function)
	for name, raw := range tmpl.Resources() {
		resource, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		resourceType, _ := resource["Type"].(string)
		if resourceType != serverlessFunctionType && resourceType != lambdaFunctionType {
			continue
		}

		properties, _ := resource["Properties"].(map[string]interface{})
		functions[name] = Function{
			Name:    name,
			Runtime: stringProperty(properties, "Runtime", params),
			Handler: stringProperty(properties, "Handler", params),
			CodeURI: stringProperty(properties, "CodeUri", params),
		}
	}

	return &Provider{functions: functions}
}

// All returns every buildable function, sorted by name for stable output.
func (p *Provider) All() []Function {
	names := make([]string, 0, len(p.functions))
	for name := range p.functions {
		names = append(names, name)
	}
	sort.Strings(names)

	functions := make([]Function, 0, len(names))
	for _, name := range names {
		functions = append(functions, p.functions[name])
	}
	return functions
}

// Get returns the function with the given logical name.
// The second return value reports whether it exists.
func (p *Provider) Get(name string) (Function, bool) {
	fn, ok := p.functions[name]
	return fn, ok
}

// resolveParameters merges the template's parameter defaults with the
// supplied overrides; overrides win.
func resolveParameters(tmpl *template.Template, overrides map[string]string) map[string]string {
	resolved := make(map[string]string)
	for name, raw := range tmpl.Parameters() {
		param, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if def, ok := param["Default"].(string); ok {
			resolved[name] = def
		}
	}
	for name, value := range overrides {
		resolved[name] = value
	}
	return resolved
}

// stringProperty reads a string property, resolving a {"Ref": name} mapping
// against the resolved parameters. Non-string, non-Ref values yield "".
func stringProperty(properties map[string]interface{}, key string, params map[string]string) string {
	switch value := properties[key].(type) {
	case string:
		return value
	case map[string]interface{}:
		if ref, ok := value["Ref"].(string); ok {
			return params[ref]
		}
	}
	return ""
}
