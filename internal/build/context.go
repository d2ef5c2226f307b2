// Package build assembles the resolved context a build invocation runs
// against: the parsed template, environment-variable overrides, the prepared
// build directory, and the optional container manager.
//
// Resolution is two-phase. Config is a plain value carrying the raw
// parameters exactly as supplied; Config.Resolve performs all I/O and either
// returns a fully-populated, immutable *Context or an error with no partial
// state. Downstream build logic only ever sees a *Context, so there is no
// "used before setup" state to misuse.
package build

import (
	"path/filepath"

	"github.com/quarry-build/quarry/internal/container"
	"github.com/quarry-build/quarry/internal/envfile"
	"github.com/quarry-build/quarry/internal/errors"
	"github.com/quarry-build/quarry/internal/function"
	"github.com/quarry-build/quarry/internal/pathutil"
	"github.com/quarry-build/quarry/internal/template"
	"github.com/quarry-build/quarry/internal/workspace"
)

// Config holds the raw build parameters as supplied by the command layer.
// Constructing a Config performs no I/O and no validation; everything is
// checked during Resolve.
type Config struct {
	// TemplateFile is the path to the deployment template. Required.
	TemplateFile string
	// BuildDir is the workspace directory artifacts are assembled in. Required.
	BuildDir string
	// BaseDir anchors relative code paths. When empty it defaults to the
	// directory containing the template.
	BaseDir string
	// ManifestPath optionally overrides the dependency manifest used for
	// every function.
	ManifestPath string
	// Clean requests that a non-empty build directory be cleared first.
	Clean bool
	// UseContainer runs each function build inside a container.
	UseContainer bool
	// ParameterOverrides override template parameter defaults by name.
	ParameterOverrides map[string]string
	// DockerNetwork is the Docker network build containers attach to.
	DockerNetwork string
	// SkipPullImage suppresses pulling build images, using local ones.
	SkipPullImage bool
	// EnvVarsFile is the path to a file of environment-variable overrides
	// passed to containerized builds. Empty means no overrides.
	EnvVarsFile string
}

// Context is the resolved, immutable snapshot driving one build invocation.
// All accessors are pure reads.
type Context struct {
	cfg Config

	baseDir          string
	buildDir         string
	templatePath     string
	tmpl             *template.Template
	functions        *function.Provider
	envVars          map[string]string
	containerManager *container.Manager
}

// Resolve transforms the raw configuration into a usable Context.
//
// Steps run in order: load the template, load environment overrides, derive
// the function provider, default the base directory to the template's parent,
// prepare the build directory, and construct the container manager when
// containerized builds were requested. Any failure aborts the whole sequence;
// no Context is returned.
func (cfg Config) Resolve() (*Context, error) {
	tmpl, err := template.Load(cfg.TemplateFile)
	if err != nil {
		return nil, errors.NewValidationError("invalid template", err)
	}

	var envVars map[string]string
	if cfg.EnvVarsFile != "" {
		envVars, err = envfile.Load(cfg.EnvVarsFile)
		if err != nil {
			return nil, errors.NewRuntimeError("failed to load environment overrides", err)
		}
	}

	functions := function.NewProvider(tmpl, cfg.ParameterOverrides)

	templatePath, err := pathutil.Resolve(cfg.TemplateFile)
	if err != nil {
		return nil, errors.NewRuntimeError("failed to resolve template path", err)
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		// Base directory, if not provided, is the directory containing the template.
		baseDir = filepath.Dir(templatePath)
	} else if baseDir, err = pathutil.Resolve(baseDir); err != nil {
		return nil, errors.NewRuntimeError("failed to resolve base directory", err)
	}

	buildDir, err := workspace.SetupBuildDir(cfg.BuildDir, cfg.Clean)
	if err != nil {
		return nil, err
	}

	var manager *container.Manager
	if cfg.UseContainer {
		manager, err = container.NewManager(cfg.DockerNetwork, cfg.SkipPullImage)
		if err != nil {
			return nil, errors.NewRuntimeError("failed to initialize container manager", err)
		}
	}

	return &Context{
		cfg:              cfg,
		baseDir:          baseDir,
		buildDir:         buildDir,
		templatePath:     templatePath,
		tmpl:             tmpl,
		functions:        functions,
		envVars:          envVars,
		containerManager: manager,
	}, nil
}

// ContainerManager returns the container manager, or nil when containerized
// builds were not requested. Callers must check before use.
func (c *Context) ContainerManager() *container.Manager {
	return c.containerManager
}

// Functions returns the provider enumerating the buildable functions.
func (c *Context) Functions() *function.Provider {
	return c.functions
}

// Template returns the parsed deployment template.
func (c *Context) Template() *template.Template {
	return c.tmpl
}

// BuildDir returns the absolute path of the prepared build directory.
func (c *Context) BuildDir() string {
	return c.buildDir
}

// BaseDir returns the absolute base directory relative code paths resolve
// against.
func (c *Context) BaseDir() string {
	return c.baseDir
}

// UseContainer reports whether function builds run inside containers.
func (c *Context) UseContainer() bool {
	return c.cfg.UseContainer
}

// OutputTemplatePath returns where the processed template is written once the
// build completes.
func (c *Context) OutputTemplatePath() string {
	return filepath.Join(c.buildDir, template.OutputFileName)
}

// OriginalTemplatePath returns the absolute path of the input template.
func (c *Context) OriginalTemplatePath() string {
	return c.templatePath
}

// ManifestPathOverride returns the absolute form of the configured manifest
// override, or "" when none was configured.
func (c *Context) ManifestPathOverride() string {
	if c.cfg.ManifestPath == "" {
		return ""
	}
	abs, err := filepath.Abs(c.cfg.ManifestPath)
	if err != nil {
		return c.cfg.ManifestPath
	}
	return abs
}

// EnvVars returns the environment-variable overrides, or nil when no
// overrides file was configured. A configured-but-empty file yields an empty,
// non-nil mapping.
func (c *Context) EnvVars() map[string]string {
	return c.envVars
}
