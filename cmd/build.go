package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarry-build/quarry/internal/build"
	"github.com/quarry-build/quarry/internal/envfile"
	"github.com/quarry-build/quarry/internal/errors"
	"github.com/quarry-build/quarry/internal/ui"
)

var (
	buildTemplateFile  string
	buildDir           string
	buildBaseDir       string
	buildManifest      string
	buildClean         bool
	buildUseContainer  bool
	buildParameters    []string
	buildDockerNetwork string
	buildSkipPull      bool
	buildEnvVarsFile   string
)

var buildCmd = &cobra.Command{
	Use:   "build [flags]",
	Short: "Build the functions declared in the template",
	Long: `Build the functions declared in the deployment template.

The build command resolves the template, prepares the build directory, and
reports the functions that will be built. Builds can run on the host or
inside containers when --use-container is set.`,
	Example: `  # Build with defaults (template.yaml, .quarry/build)
  quarry build

  # Clean build into a custom directory
  quarry build --build-dir ./out --clean

  # Containerized build on a dedicated network, without pulling images
  quarry build --use-container --docker-network build-net --skip-pull-image

  # Override template parameters and container environment
  quarry build --parameter Stage=prod --env-vars vars.json`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		var errs []error

		if buildTemplateFile == "" {
			errs = append(errs, fmt.Errorf("--template is required (path to the deployment template)"))
		}
		if buildDir == "" {
			errs = append(errs, fmt.Errorf("--build-dir is required (workspace for build artifacts)"))
		}
		if _, err := parseParameters(buildParameters); err != nil {
			errs = append(errs, err)
		}
		if buildDockerNetwork != "" && !buildUseContainer {
			errs = append(errs, fmt.Errorf("--docker-network requires --use-container"))
		}
		if buildSkipPull && !buildUseContainer {
			errs = append(errs, fmt.Errorf("--skip-pull-image requires --use-container"))
		}

		if len(errs) > 0 {
			combined := "Validation errors:\n"
			for _, err := range errs {
				combined += fmt.Sprintf("  - %s\n", err)
			}
			return errors.NewValidationError(combined, nil)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBuild(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(errors.GetExitCode(err))
		}
	},
}

func runBuild() error {
	overrides, err := parseParameters(buildParameters)
	if err != nil {
		return errors.NewValidationError("invalid parameter override", err)
	}

	cfg := build.Config{
		TemplateFile:       buildTemplateFile,
		BuildDir:           buildDir,
		BaseDir:            buildBaseDir,
		ManifestPath:       buildManifest,
		Clean:              buildClean,
		UseContainer:       buildUseContainer,
		ParameterOverrides: overrides,
		DockerNetwork:      buildDockerNetwork,
		SkipPullImage:      buildSkipPull,
		EnvVarsFile:        buildEnvVarsFile,
	}

	ctx, err := cfg.Resolve()
	if err != nil {
		return err
	}

	printSummary(ctx)

	functions := ctx.Functions().All()
	if len(functions) == 0 {
		ui.Warning("No buildable functions found in %s\n", ctx.OriginalTemplatePath())
		return nil
	}

	ui.Success("Resolved %d function(s); artifacts will be written to %s\n",
		len(functions), ctx.BuildDir())
	return nil
}

func printSummary(ctx *build.Context) {
	ui.Info("Build configuration\n")
	ui.Field("Template", ctx.OriginalTemplatePath())
	ui.Field("Base directory", ctx.BaseDir())
	ui.Field("Build directory", ctx.BuildDir())
	ui.Field("Output template", ctx.OutputTemplatePath())
	if manifest := ctx.ManifestPathOverride(); manifest != "" {
		ui.Field("Manifest", manifest)
	}
	if ctx.UseContainer() {
		mode := "container"
		if network := ctx.ContainerManager().NetworkID(); network != "" {
			mode += " (network " + network + ")"
		}
		ui.Field("Build mode", mode)
	} else {
		ui.Field("Build mode", "host")
	}
	if vars := ctx.EnvVars(); vars != nil {
		ui.Field("Env overrides", formatEnvVars(vars))
	}
	for _, fn := range ctx.Functions().All() {
		ui.Field("Function", fmt.Sprintf("%s (%s, %s)", fn.Name, fn.Runtime, fn.CodeURI))
	}
}

func formatEnvVars(vars map[string]string) string {
	redacted := envfile.Redact(vars)
	pairs := make([]string, 0, len(redacted))
	for key, value := range redacted {
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, " ")
}

// parseParameters converts repeated --parameter Key=Value flags to a map.
// Returns nil (not an empty map) when no overrides were given.
func parseParameters(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--parameter must be Key=Value, got '%s'", pair)
		}
		overrides[key] = value
	}
	return overrides, nil
}

func init() {
	buildCmd.Flags().StringVarP(&buildTemplateFile, "template", "t", "template.yaml", "Path to the deployment template")
	buildCmd.Flags().StringVarP(&buildDir, "build-dir", "b", ".quarry/build", "Directory to store build artifacts")
	buildCmd.Flags().StringVar(&buildBaseDir, "base-dir", "", "Resolve relative code paths against this directory (default: template's directory)")
	buildCmd.Flags().StringVarP(&buildManifest, "manifest", "m", "", "Use this dependency manifest for all functions")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "Clear the build directory before building")
	buildCmd.Flags().BoolVarP(&buildUseContainer, "use-container", "u", false, "Build each function inside a container")
	buildCmd.Flags().StringArrayVar(&buildParameters, "parameter", nil, "Override a template parameter (Key=Value, repeatable)")
	buildCmd.Flags().StringVar(&buildDockerNetwork, "docker-network", "", "Docker network for build containers")
	buildCmd.Flags().BoolVar(&buildSkipPull, "skip-pull-image", false, "Skip pulling build images, use local ones")
	buildCmd.Flags().StringVar(&buildEnvVarsFile, "env-vars", "", "File of environment-variable overrides for containerized builds (JSON or .env)")
}
