package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quarry-build/quarry/internal/errors"
)

const minimalTemplate = `
Resources:
  HelloFunction:
    Type: AWS::Serverless::Function
    Properties:
      Runtime: python3.12
      Handler: app.handler
      CodeUri: hello/
`

// newFixture writes a valid template into a fresh directory and returns a
// Config pointing at it, with the build directory nested alongside.
func newFixture(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.yaml")
	if err := os.WriteFile(templatePath, []byte(minimalTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	return Config{
		TemplateFile: templatePath,
		BuildDir:     filepath.Join(dir, ".build"),
	}
}

func TestResolvePreparesBuildDir(t *testing.T) {
	cfg := newFixture(t)

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	if !filepath.IsAbs(ctx.BuildDir()) {
		t.Errorf("BuildDir() = %s is not absolute", ctx.BuildDir())
	}
	info, err := os.Stat(ctx.BuildDir())
	if err != nil {
		t.Fatalf("build directory does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("build directory is not a directory")
	}
	probe := filepath.Join(ctx.BuildDir(), "probe")
	if err := os.WriteFile(probe, []byte("x"), 0o644); err != nil {
		t.Errorf("build directory is not writable: %v", err)
	}
}

func TestResolveCleanRemovesStrayFiles(t *testing.T) {
	cfg := newFixture(t)
	cfg.Clean = true
	if err := os.Mkdir(cfg.BuildDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stray := filepath.Join(cfg.BuildDir, "stray.txt")
	if err := os.WriteFile(stray, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	if _, err := os.Stat(ctx.BuildDir()); err != nil {
		t.Fatalf("build directory missing after clean: %v", err)
	}
	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Error("stray file survived a clean build")
	}
}

func TestResolveDefaultsBaseDirToTemplateParent(t *testing.T) {
	cfg := newFixture(t)

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	if ctx.BaseDir() != filepath.Dir(ctx.OriginalTemplatePath()) {
		t.Errorf("BaseDir() = %s, want template parent %s",
			ctx.BaseDir(), filepath.Dir(ctx.OriginalTemplatePath()))
	}
}

func TestResolveUsesSuppliedBaseDir(t *testing.T) {
	cfg := newFixture(t)
	base := t.TempDir()
	cfg.BaseDir = base

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	want, err := filepath.EvalSymlinks(base)
	if err != nil {
		t.Fatal(err)
	}
	if ctx.BaseDir() != want {
		t.Errorf("BaseDir() = %s, want %s", ctx.BaseDir(), want)
	}
}

func TestResolveOutputTemplatePath(t *testing.T) {
	cfg := newFixture(t)

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	want := filepath.Join(ctx.BuildDir(), "template.yaml")
	if ctx.OutputTemplatePath() != want {
		t.Errorf("OutputTemplatePath() = %s, want %s", ctx.OutputTemplatePath(), want)
	}
}

func TestResolveManifestPathOverride(t *testing.T) {
	cfg := newFixture(t)

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if ctx.ManifestPathOverride() != "" {
		t.Errorf("ManifestPathOverride() = %q, want empty", ctx.ManifestPathOverride())
	}

	cfg.ManifestPath = "requirements.txt"
	ctx, err = cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	got := ctx.ManifestPathOverride()
	if !filepath.IsAbs(got) || filepath.Base(got) != "requirements.txt" {
		t.Errorf("ManifestPathOverride() = %q, want absolute requirements.txt path", got)
	}
}

func TestResolveEnvVars(t *testing.T) {
	cfg := newFixture(t)

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if ctx.EnvVars() != nil {
		t.Error("EnvVars() should be nil when no file is configured")
	}

	envPath := filepath.Join(t.TempDir(), "vars.json")
	if err := os.WriteFile(envPath, []byte(`{"A":"1"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.EnvVarsFile = envPath

	ctx, err = cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if got := ctx.EnvVars()["A"]; got != "1" {
		t.Errorf("EnvVars()[A] = %q, want %q", got, "1")
	}
}

func TestResolveEmptyEnvVarsFileIsNotNil(t *testing.T) {
	cfg := newFixture(t)
	envPath := filepath.Join(t.TempDir(), "vars.json")
	if err := os.WriteFile(envPath, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.EnvVarsFile = envPath

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if ctx.EnvVars() == nil {
		t.Error("EnvVars() is nil for a configured-but-empty file")
	}
	if len(ctx.EnvVars()) != 0 {
		t.Errorf("EnvVars() = %v, want empty", ctx.EnvVars())
	}
}

func TestResolveMissingEnvVarsFile(t *testing.T) {
	cfg := newFixture(t)
	cfg.EnvVarsFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := cfg.Resolve()
	if err == nil {
		t.Fatal("Resolve() did not fail for a missing env-vars file")
	}
	if !strings.Contains(err.Error(), "missing.json") {
		t.Errorf("error %q does not name the env-vars file", err)
	}
	if errors.GetExitCode(err) != 1 {
		t.Errorf("exit code = %d, want 1", errors.GetExitCode(err))
	}
}

func TestResolveMalformedTemplate(t *testing.T) {
	cfg := newFixture(t)
	if err := os.WriteFile(cfg.TemplateFile, []byte("Resources:\n\tbroken"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := cfg.Resolve()
	if err == nil {
		t.Fatal("Resolve() accepted a malformed template")
	}
	if errors.GetExitCode(err) != 2 {
		t.Errorf("exit code = %d, want 2 for a template error", errors.GetExitCode(err))
	}
}

func TestResolveMalformedTemplateLeavesBuildDirUntouched(t *testing.T) {
	cfg := newFixture(t)
	cfg.Clean = true
	if err := os.Mkdir(cfg.BuildDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stray := filepath.Join(cfg.BuildDir, "stray.txt")
	if err := os.WriteFile(stray, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.TemplateFile, []byte("Resources:\n\tbroken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := cfg.Resolve(); err == nil {
		t.Fatal("Resolve() accepted a malformed template")
	}

	// Template loading fails before any directory mutation.
	if _, err := os.Stat(stray); err != nil {
		t.Error("build directory was mutated despite the template error")
	}
}

func TestResolveFunctionProvider(t *testing.T) {
	cfg := newFixture(t)

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	all := ctx.Functions().All()
	if len(all) != 1 || all[0].Name != "HelloFunction" {
		t.Errorf("Functions().All() = %+v, want HelloFunction only", all)
	}
}

func TestResolveWithoutContainer(t *testing.T) {
	cfg := newFixture(t)

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	if ctx.UseContainer() {
		t.Error("UseContainer() = true, want false")
	}
	if ctx.ContainerManager() != nil {
		t.Error("ContainerManager() is set without use-container")
	}
}

func TestResolveWithContainer(t *testing.T) {
	cfg := newFixture(t)
	cfg.UseContainer = true
	cfg.DockerNetwork = "build-net"
	cfg.SkipPullImage = true

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	mgr := ctx.ContainerManager()
	if mgr == nil {
		t.Fatal("ContainerManager() is nil with use-container")
	}
	defer mgr.Close()

	if mgr.NetworkID() != "build-net" {
		t.Errorf("NetworkID() = %q, want %q", mgr.NetworkID(), "build-net")
	}
	if !mgr.SkipPull() {
		t.Error("SkipPull() = false, want true")
	}
	if !ctx.UseContainer() {
		t.Error("UseContainer() = false, want true")
	}
}

func TestResolveParameterOverrides(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.yaml")
	content := `
Parameters:
  Src:
    Type: String
    Default: original/
Resources:
  Fn:
    Type: AWS::Serverless::Function
    Properties:
      Runtime: go1.x
      Handler: main
      CodeUri:
        Ref: Src
`
	if err := os.WriteFile(templatePath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		TemplateFile:       templatePath,
		BuildDir:           filepath.Join(dir, ".build"),
		ParameterOverrides: map[string]string{"Src": "patched/"},
	}

	ctx, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}

	fn, ok := ctx.Functions().Get("Fn")
	if !ok {
		t.Fatal("Functions().Get(Fn) not found")
	}
	if fn.CodeURI != "patched/" {
		t.Errorf("CodeURI = %q, want override %q", fn.CodeURI, "patched/")
	}
}
