package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/woxQAQ/zig-wasm/internal/testutil"
	"github.com/woxQAQ/zig-wasm/internal/toolchain"
	"github.com/woxQAQ/zig-wasm/pkg/options"
	"go.uber.org/zap/zaptest"
)

func activate(t *testing.T, opts options.Options, runner *testutil.FakeRunner, tools ...string) *Session {
	t.Helper()
	session, err := Activate(context.Background(), Resolve(opts), t.TempDir(), runner.Toolchain(tools...))
	if err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	return session
}

func TestActivateDefaultCacheDir(t *testing.T) {
	root := t.TempDir()
	runner := testutil.NewFakeRunner("0.13.0")

	session, err := Activate(context.Background(), Resolve(options.Options{}), root, runner.Toolchain("zig"))
	if err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}

	// t.TempDir has no package.json above it on CI images, but a developer
	// machine might; only check the placement when none is found.
	if _, found := LookupFile(root, ProjectMarkers...); !found {
		if want := filepath.Join(root, CacheDirName); session.Config.CacheDir != want {
			t.Errorf("CacheDir = %s, want %s", session.Config.CacheDir, want)
		}
	}
	if want := filepath.Join(session.Config.CacheDir, CompilerCacheDirName); session.Config.CompilerCacheDir != want {
		t.Errorf("CompilerCacheDir = %s, want %s", session.Config.CompilerCacheDir, want)
	}
	if _, err := os.Stat(session.Config.CompilerCacheDir); err != nil {
		t.Errorf("compiler cache dir not created: %v", err)
	}
	if session.Config.CompilerBinary != "/fake/bin/zig" {
		t.Errorf("CompilerBinary = %s, want /fake/bin/zig", session.Config.CompilerBinary)
	}
	if session.CompilerVersion != "0.13.0" {
		t.Errorf("CompilerVersion = %s, want 0.13.0", session.CompilerVersion)
	}
	if session.OptimizerPath != "" {
		t.Errorf("OptimizerPath = %s, want empty", session.OptimizerPath)
	}
}

func TestActivateNextToPackageJSON(t *testing.T) {
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(project, "web", "src")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}

	runner := testutil.NewFakeRunner("0.13.0")
	session, err := Activate(context.Background(), Resolve(options.Options{}), root, runner.Toolchain("zig"))
	if err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}

	want := filepath.Join(project, "node_modules", CacheDirName)
	if session.Config.CacheDir != want {
		t.Errorf("CacheDir = %s, want %s", session.Config.CacheDir, want)
	}
}

func TestActivateExplicitDirs(t *testing.T) {
	root := t.TempDir()
	runner := testutil.NewFakeRunner("0.13.0")
	opts := options.Options{
		CacheDir: "build/wasm",
		Zig:      options.ZigOptions{CacheDir: "build/zig"},
	}

	session, err := Activate(context.Background(), Resolve(opts), root, runner.Toolchain("zig"))
	if err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}

	if want := filepath.Join(root, "build", "wasm"); session.Config.CacheDir != want {
		t.Errorf("CacheDir = %s, want %s", session.Config.CacheDir, want)
	}
	if want := filepath.Join(root, "build", "zig"); session.Config.CompilerCacheDir != want {
		t.Errorf("CompilerCacheDir = %s, want %s", session.Config.CompilerCacheDir, want)
	}
}

func TestActivateCompilerMissing(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")

	_, err := Activate(context.Background(), Resolve(options.Options{}), t.TempDir(), runner.Toolchain())

	var notFound *toolchain.ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ToolNotFoundError, got %T (%v)", err, err)
	}
	if notFound.Tool != "zig" {
		t.Errorf("Tool = %s, want zig", notFound.Tool)
	}
	if len(runner.Recorded()) != 0 {
		t.Error("no process should run when the compiler is missing")
	}
}

func TestActivateCustomBinPath(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	opts := options.Options{Zig: options.ZigOptions{BinPath: "zig-nightly"}}

	session, err := Activate(context.Background(), Resolve(opts), t.TempDir(), runner.Toolchain("zig-nightly"))
	if err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	if session.Config.CompilerBinary != "/fake/bin/zig-nightly" {
		t.Errorf("CompilerBinary = %s", session.Config.CompilerBinary)
	}
}

func TestActivateVersionUnsupported(t *testing.T) {
	runner := testutil.NewFakeRunner("0.9.1")

	_, err := Activate(context.Background(), Resolve(options.Options{}), t.TempDir(), runner.Toolchain("zig"))

	var unsupported *toolchain.VersionUnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected VersionUnsupportedError, got %T (%v)", err, err)
	}
}

func TestActivateVersionLaunchFailure(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	runner.LaunchFail["/fake/bin/zig"] = true

	_, err := Activate(context.Background(), Resolve(options.Options{}), t.TempDir(), runner.Toolchain("zig"))

	var launchErr *toolchain.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %T (%v)", err, err)
	}
}

func TestActivateOptimizerMissing(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	opts := options.Options{Optimize: options.OptimizeDefaults()}

	_, err := Activate(context.Background(), Resolve(opts), t.TempDir(), runner.Toolchain("zig"))

	var notFound *toolchain.ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ToolNotFoundError, got %T (%v)", err, err)
	}
	if notFound.Tool != OptimizerBinary {
		t.Errorf("Tool = %s, want %s", notFound.Tool, OptimizerBinary)
	}
}

func TestBuilderBuild(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	session := activate(t, options.Options{}, runner, "zig")
	builder := NewBuilder(session, runner, zaptest.NewLogger(t))

	artifact, err := builder.Build(context.Background(), "/src/math.zig", "/src/math.zig?compile")
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if artifact.Name != ArtifactName("/src/math.zig", "/src/math.zig?compile") {
		t.Errorf("Name = %s", artifact.Name)
	}
	if filepath.Dir(artifact.Path) != session.Config.CacheDir {
		t.Errorf("artifact should live in the cache dir, got %s", artifact.Path)
	}

	data, err := artifact.Bytes()
	if err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
	if !bytes.Equal(data, testutil.MinimalWasm) {
		t.Errorf("artifact bytes = %x", data)
	}

	// version query + one compile
	cmds := runner.Recorded()
	if len(cmds) != 2 {
		t.Fatalf("recorded %d commands, want 2", len(cmds))
	}
	if !reflect.DeepEqual(cmds[1], builder.Command("/src/math.zig", "/src/math.zig?compile")) {
		t.Errorf("compile command = %v", cmds[1])
	}
}

func TestBuilderRebuildsEveryTime(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	session := activate(t, options.Options{}, runner, "zig")
	builder := NewBuilder(session, runner, nil)

	for i := 0; i < 2; i++ {
		if _, err := builder.Build(context.Background(), "/src/math.zig", "/src/math.zig?init"); err != nil {
			t.Fatalf("Build() failed: %v", err)
		}
	}

	cmds := runner.Recorded()
	if len(cmds) != 3 {
		t.Fatalf("recorded %d commands, want 3", len(cmds))
	}
	if !reflect.DeepEqual(cmds[1].Args, cmds[2].Args) {
		t.Errorf("repeated builds should use identical arguments:\n%v\n%v", cmds[1].Args, cmds[2].Args)
	}
}

func TestBuilderCompileFailure(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	session := activate(t, options.Options{Optimize: options.OptimizeDefaults()}, runner, "zig", "wasm-opt")
	runner.Fail["/fake/bin/zig"] = 1
	builder := NewBuilder(session, runner, zaptest.NewLogger(t))

	artifact, err := builder.Build(context.Background(), "/src/bad.zig", "/src/bad.zig?init")
	if artifact != nil {
		t.Error("no artifact expected on failure")
	}

	var buildErr *BuildFailedError
	if !errors.As(err, &buildErr) {
		t.Fatalf("expected BuildFailedError, got %T (%v)", err, err)
	}
	var exitErr *toolchain.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode != 1 {
		t.Errorf("expected wrapped ExitError with code 1, got %v", err)
	}
	if buildErr.Command.Path != "/fake/bin/zig" {
		t.Errorf("error should carry the attempted command, got %s", buildErr.Command)
	}

	for _, cmd := range runner.Recorded() {
		if cmd.Path == "/fake/bin/wasm-opt" {
			t.Error("optimizer must not run after a failed compile")
		}
	}
}

func TestBuilderOptimize(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	session := activate(t, options.Options{Optimize: options.OptimizeDefaults()}, runner, "zig", "wasm-opt")
	builder := NewBuilder(session, runner, zaptest.NewLogger(t))

	artifact, err := builder.Build(context.Background(), "/src/math.zig", "/src/math.zig?init")
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	cmds := runner.Recorded()
	last := cmds[len(cmds)-1]
	if last.Path != "/fake/bin/wasm-opt" {
		t.Fatalf("last command = %s, want wasm-opt", last.Path)
	}

	optimized := filepath.Join(filepath.Dir(artifact.Path), OptimizedPrefix+artifact.Name)
	want := []string{artifact.Path, "-o", optimized, "-Oz", "--strip-debug"}
	if !reflect.DeepEqual(last.Args, want) {
		t.Errorf("optimizer args = %v, want %v", last.Args, want)
	}

	if _, err := os.Stat(optimized); !os.IsNotExist(err) {
		t.Error("temporary optimized file should be renamed away")
	}
	if _, err := os.Stat(artifact.Path); err != nil {
		t.Errorf("artifact missing after optimize: %v", err)
	}
}

func TestBuilderOptimizeFailure(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	session := activate(t, options.Options{Optimize: options.OptimizeWith("-O3")}, runner, "zig", "wasm-opt")
	runner.Fail["/fake/bin/wasm-opt"] = 2
	builder := NewBuilder(session, runner, zaptest.NewLogger(t))

	_, err := builder.Build(context.Background(), "/src/math.zig", "/src/math.zig?init")

	var optErr *OptimizeFailedError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected OptimizeFailedError, got %T (%v)", err, err)
	}
	if optErr.Command.Args[len(optErr.Command.Args)-1] != "-O3" {
		t.Errorf("optimizer command should use explicit flags: %s", optErr.Command)
	}
}

func TestBuilderLaunchFailure(t *testing.T) {
	runner := testutil.NewFakeRunner("0.13.0")
	session := activate(t, options.Options{}, runner, "zig")
	runner.LaunchFail["/fake/bin/zig"] = true
	builder := NewBuilder(session, runner, nil)

	_, err := builder.Build(context.Background(), "/src/math.zig", "/src/math.zig?init")

	var launchErr *toolchain.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %T (%v)", err, err)
	}
	var exitErr *toolchain.ExitError
	if errors.As(err, &exitErr) {
		t.Error("launch failure must stay distinct from an exit status")
	}
}

func TestLookupFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(root, "a", "marker.json")
	if err := os.WriteFile(marker, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A directory with the marker's name must not match.
	if err := os.MkdirAll(filepath.Join(root, "a", "b", "marker.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, ok := LookupFile(nested, "marker.json")
	if !ok {
		t.Fatal("LookupFile() should find the marker")
	}
	if got != marker {
		t.Errorf("LookupFile() = %s, want %s", got, marker)
	}

	if _, ok := LookupFile(nested, "no-such-marker-file.xyz"); ok {
		t.Error("LookupFile() should report a missing marker")
	}
}
