package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
}

func TestExecRunnerRun(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	script := writeScript(t, dir, "ok", "echo \"hello $1\"\n")

	var stdout bytes.Buffer
	r := &ExecRunner{Stdout: &stdout, Stderr: &stdout}

	if err := r.Run(context.Background(), Command{Path: script, Args: []string{"wasm"}}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if got := stdout.String(); got != "hello wasm\n" {
		t.Errorf("stdout = %q, want %q", got, "hello wasm\n")
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	script := writeScript(t, dir, "fail", "exit 3\n")

	r := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	err := r.Run(context.Background(), Command{Path: script})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T (%v)", err, err)
	}
	if exitErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", exitErr.ExitCode)
	}
	if exitErr.Command.Path != script {
		t.Errorf("Command.Path = %s, want %s", exitErr.Command.Path, script)
	}
}

func TestExecRunnerLaunchFailure(t *testing.T) {
	r := &ExecRunner{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	cmd := Command{Path: filepath.Join(t.TempDir(), "does-not-exist")}

	err := r.Run(context.Background(), cmd)

	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %T (%v)", err, err)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Error("launch failure must not be reported as an exit status")
	}
}

func TestExecRunnerCancelledBeforeLaunch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &ExecRunner{}
	err := r.Run(ctx, Command{Path: "zig"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestToolchainVersion(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	script := writeScript(t, dir, "zig", "if [ \"$1\" = version ]; then echo 0.13.0; fi\n")

	tc := &Toolchain{Runner: &ExecRunner{Stderr: &bytes.Buffer{}}}
	v, err := tc.Version(context.Background(), script)
	if err != nil {
		t.Fatalf("Version() failed: %v", err)
	}
	if v != "0.13.0" {
		t.Errorf("Version() = %q, want 0.13.0", v)
	}
}

func TestToolchainLocate(t *testing.T) {
	tc := &Toolchain{
		LookPath: func(name string) (string, error) {
			if name == "zig" {
				return "/opt/zig/zig", nil
			}
			return "", errors.New("executable file not found in $PATH")
		},
	}

	path, err := tc.Locate("zig", "")
	if err != nil {
		t.Fatalf("Locate(zig) failed: %v", err)
	}
	if path != "/opt/zig/zig" {
		t.Errorf("Locate(zig) = %s, want /opt/zig/zig", path)
	}

	_, err = tc.Locate("wasm-opt", "install binaryen")
	var notFound *ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ToolNotFoundError, got %T", err)
	}
	if notFound.Tool != "wasm-opt" {
		t.Errorf("Tool = %s, want wasm-opt", notFound.Tool)
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Path: "zig", Args: []string{"build-exe", "my file.zig"}}

	expected := "zig build-exe 'my file.zig'"
	if got := cmd.String(); got != expected {
		t.Errorf("String() = %s, want %s", got, expected)
	}

	argv := cmd.Argv()
	if len(argv) != 3 || argv[0] != "zig" || argv[2] != "my file.zig" {
		t.Errorf("Argv() = %v", argv)
	}
}

func TestErrorMessages(t *testing.T) {
	cmd := Command{Path: "zig", Args: []string{"version"}}

	exitErr := &ExitError{Command: cmd, ExitCode: 1}
	expected := "command exited with status 1: zig version"
	if exitErr.Error() != expected {
		t.Errorf("Error message = %s, want %s", exitErr.Error(), expected)
	}

	unsupported := &VersionUnsupportedError{Version: "0.9.0", Constraint: ">=0.12.0"}
	expected = "require zig version >=0.12.0 but current installed version is 0.9.0"
	if unsupported.Error() != expected {
		t.Errorf("Error message = %s, want %s", unsupported.Error(), expected)
	}
}
