package toolchain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner launches external tools and waits for them to exit.
type Runner interface {
	// Run executes cmd with the runner's standard streams attached so the
	// tool's diagnostics reach the developer as they are printed.
	Run(ctx context.Context, cmd Command) error

	// Output executes cmd and returns its standard output.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands as child processes of the current process.
//
// A launched process is never cancelled: ctx is only checked before the
// launch. Once started, the tool runs to completion.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner that inherits the parent's standard streams.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return &LaunchError{Command: cmd, Err: err}
	}

	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	return classify(cmd, c.Run())
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, cmd Command) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Command: cmd, Err: err}
	}

	var stdout bytes.Buffer
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = r.Stderr

	if err := classify(cmd, c.Run()); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// classify separates "the process ran and failed" from "the process never ran".
func classify(cmd Command, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Command: cmd, ExitCode: exitErr.ExitCode()}
	}
	return &LaunchError{Command: cmd, Err: err}
}

// Toolchain locates and queries the external tools.
type Toolchain struct {
	// LookPath finds an executable in the search path. Defaults to exec.LookPath.
	LookPath func(file string) (string, error)
	Runner   Runner
}

// Default returns a toolchain backed by the real search path and child processes.
func Default() *Toolchain {
	return &Toolchain{
		LookPath: exec.LookPath,
		Runner:   NewExecRunner(),
	}
}

// Locate resolves a required executable.
func (t *Toolchain) Locate(name, hint string) (string, error) {
	lookPath := t.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(name)
	if err != nil {
		return "", &ToolNotFoundError{Tool: name, Hint: hint, Err: err}
	}
	return path, nil
}

// Version runs `<bin> version` and returns the trimmed output.
func (t *Toolchain) Version(ctx context.Context, bin string) (string, error) {
	out, err := t.Runner.Output(ctx, Command{Path: bin, Args: []string{"version"}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
