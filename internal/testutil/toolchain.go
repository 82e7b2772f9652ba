// Package testutil provides fake external tools for tests.
package testutil

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/woxQAQ/zig-wasm/internal/toolchain"
)

// MinimalWasm is the smallest valid module: magic number and version 1.
var MinimalWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, // \0asm
	0x01, 0x00, 0x00, 0x00, // version 1
}

// AddWasm imports `env.memory` and exports `add(i32, i32) -> i32`, the shape
// zig emits for `export fn add` with --import-memory.
var AddWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// type: (i32, i32) -> i32
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	// import: env.memory, min 1 page
	0x02, 0x0f, 0x01, 0x03, 'e', 'n', 'v', 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00, 0x01,
	// function: type 0
	0x03, 0x02, 0x01, 0x00,
	// export: add
	0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,
	// code: local.get 0, local.get 1, i32.add
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

// FakeRunner stands in for the compiler and optimizer.
//
// For a `build-exe` command it writes Wasm to the -femit-bin path; for a
// command with `-o <path>` it copies the input (first argument) there.
// Commands whose Path is in Fail exit with that status instead.
type FakeRunner struct {
	mu sync.Mutex

	Version string
	Wasm    []byte
	Fail    map[string]int
	// LaunchFail lists paths that fail to launch.
	LaunchFail map[string]bool

	Commands []toolchain.Command
}

// NewFakeRunner returns a runner reporting version that emits MinimalWasm.
func NewFakeRunner(version string) *FakeRunner {
	return &FakeRunner{
		Version:    version,
		Wasm:       MinimalWasm,
		Fail:       map[string]int{},
		LaunchFail: map[string]bool{},
	}
}

// Run implements toolchain.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd toolchain.Command) error {
	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	f.mu.Unlock()

	if f.LaunchFail[cmd.Path] {
		return &toolchain.LaunchError{Command: cmd, Err: errors.New("exec format error")}
	}
	if code, ok := f.Fail[cmd.Path]; ok {
		return &toolchain.ExitError{Command: cmd, ExitCode: code}
	}

	if len(cmd.Args) > 0 && cmd.Args[0] == "build-exe" {
		for _, a := range cmd.Args {
			if out, ok := strings.CutPrefix(a, "-femit-bin="); ok {
				return os.WriteFile(out, f.Wasm, 0o644)
			}
		}
		return nil
	}

	for i, a := range cmd.Args {
		if a == "-o" && i+1 < len(cmd.Args) {
			data, err := os.ReadFile(cmd.Args[0])
			if err != nil {
				return &toolchain.ExitError{Command: cmd, ExitCode: 1}
			}
			return os.WriteFile(cmd.Args[i+1], data, 0o644)
		}
	}
	return nil
}

// Output implements toolchain.Runner.
func (f *FakeRunner) Output(ctx context.Context, cmd toolchain.Command) ([]byte, error) {
	f.mu.Lock()
	f.Commands = append(f.Commands, cmd)
	f.mu.Unlock()

	if f.LaunchFail[cmd.Path] {
		return nil, &toolchain.LaunchError{Command: cmd, Err: errors.New("exec format error")}
	}
	return []byte(f.Version + "\n"), nil
}

// Recorded returns a copy of the commands run so far.
func (f *FakeRunner) Recorded() []toolchain.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]toolchain.Command(nil), f.Commands...)
}

// Toolchain returns a toolchain whose search path holds exactly tools,
// mapped to /fake/bin/<name>, and whose processes are handled by f.
func (f *FakeRunner) Toolchain(tools ...string) *toolchain.Toolchain {
	known := make(map[string]bool, len(tools))
	for _, t := range tools {
		known[t] = true
	}
	return &toolchain.Toolchain{
		LookPath: func(name string) (string, error) {
			if known[name] {
				return "/fake/bin/" + name, nil
			}
			return "", errors.New("executable file not found in $PATH")
		},
		Runner: f,
	}
}
