package build

import (
	"fmt"

	"github.com/woxQAQ/zig-wasm/internal/toolchain"
)

// BuildFailedError occurs when the compiler could not be launched or exited
// non-zero. Err is a *toolchain.LaunchError or *toolchain.ExitError.
type BuildFailedError struct {
	Source  string
	Command toolchain.Command
	Err     error
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("failed to build '%s' (command: %s): %v", e.Source, e.Command, e.Err)
}

func (e *BuildFailedError) Unwrap() error {
	return e.Err
}

// OptimizeFailedError occurs when the optimizer pass fails. The artifact on
// disk is left in an undefined state.
type OptimizeFailedError struct {
	Artifact string
	Command  toolchain.Command
	Err      error
}

func (e *OptimizeFailedError) Error() string {
	return fmt.Sprintf("failed to optimize '%s' (command: %s): %v", e.Artifact, e.Command, e.Err)
}

func (e *OptimizeFailedError) Unwrap() error {
	return e.Err
}
