package toolchain

import (
	"fmt"
)

// ToolNotFoundError occurs when a required executable is not on the search path.
type ToolNotFoundError struct {
	Tool string
	Hint string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("required tool '%s' not found: %v. %s", e.Tool, e.Err, e.Hint)
	}
	return fmt.Sprintf("required tool '%s' not found: %v", e.Tool, e.Err)
}

func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// VersionUnsupportedError occurs when the installed compiler is too old.
type VersionUnsupportedError struct {
	Version    string
	Constraint string
}

func (e *VersionUnsupportedError) Error() string {
	return fmt.Sprintf("require zig version %s but current installed version is %s",
		e.Constraint, e.Version)
}

// InvalidVersionError occurs when a version or constraint cannot be parsed.
type InvalidVersionError struct {
	Version string
	Err     error
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version '%s': %v", e.Version, e.Err)
}

func (e *InvalidVersionError) Unwrap() error {
	return e.Err
}

// LaunchError occurs when a process could not be started at all.
type LaunchError struct {
	Command Command
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// ExitError occurs when a process ran and exited with a non-zero status.
type ExitError struct {
	Command  Command
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command exited with status %d: %s", e.ExitCode, e.Command)
}
