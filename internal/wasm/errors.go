package wasm

import (
	"fmt"
)

// CompilationError occurs when Wasm module compilation fails
type CompilationError struct {
	ModuleName string
	Err        error
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile Wasm module '%s': %v", e.ModuleName, e.Err)
}

func (e *CompilationError) Unwrap() error {
	return e.Err
}

// RuntimeClosedError occurs when a module is loaded after Close.
type RuntimeClosedError struct {
	ModuleName string
}

func (e *RuntimeClosedError) Error() string {
	return fmt.Sprintf("cannot load module '%s': runtime is closed", e.ModuleName)
}
