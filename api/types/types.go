// Package types ships the TypeScript declarations for `.zig?init` and
// `.zig?compile` imports.
package types

import (
	_ "embed"
	"os"
	"path/filepath"
)

// FileName is the conventional name of the declarations file.
const FileName = "zig-wasm.d.ts"

// ClientDeclarations is the content of client.d.ts.
//
//go:embed client.d.ts
var ClientDeclarations string

// Write writes the declarations to path, creating parent directories.
func Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(ClientDeclarations), 0o644)
}
