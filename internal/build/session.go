package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/woxQAQ/zig-wasm/internal/toolchain"
)

const (
	// CacheDirName is the default cache directory name.
	CacheDirName = ".zig-wasm"
	// CompilerCacheDirName is created inside the cache dir for the compiler's own cache.
	CompilerCacheDirName = "zig-cache"
	// OptimizerBinary is the binaryen optimizer.
	OptimizerBinary = "wasm-opt"
)

// ProjectMarkers locate the project directory whose node_modules holds the cache.
var ProjectMarkers = []string{"package.json"}

// Session is a Configuration bound to a project root with its tools located.
type Session struct {
	Root            string
	Config          Configuration
	CompilerVersion string
	// OptimizerPath is empty when optimize is disabled.
	OptimizerPath string
}

// Activate checks the toolchain and places the cache directories for a build
// session rooted at root. Tool and version failures are reported here, once,
// before any build is attempted.
func Activate(ctx context.Context, cfg Configuration, root string, tc *toolchain.Toolchain) (*Session, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session root: %w", err)
	}

	compiler, err := tc.Locate(cfg.CompilerBinary, "")
	if err != nil {
		return nil, err
	}

	version, err := tc.Version(ctx, compiler)
	if err != nil {
		return nil, fmt.Errorf("failed when executing %q: %w", compiler+" version", err)
	}
	if err := toolchain.EnsureVersion(version, toolchain.MinimumZigVersion); err != nil {
		return nil, err
	}

	var optimizer string
	if cfg.Optimize.Enabled {
		optimizer, err = tc.Locate(OptimizerBinary,
			"Can't enable wasm optimize option; make sure `wasm-opt` is in your $PATH.")
		if err != nil {
			return nil, err
		}
	}

	resolved := cfg
	resolved.CompilerBinary = compiler
	resolved.CacheDir = cacheDirFor(cfg.CacheDir, root)
	if cfg.CompilerCacheDir != "" {
		resolved.CompilerCacheDir = absUnder(root, cfg.CompilerCacheDir)
	} else {
		resolved.CompilerCacheDir = filepath.Join(resolved.CacheDir, CompilerCacheDirName)
	}

	// The compiler cache normally lives inside the artifact cache, but both
	// can be configured independently.
	for _, dir := range []string{resolved.CacheDir, resolved.CompilerCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory '%s': %w", dir, err)
		}
	}

	return &Session{
		Root:            root,
		Config:          resolved,
		CompilerVersion: version,
		OptimizerPath:   optimizer,
	}, nil
}

func cacheDirFor(requested, root string) string {
	if requested != "" {
		return absUnder(root, requested)
	}
	if marker, ok := LookupFile(root, ProjectMarkers...); ok {
		return filepath.Join(filepath.Dir(marker), "node_modules", CacheDirName)
	}
	return filepath.Join(root, CacheDirName)
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

// LookupFile searches dir and its ancestors for the first regular file named
// one of files. It returns the file's path.
func LookupFile(dir string, files ...string) (string, bool) {
	for {
		for _, name := range files {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
