package wasm

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// ModuleLoader compiles artifacts into the runtime. Compiled modules are kept
// by key, an artifact path or name, for the life of the runtime.
type ModuleLoader struct {
	runtime *Runtime
	logger  *zap.Logger
}

// NewModuleLoader creates a loader backed by runtime.
func NewModuleLoader(runtime *Runtime, logger *zap.Logger) *ModuleLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleLoader{
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-loader")),
	}
}

// LoadFile compiles the artifact at path.
func (l *ModuleLoader) LoadFile(ctx context.Context, path string) (*CompiledModule, error) {
	if cached, ok := l.cached(path); ok {
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return l.compile(ctx, path, data)
}

// LoadBytes compiles an artifact already read into memory, such as the
// output of a fresh build, under name.
func (l *ModuleLoader) LoadBytes(ctx context.Context, name string, data []byte) (*CompiledModule, error) {
	if cached, ok := l.cached(name); ok {
		return cached, nil
	}
	return l.compile(ctx, name, data)
}

func (l *ModuleLoader) cached(key string) (*CompiledModule, bool) {
	if l.runtime.IsClosed() {
		return nil, false
	}
	module, ok := l.runtime.GetCompiledModule(key)
	if ok {
		l.logger.Debug("Module cache hit", zap.String("module", key))
	}
	return module, ok
}

func (l *ModuleLoader) compile(ctx context.Context, key string, data []byte) (*CompiledModule, error) {
	if l.runtime.IsClosed() {
		return nil, &RuntimeClosedError{ModuleName: key}
	}

	start := time.Now()

	// Decoding validates the binary; with a cache dir the machine code
	// is reused across runs.
	compiled, err := l.runtime.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, &CompilationError{ModuleName: key, Err: err}
	}

	module := &CompiledModule{
		Module:     compiled,
		Name:       key,
		Source:     key,
		SizeBytes:  int64(len(data)),
		CompiledAt: time.Now().Unix(),
	}
	l.runtime.StoreCompiledModule(module)

	l.logger.Debug("Artifact compiled",
		zap.String("module", key),
		zap.Int("size_bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return module, nil
}
