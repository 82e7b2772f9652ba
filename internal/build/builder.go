package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/woxQAQ/zig-wasm/internal/toolchain"
	"go.uber.org/zap"
)

// OptimizedPrefix names the temporary sibling wasm-opt writes to.
const OptimizedPrefix = "wasm-optimized."

// Artifact is one compiled module on disk.
type Artifact struct {
	Name       string
	Path       string
	Source     string
	Identifier string
	BuiltAt    time.Time
}

// Bytes reads the artifact.
func (a *Artifact) Bytes() ([]byte, error) {
	return os.ReadFile(a.Path)
}

// Builder runs the compile chain for an activated session.
// Every call to Build invokes the compiler; nothing is cached in memory.
type Builder struct {
	session *Session
	runner  toolchain.Runner
	logger  *zap.Logger
}

// NewBuilder creates a builder for session.
func NewBuilder(session *Session, runner toolchain.Runner, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		session: session,
		runner:  runner,
		logger:  logger.With(zap.String("component", "zig-builder")),
	}
}

// OutputPath is where the artifact for (source, identifier) is written.
func (b *Builder) OutputPath(source, identifier string) string {
	return filepath.Join(b.session.Config.CacheDir, ArtifactName(source, identifier))
}

// Command returns the compiler invocation for (source, identifier) without running it.
func (b *Builder) Command(source, identifier string) toolchain.Command {
	cfg := b.session.Config
	return toolchain.Command{
		Path: cfg.CompilerBinary,
		Args: BuildArgs(cfg, source, b.OutputPath(source, identifier)),
	}
}

// Build compiles source and, when configured, optimizes the result.
// The compile step always finishes before the optimize step starts.
func (b *Builder) Build(ctx context.Context, source, identifier string) (*Artifact, error) {
	output := b.OutputPath(source, identifier)
	cmd := b.Command(source, identifier)

	b.logger.Info("Building zig file",
		zap.String("source", source),
		zap.String("command", cmd.String()),
	)

	startTime := time.Now()

	if err := b.runner.Run(ctx, cmd); err != nil {
		return nil, &BuildFailedError{Source: source, Command: cmd, Err: err}
	}

	if b.session.Config.Optimize.Enabled {
		if err := b.optimize(ctx, output); err != nil {
			return nil, err
		}
	}

	b.logger.Info("Zig file built successfully",
		zap.String("artifact", output),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &Artifact{
		Name:       filepath.Base(output),
		Path:       output,
		Source:     source,
		Identifier: identifier,
		BuiltAt:    time.Now(),
	}, nil
}

// optimize runs wasm-opt into a sibling file and renames it over the artifact.
func (b *Builder) optimize(ctx context.Context, artifact string) error {
	optimized := filepath.Join(filepath.Dir(artifact), OptimizedPrefix+filepath.Base(artifact))
	cmd := toolchain.Command{
		Path: b.session.OptimizerPath,
		Args: OptimizerArgs(b.session.Config, artifact, optimized),
	}

	b.logger.Info("Optimizing wasm artifact",
		zap.String("artifact", artifact),
		zap.String("command", cmd.String()),
	)

	if err := b.runner.Run(ctx, cmd); err != nil {
		return &OptimizeFailedError{Artifact: artifact, Command: cmd, Err: err}
	}

	if err := os.Rename(optimized, artifact); err != nil {
		return &OptimizeFailedError{
			Artifact: artifact,
			Command:  cmd,
			Err:      fmt.Errorf("failed to replace artifact: %w", err),
		}
	}
	return nil
}
