// Package plugin decides, per module request, whether to build a zig source
// and which loader to hand back to the host.
package plugin

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/woxQAQ/zig-wasm/internal/artifact"
	"github.com/woxQAQ/zig-wasm/internal/build"
	"github.com/woxQAQ/zig-wasm/internal/loader"
	"github.com/woxQAQ/zig-wasm/internal/toolchain"
	"github.com/woxQAQ/zig-wasm/pkg/options"
	"go.uber.org/zap"
)

// Stage is the host pipeline stage that runs builds.
type Stage int

const (
	// StageLoad builds when the host loads a module.
	StageLoad Stage = iota
	// StageResolve builds while the host resolves an identifier.
	StageResolve
)

func (s Stage) String() string {
	if s == StageResolve {
		return "resolve"
	}
	return "load"
}

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithToolchain replaces the tool locator and process runner.
func WithToolchain(tc *toolchain.Toolchain) Option {
	return func(p *Plugin) {
		if tc != nil {
			p.toolchain = tc
		}
	}
}

// WithStage selects the stage that builds. The other entry point declines.
func WithStage(stage Stage) Option {
	return func(p *Plugin) {
		p.stage = stage
	}
}

// NotActivatedError occurs when a direct build is requested before Activate.
type NotActivatedError struct{}

func (e *NotActivatedError) Error() string {
	return "zig-wasm plugin is not activated"
}

// Result is the outcome of one dispatch. A zero Result means the request was
// declined and the host should carry on as if the plugin were absent.
type Result struct {
	Handled  bool
	Request  Request
	Artifact *build.Artifact
	Code     string
}

// Plugin holds the resolved configuration for a host build session.
// It does nothing until Activate succeeds.
type Plugin struct {
	config    build.Configuration
	stage     Stage
	toolchain *toolchain.Toolchain
	logger    *zap.Logger
	artifacts *artifact.Registry

	mu      sync.RWMutex
	session *build.Session
	builder *build.Builder
}

// New resolves opts. It performs no I/O.
func New(opts options.Options, optFns ...Option) *Plugin {
	p := &Plugin{
		config:    build.Resolve(opts),
		stage:     StageLoad,
		toolchain: toolchain.Default(),
		logger:    zap.NewNop(),
	}
	for _, fn := range optFns {
		fn(p)
	}
	p.logger = p.logger.With(zap.String("component", "zig-wasm-plugin"))
	p.artifacts = artifact.NewRegistry(p.logger)
	return p
}

// Activate checks the toolchain and binds the plugin to root. Calling it
// again replaces the previous session.
func (p *Plugin) Activate(ctx context.Context, root string) (*build.Session, error) {
	session, err := build.Activate(ctx, p.config, root, p.toolchain)
	if err != nil {
		p.logger.Error("Failed to activate", zap.String("root", root), zap.Error(err))
		return nil, err
	}

	p.mu.Lock()
	p.session = session
	p.builder = build.NewBuilder(session, p.toolchain.Runner, p.logger)
	p.mu.Unlock()

	p.logger.Info("Plugin activated",
		zap.String("root", session.Root),
		zap.String("cache_dir", session.Config.CacheDir),
		zap.String("zig_version", session.CompilerVersion),
		zap.Stringer("stage", p.stage),
	)
	return session, nil
}

// Session returns the active session, if any.
func (p *Plugin) Session() (*build.Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.session, p.session != nil
}

// Builder returns the active session's builder, if any.
func (p *Plugin) Builder() (*build.Builder, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.builder, p.builder != nil
}

// Stage returns the stage that builds.
func (p *Plugin) Stage() Stage {
	return p.stage
}

// Artifacts returns the registry of artifacts built in this session.
func (p *Plugin) Artifacts() *artifact.Registry {
	return p.artifacts
}

// Resolve is the resolve-stage entry point.
func (p *Plugin) Resolve(ctx context.Context, id string, server bool) (Result, error) {
	return p.dispatch(ctx, StageResolve, id, server)
}

// Load is the load-stage entry point.
func (p *Plugin) Load(ctx context.Context, id string, server bool) (Result, error) {
	return p.dispatch(ctx, StageLoad, id, server)
}

func (p *Plugin) dispatch(ctx context.Context, stage Stage, id string, server bool) (Result, error) {
	builder, ok := p.Builder()
	if !ok || stage != p.stage {
		return Result{}, nil
	}

	req, ok := ParseRequest(id, server)
	if !ok {
		return Result{}, nil
	}

	art, err := p.build(ctx, builder, req.SourcePath, req.Identifier, req.Variant.String())
	if err != nil {
		return Result{}, err
	}

	return Result{
		Handled:  true,
		Request:  req,
		Artifact: art,
		Code:     loader.Emit(art.Path, req.Context(), req.Variant),
	}, nil
}

// Build compiles source outside any host stage, as if it were imported by
// its own path. It fails when the plugin is not activated.
func (p *Plugin) Build(ctx context.Context, source string) (*build.Artifact, error) {
	builder, ok := p.Builder()
	if !ok {
		return nil, &NotActivatedError{}
	}
	if !filepath.IsAbs(source) {
		session, _ := p.Session()
		source = filepath.Join(session.Root, source)
	}
	return p.build(ctx, builder, source, source)
}

func (p *Plugin) build(ctx context.Context, builder *build.Builder, source, identifier string, variants ...string) (*build.Artifact, error) {
	session, _ := p.Session()
	if !filepath.IsAbs(source) {
		source = filepath.Join(session.Root, source)
	}

	art, err := builder.Build(ctx, source, identifier)
	if err != nil {
		return nil, err
	}

	p.artifacts.Register(artifact.Record{
		Name:       art.Name,
		Path:       art.Path,
		Source:     art.Source,
		Identifier: build.CleanIdentifier(identifier),
		Variants:   variants,
		BuiltAt:    art.BuiltAt.UTC().Truncate(time.Second),
	})
	return art, nil
}
