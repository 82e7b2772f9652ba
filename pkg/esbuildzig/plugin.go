// Package esbuildzig wires the zig-wasm build chain into esbuild.
//
// Importing `./math.zig?init` yields a module whose default export
// instantiates the compiled artifact; `./math.zig?compile` yields one whose
// default export compiles it. On PlatformNode the artifact is read from the
// cache directory at runtime. On other platforms it is emitted as an asset
// through esbuild's file loader and fetched by URL.
package esbuildzig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/woxQAQ/zig-wasm/internal/artifact"
	"github.com/woxQAQ/zig-wasm/internal/loader"
	"github.com/woxQAQ/zig-wasm/internal/plugin"
	"github.com/woxQAQ/zig-wasm/internal/toolchain"
	"github.com/woxQAQ/zig-wasm/pkg/options"
	"go.uber.org/zap"
)

// Name is the esbuild plugin name.
const Name = "zig-wasm"

const (
	namespace      = "zig-wasm"
	initNamespace  = "zig-wasm-init"
	assetNamespace = "zig-wasm-asset"
)

var (
	requestFilter = `\.zig\?(init|compile)$`
	initFilter    = `\.wasm\?init$`
	assetFilter   = `\.wasm\?url$`
)

type settings struct {
	logger         *zap.Logger
	buildOnResolve bool
	extra          []plugin.Option
}

// Option configures the esbuild integration.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithBuildOnResolve runs builds in OnResolve instead of OnLoad. The loader
// source travels to OnLoad as plugin data.
func WithBuildOnResolve() Option {
	return func(s *settings) {
		s.buildOnResolve = true
	}
}

// WithToolchain replaces the tool locator and process runner.
func WithToolchain(tc *toolchain.Toolchain) Option {
	return withPluginOptions(plugin.WithToolchain(tc))
}

// withPluginOptions passes options straight to the dispatcher.
func withPluginOptions(opts ...plugin.Option) Option {
	return func(s *settings) {
		s.extra = append(s.extra, opts...)
	}
}

// Integration is an esbuild plugin together with the dispatcher behind it.
type Integration struct {
	dispatcher *plugin.Plugin
	logger     *zap.Logger
}

// New creates the integration. Nothing is checked until esbuild starts a build.
func New(opts options.Options, optFns ...Option) *Integration {
	s := &settings{logger: zap.NewNop()}
	for _, fn := range optFns {
		fn(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	stage := plugin.StageLoad
	if s.buildOnResolve {
		stage = plugin.StageResolve
	}
	pluginOpts := append([]plugin.Option{
		plugin.WithLogger(s.logger),
		plugin.WithStage(stage),
	}, s.extra...)

	return &Integration{
		dispatcher: plugin.New(opts, pluginOpts...),
		logger:     s.logger.With(zap.String("component", "esbuild-zig")),
	}
}

// Plugin is shorthand for New(opts, optFns...).Plugin().
func Plugin(opts options.Options, optFns ...Option) api.Plugin {
	return New(opts, optFns...).Plugin()
}

// Artifacts returns the artifacts built so far.
func (i *Integration) Artifacts() *artifact.Registry {
	return i.dispatcher.Artifacts()
}

// Plugin returns the esbuild plugin.
func (i *Integration) Plugin() api.Plugin {
	return api.Plugin{
		Name:  Name,
		Setup: i.setup,
	}
}

func (i *Integration) setup(b api.PluginBuild) {
	server := b.InitialOptions.Platform == api.PlatformNode
	ctx := context.Background()

	b.OnStart(func() (api.OnStartResult, error) {
		root := b.InitialOptions.AbsWorkingDir
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return api.OnStartResult{}, err
			}
			root = wd
		}
		if _, err := i.dispatcher.Activate(ctx, root); err != nil {
			return api.OnStartResult{}, err
		}
		return api.OnStartResult{}, nil
	})

	b.OnResolve(api.OnResolveOptions{Filter: requestFilter},
		func(args api.OnResolveArgs) (api.OnResolveResult, error) {
			id := absolute(args.Path, args.ResolveDir)
			res, err := i.dispatcher.Resolve(ctx, id, server)
			if err != nil {
				return api.OnResolveResult{}, err
			}

			result := api.OnResolveResult{Path: id, Namespace: namespace}
			if res.Handled {
				result.PluginData = res.Code
			}
			return result, nil
		})

	b.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: namespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			req, ok := plugin.ParseRequest(args.Path, server)
			if !ok {
				return api.OnLoadResult{}, fmt.Errorf("not a zig module request: %s", args.Path)
			}

			code, replayed := args.PluginData.(string)
			if !replayed {
				res, err := i.dispatcher.Load(ctx, args.Path, server)
				if err != nil {
					return api.OnLoadResult{}, err
				}
				if !res.Handled {
					return api.OnLoadResult{}, fmt.Errorf("zig-wasm plugin is not active for %s", args.Path)
				}
				code = res.Code
			}

			return api.OnLoadResult{
				Contents:   &code,
				ResolveDir: filepath.Dir(req.SourcePath),
				Loader:     api.LoaderJS,
				WatchFiles: []string{req.SourcePath},
			}, nil
		})

	b.OnResolve(api.OnResolveOptions{Filter: initFilter},
		func(args api.OnResolveArgs) (api.OnResolveResult, error) {
			return api.OnResolveResult{Path: args.Path, Namespace: initNamespace}, nil
		})

	b.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: initNamespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			code := loader.InitHelper(strings.TrimSuffix(args.Path, loader.InitQuery))
			return api.OnLoadResult{
				Contents: &code,
				Loader:   api.LoaderJS,
			}, nil
		})

	b.OnResolve(api.OnResolveOptions{Filter: assetFilter},
		func(args api.OnResolveArgs) (api.OnResolveResult, error) {
			return api.OnResolveResult{
				Path:      strings.TrimSuffix(args.Path, loader.URLQuery),
				Namespace: assetNamespace,
			}, nil
		})

	b.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: assetNamespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			data, err := os.ReadFile(filepath.FromSlash(args.Path))
			if err != nil {
				return api.OnLoadResult{}, fmt.Errorf("failed to read wasm artifact: %w", err)
			}
			contents := string(data)
			i.logger.Debug("Emitting wasm asset", zap.String("artifact", args.Path))
			return api.OnLoadResult{
				Contents:   &contents,
				Loader:     api.LoaderFile,
				WatchFiles: []string{filepath.FromSlash(args.Path)},
			}, nil
		})
}

// absolute resolves a relative import against the importing directory.
// The query suffix is kept.
func absolute(id, resolveDir string) string {
	if filepath.IsAbs(id) || strings.HasPrefix(id, "/") || resolveDir == "" {
		return id
	}
	return filepath.Join(resolveDir, id)
}
