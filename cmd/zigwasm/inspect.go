package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/woxQAQ/zig-wasm/internal/build"
	"github.com/woxQAQ/zig-wasm/internal/plugin"
	"github.com/woxQAQ/zig-wasm/internal/wasm"
	"gopkg.in/yaml.v3"
)

func newInspectCommand(a *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "inspect <artifact.wasm|file.zig>...",
		Short: "List the imports and exports of compiled artifacts",
		Long: `inspect compiles each artifact with wazero and lists what it imports and
exports. A .zig source is built first and its fresh artifact is inspected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runtime, err := wasm.NewRuntime(ctx, a.logger, &wasm.RuntimeConfig{
				MemoryPages: a.config.Inspect.MemoryPages,
				CacheDir:    a.config.Inspect.CacheDir,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize Wasm runtime: %w", err)
			}
			defer runtime.Close(ctx)

			loader := wasm.NewModuleLoader(runtime, a.logger)
			out := cmd.OutOrStdout()

			var p *plugin.Plugin
			for _, path := range args {
				var module *wasm.CompiledModule
				if filepath.Ext(path) == build.SourceExt {
					if p == nil {
						if p, err = a.activate(cmd); err != nil {
							return err
						}
					}
					module, err = inspectSource(ctx, p, loader, path)
				} else {
					module, err = loader.LoadFile(ctx, path)
				}
				if err != nil {
					return err
				}
				report := wasm.Inspect(module)

				if asYAML {
					enc := yaml.NewEncoder(out)
					enc.SetIndent(2)
					if err := enc.Encode(report); err != nil {
						return err
					}
					if err := enc.Close(); err != nil {
						return err
					}
					continue
				}
				if err := report.Write(out); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the report as YAML")
	return cmd
}

// inspectSource builds source and compiles the artifact bytes it produced.
func inspectSource(ctx context.Context, p *plugin.Plugin, loader *wasm.ModuleLoader, source string) (*wasm.CompiledModule, error) {
	art, err := p.Build(ctx, source)
	if err != nil {
		return nil, err
	}
	data, err := art.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", art.Path, err)
	}
	return loader.LoadBytes(ctx, art.Name, data)
}
