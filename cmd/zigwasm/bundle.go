package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/cobra"
	"github.com/woxQAQ/zig-wasm/pkg/esbuildzig"
	"go.uber.org/zap"
)

func newBundleCommand(a *app) *cobra.Command {
	var (
		outdir         string
		platform       string
		buildOnResolve bool
		minify         bool
	)

	cmd := &cobra.Command{
		Use:   "bundle <entry>...",
		Short: "Bundle JavaScript entry points that import zig sources",
		Example: `  zigwasm bundle --outdir dist src/index.ts
  zigwasm bundle --platform browser --minify --outdir public src/app.ts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := isServer(platform)
			if err != nil {
				return err
			}
			wd, err := os.Getwd()
			if err != nil {
				return err
			}

			optFns := []esbuildzig.Option{
				esbuildzig.WithLogger(a.logger),
				esbuildzig.WithToolchain(a.toolchain),
			}
			if buildOnResolve {
				optFns = append(optFns, esbuildzig.WithBuildOnResolve())
			}
			integration := esbuildzig.New(a.config.Options, optFns...)

			buildPlatform := api.PlatformBrowser
			if server {
				buildPlatform = api.PlatformNode
			}

			result := api.Build(api.BuildOptions{
				AbsWorkingDir:     wd,
				EntryPoints:       args,
				Bundle:            true,
				Write:             true,
				Outdir:            absUnder(wd, outdir),
				Platform:          buildPlatform,
				Format:            api.FormatESModule,
				MinifyWhitespace:  minify,
				MinifyIdentifiers: minify,
				MinifySyntax:      minify,
				LogLevel:          api.LogLevelSilent,
				Plugins:           []api.Plugin{integration.Plugin()},
			})

			for _, w := range result.Warnings {
				a.logger.Warn("esbuild", zap.String("message", formatMessage(w)))
			}
			if len(result.Errors) > 0 {
				msgs := make([]string, len(result.Errors))
				for i, m := range result.Errors {
					msgs[i] = formatMessage(m)
				}
				return errors.New(strings.Join(msgs, "\n"))
			}

			out := cmd.OutOrStdout()
			for _, f := range result.OutputFiles {
				rel, err := filepath.Rel(wd, f.Path)
				if err != nil {
					rel = f.Path
				}
				fmt.Fprintln(out, rel)
			}
			a.logger.Info("Bundle complete",
				zap.Int("outputs", len(result.OutputFiles)),
				zap.Int("artifacts", integration.Artifacts().Count()),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&outdir, "outdir", "dist", "output directory")
	cmd.Flags().StringVar(&platform, "platform", "node", "target platform (node, browser)")
	cmd.Flags().BoolVar(&buildOnResolve, "build-on-resolve", false, "compile zig sources while resolving imports instead of while loading them")
	cmd.Flags().BoolVar(&minify, "minify", false, "minify the output")
	return cmd
}

// formatMessage renders an esbuild message as `file:line:col: text`.
func formatMessage(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}
