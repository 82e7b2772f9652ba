package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/woxQAQ/zig-wasm/internal/artifact"
)

func newBuildCommand(a *app) *cobra.Command {
	var (
		dryRun   bool
		manifest string
	)

	cmd := &cobra.Command{
		Use:   "build <file.zig>...",
		Short: "Compile zig sources into the artifact cache",
		Example: `  zigwasm build src/math.zig
  zigwasm build --dry-run src/math.zig
  zigwasm build --manifest wasm-manifest.yaml src/*.zig`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.activate(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				builder, _ := p.Builder()
				session, _ := p.Session()
				for _, source := range args {
					abs := absUnder(session.Root, source)
					fmt.Fprintln(out, builder.Command(abs, abs).String())
				}
				return nil
			}

			for _, source := range args {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				art, err := p.Build(cmd.Context(), source)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, art.Path)
			}

			if manifest != "" {
				session, _ := p.Session()
				m := p.Artifacts().Snapshot(session.Config.CacheDir)
				if err := artifact.WriteManifest(manifest, m); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the compiler command lines without running them")
	cmd.Flags().StringVar(&manifest, "manifest", "", "write a YAML manifest of the built artifacts to this path")
	return cmd
}

func absUnder(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
