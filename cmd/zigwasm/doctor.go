package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/woxQAQ/zig-wasm/internal/build"
	"github.com/woxQAQ/zig-wasm/internal/toolchain"
)

// errDoctor is returned when at least one required check fails.
var errDoctor = errors.New("toolchain check failed")

func newDoctorCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that zig and wasm-opt are installed and usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ok := color.New(color.FgGreen).SprintFunc()
			warn := color.New(color.FgYellow).SprintFunc()
			fail := color.New(color.FgRed, color.Bold).SprintFunc()

			cfg := build.Resolve(a.config.Options)
			healthy := true

			zig, err := a.toolchain.Locate(cfg.CompilerBinary, "")
			if err != nil {
				fmt.Fprintf(out, "%s zig: %v\n", fail("✗"), err)
				healthy = false
			} else {
				fmt.Fprintf(out, "%s zig: %s\n", ok("✓"), zig)

				version, err := a.toolchain.Version(cmd.Context(), zig)
				switch {
				case err != nil:
					fmt.Fprintf(out, "%s zig version: %v\n", fail("✗"), err)
					healthy = false
				default:
					if err := toolchain.EnsureVersion(version, toolchain.MinimumZigVersion); err != nil {
						fmt.Fprintf(out, "%s zig version %s: %v\n", fail("✗"), version, err)
						healthy = false
					} else {
						fmt.Fprintf(out, "%s zig version %s satisfies %s\n", ok("✓"), version, toolchain.MinimumZigVersion)
					}
				}
			}

			optimizer, err := a.toolchain.Locate(build.OptimizerBinary, "")
			switch {
			case err == nil:
				fmt.Fprintf(out, "%s wasm-opt: %s\n", ok("✓"), optimizer)
			case cfg.Optimize.Enabled:
				fmt.Fprintf(out, "%s wasm-opt: %v (required because optimize is enabled)\n", fail("✗"), err)
				healthy = false
			default:
				fmt.Fprintf(out, "%s wasm-opt: not found (only needed with optimize enabled)\n", warn("!"))
			}

			if !healthy {
				return errDoctor
			}
			return nil
		},
	}
}
