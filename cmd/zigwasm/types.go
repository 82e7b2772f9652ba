package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/woxQAQ/zig-wasm/api/types"
)

func newTypesCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "Print or write TypeScript declarations for .zig?init and .zig?compile imports",
		Example: `  zigwasm types > src/zig-wasm.d.ts
  zigwasm types --out src/zig-wasm.d.ts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), types.ClientDeclarations)
				return nil
			}
			return types.Write(out)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write the declarations to this file instead of stdout")
	return cmd
}
