package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoaderCommand(a *app) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "loader <file.zig?init|file.zig?compile>",
		Short: "Build a zig source and print the JavaScript loader for it",
		Example: `  zigwasm loader 'src/math.zig?init'
  zigwasm loader --platform browser 'src/math.zig?compile'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := isServer(platform)
			if err != nil {
				return err
			}

			p, err := a.activate(cmd)
			if err != nil {
				return err
			}

			// Relative identifiers are taken from the working directory, so the
			// artifact matches the one `zigwasm build` produces for the file.
			session, _ := p.Session()
			res, err := p.Load(cmd.Context(), absUnder(session.Root, args[0]), server)
			if err != nil {
				return err
			}
			if !res.Handled {
				return fmt.Errorf("%q is not a zig module request (expected a .zig?init or .zig?compile suffix)", args[0])
			}

			fmt.Fprint(cmd.OutOrStdout(), res.Code)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "node", "where the loader runs (node, browser)")
	return cmd
}

func isServer(platform string) (bool, error) {
	switch platform {
	case "node":
		return true, nil
	case "browser", "neutral":
		return false, nil
	default:
		return false, fmt.Errorf("unknown platform %q (expected node or browser)", platform)
	}
}
