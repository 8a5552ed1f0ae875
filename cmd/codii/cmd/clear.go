package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oOSomnus/codii/internal/app"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [path]",
		Short: "Remove a repository's index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			abs, err := app.ResolvePath(path)
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Pipeline.ClearIndex(abs); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "index cleared for %s\n", abs)
			return nil
		},
	}
}
