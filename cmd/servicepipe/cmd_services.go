package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServicesCmd() *cobra.Command {
	var markdown bool
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List builtin services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderServices(builtins(), markdown))
			return nil
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render as Markdown")
	return cmd
}
