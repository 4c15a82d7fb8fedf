package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExtensionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extensions",
		Short: "List the extension types that can be resolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, typeURI := range a.registry.TypeURIs() {
				fmt.Fprintln(cmd.OutOrStdout(), typeURI)
			}
			return nil
		},
	}
}
