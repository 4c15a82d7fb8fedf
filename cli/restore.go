package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/santif/openid/store"
	"github.com/spf13/cobra"
)

func newRestoreCommand(a *app) *cobra.Command {
	var (
		appendQuery bool
		remove      bool
	)

	cmd := &cobra.Command{
		Use:   "restore <handle>",
		Short: "Restore a saved message and print its destination URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid handle %q: %w", args[0], err)
			}

			s, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := store.Restore(cmd.Context(), s, handle, a.messageOptions()...)
			if err != nil {
				return err
			}

			target, err := m.DestinationURL(appendQuery)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)

			if remove {
				return s.Delete(cmd.Context(), handle)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&appendQuery, "append-query", true, "append the encoded message to the destination")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the record once restored")

	return cmd
}
