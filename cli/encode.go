package cli

import (
	"errors"
	"fmt"

	"github.com/santif/openid/message"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/store"
	"github.com/spf13/cobra"
)

func newEncodeCommand(a *app) *cobra.Command {
	var (
		destination string
		appendQuery bool
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Encode key-value form parameters for sending",
		Long: `Encode a key-value form message as www-form-urlencoded.

With --destination the message is addressed to that URL and the command prints
the redirect URL, or the bare destination for a form POST when
--append-query=false. With --save the message is also written to the
configured redis or postgres store and its handle is printed on a second line.`,
		Example: `  openidmsg encode request.kv
  openidmsg encode request.kv --destination https://op.example.com/auth --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if save && destination == "" {
				return errors.New("--save requires --destination")
			}

			var s store.Store
			if save {
				var err error
				if s, err = a.store(cmd.Context()); err != nil {
					return err
				}
				defer s.Close()
			}

			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			params, err := message.ParseKeyValueForm(input)
			if err != nil {
				return err
			}

			if destination == "" {
				m, err := message.NewFromParameters(params, a.messageOptions()...)
				if err != nil {
					return err
				}
				form, err := m.WWWForm()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), form)
				return nil
			}

			m, err := message.NewOutbound(destination, params, a.messageOptions()...)
			if err != nil {
				return err
			}
			target, err := m.DestinationURL(appendQuery)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)

			if !save {
				return nil
			}

			if removed, err := store.DeleteExpired(cmd.Context(), s); err != nil {
				a.logger.Warn("Failed to delete expired messages", observability.NewField("error", err.Error()))
			} else if removed > 0 {
				a.logger.Debug("Deleted expired messages", observability.NewField("count", removed))
			}

			handle, err := store.Put(cmd.Context(), s, m, a.cfg.Store.TTL)
			if err != nil {
				return err
			}
			a.logger.Info("Message saved",
				observability.NewField("handle", handle.String()),
				observability.NewField("store", a.cfg.Store.Type))
			fmt.Fprintln(cmd.OutOrStdout(), handle)
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "URL the message is sent to")
	cmd.Flags().BoolVar(&appendQuery, "append-query", true, "append the encoded message to the destination")
	cmd.Flags().BoolVar(&save, "save", false, "save the message to the configured redis or postgres store")

	return cmd
}
