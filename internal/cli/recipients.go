package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecipientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipients",
		Short: "Manage digest recipients",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <token>",
		Short: "Register a push token (FCM registration token or Telegram chat id)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.AddRecipient(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Recipient registered.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			tokens, err := store.RecipientTokens(cmd.Context())
			if err != nil {
				return err
			}
			for _, token := range tokens {
				fmt.Fprintln(cmd.OutOrStdout(), token)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d recipients\n", len(tokens))
			return nil
		},
	})

	return cmd
}
