package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the backend session and forget its cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tty := newTerminal(cmd.ErrOrStderr())
			a, err := openApp(ctx, tty, tty)
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.Initialize(ctx)
			a.session.Logout(ctx)

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
