package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoAmICmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the administrator the stored session belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tty := newTerminal(cmd.ErrOrStderr())
			a, err := openApp(ctx, tty, tty)
			if err != nil {
				return err
			}
			defer a.Close()

			a.session.Initialize(ctx)
			snap := a.session.Snapshot()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			if snap.User == nil {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintf(out, "%s <%s>\n", snap.User.DisplayName(), snap.User.Email)
			fmt.Fprintf(out, "  ID:   %s\n", snap.User.ID)
			fmt.Fprintf(out, "  Role: %s\n", snap.User.Role)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session state as JSON")
	return cmd
}
