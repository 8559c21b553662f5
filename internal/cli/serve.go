package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bengalcodingacademy-dev/admin/internal/apiclient"
	"github.com/bengalcodingacademy-dev/admin/internal/server"
	"github.com/bengalcodingacademy-dev/admin/internal/ui"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin web dashboard",
		Long: "Run the admin web dashboard. Each browser signs in on its own; " +
			"the CLI session in the state directory is not shared with it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			// Reject a bad --server before listening.
			if _, err := newDashboardClient(cmd.Context()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sessions := ui.NewSessionManager(newDashboardClient, logger)
			srv := server.New(cfg, ui.New(sessions, logger), logger)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default 127.0.0.1:8080, or BCA_ADDR env)")
	return cmd
}

// newDashboardClient builds the client of one dashboard session. Its cookies
// live only in memory.
func newDashboardClient(ctx context.Context) (ui.Client, error) {
	client, err := apiclient.New(ctx, clientOptions(nil))
	if err != nil {
		return nil, err
	}
	return client, nil
}
