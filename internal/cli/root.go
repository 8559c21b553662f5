package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bengalcodingacademy-dev/admin/internal/config"
	"github.com/bengalcodingacademy-dev/admin/internal/logging"
	"github.com/bengalcodingacademy-dev/admin/internal/server"
	"github.com/bengalcodingacademy-dev/admin/internal/telemetry"
)

var (
	flagServer    string
	flagConfig    string
	flagStateDir  string
	flagTimeout   string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	cfg      config.Config
	logger   *slog.Logger
	shutdown telemetry.ShutdownFunc
)

// NewRootCmd creates the root cobra command for the bcaadmin CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "bcaadmin",
		Short:   "BCA Admin: operator client for the BCA backend",
		Long:    "bcaadmin signs administrators in to the BCA backend, sends authenticated requests and serves the admin dashboard.",
		Version: server.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cmd)
			if err != nil {
				return err
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
			shutdown = telemetry.Setup(cmd.Context(), "bcaadmin", server.Version, logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(context.Background())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", "", "Backend API base URL (or BCA_API_BASE env)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.bcaadmin/config.yaml)")
	root.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "Directory holding state.db (or BCA_STATE_DIR env)")
	root.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "Per-request timeout, e.g. 10s")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoAmICmd(),
		newRequestCmd(),
		newServeCmd(),
	)

	return root
}
