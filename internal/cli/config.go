package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bengalcodingacademy-dev/admin/internal/config"
)

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, required := flagConfig, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}
	c, err := config.Load(path, required)
	if err != nil {
		return c, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		c.APIBase = flagServer
	}
	if flags.Changed("state-dir") {
		c.StateDir = flagStateDir
	}
	if flags.Changed("timeout") {
		d, err := time.ParseDuration(flagTimeout)
		if err != nil || d <= 0 {
			return c, fmt.Errorf("invalid --timeout %q", flagTimeout)
		}
		c.Timeout = d
	}
	if flags.Changed("log-level") {
		c.LogLevel = flagLogLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = flagLogFormat
	}
	if flagDebug {
		c.LogLevel = "debug"
	}
	return c, nil
}
