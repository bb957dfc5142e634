// Package commands implements the webx-router CLI, per SPEC_FULL.md §6:
// a cobra root command plus serve/version subcommands, mirroring the
// teacher's cmd/<binary>/commands layout.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/logger"
)

var configPath string

// cfg is populated by RootCmd's PersistentPreRunE and read by ServeCmd.
var cfg *config.Config

// RootCmd is the webx-router entry point.
var RootCmd = &cobra.Command{
	Use:   "webx-router",
	Short: "Multi-tenant router and session supervisor for WebX remote-desktop engines",
	Long: `webx-router sits between a Relay and per-user remote-desktop Engines.

It authenticates users, provisions an X11 session (Xorg + window manager)
per authenticated user, spawns an Engine process attached to that
session, and brokers message flows between the Relay and the correct
Engine over a curve-encrypted control channel.`,
	RunE: runServe,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		if err := logger.Initialize(logger.Options{
			Level:       cfg.Logging.Level,
			Console:     cfg.Logging.Console,
			FileEnabled: cfg.Logging.File.Enabled,
			FilePath:    cfg.Logging.File.Path,
			Format:      cfg.Logging.Format,
		}); err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to webx-router config file")
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(VersionCmd)
}
