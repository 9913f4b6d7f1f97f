// Package app implements the main application commands.
package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/config"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/daemon"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/logger"
)

var (
	configPath string // Path to the configuration directory
	devMode    bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "go-iam-admin",
	Short: "GoIAM-Admin is an identity and access management service",
	Long: `GoIAM-Admin serves users, roles, permissions, departments and
role filtered navigation menus over a JSON API.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error

		if cfg, err = config.ReadConfig(configPath); err != nil {
			return err
		}

		if devMode {
			cfg.DevMode = true
		}

		return logger.Init(cfg.Log)
	},
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "Configuration directory holding main.toml")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// withDaemon builds the services, runs fn and releases them.
func withDaemon(cmd *cobra.Command, fn func(ctx context.Context, d *daemon.Daemon) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	d, err := daemon.New(ctx, &cfg)
	if err != nil {
		return err
	}

	defer d.Close()

	return fn(ctx, d)
}
