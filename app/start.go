package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the GoIAM-Admin web service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDaemon(cmd, func(ctx context.Context, d *daemon.Daemon) error {
			return d.Start(ctx)
		})
	},
}
