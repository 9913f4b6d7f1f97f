package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/daemon"
)

func init() { //nolint: gochecknoinits
	departmentsCmd.AddCommand(departmentsFixTreeCmd)
	rootCmd.AddCommand(departmentsCmd)
}

var departmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Maintain the department hierarchy",
}

var departmentsFixTreeCmd = &cobra.Command{
	Use:   "fix-tree",
	Short: "Recompute the nested set boundaries from the parent links",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDaemon(cmd, func(ctx context.Context, d *daemon.Daemon) error {
			if err := d.Deps.Departments.Rebuild(ctx); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "department tree rebuilt")

			return nil
		})
	},
}
