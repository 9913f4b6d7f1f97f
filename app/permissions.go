package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/daemon"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/permission"
)

var (
	syncDryRun   bool
	syncAll      bool
	syncNoRoles  bool
	syncPrefixes []string
)

func init() { //nolint: gochecknoinits
	syncPermissionsCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Only list the derived permissions")
	syncPermissionsCmd.Flags().BoolVar(&syncAll, "all", false, "Derive permissions for every route module")
	syncPermissionsCmd.Flags().BoolVar(&syncNoRoles, "no-roles", false, "Do not grant the permissions to the sync roles")
	syncPermissionsCmd.Flags().StringSliceVar(&syncPrefixes, "prefix", nil, "Route modules to derive permissions for")

	rootCmd.AddCommand(syncPermissionsCmd)
}

var syncPermissionsCmd = &cobra.Command{
	Use:   "sync-permissions",
	Short: "Derive permissions from the named API routes and store them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDaemon(cmd, func(ctx context.Context, d *daemon.Daemon) error {
			opts := permission.DeriveOptions{Prefixes: syncPrefixes, All: syncAll}

			report, roles, err := d.SyncPermissions(ctx, opts, syncDryRun, syncNoRoles)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			for _, c := range report.Candidates {
				_, _ = fmt.Fprintf(out, "%-40s %-24s %s\n", c.Name, c.Group, c.DisplayName)
			}

			if report.DryRun {
				_, _ = fmt.Fprintf(out, "dry run: %d permissions\n", len(report.Candidates))
				return nil
			}

			_, _ = fmt.Fprintf(out, "created %d, updated %d, unchanged %d\n", report.Created, report.Updated, report.Unchanged)

			if len(roles) > 0 {
				_, _ = fmt.Fprintf(out, "granted to roles: %s\n", strings.Join(roles, ", "))
			}

			return nil
		})
	},
}
