package app

import (
	"context"
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/daemon"
	"github.com/GoIAM-Admin/GoIAM-Admin/internal/menu"
)

const menuFileMode = 0o644

var menuFormat string

func init() { //nolint: gochecknoinits
	menusCmd.PersistentFlags().StringVar(&menuFormat, "format", "", "json or yaml, default from the file extension")

	menusCmd.AddCommand(menusExportCmd, menusImportCmd)
	menuCacheCmd.AddCommand(menuCacheFlushCmd)
	rootCmd.AddCommand(menusCmd, menuCacheCmd)
}

func formatFor(path string) menu.Format {
	if menuFormat != "" {
		return menu.Format(menuFormat)
	}

	return menu.FormatOf(path)
}

var menusCmd = &cobra.Command{
	Use:   "menus",
	Short: "Export and import the menu tree",
}

var menusExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the menu tree to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDaemon(cmd, func(ctx context.Context, d *daemon.Daemon) error {
			nodes, err := d.Deps.Menus.Export(ctx)
			if err != nil {
				return err
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			data, err := menu.Encode(nodes, formatFor(path))
			if err != nil {
				return err
			}

			if path == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			return pkgerrors.Wrap(os.WriteFile(path, data, menuFileMode), "failed to write menus")
		})
	},
}

var menusImportCmd = &cobra.Command{
	Use:   "import path",
	Short: "Create or update the menus of a file by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return pkgerrors.Wrap(err, "failed to read menus")
		}

		nodes, err := menu.Decode(data, formatFor(args[0]))
		if err != nil {
			return err
		}

		return withDaemon(cmd, func(ctx context.Context, d *daemon.Daemon) error {
			report, err := d.Deps.Menus.Import(ctx, nodes)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d\n", report.Created, report.Updated)

			return nil
		})
	},
}

var menuCacheCmd = &cobra.Command{
	Use:   "menu-cache",
	Short: "Manage the cached menu trees",
}

var menuCacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop every cached menu tree",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDaemon(cmd, func(ctx context.Context, d *daemon.Daemon) error {
			if err := d.Deps.Menus.Flush(ctx); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "menu cache flushed")

			return nil
		})
	},
}
