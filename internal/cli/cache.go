package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pepedot/pkg/session"
)

// cacheCommand creates the local store management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the local project store",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheUsageCommand())
	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the storage directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Storage.Dir)
			return nil
		},
	}
}

// cacheUsageCommand reports how much of the snapshot quota is in use.
func (c *CLI) cacheUsageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show how much of the storage quota is used",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			used, limit := ws.cache.Used(ctx), ws.cache.Limit()
			printKeyValue("Backend", ws.cfg.Storage.Backend)
			printKeyValue("Projects", fmt.Sprintf("%d of %d", len(ws.sess.Projects()), ws.sess.Limits().MaxProjects))
			if limit <= 0 {
				printKeyValue("Used", humanize.Bytes(uint64(used)))
				return nil
			}
			pct := float64(used) / float64(limit) * 100
			printKeyValue("Used", fmt.Sprintf("%s of %s (%.0f%%)", humanize.Bytes(uint64(used)), humanize.Bytes(uint64(limit)), pct))
			if pct >= 90 {
				printWarning("Storage is nearly full; export and delete old projects")
			}
			return nil
		},
	}
}

// cacheClearCommand deletes every project from the store.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every project from the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !yes {
				printWarning("This deletes every project. Rerun with --yes to proceed.")
				return nil
			}
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			names := ws.sess.Projects()
			for _, name := range names {
				if err := ws.sess.DeleteProject(ctx, name, session.Confirm{Typed: name, Accepted: true}); err != nil {
					return err
				}
			}
			if err := writeCurrent(ws.cfg, ""); err != nil {
				c.Logger.Warn("could not clear current project", "err", err)
			}
			printSuccess("Cleared %d %s", len(names), plural(len(names), "project"))
			printDetail("Directory: %s", ws.cfg.Storage.Dir)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deleting all projects")
	return cmd
}
