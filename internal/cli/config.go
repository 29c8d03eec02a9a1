package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pepedot/pkg/config"
)

// configCommand shows where settings come from and what they resolve to.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				path = p
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	})

	return cmd
}

// initialsCommand shows or sets the default author initials.
func (c *CLI) initialsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "initials [XY]",
		Short: "Show or set your author initials for new points",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if len(args) == 0 {
				if ws.sess.Initials() == "" {
					printInfo("No initials set")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), ws.sess.Initials())
				return nil
			}
			if err := ws.sess.SetInitials(ctx, args[0]); err != nil {
				return err
			}
			reportWarning(ws)
			printSuccess("Initials set to %s", StyleHighlight.Render(args[0]))
			return nil
		},
	}
}
