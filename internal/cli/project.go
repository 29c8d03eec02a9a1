package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// projectCommand creates the project management command.
func (c *CLI) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"rn"},
		Short:   "Create, list, open, rename and delete projects",
	}

	cmd.AddCommand(c.projectCreateCommand())
	cmd.AddCommand(c.projectListCommand())
	cmd.AddCommand(c.projectOpenCommand())
	cmd.AddCommand(c.projectRenameCommand())
	cmd.AddCommand(c.projectDeleteCommand())

	return cmd
}

func (c *CLI) projectCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty project and make it current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.sess.CreateProject(ctx, args[0]); err != nil {
				return err
			}
			if err := writeCurrent(ws.cfg, args[0]); err != nil {
				c.Logger.Warn("could not remember current project", "err", err)
			}
			printSuccess("Created project %s", StyleHighlight.Render(args[0]))
			printNextStep("Add a drawing", "pepedot doc add FILE")
			return nil
		},
	}
}

func (c *CLI) projectListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()
			return listProjects(ctx, ws)
		},
	}
}

func listProjects(ctx context.Context, ws *workspace) error {
	names := ws.sess.Projects()
	if len(names) == 0 {
		printInfo("No projects")
		return nil
	}
	current := readCurrent(ws.cfg)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		if err := ws.sess.Open(ctx, name); err != nil {
			return err
		}
		st := ws.sess.Store()
		marker := ""
		if name == current {
			marker = iconArrow
		}
		rows = append(rows, []string{
			marker,
			name,
			fmt.Sprint(len(st.Documents())),
			fmt.Sprint(len(st.Points())),
		})
	}
	fmt.Println(renderTable([]string{"", "Project", "Documents", "Points"}, rows))
	printDetail("%d of %d projects", len(names), ws.sess.Limits().MaxProjects)
	return nil
}

func (c *CLI) projectOpenCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "open NAME",
		Short:             "Make a project current",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeProjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.sess.Open(ctx, args[0]); err != nil {
				return err
			}
			if err := writeCurrent(ws.cfg, args[0]); err != nil {
				return fmt.Errorf("remember current project: %w", err)
			}
			st := ws.sess.Store()
			printSuccess("Opened %s", StyleHighlight.Render(args[0]))
			printCounts(count{len(st.Documents()), "document"}, count{len(st.Points()), "point"})
			return nil
		},
	}
}

func (c *CLI) projectRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename NEW_NAME",
		Short: "Rename the current project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			old := ws.sess.Store().Name()
			if err := ws.sess.RenameProject(ctx, args[0]); err != nil {
				return err
			}
			if readCurrent(ws.cfg) == old {
				if err := writeCurrent(ws.cfg, args[0]); err != nil {
					c.Logger.Warn("could not remember current project", "err", err)
				}
			}
			printSuccess("Renamed %s %s %s", old, iconArrow, StyleHighlight.Render(args[0]))
			return nil
		},
	}
}

func (c *CLI) projectDeleteCommand() *cobra.Command {
	var confirm confirmFlags
	cmd := &cobra.Command{
		Use:               "delete NAME",
		Short:             "Delete a project with its drawings and points",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeProjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			name := args[0]
			if !ws.sess.HasProject(name) {
				return perrors.New(perrors.ErrCodeNotFound, "project %q does not exist", name)
			}
			if err := ws.sess.DeleteProject(ctx, name, confirm.resolve(cmd, name)); err != nil {
				return err
			}
			if readCurrent(ws.cfg) == name {
				if err := writeCurrent(ws.cfg, ""); err != nil {
					c.Logger.Warn("could not clear current project", "err", err)
				}
			}
			printSuccess("Deleted project %s", name)
			return nil
		},
	}
	confirm.register(cmd, "project")
	return cmd
}
