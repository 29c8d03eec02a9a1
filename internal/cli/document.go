package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Documents are numbered from 1 on the command line.

// documentCommand creates the document management command.
func (c *CLI) documentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"document"},
		Short:   "Add, list, rename and remove drawings of the current project",
	}

	cmd.AddCommand(c.docAddCommand())
	cmd.AddCommand(c.docListCommand())
	cmd.AddCommand(c.docRenameCommand())
	cmd.AddCommand(c.docRemoveCommand())
	cmd.AddCommand(c.docShowCommand())

	return cmd
}

func (c *CLI) docAddCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add FILE",
		Short: "Add a PDF or image drawing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "read %s", args[0])
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			idx, err := ws.sess.AddDocument(ctx, name, data)
			if err != nil {
				return err
			}
			d, _ := ws.sess.Store().Document(idx)
			printSuccess("Added document %d: %s", idx+1, StyleHighlight.Render(d.Name))
			printCounts(count{d.PageCount, "page"})
			printDetail("%s", humanize.Bytes(uint64(len(data))))
			reportWarning(ws)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (default: file name)")
	return cmd
}

func (c *CLI) docListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List drawings",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			st := ws.sess.Store()
			docs := st.Documents()
			if len(docs) == 0 {
				printInfo("No documents in %s", st.Name())
				return nil
			}
			active, page := st.View()
			rows := make([][]string, 0, len(docs))
			for i, d := range docs {
				marker := ""
				if i == active {
					marker = fmt.Sprintf("%s p%d", iconArrow, page)
				}
				size := "missing"
				if len(d.Data) > 0 {
					size = humanize.Bytes(uint64(len(d.Data)))
				}
				n := 0
				for _, p := range st.Points() {
					if p.DocumentIndex == i {
						n++
					}
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1), d.Name, strconv.Itoa(d.PageCount), strconv.Itoa(n), size, marker,
				})
			}
			fmt.Println(renderTable([]string{"#", "Name", "Pages", "Points", "Size", "View"}, rows))
			return nil
		},
	}
}

func (c *CLI) docRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename N NAME",
		Short: "Rename a drawing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := parseDocNumber(args[0])
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.sess.RenameDocument(ctx, idx, args[1]); err != nil {
				return err
			}
			printSuccess("Renamed document %d to %s", idx+1, StyleHighlight.Render(args[1]))
			return nil
		},
	}
}

func (c *CLI) docRemoveCommand() *cobra.Command {
	var confirm confirmFlags
	cmd := &cobra.Command{
		Use:   "remove N",
		Short: "Remove a drawing and every point placed on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := parseDocNumber(args[0])
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			d, ok := ws.sess.Store().Document(idx)
			if !ok {
				return perrors.New(perrors.ErrCodeNotFound, "document %d does not exist", idx+1)
			}
			if err := ws.sess.RemoveDocument(ctx, idx, confirm.resolve(cmd, d.Name)); err != nil {
				return err
			}
			printSuccess("Removed document %s", d.Name)
			return nil
		},
	}
	confirm.register(cmd, "document")
	return cmd
}

func (c *CLI) docShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show N [PAGE]",
		Short: "Make a drawing page the active one for new points",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := parseDocNumber(args[0])
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			page := ws.sess.Store().PageFor(idx)
			if len(args) == 2 {
				if page, err = strconv.Atoi(args[1]); err != nil {
					return perrors.New(perrors.ErrCodeInvalidInput, "page %q is not a number", args[1])
				}
			}
			if err := ws.sess.ShowPage(ctx, idx, page); err != nil {
				return err
			}
			d, _ := ws.sess.Store().Document(idx)
			printSuccess("Showing %s, page %d of %d", StyleHighlight.Render(d.Name), page, d.PageCount)
			return nil
		},
	}
}

// parseDocNumber converts a 1-based document number to an index.
func parseDocNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, perrors.New(perrors.ErrCodeInvalidInput, "document number %q must be 1 or greater", s)
	}
	return n - 1, nil
}

// reportWarning surfaces a non-fatal session warning, such as a full store.
func reportWarning(ws *workspace) {
	if w := ws.sess.Warning(); w != nil {
		printWarning("%s", perrors.UserMessage(w))
		ws.sess.ClearWarning()
	}
}
