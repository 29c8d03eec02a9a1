package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pepedot/pkg/archive"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/render"
)

// exportCommand writes the current project to a zip archive.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output   string
		previews bool
		width    int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current project to a zip archive",
		Long: `Export the current project with its drawings, photos, a points.xlsx
spreadsheet and, with --previews, a PNG of every annotated page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			name := ws.sess.Store().Name()
			if output == "" {
				output = archive.ExportName(name, time.Now())
			}
			if !cmd.Flags().Changed("previews") {
				previews = ws.cfg.Archive.PagePreviews
			}
			if !cmd.Flags().Changed("width") {
				width = ws.cfg.Archive.PreviewWidth
			}

			var opts []archive.Option
			if previews {
				opts = append(opts, archive.WithPagePreviews(render.Auto{}, width))
			}

			f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "create %s", output)
			}

			prog := newProgress(c.Logger)
			spin := newSpinner(ctx, cmd.ErrOrStderr(), "Building archive...")
			spin.Start()
			err = ws.sess.Export(ctx, f, opts...)
			spin.Stop()
			if cerr := f.Close(); err == nil && cerr != nil {
				err = perrors.Wrap(perrors.ErrCodeIO, cerr, "close %s", output)
			}
			if err != nil {
				os.Remove(output)
				if spin.Cancelled() {
					printError("Export cancelled; %s not written", output)
				}
				return err
			}
			prog.done("Archive written")

			info, _ := os.Stat(output)
			printSuccess("Exported %s", StyleHighlight.Render(name))
			printFile(output)
			if info != nil {
				printDetail("%s", humanize.Bytes(uint64(info.Size())))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <project>-<timestamp>.zip)")
	cmd.Flags().BoolVar(&previews, "previews", false, "include annotated page previews")
	cmd.Flags().IntVar(&width, "width", archive.DefaultPreviewWidth, "preview width in pixels")
	return cmd
}

// importCommand loads a project from a zip archive.
func (c *CLI) importCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a project archive, replacing a project of the same name",
		Long: `Import a project archive. When a project of the same name exists it is
replaced; --yes is required to allow that. The current project and the one
being replaced are always backed up to the backup directory first.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeArchives,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "read %s", args[0])
			}
			sum, err := archive.Inspect(data)
			if err != nil {
				return err
			}

			ws, err := c.openWorkspace(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			target := sum.Manifest.ProjectName
			if ws.sess.HasProject(target) && !yes {
				return perrors.New(perrors.ErrCodeConfirmation,
					"project %q exists and would be replaced; rerun with --yes", target)
			}
			if name, err := c.selectProject(ws); err == nil {
				if err := ws.sess.Open(ctx, name); err != nil {
					return err
				}
			}

			prog := newProgress(c.Logger)
			name, err := ws.sess.Import(ctx, data)
			if err != nil {
				return err
			}
			prog.done("Archive imported")
			if err := writeCurrent(ws.cfg, name); err != nil {
				c.Logger.Warn("could not remember current project", "err", err)
			}

			st := ws.sess.Store()
			printSuccess("Imported %s", StyleHighlight.Render(name))
			printCounts(count{len(st.Documents()), "document"}, count{len(st.Points()), "point"})
			printDetail("Backups in %s", ws.sink.Path())
			reportWarning(ws)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "allow replacing an existing project")
	return cmd
}

// inspectCommand summarizes an archive without importing it.
func (c *CLI) inspectCommand() *cobra.Command {
	var entries bool
	cmd := &cobra.Command{
		Use:               "inspect FILE",
		Short:             "Show what an archive contains",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeArchives,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "read %s", args[0])
			}
			sum, err := archive.Inspect(data)
			if err != nil {
				return err
			}
			printSummary(filepath.Base(args[0]), sum, entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&entries, "entries", false, "list every zip entry")
	return cmd
}

func printSummary(file string, sum *archive.Summary, entries bool) {
	m := sum.Manifest
	fmt.Println(StyleTitle.Render(file))
	printKeyValue("Project", m.ProjectName)
	printKeyValue("Format", strconv.Itoa(m.Format))
	if !m.ExportedAt.IsZero() {
		printKeyValue("Exported", fmt.Sprintf("%s (%s)", m.ExportedAt.Format(time.RFC3339), humanize.Time(m.ExportedAt)))
	}
	if m.AuthorInitials != "" {
		printKeyValue("Author", m.AuthorInitials)
	}
	printKeyValue("Points", strconv.Itoa(m.Totals.Points))
	printKeyValue("Photos", strconv.Itoa(m.Totals.Photos))
	printKeyValue("Size", humanize.Bytes(uint64(sum.TotalSize())))
	if sum.Has("points.xlsx") {
		printKeyValue("Spreadsheet", "points.xlsx")
	}

	rows := make([][]string, 0, len(m.Documents))
	for _, d := range m.Documents {
		rows = append(rows, []string{strconv.Itoa(d.Index + 1), d.Name, strconv.Itoa(d.PageCount), d.File})
	}
	if len(rows) > 0 {
		fmt.Println(renderTable([]string{"#", "Document", "Pages", "File"}, rows))
	}
	if !entries {
		return
	}
	rows = rows[:0]
	for _, e := range sum.Entries {
		rows = append(rows, []string{e.Name, humanize.Bytes(uint64(e.Size)), humanize.Bytes(uint64(e.CompressedSize))})
	}
	fmt.Println(renderTable([]string{"Entry", "Size", "Compressed"}, rows))
}

// diffCommand compares two archives.
func (c *CLI) diffCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "diff A B",
		Short:             "Show how two archives differ in manifest and points",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeArchives,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := os.ReadFile(args[0])
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "read %s", args[0])
			}
			b, err := os.ReadFile(args[1])
			if err != nil {
				return perrors.Wrap(perrors.ErrCodeIO, err, "read %s", args[1])
			}
			d, err := archive.Diff(a, b)
			if err != nil {
				return err
			}
			if d == "" {
				printSuccess("Archives are equivalent")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

// backupsCommand lists the safety archives written before imports.
func (c *CLI) backupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List backups taken before imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sink, err := newBackupSink(cfg)
			if err != nil {
				return err
			}
			names, err := sink.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No backups")
				return nil
			}
			for _, n := range names {
				printFile(filepath.Join(sink.Path(), n))
			}
			printCounts(count{len(names), "backup"})
			return nil
		},
	}
}
