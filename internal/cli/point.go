package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/viewport"
)

// pointCommand creates the point management command.
func (c *CLI) pointCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "point",
		Aliases: []string{"pt"},
		Short:   "Place, list, edit and remove points",
	}

	cmd.AddCommand(c.pointPlaceCommand())
	cmd.AddCommand(c.pointListCommand())
	cmd.AddCommand(c.pointEditCommand())
	cmd.AddCommand(c.pointRemoveCommand())
	cmd.AddCommand(c.pointPhotoCommand())
	cmd.AddCommand(c.pointUnphotoCommand())

	return cmd
}

// pointFields are the editable attributes shared by place and edit.
type pointFields struct {
	title, date, clock, note, author string
}

func (f *pointFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "point title")
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&f.clock, "time", "", "time as HH:MM:SS (default: now)")
	cmd.Flags().StringVar(&f.note, "note", "", "free-text note")
	cmd.Flags().StringVar(&f.author, "author", "", "author initials (default: your initials)")
}

func (c *CLI) pointPlaceCommand() *cobra.Command {
	var (
		fields    pointFields
		at        string
		doc, page int
		zoom      float64
		photoPath string
	)
	cmd := &cobra.Command{
		Use:   "place --at X,Y",
		Short: "Place a point on the active page",
		Long: `Place a point at a normalized position (0..1 on both axes, origin at the
top-left) of the active page, or of --doc/--page when given.

Points closer than the proximity threshold to an existing point on the same
page are refused. The distance is measured on screen at --zoom, so zooming
in allows denser placement.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pos, err := parseVec(at)
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()
			s := ws.sess

			if cmd.Flags().Changed("doc") || cmd.Flags().Changed("page") {
				active, _ := s.Store().View()
				idx := active
				if cmd.Flags().Changed("doc") {
					if idx, err = parseDocNumber(strconv.Itoa(doc)); err != nil {
						return err
					}
				}
				p := page
				if !cmd.Flags().Changed("page") {
					p = s.Store().PageFor(idx)
				}
				if err := s.ShowPage(ctx, idx, p); err != nil {
					return err
				}
			}
			if zoom > 0 {
				zoomOnto(s.Viewport(), pos, zoom)
			}
			if photoPath != "" {
				if err := stagePhoto(s.StagePhoto, photoPath); err != nil {
					return err
				}
			}

			pt, err := s.PlaceAt(ctx, pos, annotation.Fields{
				Title:          fields.title,
				DateISO:        fields.date,
				TimeISO:        fields.clock,
				Note:           fields.note,
				AuthorInitials: fields.author,
			})
			if err != nil {
				return err
			}
			ord, _ := s.Store().Ordinal(pt.ID)
			printSuccess("Placed point %s (id %d)", StyleHighlight.Render(pointDisplay(pt, ord)), pt.ID)
			printDetail("%s p%d at %.3f,%.3f · %s %s", docName(s.Store(), pt.DocumentIndex), pt.Page, pt.X, pt.Y, pt.DateISO, pt.TimeISO)
			reportWarning(ws)
			return nil
		},
	}
	fields.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "normalized position X,Y")
	cmd.Flags().IntVar(&doc, "doc", 1, "document number")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().Float64Var(&zoom, "zoom", 0, "zoom level the placement is made at (default: fit)")
	cmd.Flags().StringVar(&photoPath, "photo", "", "attach a photo file")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func (c *CLI) pointListCommand() *cobra.Command {
	var doc, page int
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List points with their page ordinals",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			st := ws.sess.Store()
			pts := annotation.SortForExport(st.Points())
			ords := annotation.Ordinals(pts)
			rows := make([][]string, 0, len(pts))
			for _, p := range pts {
				if doc > 0 && p.DocumentIndex != doc-1 {
					continue
				}
				if page > 0 && p.Page != page {
					continue
				}
				rows = append(rows, pointRow(st, p, ords[p.ID]))
			}
			if len(rows) == 0 {
				printInfo("No points")
				return nil
			}
			fmt.Println(renderTable(
				[]string{"No", "ID", "Document", "Page", "Title", "Date", "Time", "By", "X", "Y", "Photo"},
				rows,
			))
			printCounts(count{len(rows), "point"})
			return nil
		},
	}
	cmd.Flags().IntVar(&doc, "doc", 0, "only points on this document number")
	cmd.Flags().IntVar(&page, "page", 0, "only points on this page")
	return cmd
}

func pointRow(st *annotation.Store, p annotation.Point, ordinal int) []string {
	photo := ""
	if p.HasPhoto() {
		photo = iconPhoto + " " + humanize.Bytes(uint64(len(p.Photo.Data)))
	}
	return []string{
		strconv.Itoa(ordinal),
		strconv.FormatInt(p.ID, 10),
		docName(st, p.DocumentIndex),
		strconv.Itoa(p.Page),
		p.Title,
		p.DateISO,
		p.TimeISO,
		p.AuthorInitials,
		strconv.FormatFloat(p.X, 'f', 3, 64),
		strconv.FormatFloat(p.Y, 'f', 3, 64),
		photo,
	}
}

func (c *CLI) pointEditCommand() *cobra.Command {
	var (
		fields pointFields
		at     string
	)
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a point's fields or position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch, err := buildPatch(cmd, fields, at)
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			pt, err := ws.sess.UpdatePoint(ctx, id, patch)
			if err != nil {
				return err
			}
			ord, _ := ws.sess.Store().Ordinal(id)
			printSuccess("Updated point %s", StyleHighlight.Render(pointDisplay(pt, ord)))
			return nil
		},
	}
	fields.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "move to normalized position X,Y")
	return cmd
}

// buildPatch turns the flags that were set into a partial update.
func buildPatch(cmd *cobra.Command, f pointFields, at string) (annotation.Patch, error) {
	var patch annotation.Patch
	set := func(name string, v string) *string {
		if cmd.Flags().Changed(name) {
			return &v
		}
		return nil
	}
	patch.Title = set("title", f.title)
	patch.DateISO = set("date", f.date)
	patch.TimeISO = set("time", f.clock)
	patch.Note = set("note", f.note)
	patch.AuthorInitials = set("author", f.author)
	if cmd.Flags().Changed("at") {
		pos, err := parseVec(at)
		if err != nil {
			return patch, err
		}
		patch.X, patch.Y = &pos.X, &pos.Y
	}
	return patch, nil
}

func (c *CLI) pointRemoveCommand() *cobra.Command {
	var confirm confirmFlags
	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a point",
		Long: `Delete a point. Confirm with its title, or with #N (its page ordinal)
when it has no title.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			label, err := ws.sess.PointLabel(id)
			if err != nil {
				return err
			}
			if err := ws.sess.RemovePoint(ctx, id, confirm.resolve(cmd, label)); err != nil {
				return err
			}
			printSuccess("Removed point %s", label)
			return nil
		},
	}
	confirm.register(cmd, "point")
	return cmd
}

func (c *CLI) pointPhotoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "photo ID FILE",
		Short: "Attach or replace a point's photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			f, err := os.Open(args[1])
			if err != nil {
				return perrors.Wrap(perrors.ErrCodePhotoRead, err, "open %s", args[1])
			}
			defer f.Close()
			if err := ws.sess.AttachPhoto(ctx, id, f); err != nil {
				return err
			}
			pt, _ := ws.sess.Store().Point(id)
			printSuccess("Attached photo to point %d", id)
			printDetail("%s, %s", pt.Photo.MIME, humanize.Bytes(uint64(len(pt.Photo.Data))))
			reportWarning(ws)
			return nil
		},
	}
}

func (c *CLI) pointUnphotoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unphoto ID",
		Short: "Remove a point's photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.sess.RemovePhoto(ctx, id); err != nil {
				return err
			}
			printSuccess("Removed photo from point %d", id)
			return nil
		},
	}
}

// =============================================================================
// Helpers
// =============================================================================

// parseVec parses "X,Y" into a normalized position.
func parseVec(s string) (viewport.Vec, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return viewport.Vec{}, perrors.New(perrors.ErrCodeInvalidInput, "position %q must be X,Y", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil {
		return viewport.Vec{}, perrors.New(perrors.ErrCodeInvalidInput, "position %q must be two numbers", s)
	}
	if err := perrors.ValidateCoordinate(x, y); err != nil {
		return viewport.Vec{}, err
	}
	return viewport.Vec{X: x, Y: y}, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, perrors.New(perrors.ErrCodeInvalidInput, "point id %q must be a positive number", s)
	}
	return id, nil
}

func stagePhoto(stage func(io.Reader) error, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return perrors.Wrap(perrors.ErrCodePhotoRead, err, "open %s", path)
	}
	defer f.Close()
	return stage(f)
}

// pointDisplay is how a point is named in messages: "#3 Crack".
func pointDisplay(p annotation.Point, ordinal int) string {
	if p.Title == "" {
		return fmt.Sprintf("#%d", ordinal)
	}
	return fmt.Sprintf("#%d %s", ordinal, p.Title)
}

func docName(st *annotation.Store, index int) string {
	if d, ok := st.Document(index); ok {
		return d.Name
	}
	return fmt.Sprintf("document %d", index+1)
}

// zoomOnto zooms so the page position pos stays where it is on screen.
func zoomOnto(vp *viewport.Viewport, pos viewport.Vec, zoom float64) {
	vp.ZoomAt(vp.NormalizedToScreen(pos).Sub(vp.Frame.Origin()), zoom)
}
