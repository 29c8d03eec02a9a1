package cli

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/session"
	"github.com/matzehuels/pepedot/pkg/viewport"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	mapBorderStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorDim)
)

// The page map is a mapCols x mapRows grid of terminal cells, each treated
// as cellW x cellH pixels of viewport space. mapTop and mapLeft locate the
// grid's first cell on screen.
const (
	mapCols = 48
	mapRows = 16
	mapTop  = 4
	mapLeft = 1

	cellW = 8.0
	cellH = 16.0

	wheelPan  = 2 * cellH
	wheelZoom = 120.0
)

// viewCommand opens the interactive page browser.
func (c *CLI) viewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Browse the pages and points of the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := c.openProject(ctx)
			if err != nil {
				return err
			}
			defer ws.Close()

			if len(ws.sess.Store().Documents()) == 0 {
				printInfo("No documents in %s", ws.sess.Store().Name())
				printNextStep("Add a drawing", "pepedot doc add FILE")
				return nil
			}
			p := tea.NewProgram(newPageModel(ctx, ws.sess), tea.WithContext(ctx), tea.WithMouseAllMotion())
			_, err = p.Run()
			reportWarning(ws)
			return err
		},
	}
}

// =============================================================================
// PageModel - Interactive page browser
// =============================================================================

// PageModel is the bubbletea model for browsing one page at a time.
type PageModel struct {
	ctx    context.Context
	sess   *session.Session
	Cursor int
	Status string
}

func newPageModel(ctx context.Context, s *session.Session) PageModel {
	s.Resize(mapFrame())
	return PageModel{ctx: ctx, sess: s}
}

func (m PageModel) Init() tea.Cmd {
	return nil
}

func (m PageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.Status = ""
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.points())-1 {
				m.Cursor++
			}
		case "right", "l", "]":
			m = m.step(m.sess.NextPage)
		case "left", "h", "[":
			m = m.step(m.sess.PrevPage)
		case "tab":
			m = m.step(m.nextDocument)
		case "+", "=":
			m.sess.Viewport().ZoomIn()
		case "-":
			m.sess.Viewport().ZoomOut()
		case "m":
			m.Status = "mode: " + m.sess.ToggleMode().String()
		}
	case tea.MouseMsg:
		return m.mouse(msg), nil
	}
	return m, nil
}

// mouse routes pointer and wheel input through the session's gestures.
// Left drags pan; a click in place mode places a point. Hovering in place
// mode flags spots that are too crowded.
func (m PageModel) mouse(msg tea.MouseMsg) PageModel {
	at := cellCenter(msg.Y-mapTop, msg.X-mapLeft)
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.sess.PointerDown(0, at)
		case tea.MouseButtonWheelUp:
			m.sess.Wheel(at, viewport.Vec{Y: -m.wheelStep(msg.Ctrl)}, msg.Ctrl)
		case tea.MouseButtonWheelDown:
			m.sess.Wheel(at, viewport.Vec{Y: m.wheelStep(msg.Ctrl)}, msg.Ctrl)
		case tea.MouseButtonWheelLeft:
			m.sess.Wheel(at, viewport.Vec{X: -wheelPan}, false)
		case tea.MouseButtonWheelRight:
			m.sess.Wheel(at, viewport.Vec{X: wheelPan}, false)
		}
	case tea.MouseActionMotion:
		if msg.Button == tea.MouseButtonNone {
			m.Status = m.hover(at)
			break
		}
		m.sess.PointerMove(0, at)
	case tea.MouseActionRelease:
		m.Status = ""
		pt, err := m.sess.PointerUp(m.ctx, 0, at, annotation.Fields{})
		switch {
		case err != nil:
			m.Status = perrors.UserMessage(err)
		case pt != nil:
			n := annotation.OrdinalOf(m.sess.Store().Points(), *pt)
			m.Status = fmt.Sprintf("placed #%d %s", n, pt.Title)
			m.Cursor = n - 1
		}
	}
	return m
}

// hover warns before a click that would be refused for proximity.
func (m PageModel) hover(at viewport.Vec) string {
	if m.sess.Mode() == viewport.ModePlace && m.sess.Crowded(at) {
		return "too close to a point here; zoom in to place"
	}
	return ""
}

func (m PageModel) wheelStep(zoom bool) float64 {
	if zoom {
		return wheelZoom
	}
	return wheelPan
}

func (m PageModel) step(f func(context.Context) error) PageModel {
	if err := f(m.ctx); err != nil {
		m.Status = perrors.UserMessage(err)
		return m
	}
	m.Cursor = 0
	return m
}

func (m PageModel) nextDocument(ctx context.Context) error {
	st := m.sess.Store()
	active, _ := st.View()
	next := (active + 1) % len(st.Documents())
	return m.sess.ShowPage(ctx, next, st.PageFor(next))
}

func (m PageModel) points() []annotation.Point {
	doc, page := m.sess.Store().View()
	return m.sess.Store().PointsOn(doc, page)
}

func (m PageModel) View() string {
	var b strings.Builder
	st := m.sess.Store()
	doc, page := st.View()
	d, _ := st.Document(doc)

	b.WriteString(StyleTitle.Render(st.Name()))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %s · page %d/%d · zoom %.1f× · %s", d.Name, page, d.PageCount, m.sess.Viewport().Zoom(), m.sess.Mode())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ page  tab document  ↑/↓ point  +/- zoom  m place/pan  q quit"))
	b.WriteString("\n\n")

	pts := m.points()
	ords := annotation.Ordinals(pts)
	b.WriteString(mapBorderStyle.Render(pageMap(m.sess.Viewport(), pts, ords, m.selectedID(pts))))
	b.WriteString("\n")

	if len(pts) == 0 {
		b.WriteString(listDimStyle.Render("  no points on this page"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.pointTable(pts, ords))
		b.WriteString("\n")
		if p := pts[min(m.Cursor, len(pts)-1)]; p.Note != "" {
			b.WriteString("  " + StyleValue.Render(p.Note) + "\n")
		}
	}
	if m.Status != "" {
		b.WriteString(StyleWarning.Render(m.Status))
		b.WriteString("\n")
	}
	return b.String()
}

func (m PageModel) selectedID(pts []annotation.Point) int64 {
	if m.Cursor < len(pts) {
		return pts[m.Cursor].ID
	}
	return 0
}

func (m PageModel) pointTable(pts []annotation.Point, ords map[int64]int) string {
	rows := make([][]string, 0, len(pts))
	for _, p := range pts {
		photo := ""
		if p.HasPhoto() {
			photo = iconPhoto
		}
		rows = append(rows, []string{
			fmt.Sprint(ords[p.ID]), p.Title, p.DateISO, p.TimeISO, p.AuthorInitials, photo,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("No", "Title", "Date", "Time", "By", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHead
			case row == m.Cursor:
				return listSelectedStyle
			case col == 5:
				return stylePhoto
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// =============================================================================
// Helpers
// =============================================================================

// pageMap draws the part of the page visible through vp as a character
// grid, with each visible point's ordinal at its position. Ordinals above 9
// show as "+".
func pageMap(vp *viewport.Viewport, pts []annotation.Point, ords map[int64]int, selected int64) string {
	grid := make([][]string, mapRows)
	for r := range grid {
		grid[r] = make([]string, mapCols)
		for c := range grid[r] {
			grid[r][c] = " "
			if _, err := vp.ScreenToNormalized(cellCenter(r, c)); err == nil {
				grid[r][c] = listDimStyle.Render("·")
			}
		}
	}
	for _, p := range pts {
		r, c, ok := cellAt(vp.NormalizedToScreen(viewport.Vec{X: p.X, Y: p.Y}))
		if !ok {
			continue
		}
		label := "+"
		if n := ords[p.ID]; n < 10 {
			label = fmt.Sprint(n)
		}
		if p.ID == selected {
			grid[r][c] = listSelectedStyle.Reverse(true).Render(label)
		} else {
			grid[r][c] = StyleNumber.Render(label)
		}
	}
	lines := make([]string, mapRows)
	for r, row := range grid {
		lines[r] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

// mapFrame is the viewport frame covered by the page map, in client pixels.
func mapFrame() viewport.Rect {
	return viewport.Rect{X: mapLeft * cellW, Y: mapTop * cellH, W: mapCols * cellW, H: mapRows * cellH}
}

// cellCenter returns the client position of the center of a grid cell.
func cellCenter(row, col int) viewport.Vec {
	f := mapFrame()
	return viewport.Vec{X: f.X + (float64(col)+0.5)*cellW, Y: f.Y + (float64(row)+0.5)*cellH}
}

// cellAt returns the grid cell under a client position.
func cellAt(client viewport.Vec) (row, col int, ok bool) {
	f := mapFrame()
	col = int(math.Floor((client.X - f.X) / cellW))
	row = int(math.Floor((client.Y - f.Y) / cellH))
	if col == mapCols && client.X == f.X+f.W {
		col--
	}
	if row == mapRows && client.Y == f.Y+f.H {
		row--
	}
	ok = row >= 0 && row < mapRows && col >= 0 && col < mapCols
	return row, col, ok
}
