package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/observability"
	"github.com/matzehuels/pepedot/pkg/render"
)

// DefaultPreviewWidth is the pixel width of page previews.
const DefaultPreviewWidth = 1600

type options struct {
	now            func() time.Time
	logger         *log.Logger
	renderer       render.Renderer
	previewWidth   int
	authorInitials string
}

// Option configures Serialize, Write and Deserialize.
type Option func(*options)

// WithClock sets the time source for exportedAt.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option { return func(o *options) { o.logger = l } }

// WithPagePreviews adds a rendered PNG for every page that carries at least
// one point. A width of 0 uses DefaultPreviewWidth.
func WithPagePreviews(r render.Renderer, width int) Option {
	return func(o *options) {
		o.renderer = r
		o.previewWidth = width
	}
}

// WithAuthorInitials records the exporting user's initials in the manifest.
func WithAuthorInitials(initials string) Option {
	return func(o *options) { o.authorInitials = initials }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, logger: log.Default(), previewWidth: DefaultPreviewWidth}
	for _, opt := range opts {
		opt(&o)
	}
	if o.previewWidth <= 0 {
		o.previewWidth = DefaultPreviewWidth
	}
	return o
}

// Write serializes p and copies the archive to w. Nothing is written to w
// unless the whole archive was built successfully.
func Write(ctx context.Context, w io.Writer, p *annotation.Project, opts ...Option) error {
	data, err := Serialize(ctx, p, opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "write archive")
	}
	return nil
}

// Serialize builds the archive for p in memory.
func Serialize(ctx context.Context, p *annotation.Project, opts ...Option) (data []byte, err error) {
	if p == nil {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "no project to export")
	}
	o := newOptions(opts)

	hooks := observability.Archive()
	start := time.Now()
	hooks.OnExportStart(ctx, p.Name, len(p.Points))
	defer func() {
		hooks.OnExportComplete(ctx, p.Name, len(data), time.Since(start), err)
	}()

	files := documentFiles(p.Documents)
	manifest := buildManifest(p, files, o)

	manifestJSON, err := marshalJSON(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	pointsJSON, err := marshalJSON(pointList(p.Points))
	if err != nil {
		return nil, fmt.Errorf("encode points: %w", err)
	}

	var (
		sheet    []byte
		previews []namedBlob
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := buildSpreadsheet(p)
		if err != nil {
			return fmt.Errorf("build spreadsheet: %w", err)
		}
		sheet = b
		return nil
	})
	if o.renderer != nil {
		g.Go(func() error {
			b, err := buildPreviews(gctx, p, files, o)
			previews = b
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []namedBlob{
		{manifestEntry, manifestJSON},
		{pointsEntry, pointsJSON},
	}
	for i, d := range p.Documents {
		entries = append(entries, namedBlob{documentsDir + files[i], d.Data})
	}
	entries = append(entries, photoEntries(p)...)
	entries = append(entries, namedBlob{spreadsheetEntry, sheet})
	entries = append(entries, previews...)

	for _, e := range entries {
		if err := writeEntry(zw, e.name, e.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}

	o.logger.Debug("archive built", "project", p.Name, "points", len(p.Points),
		"documents", len(p.Documents), "previews", len(previews), "bytes", buf.Len())
	return buf.Bytes(), nil
}

type namedBlob struct {
	name string
	data []byte
}

func buildManifest(p *annotation.Project, files []string, o options) Manifest {
	m := Manifest{
		Format:         FormatVersion,
		ProjectName:    p.Name,
		ExportedAt:     o.now().UTC().Truncate(time.Millisecond),
		Documents:      make([]DocumentEntry, len(p.Documents)),
		Seq:            p.Seq,
		Active:         p.Active,
		Page:           p.Page,
		PageMap:        make(map[int]int, len(p.PageMap)),
		AuthorInitials: o.authorInitials,
	}
	for i, d := range p.Documents {
		m.Documents[i] = DocumentEntry{Index: i, ID: d.ID, Name: d.Name, File: files[i], PageCount: d.PageCount}
	}
	for k, v := range p.PageMap {
		m.PageMap[k] = v
	}
	m.Totals = Totals{Points: len(p.Points), Documents: len(p.Documents)}
	for _, pt := range p.Points {
		if pt.HasPhoto() {
			m.Totals.Photos++
		}
	}
	return m
}

// pointList keeps points.json an array even for an empty project.
func pointList(points []annotation.Point) []annotation.Point {
	if points == nil {
		return []annotation.Point{}
	}
	return points
}

// photoEntries writes every attached photo under its ordinal name.
func photoEntries(p *annotation.Project) []namedBlob {
	ordinals := annotation.Ordinals(p.Points)
	used := make(map[string]struct{})
	var out []namedBlob
	for _, pt := range annotation.SortForExport(p.Points) {
		if !pt.HasPhoto() {
			continue
		}
		docName := ""
		if pt.DocumentIndex >= 0 && pt.DocumentIndex < len(p.Documents) {
			docName = p.Documents[pt.DocumentIndex].Name
		}
		name := ensureUniqueName(photoName(ordinals[pt.ID], pt, docName), used)
		out = append(out, namedBlob{photosDir + name, pt.Photo.Data})
	}
	return out
}

// buildPreviews renders every page that carries points, with markers.
// Pages of a document the renderer cannot read are skipped and logged.
func buildPreviews(ctx context.Context, p *annotation.Project, files []string, o options) ([]namedBlob, error) {
	byPage := make(map[annotation.PageKey][]annotation.Point)
	for _, pt := range p.Points {
		byPage[pt.Key()] = append(byPage[pt.Key()], pt)
	}
	keys := make([]annotation.PageKey, 0, len(byPage))
	for k := range byPage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].DocumentIndex != keys[j].DocumentIndex {
			return keys[i].DocumentIndex < keys[j].DocumentIndex
		}
		return keys[i].Page < keys[j].Page
	})

	ordinals := annotation.Ordinals(p.Points)
	var out []namedBlob
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if k.DocumentIndex < 0 || k.DocumentIndex >= len(p.Documents) {
			continue
		}
		doc := p.Documents[k.DocumentIndex]
		if len(doc.Data) == 0 {
			continue
		}
		img, err := o.renderer.RenderPage(ctx, doc.Data, k.Page, o.previewWidth)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Warn("skipping page preview", "document", doc.Name, "page", k.Page, "err", err)
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, render.Overlay(img, byPage[k], ordinals)); err != nil {
			return nil, fmt.Errorf("encode preview %s page %d: %w", doc.Name, k.Page, err)
		}
		out = append(out, namedBlob{pagesDir + pageName(files[k.DocumentIndex], k.Page), buf.Bytes()})
	}
	return out, nil
}
