package archive

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/observability"
)

// Deserialize parses an archive into a new project. The returned project is
// complete and independent of any live state; on error nothing is returned.
func Deserialize(data []byte, opts ...Option) (p *annotation.Project, m *Manifest, err error) {
	o := newOptions(opts)
	start := time.Now()
	defer func() {
		n := 0
		name := ""
		if p != nil {
			n, name = len(p.Points), p.Name
		}
		observability.Archive().OnImportComplete(context.Background(), name, n, time.Since(start), err)
	}()

	zf, err := openZip(data)
	if err != nil {
		return nil, nil, invalid(err, "not a zip archive")
	}

	manifest, err := readManifest(zf)
	if err != nil {
		return nil, nil, err
	}
	if err := perrors.ValidateProjectName(manifest.ProjectName); err != nil {
		o.logger.Warn("archive project name unusable, using default", "name", manifest.ProjectName, "default", DefaultProjectName)
		manifest.ProjectName = DefaultProjectName
	}
	points, err := readPoints(zf)
	if err != nil {
		return nil, nil, err
	}

	docs, slot, err := readDocuments(zf, manifest, o)
	if err != nil {
		return nil, nil, err
	}

	proj := &annotation.Project{
		Name:      manifest.ProjectName,
		Documents: docs,
		Points:    make([]annotation.Point, 0, len(points)),
		Seq:       manifest.Seq,
		PageMap:   make(map[int]int),
	}
	if err := assignMissingIDs(points, manifest.Seq); err != nil {
		return nil, nil, err
	}
	for _, pt := range points {

		i, ok := slot[pt.DocumentIndex]
		if !ok {
			return nil, nil, perrors.New(perrors.ErrCodeInvalidArchive,
				"points.json: point %d references unknown document %d", pt.ID, pt.DocumentIndex)
		}
		pt.DocumentIndex = i

		if err := perrors.ValidateCoordinate(pt.X, pt.Y); err != nil {
			return nil, nil, invalid(err, "points.json: point %d", pt.ID)
		}
		pt.X, pt.Y = annotation.Clamp01(pt.X), annotation.Clamp01(pt.Y)
		if pt.Page < 1 {
			pt.Page = 1
		}
		if pt.Page > proj.Documents[i].PageCount {
			proj.Documents[i].PageCount = pt.Page
		}
		if pt.ID > proj.Seq {
			proj.Seq = pt.ID
		}
		proj.Points = append(proj.Points, pt)
	}

	if i, ok := slot[manifest.Active]; ok {
		proj.Active = i
	}
	for k, v := range manifest.PageMap {
		if i, ok := slot[k]; ok {
			proj.PageMap[i] = clampPage(v, proj.Documents[i].PageCount)
		}
	}
	proj.Page = 1
	if len(proj.Documents) > 0 {
		proj.Page = clampPage(manifest.Page, proj.Documents[proj.Active].PageCount)
	}

	o.logger.Debug("archive parsed", "project", proj.Name, "format", manifest.Format,
		"documents", len(proj.Documents), "points", len(proj.Points))
	return proj, manifest, nil
}

// assignMissingIDs gives points written without an id (decoded as 0) fresh
// ids above both seq and every id already present, in archive order.
func assignMissingIDs(points []annotation.Point, seq int64) error {
	next := seq
	seen := make(map[int64]struct{}, len(points))
	for _, pt := range points {
		if pt.ID == 0 {
			continue
		}
		if pt.ID < 0 {
			return perrors.New(perrors.ErrCodeInvalidArchive, "points.json: invalid point id %d", pt.ID)
		}
		if _, dup := seen[pt.ID]; dup {
			return perrors.New(perrors.ErrCodeInvalidArchive, "points.json: duplicate point id %d", pt.ID)
		}
		seen[pt.ID] = struct{}{}
		next = max(next, pt.ID)
	}
	for i := range points {
		if points[i].ID == 0 {
			next++
			points[i].ID = next
		}
	}
	return nil
}

func readManifest(zf entries) (*Manifest, error) {
	raw, ok, err := zf.read(manifestEntry)
	if err != nil {
		return nil, invalid(err, "read manifest.json")
	}
	if !ok {
		return nil, perrors.New(perrors.ErrCodeInvalidArchive, "manifest.json missing")
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, invalid(err, "manifest.json malformed")
	}
	return &m, nil
}

func readPoints(zf entries) ([]annotation.Point, error) {
	raw, ok, err := zf.read(pointsEntry)
	if err != nil {
		return nil, invalid(err, "read points.json")
	}
	if !ok {
		return nil, perrors.New(perrors.ErrCodeInvalidArchive, "points.json missing")
	}
	var points []annotation.Point
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, invalid(err, "points.json malformed")
	}
	return points, nil
}

// readDocuments returns the documents in manifest index order, and a map
// from manifest index to position in that slice.
func readDocuments(zf entries, m *Manifest, o options) ([]annotation.Document, map[int]int, error) {
	list := m.Documents
	if len(list) == 0 {
		raw, ok, err := zf.read(legacyPDFManifest)
		if err != nil {
			return nil, nil, invalid(err, "read %s", legacyPDFManifest)
		}
		if ok {
			var pdfs []legacyPDF
			if err := json.Unmarshal(raw, &pdfs); err != nil {
				return nil, nil, invalid(err, "%s malformed", legacyPDFManifest)
			}
			list = legacyEntries(pdfs)
		}
	}
	list = append([]DocumentEntry(nil), list...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Index < list[j].Index })

	docs := make([]annotation.Document, 0, len(list))
	slot := make(map[int]int, len(list))
	for _, e := range list {
		if _, dup := slot[e.Index]; dup {
			return nil, nil, perrors.New(perrors.ErrCodeInvalidArchive, "manifest.json: duplicate document index %d", e.Index)
		}
		slot[e.Index] = len(docs)

		data, err := documentBinary(zf, e)
		if err != nil {
			return nil, nil, err
		}
		if data == nil {
			o.logger.Warn("document binary missing from archive", "document", e.Name, "file", e.File)
		}
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		pages := e.PageCount
		if pages < 1 {
			pages = 1
		}
		docs = append(docs, annotation.Document{ID: id, Name: e.Name, Data: data, PageCount: pages})
	}
	return docs, slot, nil
}

// documentBinary looks the binary up under documents/, then under the
// pdfs/ folder used by older archives.
func documentBinary(zf entries, e DocumentEntry) ([]byte, error) {
	var candidates []string
	if e.File != "" {
		candidates = append(candidates, documentsDir+e.File, legacyDocumentsDir+e.File)
	}
	if e.Name != "" {
		candidates = append(candidates, legacyDocumentsDir+perrors.SanitizeFilename(e.Name, "document"))
	}
	for _, name := range candidates {
		data, ok, err := zf.read(sanitizePath(name))
		if err != nil {
			return nil, invalid(err, "read %s", name)
		}
		if ok {
			return data, nil
		}
	}
	return nil, nil
}

func clampPage(page, count int) int {
	if page < 1 {
		return 1
	}
	if count >= 1 && page > count {
		return count
	}
	return page
}

func invalid(err error, format string, args ...any) error {
	return perrors.Wrap(perrors.ErrCodeInvalidArchive, err, format, args...)
}
