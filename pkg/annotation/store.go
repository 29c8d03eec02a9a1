package annotation

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Default limits, matching what the field app has always shipped with.
const (
	// DefaultMaxDocuments bounds documents per project.
	DefaultMaxDocuments = 10

	// DefaultProximityPx is the minimum on-screen distance between two
	// points on the same page. Markers may touch but not overlap.
	DefaultProximityPx = 18.0
)

// Limits configures the store's capacity and proximity rules.
type Limits struct {
	MaxDocuments int
	ProximityPx  float64
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{MaxDocuments: DefaultMaxDocuments, ProximityPx: DefaultProximityPx}
}

// Store enforces the annotation invariants over a single project.
// It is not safe for concurrent use; callers serialize mutations.
type Store struct {
	project *Project
	limits  Limits
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for default point dates.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator sets the document id generator.
func WithIDGenerator(f func() string) Option { return func(s *Store) { s.newID = f } }

// NewStore wraps p. A nil project starts empty; zero limits fall back to
// [DefaultLimits].
func NewStore(p *Project, limits Limits, opts ...Option) *Store {
	if p == nil {
		p = &Project{}
	}
	if p.PageMap == nil {
		p.PageMap = map[int]int{}
	}
	if p.Page < 1 {
		p.Page = 1
	}
	for _, pt := range p.Points {
		if pt.ID > p.Seq {
			p.Seq = pt.ID
		}
	}
	def := DefaultLimits()
	if limits.MaxDocuments <= 0 {
		limits.MaxDocuments = def.MaxDocuments
	}
	if limits.ProximityPx <= 0 {
		limits.ProximityPx = def.ProximityPx
	}
	s := &Store{
		project: p,
		limits:  limits,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the project name.
func (s *Store) Name() string { return s.project.Name }

// Limits returns the active limits.
func (s *Store) Limits() Limits { return s.limits }

// Project returns a deep copy of the current state.
func (s *Store) Project() *Project { return s.project.Clone() }

// Documents returns a copy of the document list.
func (s *Store) Documents() []Document { return append([]Document(nil), s.project.Documents...) }

// Document returns the document at index.
func (s *Store) Document(index int) (Document, bool) {
	if index < 0 || index >= len(s.project.Documents) {
		return Document{}, false
	}
	return s.project.Documents[index], true
}

// Points returns a copy of all points in creation order of insertion.
func (s *Store) Points() []Point {
	out := make([]Point, len(s.project.Points))
	for i, p := range s.project.Points {
		out[i] = p.clone()
	}
	return out
}

// Point returns the point with the given id.
func (s *Store) Point(id int64) (Point, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.project.Points[i].clone(), true
	}
	return Point{}, false
}

// PointsOn returns the points of one page sorted by id.
func (s *Store) PointsOn(documentIndex, page int) []Point {
	return PagePoints(s.project.Points, PageKey{DocumentIndex: documentIndex, Page: page})
}

// Ordinal returns the display number of the point with the given id.
func (s *Store) Ordinal(id int64) (int, bool) {
	pt, ok := s.Point(id)
	if !ok {
		return 0, false
	}
	return OrdinalOf(s.project.Points, pt), true
}

// SetName renames the project in memory. Storage key migration is the
// session's job.
func (s *Store) SetName(name string) error {
	if err := perrors.ValidateProjectName(name); err != nil {
		return err
	}
	s.project.Name = name
	return nil
}

// AddDocument appends a document and returns its index. An empty ID is
// filled with a fresh UUID and a zero page count is treated as one page.
func (s *Store) AddDocument(doc Document) (int, error) {
	if len(s.project.Documents) >= s.limits.MaxDocuments {
		return 0, perrors.New(perrors.ErrCodeDocumentLimit,
			"document limit reached (%d) for project %q", s.limits.MaxDocuments, s.project.Name)
	}
	if err := perrors.ValidateDocumentName(doc.Name); err != nil {
		return 0, err
	}
	if doc.ID == "" {
		doc.ID = s.newID()
	}
	if doc.PageCount < 1 {
		doc.PageCount = 1
	}
	s.project.Documents = append(s.project.Documents, doc)
	return len(s.project.Documents) - 1, nil
}

// RenameDocument changes a document's display name.
func (s *Store) RenameDocument(index int, name string) error {
	if err := s.checkDocument(index); err != nil {
		return err
	}
	if err := perrors.ValidateDocumentName(name); err != nil {
		return err
	}
	s.project.Documents[index].Name = name
	return nil
}

// SetPageCount records the page count reported by the renderer. The count
// cannot drop below a page that holds points. Remembered pages past the new
// end move to the last page.
func (s *Store) SetPageCount(index, pages int) error {
	if err := s.checkDocument(index); err != nil {
		return err
	}
	if pages < 1 {
		return perrors.New(perrors.ErrCodeInvalidInput, "page count must be positive, got %d", pages)
	}
	for _, p := range s.project.Points {
		if p.DocumentIndex == index && p.Page > pages {
			return perrors.New(perrors.ErrCodeInvalidInput,
				"page count %d is below page %d, which holds point %q", pages, p.Page, p.Title)
		}
	}
	s.project.Documents[index].PageCount = pages
	if page, ok := s.project.PageMap[index]; ok && page > pages {
		s.project.PageMap[index] = pages
	}
	if s.project.Active == index && s.project.Page > pages {
		s.project.Page = pages
	}
	return nil
}

// RemoveDocument deletes document k, drops its points and shifts every
// later document index down by one. The page map and the active document
// follow the same rule. The only remaining document cannot be removed.
func (s *Store) RemoveDocument(k int) error {
	if err := s.checkDocument(k); err != nil {
		return err
	}
	if len(s.project.Documents) == 1 {
		return perrors.New(perrors.ErrCodeLastDocument, "cannot remove the only document of project %q", s.project.Name)
	}

	points := make([]Point, 0, len(s.project.Points))
	for _, p := range s.project.Points {
		switch {
		case p.DocumentIndex == k:
			continue
		case p.DocumentIndex > k:
			p.DocumentIndex--
		}
		points = append(points, p)
	}

	pageMap := make(map[int]int, len(s.project.PageMap))
	for idx, page := range s.project.PageMap {
		switch {
		case idx == k:
			continue
		case idx > k:
			pageMap[idx-1] = page
		default:
			pageMap[idx] = page
		}
	}

	docs := make([]Document, 0, len(s.project.Documents)-1)
	docs = append(docs, s.project.Documents[:k]...)
	docs = append(docs, s.project.Documents[k+1:]...)

	active := s.project.Active
	switch {
	case active == k:
		active = max(0, k-1)
		s.project.Page = pageOr(pageMap, active, 1)
	case active > k:
		active--
	}

	s.project.Documents = docs
	s.project.Points = points
	s.project.PageMap = pageMap
	s.project.Active = active
	return nil
}

// SetView records the active document and page.
func (s *Store) SetView(documentIndex, page int) error {
	if err := s.checkPage(documentIndex, page); err != nil {
		return err
	}
	s.project.Active = documentIndex
	s.project.Page = page
	s.project.PageMap[documentIndex] = page
	return nil
}

// View returns the active document index and page.
func (s *Store) View() (documentIndex, page int) { return s.project.Active, s.project.Page }

// PageFor returns the last viewed page of a document, defaulting to 1.
func (s *Store) PageFor(documentIndex int) int { return pageOr(s.project.PageMap, documentIndex, 1) }

// Place creates a point. It fails with a PROXIMITY error when another point
// on the same page is closer than the proximity threshold in screen space,
// and with INVALID_INPUT when the extent has no area to measure that in.
func (s *Store) Place(pl Placement) (Point, error) {
	if err := s.checkPage(pl.DocumentIndex, pl.Page); err != nil {
		return Point{}, err
	}
	if !pl.Extent.valid() {
		return Point{}, perrors.New(perrors.ErrCodeInvalidInput,
			"page extent %vx%v is empty, nothing is displayed", pl.Extent.Width, pl.Extent.Height)
	}
	if err := perrors.ValidateCoordinate(pl.X, pl.Y); err != nil {
		return Point{}, err
	}
	x, y := Clamp01(pl.X), Clamp01(pl.Y)
	if near, ok := s.nearest(pl.DocumentIndex, pl.Page, x, y, pl.Extent); ok {
		return Point{}, perrors.New(perrors.ErrCodeProximity,
			"point is closer than %.0fpx to %q", s.limits.ProximityPx, near.Title)
	}

	id := s.project.Seq + 1
	now := s.now()
	pt := Point{
		ID:             id,
		DocumentIndex:  pl.DocumentIndex,
		Page:           pl.Page,
		X:              x,
		Y:              y,
		Title:          pl.Fields.Title,
		DateISO:        pl.Fields.DateISO,
		TimeISO:        pl.Fields.TimeISO,
		Note:           pl.Fields.Note,
		AuthorInitials: pl.Fields.AuthorInitials,
		Photo:          pl.Fields.Photo,
	}
	if pt.Title == "" {
		pt.Title = fmt.Sprintf("T%d", id)
	}
	if pt.DateISO == "" {
		pt.DateISO = now.Format("2006-01-02")
	}
	if pt.TimeISO == "" {
		pt.TimeISO = now.Format("15:04:05")
	}

	s.project.Seq = id
	s.project.Points = append(s.project.Points, pt)
	return pt.clone(), nil
}

// Update merges patch into the point with the given id. Coordinates are
// clamped again. Proximity is not re-checked since no zoom is known here.
func (s *Store) Update(id int64, patch Patch) (Point, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Point{}, perrors.New(perrors.ErrCodeNotFound, "point %d not found", id)
	}
	pt := s.project.Points[i]

	if patch.X != nil || patch.Y != nil {
		x, y := pt.X, pt.Y
		if patch.X != nil {
			x = *patch.X
		}
		if patch.Y != nil {
			y = *patch.Y
		}
		if err := perrors.ValidateCoordinate(x, y); err != nil {
			return Point{}, err
		}
		pt.X, pt.Y = x, y
	}
	pt.X, pt.Y = Clamp01(pt.X), Clamp01(pt.Y)

	if patch.Title != nil {
		pt.Title = *patch.Title
	}
	if patch.DateISO != nil {
		pt.DateISO = *patch.DateISO
	}
	if patch.TimeISO != nil {
		pt.TimeISO = *patch.TimeISO
	}
	if patch.Note != nil {
		pt.Note = *patch.Note
	}
	if patch.AuthorInitials != nil {
		pt.AuthorInitials = *patch.AuthorInitials
	}
	switch {
	case patch.ClearPhoto:
		pt.Photo = nil
	case patch.Photo != nil:
		ph := *patch.Photo
		pt.Photo = &ph
	}

	s.project.Points[i] = pt
	return pt.clone(), nil
}

// Remove deletes a point. Ordinals of its page-mates shift on next read.
func (s *Store) Remove(id int64) error {
	i := s.indexOf(id)
	if i < 0 {
		return perrors.New(perrors.ErrCodeNotFound, "point %d not found", id)
	}
	s.project.Points = append(s.project.Points[:i:i], s.project.Points[i+1:]...)
	return nil
}

// TooClose reports whether a point at (x,y) would violate the proximity
// rule on the given page at the given extent. An empty extent is never
// too close since Place rejects it outright.
func (s *Store) TooClose(documentIndex, page int, x, y float64, extent Extent) bool {
	if !extent.valid() {
		return false
	}
	_, ok := s.nearest(documentIndex, page, Clamp01(x), Clamp01(y), extent)
	return ok
}

func (s *Store) nearest(documentIndex, page int, x, y float64, extent Extent) (Point, bool) {
	for _, p := range s.project.Points {
		if p.DocumentIndex != documentIndex || p.Page != page {
			continue
		}
		dx := (p.X - x) * extent.Width
		dy := (p.Y - y) * extent.Height
		if math.Hypot(dx, dy) < s.limits.ProximityPx {
			return p, true
		}
	}
	return Point{}, false
}

func (s *Store) indexOf(id int64) int {
	for i, p := range s.project.Points {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) checkDocument(index int) error {
	if index < 0 || index >= len(s.project.Documents) {
		return perrors.New(perrors.ErrCodeNotFound, "document index %d out of range (have %d)", index, len(s.project.Documents))
	}
	return nil
}

func (s *Store) checkPage(documentIndex, page int) error {
	if err := s.checkDocument(documentIndex); err != nil {
		return err
	}
	if n := s.project.Documents[documentIndex].PageCount; page < 1 || page > n {
		return perrors.New(perrors.ErrCodeOutOfBounds, "page %d out of range 1..%d", page, n)
	}
	return nil
}

// Clamp01 clamps v to [0,1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func pageOr(m map[int]int, k, def int) int {
	if p, ok := m[k]; ok && p > 0 {
		return p
	}
	return def
}
