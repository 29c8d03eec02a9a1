package annotation

import (
	"encoding/json"
	"fmt"
	"math"
)

// Project is one work order: documents plus the points placed on them.
type Project struct {
	Name      string
	Documents []Document
	Points    []Point

	// Seq is the highest point id ever issued in this project.
	Seq int64

	// Active and Page are the last viewed document index and page.
	Active int
	Page   int

	// PageMap remembers the last viewed page per document index.
	PageMap map[int]int
}

// Document is one uploaded multi-page drawing.
type Document struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Data      []byte `json:"-"`
	PageCount int    `json:"pageCount"`
}

// Point is a dated marker at a normalized position on one document page.
type Point struct {
	ID             int64   `json:"id"`
	DocumentIndex  int     `json:"documentIndex"`
	Page           int     `json:"page"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Title          string  `json:"title"`
	DateISO        string  `json:"dateISO"`
	TimeISO        string  `json:"timeISO"`
	Note           string  `json:"note"`
	AuthorInitials string  `json:"authorInitials"`
	Photo          *Photo  `json:"photo,omitempty"`
}

// HasPhoto reports whether a photo is attached.
func (p Point) HasPhoto() bool { return p.Photo != nil && len(p.Photo.Data) > 0 }

// PageKey identifies a single page of a single document.
type PageKey struct {
	DocumentIndex int
	Page          int
}

// Key returns the page the point belongs to.
func (p Point) Key() PageKey { return PageKey{DocumentIndex: p.DocumentIndex, Page: p.Page} }

// String implements fmt.Stringer.
func (k PageKey) String() string { return fmt.Sprintf("doc %d page %d", k.DocumentIndex, k.Page) }

// legacyPoint accepts both the current field names and the ones written by
// older exports (pdfIdx, imageData).
type legacyPoint struct {
	ID             *int64   `json:"id"`
	DocumentIndex  *int     `json:"documentIndex"`
	PdfIdx         *int     `json:"pdfIdx"`
	Page           *int     `json:"page"`
	X              *float64 `json:"x"`
	Y              *float64 `json:"y"`
	Title          string   `json:"title"`
	DateISO        string   `json:"dateISO"`
	TimeISO        string   `json:"timeISO"`
	Note           string   `json:"note"`
	AuthorInitials string   `json:"authorInitials"`
	Photo          *string  `json:"photo"`
	ImageData      *string  `json:"imageData"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Point) UnmarshalJSON(data []byte) error {
	var lp legacyPoint
	if err := json.Unmarshal(data, &lp); err != nil {
		return err
	}

	out := Point{
		Page:           1,
		Title:          lp.Title,
		DateISO:        lp.DateISO,
		TimeISO:        lp.TimeISO,
		Note:           lp.Note,
		AuthorInitials: lp.AuthorInitials,
	}
	if lp.ID != nil {
		out.ID = *lp.ID
	}
	switch {
	case lp.DocumentIndex != nil:
		out.DocumentIndex = *lp.DocumentIndex
	case lp.PdfIdx != nil:
		out.DocumentIndex = *lp.PdfIdx
	}
	if lp.Page != nil {
		out.Page = *lp.Page
	}
	if lp.X != nil {
		out.X = *lp.X
	}
	if lp.Y != nil {
		out.Y = *lp.Y
	}

	payload := lp.Photo
	if payload == nil {
		payload = lp.ImageData
	}
	if payload != nil && *payload != "" {
		ph, err := ParseDataURL(*payload)
		if err != nil {
			return fmt.Errorf("point %d photo: %w", out.ID, err)
		}
		out.Photo = ph
	}

	*p = out
	return nil
}

// Fields are the user-editable attributes supplied when placing a point.
// Empty Title, DateISO and TimeISO are filled with defaults by the store.
type Fields struct {
	Title          string
	DateISO        string
	TimeISO        string
	Note           string
	AuthorInitials string
	Photo          *Photo
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title          *string
	DateISO        *string
	TimeISO        *string
	Note           *string
	AuthorInitials *string
	X              *float64
	Y              *float64
	Photo          *Photo
	ClearPhoto     bool
}

// Extent is the on-screen pixel size of a page at the zoom level active
// during placement. Proximity is measured in this space.
type Extent struct {
	Width  float64
	Height float64
}

func (e Extent) valid() bool {
	return e.Width > 0 && e.Height > 0 && !math.IsInf(e.Width, 0) && !math.IsInf(e.Height, 0)
}

// Placement describes a point about to be created.
type Placement struct {
	DocumentIndex int
	Page          int
	X, Y          float64
	Fields        Fields
	Extent        Extent
}

// Clone returns a deep copy of the project. Document binaries are shared,
// as they are never mutated in place.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Documents = append([]Document(nil), p.Documents...)
	out.Points = make([]Point, len(p.Points))
	for i, pt := range p.Points {
		out.Points[i] = pt.clone()
	}
	out.PageMap = make(map[int]int, len(p.PageMap))
	for k, v := range p.PageMap {
		out.PageMap[k] = v
	}
	return &out
}

func (p Point) clone() Point {
	if p.Photo != nil {
		ph := *p.Photo
		p.Photo = &ph
	}
	return p
}
