package archive

import (
	"encoding/json"
	"time"
)

// FormatVersion is written to every new manifest.
const FormatVersion = 3

// DefaultProjectName replaces a missing or unusable project name on import.
const DefaultProjectName = "RN"

// Manifest describes an archive. Document binaries live under documents/
// and are referenced by File.
type Manifest struct {
	Format         int             `json:"format"`
	ProjectName    string          `json:"projectName"`
	ExportedAt     time.Time       `json:"exportedAt"`
	Documents      []DocumentEntry `json:"documents"`
	Totals         Totals          `json:"totals"`
	Seq            int64           `json:"seq"`
	Active         int             `json:"active"`
	Page           int             `json:"page"`
	PageMap        map[int]int     `json:"pageMap"`
	AuthorInitials string          `json:"authorInitials,omitempty"`
}

// DocumentEntry is one document in the manifest.
type DocumentEntry struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	File      string `json:"file"`
	PageCount int    `json:"pageCount"`
}

// Totals are summary counts for quick inspection.
type Totals struct {
	Points    int `json:"points"`
	Documents int `json:"documents"`
	Photos    int `json:"photos"`
}

// legacyManifest covers the field names of format 1 and 2 archives.
type legacyManifest struct {
	RnName       *string        `json:"rnName"`
	ActivePdfIdx *int           `json:"activePdfIdx"`
	PageNumber   *int           `json:"pageNumber"`
	SeqCounter   *int64         `json:"seqCounter"`
	UserInitials *string        `json:"userInitials"`
	Version      *int           `json:"version"`
	Versions     *legacyVersion `json:"versions"`
	Pdfs         []legacyPDF    `json:"pdfs"`
	Totals       *legacyTotals  `json:"totals"`
}

type legacyVersion struct {
	Format int `json:"format"`
}

type legacyTotals struct {
	Points int `json:"points"`
	Pdfs   int `json:"pdfs"`
}

type legacyPDF struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	File     string `json:"file"`
	NumPages int    `json:"numPages"`
}

// UnmarshalJSON implements json.Unmarshaler and maps legacy field names.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type plain Manifest
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	var lm legacyManifest
	if err := json.Unmarshal(data, &lm); err != nil {
		return err
	}

	if out.ProjectName == "" && lm.RnName != nil {
		out.ProjectName = *lm.RnName
	}
	if out.Format == 0 {
		switch {
		case lm.Versions != nil:
			out.Format = lm.Versions.Format
		case lm.Version != nil:
			out.Format = *lm.Version
		default:
			out.Format = 1
		}
	}
	if lm.ActivePdfIdx != nil {
		out.Active = *lm.ActivePdfIdx
	}
	if lm.PageNumber != nil {
		out.Page = *lm.PageNumber
	}
	if lm.SeqCounter != nil && out.Seq == 0 {
		out.Seq = *lm.SeqCounter
	}
	if out.AuthorInitials == "" && lm.UserInitials != nil {
		out.AuthorInitials = *lm.UserInitials
	}
	if len(out.Documents) == 0 {
		out.Documents = legacyEntries(lm.Pdfs)
	}
	if lm.Totals != nil && out.Totals.Documents == 0 {
		out.Totals.Documents = lm.Totals.Pdfs
	}

	*m = Manifest(out)
	return nil
}

func legacyEntries(pdfs []legacyPDF) []DocumentEntry {
	if len(pdfs) == 0 {
		return nil
	}
	out := make([]DocumentEntry, len(pdfs))
	for i, p := range pdfs {
		out[i] = DocumentEntry{Index: p.Index, Name: p.Name, File: p.File, PageCount: p.NumPages}
	}
	return out
}
