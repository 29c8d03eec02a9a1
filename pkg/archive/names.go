package archive

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Stamp formats t as an ISO-8601 UTC time with ':' and '.' replaced by
// '-', safe for file names on every platform.
func Stamp(t time.Time) string {
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(s)
}

// ExportName is the default file name of an export.
func ExportName(project string, t time.Time) string {
	return fmt.Sprintf("%s-%s.zip", perrors.SanitizeFilename(project, "project"), Stamp(t))
}

// BackupName is the file name of the safety copy taken before an import.
func BackupName(project string, t time.Time) string {
	return fmt.Sprintf("BACKUP-%s-%s.zip", perrors.SanitizeFilename(project, "project"), Stamp(t))
}

// documentFiles assigns a unique, sanitized file name to every document.
func documentFiles(docs []annotation.Document) []string {
	used := make(map[string]struct{}, len(docs))
	out := make([]string, len(docs))
	for i, d := range docs {
		name := perrors.SanitizeFilename(d.Name, fmt.Sprintf("document-%d", i+1))
		out[i] = ensureUniqueName(name, used)
	}
	return out
}

// photoName builds "<ordinal>_<title>_<document>.<ext>".
func photoName(ordinal int, p annotation.Point, docName string) string {
	title := perrors.SanitizeFilename(p.Title, "foto")
	doc := perrors.SanitizeFilename(docName, fmt.Sprintf("document-%d", p.DocumentIndex+1))
	return fmt.Sprintf("%d_%s_%s.%s", ordinal, title, doc, p.Photo.Ext())
}

// pageName builds "<document base>-p<page>.png".
func pageName(docFile string, page int) string {
	base := strings.TrimSuffix(docFile, path.Ext(docFile))
	return fmt.Sprintf("%s-p%d.png", base, page)
}
