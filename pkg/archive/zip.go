package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Entry names.
const (
	manifestEntry    = "manifest.json"
	pointsEntry      = "points.json"
	spreadsheetEntry = "points.xlsx"
	documentsDir     = "documents/"
	photosDir        = "photos/"
	pagesDir         = "pages/"

	legacyDocumentsDir = "pdfs/"
	legacyPDFManifest  = "pdfs/manifest.json"
)

// maxEntrySize bounds a single decompressed entry.
const maxEntrySize = 512 << 20

// fixedZipTime makes archives reproducible (1980-01-01 UTC).
var fixedZipTime = time.Unix(315532800, 0).UTC()

// sanitizePath normalizes zip entry paths (forward slashes, no drive, no
// leading '/') and drops '.' and '..' segments without escaping the root.
func sanitizePath(p string) string {
	s := strings.ReplaceAll(p, `\`, "/")
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "/")
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
			continue
		}
		stack = append(stack, part)
	}
	s = strings.Join(stack, "/")
	if s == "" {
		return "entry"
	}
	return s
}

// ensureUniqueName returns name, or name with -1, -2, ... inserted before
// the extension when it is already taken. The result is marked as used.
func ensureUniqueName(name string, used map[string]struct{}) string {
	key := strings.ToLower(name)
	if _, ok := used[key]; !ok {
		used[key] = struct{}{}
		return name
	}
	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i:]
	}
	for n := 1; ; n++ {
		alt := fmt.Sprintf("%s-%d%s", base, n, ext)
		if _, ok := used[strings.ToLower(alt)]; !ok {
			used[strings.ToLower(alt)] = struct{}{}
			return alt
		}
	}
}

// marshalJSON encodes v the way every JSON entry is stored: two-space
// indent and a trailing newline.
func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeEntry writes data as a deflated entry with a fixed timestamp.
func writeEntry(zw *zip.Writer, name string, data []byte) error {
	h := &zip.FileHeader{Name: sanitizePath(name), Method: zip.Deflate}
	h.SetMode(0o644)
	h.Modified = fixedZipTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// entries indexes the files of a zip by name.
type entries map[string]*zip.File

func openZip(data []byte) (entries, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	out := make(entries, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out[sanitizePath(f.Name)] = f
	}
	return out, nil
}

// read returns the contents of name; ok is false if it does not exist.
func (e entries) read(name string) (data []byte, ok bool, err error) {
	f, ok := e[name]
	if !ok {
		return nil, false, nil
	}
	if f.UncompressedSize64 > maxEntrySize {
		return nil, true, fmt.Errorf("%s: entry too large (%d bytes)", name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, true, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()
	data, err = io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, true, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxEntrySize {
		return nil, true, fmt.Errorf("%s: entry too large", name)
	}
	return data, true, nil
}
