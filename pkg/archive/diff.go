package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/matzehuels/pepedot/pkg/annotation"
)

// diffContext is the number of context lines in unified hunks.
const diffContext = 3

// Diff compares the authoritative content of two archives: manifest.json
// with exportedAt masked, and points.json with photo payloads replaced by
// their digest. It returns a unified diff, or "" when both are equal.
func Diff(a, b []byte) (string, error) {
	am, ap, err := normalized(a)
	if err != nil {
		return "", fmt.Errorf("first archive: %w", err)
	}
	bm, bp, err := normalized(b)
	if err != nil {
		return "", fmt.Errorf("second archive: %w", err)
	}

	var out strings.Builder
	for _, part := range []struct {
		name string
		a, b []byte
	}{
		{manifestEntry, am, bm},
		{pointsEntry, ap, bp},
	} {
		s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(part.a)),
			B:        difflib.SplitLines(string(part.b)),
			FromFile: "a/" + part.name,
			ToFile:   "b/" + part.name,
			Context:  diffContext,
		})
		if err != nil {
			return "", fmt.Errorf("diff %s: %w", part.name, err)
		}
		out.WriteString(s)
	}
	return out.String(), nil
}

// diffPoint replaces the inline photo with a short digest.
type diffPoint struct {
	annotation.Point
	Photo string `json:"photo,omitempty"`
}

func normalized(data []byte) (manifest, points []byte, err error) {
	zf, err := openZip(data)
	if err != nil {
		return nil, nil, invalid(err, "not a zip archive")
	}
	m, err := readManifest(zf)
	if err != nil {
		return nil, nil, err
	}
	m.ExportedAt = time.Time{}
	if manifest, err = marshalJSON(m); err != nil {
		return nil, nil, err
	}

	pts, err := readPoints(zf)
	if err != nil {
		return nil, nil, err
	}
	list := make([]diffPoint, len(pts))
	for i, p := range pts {
		list[i] = diffPoint{Point: p}
		if p.HasPhoto() {
			sum := sha256.Sum256(p.Photo.Data)
			list[i].Photo = fmt.Sprintf("%s sha256:%s (%d bytes)", p.Photo.MIME, hex.EncodeToString(sum[:8]), len(p.Photo.Data))
		}
	}
	if points, err = marshalJSON(list); err != nil {
		return nil, nil, err
	}
	return manifest, points, nil
}
