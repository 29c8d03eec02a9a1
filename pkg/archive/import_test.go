package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// makeZip builds an archive from literal entries, in the given order.
func makeZip(t *testing.T, files ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i := 0; i+1 < len(files); i += 2 {
		w, err := zw.Create(files[i])
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(files[i+1])); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const validManifest = `{"format":3,"projectName":"RN1","documents":[{"index":0,"name":"a.pdf","file":"a.pdf","pageCount":2}]}`

func TestDeserializeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("PK? nope")},
		{"missing manifest", makeZip(t, "points.json", "[]")},
		{"malformed manifest", makeZip(t, "manifest.json", "{", "points.json", "[]")},
		{"missing points", makeZip(t, "manifest.json", validManifest)},
		{"malformed points", makeZip(t, "manifest.json", validManifest, "points.json", `{"id":1}`)},
		{"unknown document", makeZip(t, "manifest.json", validManifest,
			"points.json", `[{"id":1,"documentIndex":3,"page":1,"x":0.5,"y":0.5}]`)},
		{"duplicate ids", makeZip(t, "manifest.json", validManifest,
			"points.json", `[{"id":1,"documentIndex":0,"page":1,"x":0.5,"y":0.5},{"id":1,"documentIndex":0,"page":2,"x":0.1,"y":0.1}]`)},
		{"negative id", makeZip(t, "manifest.json", validManifest,
			"points.json", `[{"id":-4,"documentIndex":0,"page":1,"x":0.5,"y":0.5}]`)},
		{"bad photo", makeZip(t, "manifest.json", validManifest,
			"points.json", `[{"id":1,"documentIndex":0,"page":1,"x":0.5,"y":0.5,"photo":"data:image/png;base64,***"}]`)},
		{"duplicate document index", makeZip(t,
			"manifest.json", `{"format":3,"projectName":"RN1","documents":[{"index":0,"name":"a"},{"index":0,"name":"b"}]}`,
			"points.json", "[]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m, err := Deserialize(tt.data)
			if !perrors.Is(err, perrors.ErrCodeInvalidArchive) {
				t.Fatalf("Deserialize() error = %v, want INVALID_ARCHIVE", err)
			}
			if !perrors.IsFormat(err) {
				t.Errorf("category = %s, want format", perrors.CategoryOf(err))
			}
			if p != nil || m != nil {
				t.Error("partial result returned on error")
			}
		})
	}
}

func TestDeserializeNormalizes(t *testing.T) {
	data := makeZip(t,
		"manifest.json", `{"format":3,"projectName":"RN1","seq":2,"active":7,"page":9,
			"documents":[{"index":0,"id":"x","name":"a.pdf","file":"a.pdf","pageCount":2}]}`,
		"points.json", `[{"id":5,"documentIndex":0,"page":4,"x":1.5,"y":-0.25},{"id":3,"documentIndex":0,"page":0,"x":0.5,"y":0.5}]`,
	)
	p, _, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if p.Seq != 5 {
		t.Errorf("Seq = %d, want max id 5", p.Seq)
	}
	if pt := p.Points[0]; pt.X != 1 || pt.Y != 0 {
		t.Errorf("point not clamped: (%v, %v)", pt.X, pt.Y)
	}
	if p.Points[1].Page != 1 {
		t.Errorf("page 0 not raised to 1")
	}
	if p.Documents[0].PageCount != 4 {
		t.Errorf("PageCount = %d, want raised to 4", p.Documents[0].PageCount)
	}
	if p.Documents[0].Data != nil {
		t.Error("missing binary should yield empty data")
	}
	if p.Active != 0 || p.Page != 4 {
		t.Errorf("view = %d/%d, want 0/4", p.Active, p.Page)
	}
}

func TestDeserializeLegacy(t *testing.T) {
	manifest := `{
  "rnName": "RN 7",
  "exportedAt": "2023-11-02T08:15:00.000Z",
  "activePdfIdx": 1,
  "pageNumber": 2,
  "pageMap": {"0": 1, "1": 2},
  "seqCounter": 12,
  "pdfCount": 2,
  "versions": {"format": 2},
  "pdfs": [{"index": 0, "name": "tlocrt.pdf", "numPages": 1}, {"index": 1, "name": "presjek.pdf", "numPages": 3}],
  "totals": {"points": 2, "pdfs": 2},
  "userInitials": "IK"
}`
	pdfs := `[{"index":0,"name":"tlocrt.pdf","file":"tlocrt.pdf","numPages":1},{"index":1,"name":"presjek.pdf","file":"presjek.pdf","numPages":3}]`
	points := `[
  {"id": 3, "pdfIdx": 0, "page": 1, "x": 0.2, "y": 0.3, "title": "T3", "dateISO": "2023-11-01", "timeISO": "10:00"},
  {"id": 9, "pdfIdx": 1, "page": 2, "x": 0.4, "y": 0.6, "title": "Pukotina", "imageData": "data:image/jpeg;base64,AQID"}
]`
	data := makeZip(t,
		"manifest.json", manifest,
		"points.json", points,
		"pdfs/manifest.json", pdfs,
		"pdfs/tlocrt.pdf", "%PDF-A",
		"pdfs/presjek.pdf", "%PDF-B",
	)

	p, m, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.Format != 2 || m.AuthorInitials != "IK" || m.Totals.Documents != 2 {
		t.Errorf("manifest = %+v", m)
	}
	if p.Name != "RN 7" || p.Seq != 12 || p.Active != 1 || p.Page != 2 {
		t.Errorf("project = %q seq %d view %d/%d", p.Name, p.Seq, p.Active, p.Page)
	}
	if len(p.Documents) != 2 || string(p.Documents[1].Data) != "%PDF-B" || p.Documents[1].PageCount != 3 {
		t.Fatalf("documents = %+v", p.Documents)
	}
	if p.Documents[0].ID == "" || p.Documents[0].ID == p.Documents[1].ID {
		t.Error("legacy documents need fresh ids")
	}
	pt := p.Points[1]
	if pt.DocumentIndex != 1 || !pt.HasPhoto() || pt.Photo.MIME != "image/jpeg" || len(pt.Photo.Data) != 3 {
		t.Errorf("legacy point = %+v", pt)
	}
}

func TestDeserializeLegacyDefaults(t *testing.T) {
	pdfs := `[{"index":0,"name":"tlocrt.pdf","file":"tlocrt.pdf","numPages":1}]`
	tests := []struct {
		name     string
		manifest string
		points   string
		wantName string
		wantIDs  []int64
		wantSeq  int64
	}{
		{
			name:     "missing name and ids",
			manifest: `{"seqCounter":4}`,
			points:   `[{"pdfIdx":0,"page":1,"x":0.5,"y":0.5,"title":"T1"},{"pdfIdx":0,"page":1,"x":0.1,"y":0.1,"title":"T2"}]`,
			wantName: DefaultProjectName,
			wantIDs:  []int64{5, 6},
			wantSeq:  6,
		},
		{
			name:     "missing id above existing ids",
			manifest: `{"rnName":"RN 8","seqCounter":2}`,
			points:   `[{"pdfIdx":0,"page":1,"x":0.5,"y":0.5,"title":"T1"},{"id":9,"pdfIdx":0,"page":1,"x":0.1,"y":0.1,"title":"T9"}]`,
			wantName: "RN 8",
			wantIDs:  []int64{10, 9},
			wantSeq:  10,
		},
		{
			name:     "whitespace name",
			manifest: `{"rnName":"   "}`,
			points:   `[{"id":1,"pdfIdx":0,"page":1,"x":0.5,"y":0.5}]`,
			wantName: DefaultProjectName,
			wantIDs:  []int64{1},
			wantSeq:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := makeZip(t,
				"manifest.json", tt.manifest,
				"points.json", tt.points,
				"pdfs/manifest.json", pdfs,
				"pdfs/tlocrt.pdf", "%PDF-A",
			)
			p, _, err := Deserialize(data)
			if err != nil {
				t.Fatal(err)
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
			if len(p.Points) != len(tt.wantIDs) {
				t.Fatalf("got %d points, want %d", len(p.Points), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if p.Points[i].ID != want {
					t.Errorf("point %d id = %d, want %d", i, p.Points[i].ID, want)
				}
			}
			if p.Seq != tt.wantSeq {
				t.Errorf("Seq = %d, want %d", p.Seq, tt.wantSeq)
			}
		})
	}
}

func TestDeserializeLegacyBinaryByName(t *testing.T) {
	// Format 1 archives list documents only in the manifest, stored by sanitized name.
	data := makeZip(t,
		"manifest.json", `{"rnName":"RN","pdfs":[{"index":0,"name":"a:b.pdf","numPages":1}]}`,
		"points.json", `[]`,
		"pdfs/a_b.pdf", "%PDF-X",
	)
	p, m, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}
	if m.Format != 1 {
		t.Errorf("Format = %d, want 1", m.Format)
	}
	if string(p.Documents[0].Data) != "%PDF-X" {
		t.Errorf("binary = %q", p.Documents[0].Data)
	}
}

func TestInspect(t *testing.T) {
	data, err := Serialize(context.Background(), sampleProject(t), WithClock(func() time.Time { return t1 }))
	if err != nil {
		t.Fatal(err)
	}
	s, err := Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if s.Manifest.ProjectName != "RN-2024/17" || len(s.Entries) != 9 {
		t.Errorf("summary = %q, %d entries", s.Manifest.ProjectName, len(s.Entries))
	}
	if s.Entries[0].Name != "documents/ground floor.png" {
		t.Errorf("entries not sorted: %s first", s.Entries[0].Name)
	}
	if !s.Has("points.xlsx") || s.Has("pages/x.png") {
		t.Error("Has() wrong")
	}
	if s.TotalSize() <= 0 {
		t.Error("TotalSize() = 0")
	}

	if _, err := Inspect([]byte("nope")); !perrors.Is(err, perrors.ErrCodeInvalidArchive) {
		t.Errorf("Inspect(garbage) error = %v", err)
	}
}

func TestDiff(t *testing.T) {
	ctx := context.Background()
	p := sampleProject(t)
	a, err := Serialize(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	p.Points[0].Title = "Leak"
	p.Points[1].Photo = &annotation.Photo{MIME: "image/png", Data: []byte{7, 7}}
	b, err := Serialize(ctx, p)
	if err != nil {
		t.Fatal(err)
	}

	d, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--- a/points.json", `-    "title": "Crack",`, `+    "title": "Leak",`, "(2 bytes)"} {
		if !strings.Contains(d, want) {
			t.Errorf("diff missing %q:\n%s", want, d)
		}
	}
	if strings.Contains(d, "manifest.json") {
		t.Errorf("manifest unchanged but diffed:\n%s", d)
	}
}

func TestNames(t *testing.T) {
	if got := Stamp(t1); got != "2024-03-05T14-07-09-120Z" {
		t.Errorf("Stamp() = %q", got)
	}
	if got := ExportName("RN 1/2", t1); got != "RN 1_2-2024-03-05T14-07-09-120Z.zip" {
		t.Errorf("ExportName() = %q", got)
	}
	if got := BackupName("", t1); got != "BACKUP-project-2024-03-05T14-07-09-120Z.zip" {
		t.Errorf("BackupName() = %q", got)
	}

	used := map[string]struct{}{}
	got := []string{
		ensureUniqueName("a.pdf", used),
		ensureUniqueName("A.pdf", used),
		ensureUniqueName("a.pdf", used),
		ensureUniqueName("noext", used),
		ensureUniqueName("noext", used),
	}
	want := []string{"a.pdf", "A-1.pdf", "a-2.pdf", "noext", "noext-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ensureUniqueName #%d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSanitizePath(t *testing.T) {
	tests := map[string]string{
		"a/b.txt":           "a/b.txt",
		"/abs/x":            "abs/x",
		`C:\win\x`:          "win/x",
		"../../etc/passwd":  "etc/passwd",
		"a/./b/../c":        "a/c",
		"":                  "entry",
		"documents/../../x": "x",
	}
	for in, want := range tests {
		if got := sanitizePath(in); got != want {
			t.Errorf("sanitizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
