package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pepedot/pkg/annotation"
	"github.com/matzehuels/pepedot/pkg/cache"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
	"github.com/matzehuels/pepedot/pkg/observability"
	"github.com/matzehuels/pepedot/pkg/render"
	"github.com/matzehuels/pepedot/pkg/viewport"
)

var fixedNow = time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)

// fakeRenderer reports a fixed page count and size for any non-empty data.
type fakeRenderer struct {
	pages int
	size  render.Size
}

func (f fakeRenderer) PageCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, errors.New("empty document")
	}
	return f.pages, nil
}

func (f fakeRenderer) PageSize([]byte, int) (render.Size, error) { return f.size, nil }

func (f fakeRenderer) RenderPage(_ context.Context, _ []byte, _, width int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, width, width)), nil
}

type env struct {
	cache *cache.MemoryCache
	blobs *cache.BlobStore
	sink  *MemorySink
}

func newEnv(t *testing.T) *env {
	t.Helper()
	blobs, err := cache.NewBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &env{cache: cache.NewMemoryCache(), blobs: blobs, sink: NewMemorySink()}
}

func (e *env) options() Options {
	return Options{
		Cache:    e.cache,
		Blobs:    e.blobs,
		Backups:  e.sink,
		Renderer: fakeRenderer{pages: 2, size: render.Size{W: 800, H: 600}},
		Logger:   log.New(&bytes.Buffer{}),
		Frame:    viewport.Rect{W: 800, H: 600},
		Clock:    func() time.Time { return fixedNow },
	}
}

func (e *env) open(t *testing.T) *Session {
	t.Helper()
	s, err := New(context.Background(), e.options())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// withDocument returns a session with project RN1 and one two-page document.
func withDocument(t *testing.T, e *env) *Session {
	t.Helper()
	ctx := context.Background()
	s := e.open(t)
	if err := s.CreateProject(ctx, "RN1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddDocument(ctx, "plan", []byte("drawing")); err != nil {
		t.Fatal(err)
	}
	return s
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	opts := e.options()
	opts.Limits.MaxProjects = 2
	s, err := New(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.CreateProject(ctx, "RN1"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		code perrors.Code
	}{
		{"RN1", perrors.ErrCodeDuplicateName},
		{"  ", perrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		if err := s.CreateProject(ctx, tt.name); !perrors.Is(err, tt.code) {
			t.Errorf("CreateProject(%q) error = %v, want %s", tt.name, err, tt.code)
		}
	}
	if err := s.CreateProject(ctx, "RN2"); err != nil {
		t.Fatal(err)
	}
	err = s.CreateProject(ctx, "RN3")
	if !perrors.Is(err, perrors.ErrCodeProjectLimit) || !perrors.IsCapacity(err) {
		t.Errorf("CreateProject over limit error = %v", err)
	}
	if got := s.Store().Name(); got != "RN2" {
		t.Errorf("open project = %q, want RN2", got)
	}

	if err := s.RenameProject(ctx, "RN1"); !perrors.Is(err, perrors.ErrCodeDuplicateName) {
		t.Errorf("RenameProject to existing error = %v", err)
	}
	if err := s.RenameProject(ctx, "RN2b"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := e.cache.Get(ctx, "pepedot2_rn_RN2"); ok {
		t.Error("old snapshot key still present after rename")
	}
	if _, ok, _ := e.cache.Get(ctx, "pepedot2_rn_RN2b"); !ok {
		t.Error("snapshot not migrated to the new key")
	}
	if got := s.Projects(); len(got) != 2 || got[1] != "RN2b" {
		t.Errorf("Projects() = %v", got)
	}

	for _, c := range []Confirm{{Typed: "RN2b"}, {Typed: "rn2b", Accepted: true}} {
		if err := s.DeleteProject(ctx, "RN2b", c); !perrors.Is(err, perrors.ErrCodeConfirmation) {
			t.Errorf("DeleteProject(%+v) error = %v, want CONFIRMATION", c, err)
		}
	}
	if err := s.DeleteProject(ctx, "RN2b", Confirm{Typed: "RN2b", Accepted: true}); err != nil {
		t.Fatal(err)
	}
	if s.Store() != nil || s.HasProject("RN2b") {
		t.Error("deleted project still open or registered")
	}
	if err := s.DeleteProject(ctx, "RN2b", Confirm{Typed: "RN2b", Accepted: true}); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("second delete error = %v", err)
	}
}

func TestPlacementScenario(t *testing.T) {
	ctx := context.Background()
	s := withDocument(t, newEnv(t))

	if pt, err := s.Tap(ctx, viewport.Vec{X: 240, Y: 240}, annotation.Fields{}); pt != nil || err != nil {
		t.Fatalf("tap in pan mode = %v, %v; want nothing", pt, err)
	}
	if s.ToggleMode() != viewport.ModePlace {
		t.Fatal("mode not toggled")
	}

	a, err := s.Tap(ctx, viewport.Vec{X: 240, Y: 240}, annotation.Fields{Title: "T1"})
	if err != nil {
		t.Fatal(err)
	}
	if a.X != 0.3 || a.Y != 0.4 || a.Page != 1 {
		t.Errorf("A = (%v,%v) page %d", a.X, a.Y, a.Page)
	}
	if _, err := s.Tap(ctx, viewport.Vec{X: 246, Y: 246}, annotation.Fields{}); !perrors.Is(err, perrors.ErrCodeProximity) {
		t.Fatalf("close tap error = %v, want PROXIMITY", err)
	}
	b, err := s.PlaceAt(ctx, viewport.Vec{X: 0.6, Y: 0.6}, annotation.Fields{})
	if err != nil {
		t.Fatal(err)
	}
	if oa, _ := s.Store().Ordinal(a.ID); oa != 1 {
		t.Errorf("ordinal(A) = %d", oa)
	}
	if ob, _ := s.Store().Ordinal(b.ID); ob != 2 {
		t.Errorf("ordinal(B) = %d", ob)
	}
	if len(s.Store().Points()) != 2 {
		t.Errorf("points = %d, want 2", len(s.Store().Points()))
	}

	// Zoomed in, the same normalized gap is wide enough.
	s.Viewport().ZoomAt(viewport.Vec{}, 4)
	if _, err := s.PlaceAt(ctx, viewport.Vec{X: 0.31, Y: 0.41}, annotation.Fields{}); err != nil {
		t.Errorf("placement at zoom 4 rejected: %v", err)
	}
}

func TestCrowded(t *testing.T) {
	ctx := context.Background()
	s := withDocument(t, newEnv(t))
	if _, err := s.PlaceAt(ctx, viewport.Vec{X: 0.3, Y: 0.4}, annotation.Fields{}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		zoom float64
		at   viewport.Vec
		want bool
	}{
		{"on the point", 1, viewport.Vec{X: 0.3, Y: 0.4}, true},
		{"8px away", 1, viewport.Vec{X: 0.31, Y: 0.4}, true},
		{"far", 1, viewport.Vec{X: 0.75, Y: 0.8}, false},
		{"32px away zoomed in", 4, viewport.Vec{X: 0.31, Y: 0.4}, false},
		{"on the point zoomed in", 4, viewport.Vec{X: 0.3, Y: 0.4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := s.Viewport()
			vp.Fit(s.PageSize())
			vp.ZoomAt(viewport.Vec{X: 400, Y: 300}, tt.zoom)
			pos := vp.NormalizedToScreen(tt.at)
			if got := s.Crowded(pos); got != tt.want {
				t.Errorf("Crowded(%v) = %v, want %v", pos, got, tt.want)
			}
		})
	}
	s.Viewport().Fit(s.PageSize())
	if s.Crowded(viewport.Vec{X: -50, Y: 240}) {
		t.Error("position off the page is crowded")
	}
	if (&Session{}).Crowded(viewport.Vec{}) {
		t.Error("no project open but crowded")
	}
}

func TestOpenRecountsPages(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	s := withDocument(t, e)
	if err := s.ShowPage(ctx, 0, 2); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		pages     int
		wantPages int
		wantPage  int
	}{
		{"grown", 5, 5, 2},
		{"shrunk", 1, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := e.options()
			opts.Renderer = fakeRenderer{pages: tt.pages, size: render.Size{W: 800, H: 600}}
			again, err := New(ctx, opts)
			if err != nil {
				t.Fatal(err)
			}
			if err := again.Open(ctx, "RN1"); err != nil {
				t.Fatal(err)
			}
			if d, _ := again.Store().Document(0); d.PageCount != tt.wantPages {
				t.Errorf("PageCount = %d, want %d", d.PageCount, tt.wantPages)
			}
			if _, page := again.Store().View(); page != tt.wantPage {
				t.Errorf("page = %d, want %d", page, tt.wantPage)
			}
		})
	}
}

func TestInitialsDefault(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	s := withDocument(t, e)
	if err := s.SetInitials(ctx, "MH"); err != nil {
		t.Fatal(err)
	}
	pt, err := s.PlaceAt(ctx, viewport.Vec{X: 0.5, Y: 0.5}, annotation.Fields{})
	if err != nil {
		t.Fatal(err)
	}
	if pt.AuthorInitials != "MH" || pt.Title != "T1" || pt.DateISO != "2024-03-05" {
		t.Errorf("point = %+v", pt)
	}
	if got := e.open(t).Initials(); got != "MH" {
		t.Errorf("initials after restart = %q", got)
	}
}

func TestAutosaveAndReopen(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	s := withDocument(t, e)
	if _, err := s.PlaceAt(ctx, viewport.Vec{X: 0.2, Y: 0.2}, annotation.Fields{Title: "Crack"}); err != nil {
		t.Fatal(err)
	}
	if err := s.ShowPage(ctx, 0, 2); err != nil {
		t.Fatal(err)
	}

	again := e.open(t)
	if got := again.Projects(); len(got) != 1 || got[0] != "RN1" {
		t.Fatalf("Projects() = %v", got)
	}
	if err := again.Open(ctx, "RN1"); err != nil {
		t.Fatal(err)
	}
	st := again.Store()
	if pts := st.Points(); len(pts) != 1 || pts[0].Title != "Crack" {
		t.Errorf("points = %+v", pts)
	}
	if doc, page := st.View(); doc != 0 || page != 2 {
		t.Errorf("view = %d/%d, want 0/2", doc, page)
	}
	d, _ := st.Document(0)
	if string(d.Data) != "drawing" {
		t.Errorf("document binary = %q, want restored from blobs", d.Data)
	}

	raw, _, _ := e.cache.Get(ctx, "pepedot2_rn_RN1")
	if bytes.Contains(raw, []byte("drawing")) {
		t.Error("snapshot contains the document binary")
	}

	if err := again.Open(ctx, "nope"); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("Open(missing) error = %v", err)
	}
}

func TestAutosaveQuotaWarning(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	opts := e.options()
	opts.Cache = cache.NewQuotaCache(e.cache, 400)
	s, err := New(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProject(ctx, "RN1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddDocument(ctx, "plan", []byte("drawing")); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		x := 0.1 + 0.3*float64(i)
		if _, err := s.PlaceAt(ctx, viewport.Vec{X: x, Y: 0.5}, annotation.Fields{Note: "quota"}); err != nil {
			t.Fatalf("place %d failed: %v", i, err)
		}
	}
	if w := s.Warning(); !perrors.Is(w, perrors.ErrCodeQuotaExceeded) {
		t.Fatalf("Warning() = %v, want QUOTA_EXCEEDED", w)
	}
	if n := len(s.Store().Points()); n != 3 {
		t.Errorf("in-memory points = %d, want 3", n)
	}
	s.ClearWarning()
	if s.Warning() != nil {
		t.Error("warning not cleared")
	}
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	s := withDocument(t, e)

	if _, err := s.AddDocument(ctx, "empty", nil); !perrors.Is(err, perrors.ErrCodeUnsupportedDocument) {
		t.Errorf("AddDocument(empty) error = %v", err)
	}
	if _, err := s.AddDocument(ctx, "", []byte("x")); !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("AddDocument(no name) error = %v", err)
	}
	if err := s.RemoveDocument(ctx, 0, Confirm{Typed: "plan", Accepted: true}); !perrors.Is(err, perrors.ErrCodeLastDocument) {
		t.Errorf("removing the only document error = %v", err)
	}

	idx, err := s.AddDocument(ctx, "section", []byte("drawing 2"))
	if err != nil || idx != 1 {
		t.Fatalf("AddDocument() = %d, %v", idx, err)
	}
	if err := s.RenameDocument(ctx, 1, "section A"); err != nil {
		t.Fatal(err)
	}
	if err := s.ShowPage(ctx, 1, 3); !perrors.Is(err, perrors.ErrCodeOutOfBounds) {
		t.Errorf("ShowPage(page 3) error = %v", err)
	}
	if err := s.ShowPage(ctx, 1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.PlaceAt(ctx, viewport.Vec{X: 0.5, Y: 0.5}, annotation.Fields{}); err != nil {
		t.Fatal(err)
	}
	if err := s.PrevPage(ctx); err != nil {
		t.Fatal(err)
	}
	if _, page := s.Store().View(); page != 1 {
		t.Errorf("page after PrevPage = %d", page)
	}

	if err := s.RemoveDocument(ctx, 0, Confirm{Typed: "Plan", Accepted: true}); !perrors.Is(err, perrors.ErrCodeConfirmation) {
		t.Errorf("mismatched confirmation error = %v", err)
	}
	if err := s.RemoveDocument(ctx, 0, Confirm{Typed: "plan", Accepted: true}); err != nil {
		t.Fatal(err)
	}
	pts := s.Store().Points()
	if len(pts) != 1 || pts[0].DocumentIndex != 0 {
		t.Errorf("points after removing document 0 = %+v", pts)
	}
	if doc, _ := s.Store().View(); doc != 0 {
		t.Errorf("active document = %d", doc)
	}
}

func TestPointEditing(t *testing.T) {
	ctx := context.Background()
	s := withDocument(t, newEnv(t))
	pt, err := s.PlaceAt(ctx, viewport.Vec{X: 0.5, Y: 0.5}, annotation.Fields{})
	if err != nil {
		t.Fatal(err)
	}

	note := "water damage"
	x := 1.7
	up, err := s.UpdatePoint(ctx, pt.ID, annotation.Patch{Note: &note, X: &x})
	if err != nil {
		t.Fatal(err)
	}
	if up.Note != note || up.X != 1 {
		t.Errorf("updated = %+v", up)
	}

	label, err := s.PointLabel(pt.ID)
	if err != nil || label != "T1" {
		t.Fatalf("PointLabel() = %q, %v", label, err)
	}
	if err := s.RemovePoint(ctx, pt.ID, Confirm{Typed: "T1"}); !perrors.Is(err, perrors.ErrCodeConfirmation) {
		t.Errorf("unaccepted remove error = %v", err)
	}
	if err := s.RemovePoint(ctx, pt.ID, Confirm{Typed: "T1", Accepted: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.RemovePoint(ctx, pt.ID, Confirm{Typed: "T1", Accepted: true}); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("second remove error = %v", err)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("camera unplugged") }

func TestPhotos(t *testing.T) {
	ctx := context.Background()
	s := withDocument(t, newEnv(t))
	pt, err := s.PlaceAt(ctx, viewport.Vec{X: 0.5, Y: 0.5}, annotation.Fields{Title: "Leak"})
	if err != nil {
		t.Fatal(err)
	}

	err = s.AttachPhoto(ctx, pt.ID, brokenReader{})
	if !perrors.Is(err, perrors.ErrCodePhotoRead) || !perrors.IsIO(err) {
		t.Fatalf("AttachPhoto(broken) error = %v", err)
	}
	if got, _ := s.Store().Point(pt.ID); got.HasPhoto() || got.Title != "Leak" {
		t.Errorf("point changed by failed attach: %+v", got)
	}

	if err := s.AttachPhoto(ctx, pt.ID, bytes.NewReader(pngBytes(t))); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Store().Point(pt.ID)
	if !got.HasPhoto() || got.Photo.MIME != "image/jpeg" {
		t.Errorf("photo = %+v", got.Photo)
	}
	if err := s.RemovePhoto(ctx, pt.ID); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Store().Point(pt.ID); got.HasPhoto() {
		t.Error("photo not removed")
	}
	if err := s.AttachPhoto(ctx, 99, bytes.NewReader(pngBytes(t))); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("AttachPhoto(missing point) error = %v", err)
	}

	if err := s.StagePhoto(bytes.NewReader(pngBytes(t))); err != nil {
		t.Fatal(err)
	}
	staged, err := s.PlaceAt(ctx, viewport.Vec{X: 0.1, Y: 0.1}, annotation.Fields{})
	if err != nil {
		t.Fatal(err)
	}
	if !staged.HasPhoto() || s.StagedPhoto() != nil {
		t.Error("staged photo not consumed by the next placement")
	}
}

type recordingHooks struct {
	observability.NoopSessionHooks
	rejected []string
	saves    int
}

func (r *recordingHooks) OnRejected(_ context.Context, _ string, op, code string) {
	r.rejected = append(r.rejected, op+":"+code)
}

func (r *recordingHooks) OnAutosave(context.Context, string, int, error) { r.saves++ }

func TestSessionHooks(t *testing.T) {
	rec := &recordingHooks{}
	observability.SetSessionHooks(rec)
	t.Cleanup(observability.Reset)

	ctx := context.Background()
	s := withDocument(t, newEnv(t))
	if _, err := s.PlaceAt(ctx, viewport.Vec{X: 0.5, Y: 0.5}, annotation.Fields{}); err != nil {
		t.Fatal(err)
	}
	_, _ = s.PlaceAt(ctx, viewport.Vec{X: 0.5, Y: 0.5}, annotation.Fields{})

	if len(rec.rejected) != 1 || rec.rejected[0] != "place:PROXIMITY" {
		t.Errorf("rejected = %v", rec.rejected)
	}
	if rec.saves != 3 {
		t.Errorf("autosaves = %d, want 3 (create, add document, place)", rec.saves)
	}
}

func TestNoProjectOpen(t *testing.T) {
	s := newEnv(t).open(t)
	if _, err := s.PlaceAt(context.Background(), viewport.Vec{X: 0.5, Y: 0.5}, annotation.Fields{}); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("PlaceAt without project error = %v", err)
	}
	if err := s.Export(context.Background(), &bytes.Buffer{}); !perrors.Is(err, perrors.ErrCodeNotFound) {
		t.Errorf("Export without project error = %v", err)
	}
}
