package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// minimalPDF builds a PDF with the given page boxes and a valid xref table.
func minimalPDF(boxes ...[2]int) []byte {
	var objs []string
	kids := ""
	for i := range boxes {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(boxes)))
	for _, b := range boxes {
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] >>", b[0], b[1]))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func pngDrawing(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Renderer
		code perrors.Code
	}{
		{name: "pdf", data: minimalPDF([2]int{200, 100}), want: PDF{}},
		{name: "png", data: pngDrawing(t, 4, 4), want: Raster{}},
		{name: "text", data: []byte("hello"), code: perrors.ErrCodeUnsupportedDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Detect(tt.data)
			if tt.code != "" {
				if !perrors.Is(err, tt.code) {
					t.Fatalf("Detect() error = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if r != tt.want {
				t.Errorf("Detect() = %T, want %T", r, tt.want)
			}
		})
	}
}

func TestPDF(t *testing.T) {
	data := minimalPDF([2]int{200, 100}, [2]int{100, 300})
	var r PDF

	n, err := r.PageCount(data)
	if err != nil || n != 2 {
		t.Fatalf("PageCount() = %d, %v; want 2", n, err)
	}
	size, err := r.PageSize(data, 2)
	if err != nil || size != (Size{100, 300}) {
		t.Errorf("PageSize(2) = %v, %v", size, err)
	}
	if _, err := r.PageSize(data, 3); !perrors.Is(err, perrors.ErrCodeOutOfBounds) {
		t.Errorf("PageSize(3) error = %v, want OUT_OF_BOUNDS", err)
	}

	img, err := r.RenderPage(context.Background(), data, 1, 400)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("RenderPage size = %dx%d, want 400x200", b.Dx(), b.Dy())
	}
}

func TestPDFMalformed(t *testing.T) {
	if _, err := (PDF{}).PageCount([]byte("%PDF-1.4\ngarbage")); err == nil {
		t.Error("malformed pdf accepted")
	}
}

func TestRaster(t *testing.T) {
	data := pngDrawing(t, 300, 150)
	var r Raster

	if n, err := r.PageCount(data); err != nil || n != 1 {
		t.Errorf("PageCount() = %d, %v", n, err)
	}
	if s, err := r.PageSize(data, 1); err != nil || s != (Size{300, 150}) {
		t.Errorf("PageSize() = %v, %v", s, err)
	}
	img, err := r.RenderPage(context.Background(), data, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("RenderPage size = %dx%d", b.Dx(), b.Dy())
	}
	if _, err := r.RenderPage(context.Background(), data, 2, 100); !perrors.Is(err, perrors.ErrCodeOutOfBounds) {
		t.Errorf("RenderPage(2) error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderPage(ctx, data, 1, 100); err == nil {
		t.Error("RenderPage ignored a cancelled context")
	}
}

func TestOverlay(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for i := range base.Pix {
		base.Pix[i] = 0xff
	}
	points := []annotation.Point{{ID: 1, X: 0.25, Y: 0.5}, {ID: 2, X: 0.75, Y: 0.5}}

	out := Overlay(base, points, map[int64]int{1: 1, 2: 2})

	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("Overlay size = %v", b)
	}
	// Left of the label glyph, inside the marker.
	r, g, _, _ := color.RGBAModel.Convert(out.At(44, 50)).RGBA()
	if r>>8 < 0xc0 || g>>8 > 0x60 {
		t.Errorf("marker pixel = r%d g%d, want red", r>>8, g>>8)
	}
	r, g, _, _ = color.RGBAModel.Convert(out.At(100, 10)).RGBA()
	if r>>8 != 0xff || g>>8 != 0xff {
		t.Error("background changed away from markers")
	}
	if base.Pix[0] != 0xff {
		t.Error("Overlay modified its input")
	}
}
