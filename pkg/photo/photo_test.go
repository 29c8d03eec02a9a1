package photo

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestIngestRecompresses(t *testing.T) {
	ph, err := Ingest(bytes.NewReader(pngBytes(t, 400, 200)), Options{MaxEdge: 100, Quality: 70})
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if ph.MIME != "image/jpeg" || ph.Ext() != "jpg" {
		t.Errorf("MIME = %q", ph.MIME)
	}
	img, err := imaging.Decode(bytes.NewReader(ph.Data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("size = %dx%d, want 100x50", b.Dx(), b.Dy())
	}
}

func TestIngestKeepsSmallImages(t *testing.T) {
	ph, err := FromBytes(pngBytes(t, 40, 30), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	img, err := imaging.Decode(bytes.NewReader(ph.Data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Errorf("size = %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestIngestUndecodableKeepsBytes(t *testing.T) {
	raw := []byte("RIFF\x00\x00\x00\x00WEBPVP8 not really")
	ph, err := FromBytes(raw, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ph.Data, raw) {
		t.Error("undecodable payload was modified")
	}
	if ph.MIME != "image/webp" {
		t.Errorf("MIME = %q, want image/webp", ph.MIME)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("camera disconnected") }

func TestIngestReadFailure(t *testing.T) {
	_, err := Ingest(failingReader{}, DefaultOptions())
	if !perrors.Is(err, perrors.ErrCodePhotoRead) || !perrors.IsIO(err) {
		t.Errorf("error = %v, want PHOTO_READ", err)
	}

	if _, err := Load("/nonexistent/photo.jpg", DefaultOptions()); !perrors.Is(err, perrors.ErrCodePhotoRead) {
		t.Errorf("Load() error = %v, want PHOTO_READ", err)
	}
	if _, err := FromBytes(nil, DefaultOptions()); !perrors.Is(err, perrors.ErrCodePhotoRead) {
		t.Errorf("FromBytes(nil) error = %v, want PHOTO_READ", err)
	}
}

func TestSniff(t *testing.T) {
	if got := Sniff(pngBytes(t, 2, 2)); got != "image/png" {
		t.Errorf("Sniff(png) = %q", got)
	}
	if got := Sniff([]byte("plain text")); got != "image/jpeg" {
		t.Errorf("Sniff(text) = %q", got)
	}
}
