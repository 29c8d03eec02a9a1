// Package photo prepares camera images for attachment to points.
//
// Decodable images are rotated according to their EXIF orientation, shrunk
// to fit MaxEdge and re-encoded as JPEG, which keeps snapshots and archives
// small. Anything the decoder does not understand is kept byte for byte.
// Once ingested a photo is never recompressed again, so later archive round
// trips reproduce it exactly.
package photo

import (
	"bytes"
	"io"
	"net/http"
	"os"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/pepedot/pkg/annotation"
	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Defaults for Options.
const (
	DefaultMaxEdge = 1600
	DefaultQuality = 82
)

// Options controls recompression.
type Options struct {
	// MaxEdge bounds the longer side in pixels. Zero keeps the size.
	MaxEdge int
	// Quality is the JPEG quality, 1-100.
	Quality int
}

// DefaultOptions returns the stock ingestion settings.
func DefaultOptions() Options {
	return Options{MaxEdge: DefaultMaxEdge, Quality: DefaultQuality}
}

// Ingest reads an image from r and returns it ready for attachment.
// Read failures are PHOTO_READ errors; the caller may simply retry.
func Ingest(r io.Reader, opts Options) (*annotation.Photo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodePhotoRead, err, "read photo")
	}
	return FromBytes(data, opts)
}

// Load ingests the image file at path.
func Load(path string, opts Options) (*annotation.Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodePhotoRead, err, "open photo %s", path)
	}
	defer f.Close()
	return Ingest(f, opts)
}

// FromBytes ingests an in-memory image.
func FromBytes(data []byte, opts Options) (*annotation.Photo, error) {
	if len(data) == 0 {
		return nil, perrors.New(perrors.ErrCodePhotoRead, "photo is empty")
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return &annotation.Photo{MIME: Sniff(data), Data: data}, nil
	}

	b := img.Bounds()
	if opts.MaxEdge > 0 && (b.Dx() > opts.MaxEdge || b.Dy() > opts.MaxEdge) {
		img = imaging.Fit(img, opts.MaxEdge, opts.MaxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "encode photo")
	}
	return &annotation.Photo{MIME: "image/jpeg", Data: buf.Bytes()}, nil
}

// Sniff returns the MIME type of an image payload, defaulting to
// image/jpeg for unrecognized data.
func Sniff(data []byte) string {
	mime := http.DetectContentType(data)
	if len(mime) < 6 || mime[:6] != "image/" {
		return "image/jpeg"
	}
	return mime
}
