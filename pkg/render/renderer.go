package render

import (
	"bytes"
	"context"
	"image"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Size is a page size in points (PDF) or pixels (raster).
type Size struct {
	W, H float64
}

// Renderer reads document binaries.
type Renderer interface {
	// PageCount returns the number of pages, at least 1.
	PageCount(data []byte) (int, error)

	// PageSize returns the natural size of a 1-based page.
	PageSize(data []byte, page int) (Size, error)

	// RenderPage rasterizes a 1-based page at the given pixel width.
	RenderPage(ctx context.Context, data []byte, page, width int) (image.Image, error)
}

// Detect returns the renderer for data based on its leading bytes.
func Detect(data []byte) (Renderer, error) {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return PDF{}, nil
	case isRaster(data):
		return Raster{}, nil
	}
	return nil, perrors.New(perrors.ErrCodeUnsupportedDocument, "unrecognized document format")
}

// Auto is a Renderer that dispatches on each call via Detect.
type Auto struct{}

// PageCount implements Renderer.
func (Auto) PageCount(data []byte) (int, error) {
	r, err := Detect(data)
	if err != nil {
		return 0, err
	}
	return r.PageCount(data)
}

// PageSize implements Renderer.
func (Auto) PageSize(data []byte, page int) (Size, error) {
	r, err := Detect(data)
	if err != nil {
		return Size{}, err
	}
	return r.PageSize(data, page)
}

// RenderPage implements Renderer.
func (Auto) RenderPage(ctx context.Context, data []byte, page, width int) (image.Image, error) {
	r, err := Detect(data)
	if err != nil {
		return nil, err
	}
	return r.RenderPage(ctx, data, page, width)
}

func checkPage(page, count int) error {
	if page < 1 || page > count {
		return perrors.New(perrors.ErrCodeOutOfBounds, "page %d out of range 1..%d", page, count)
	}
	return nil
}

var (
	_ Renderer = PDF{}
	_ Renderer = Raster{}
	_ Renderer = Auto{}
)
