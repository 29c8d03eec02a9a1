package render

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Raster reads single-page image drawings.
type Raster struct{}

func isRaster(data []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

// PageCount implements Renderer.
func (Raster) PageCount(data []byte) (int, error) {
	if !isRaster(data) {
		return 0, perrors.New(perrors.ErrCodeUnsupportedDocument, "not a supported image")
	}
	return 1, nil
}

// PageSize implements Renderer.
func (Raster) PageSize(data []byte, page int) (Size, error) {
	if err := checkPage(page, 1); err != nil {
		return Size{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Size{}, perrors.Wrap(perrors.ErrCodeUnsupportedDocument, err, "decode image header")
	}
	return Size{W: float64(cfg.Width), H: float64(cfg.Height)}, nil
}

// RenderPage implements Renderer.
func (Raster) RenderPage(ctx context.Context, data []byte, page, width int) (image.Image, error) {
	if err := checkPage(page, 1); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeUnsupportedDocument, err, "decode image")
	}
	if width <= 0 || width == img.Bounds().Dx() {
		return img, nil
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos), nil
}
