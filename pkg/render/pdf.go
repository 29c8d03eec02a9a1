package render

import (
	"bytes"
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	pdflib "github.com/ledongthuc/pdf"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// a4 is the fallback page box when a page carries no usable MediaBox.
var a4 = Size{W: 595, H: 842}

// PDF reads PDF documents.
type PDF struct{}

func (PDF) open(data []byte) (*pdflib.Reader, error) {
	r, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeUnsupportedDocument, err, "read pdf")
	}
	return r, nil
}

// PageCount implements Renderer.
func (p PDF) PageCount(data []byte) (n int, err error) {
	defer recoverPDF(&err)
	r, err := p.open(data)
	if err != nil {
		return 0, err
	}
	if n = r.NumPage(); n < 1 {
		return 0, perrors.New(perrors.ErrCodeUnsupportedDocument, "pdf has no pages")
	}
	return n, nil
}

// PageSize implements Renderer. It uses the page's MediaBox, falling back
// to A4 portrait.
func (p PDF) PageSize(data []byte, page int) (s Size, err error) {
	defer recoverPDF(&err)
	r, err := p.open(data)
	if err != nil {
		return Size{}, err
	}
	if err := checkPage(page, r.NumPage()); err != nil {
		return Size{}, err
	}
	box := r.Page(page).V.Key("MediaBox")
	if box.Len() != 4 {
		return a4, nil
	}
	w := box.Index(2).Float64() - box.Index(0).Float64()
	h := box.Index(3).Float64() - box.Index(1).Float64()
	if w <= 0 || h <= 0 {
		return a4, nil
	}
	return Size{W: w, H: h}, nil
}

// RenderPage implements Renderer. Page content is not drawn; the result is
// a white sheet with the page's proportions.
func (p PDF) RenderPage(ctx context.Context, data []byte, page, width int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size, err := p.PageSize(data, page)
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		width = int(size.W)
	}
	height := max(1, int(float64(width)*size.H/size.W+0.5))
	return imaging.New(width, height, color.White), nil
}

// recoverPDF converts parser panics on malformed input into errors.
func recoverPDF(err *error) {
	if r := recover(); r != nil {
		*err = perrors.New(perrors.ErrCodeUnsupportedDocument, "malformed pdf: %v", r)
	}
}
