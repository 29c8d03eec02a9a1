// Package fonts provides the font faces used to label markers on page
// previews.
//
// Faces are built from the Go Bold font bundled with golang.org/x/image,
// so no font files need to be installed. The font is parsed once. A face
// is not safe for concurrent use, so every call returns a new one.
package fonts

import (
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// MinSize is the smallest label size in points; smaller requests are raised.
const MinSize = 6

var (
	parsed    *opentype.Font
	parseErr  error
	parseOnce sync.Once
)

func load() (*opentype.Font, error) {
	parseOnce.Do(func() {
		parsed, parseErr = opentype.Parse(gobold.TTF)
	})
	return parsed, parseErr
}

// Marker returns a bold face of roughly size points for marker labels.
// Sizes are rounded to whole points. If the bundled font cannot be parsed
// the fixed 7x13 bitmap face is returned.
func Marker(size float64) font.Face {
	pt := max(MinSize, int(math.Round(size)))
	f, err := load()
	if err != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(pt),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}
