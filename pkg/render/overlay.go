package render

import (
	"image"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/matzehuels/pepedot/pkg/annotation"
	"github.com/matzehuels/pepedot/pkg/fonts"
)

// Marker colors.
const (
	markerFill    = "#d7263d"
	markerOutline = "#ffffff"
	markerText    = "#ffffff"
)

// Overlay returns a copy of img with a numbered marker for every point.
// ordinals maps point ids to their display numbers; points missing from
// it are drawn without a label.
func Overlay(img image.Image, points []annotation.Point, ordinals map[int64]int) image.Image {
	dc := gg.NewContextForImage(img)
	w, h := float64(dc.Width()), float64(dc.Height())
	r := max(7, min(w, h)/80)

	dc.SetFontFace(fonts.Marker(r * 1.2))
	for _, p := range points {
		x, y := p.X*w, p.Y*h

		dc.DrawCircle(x, y, r+1.5)
		dc.SetHexColor(markerOutline)
		dc.Fill()
		dc.DrawCircle(x, y, r)
		dc.SetHexColor(markerFill)
		dc.Fill()

		if n, ok := ordinals[p.ID]; ok {
			dc.SetHexColor(markerText)
			dc.DrawStringAnchored(strconv.Itoa(n), x, y, 0.5, 0.35)
		}
	}
	return dc.Image()
}
