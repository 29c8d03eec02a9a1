package viewport

import (
	"math"

	perrors "github.com/matzehuels/pepedot/pkg/errors"
)

// Defaults used when a Viewport field is left zero.
const (
	DefaultMinZoom    = 1.0
	DefaultMaxZoom    = 4.0
	DefaultMinVisible = 48.0

	// ZoomStep is the factor applied by ZoomIn and ZoomOut.
	ZoomStep = 1.25
)

// Vec is a 2D position or displacement in pixels.
type Vec struct{ X, Y float64 }

// Add returns v+o.
func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

// Scale returns v*f.
func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }

// Len returns the Euclidean length of v.
func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

// Size is a width and height in pixels.
type Size struct{ W, H float64 }

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Rect is an axis-aligned rectangle in client coordinates.
type Rect struct{ X, Y, W, H float64 }

// Origin returns the top-left corner.
func (r Rect) Origin() Vec { return Vec{r.X, r.Y} }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{r.W, r.H} }

// Viewport is the pan/zoom state of one page view.
type Viewport struct {
	Frame Rect
	Base  Size

	MinZoom    float64
	MaxZoom    float64
	MinVisible float64

	zoom   float64
	offset Vec
}

// New returns a viewport for the given frame with default zoom limits.
func New(frame Rect) *Viewport {
	return &Viewport{
		Frame:      frame,
		MinZoom:    DefaultMinZoom,
		MaxZoom:    DefaultMaxZoom,
		MinVisible: DefaultMinVisible,
		zoom:       1,
	}
}

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 {
	if v.zoom == 0 {
		return 1
	}
	return v.zoom
}

// Offset returns the page origin relative to the frame origin.
func (v *Viewport) Offset() Vec { return v.offset }

// Extent returns the on-screen size of the page at the current zoom.
func (v *Viewport) Extent() Size {
	z := v.Zoom()
	return Size{v.Base.W * z, v.Base.H * z}
}

// ScreenToNormalized maps a client position to page coordinates in [0,1].
// Positions off the page return an OUT_OF_BOUNDS error.
func (v *Viewport) ScreenToNormalized(client Vec) (Vec, error) {
	ext := v.Extent()
	if ext.Empty() {
		return Vec{}, perrors.New(perrors.ErrCodeOutOfBounds, "viewport has no page")
	}
	local := client.Sub(v.Frame.Origin()).Sub(v.offset)
	n := Vec{local.X / ext.W, local.Y / ext.H}
	if n.X < 0 || n.X > 1 || n.Y < 0 || n.Y > 1 {
		return Vec{}, perrors.New(perrors.ErrCodeOutOfBounds, "position (%.1f,%.1f) is outside the page", client.X, client.Y)
	}
	return n, nil
}

// NormalizedToScreen maps page coordinates to a client position.
func (v *Viewport) NormalizedToScreen(n Vec) Vec {
	ext := v.Extent()
	return v.Frame.Origin().Add(v.offset).Add(Vec{n.X * ext.W, n.Y * ext.H})
}

// ZoomAt changes the zoom so the page point under cursor (frame-local)
// stays under it. The new zoom is clamped to [MinZoom, MaxZoom] and the
// resulting offset to the pan limits.
func (v *Viewport) ZoomAt(cursor Vec, zoom float64) {
	old := v.Zoom()
	zoom = v.clampZoom(zoom)
	v.offset = cursor.Sub(cursor.Sub(v.offset).Scale(zoom / old))
	v.zoom = zoom
	v.clampOffset()
}

// ZoomIn zooms one step around the frame center.
func (v *Viewport) ZoomIn() { v.ZoomAt(v.center(), v.Zoom()*ZoomStep) }

// ZoomOut zooms out one step around the frame center.
func (v *Viewport) ZoomOut() { v.ZoomAt(v.center(), v.Zoom()/ZoomStep) }

// Pan moves the page by delta pixels, subject to the pan limits.
func (v *Viewport) Pan(delta Vec) {
	v.offset = v.offset.Add(delta)
	v.clampOffset()
}

// Fit scales a page of the given natural size to fit the frame, keeping its
// aspect ratio, resets zoom to 1 and centers it. It returns the width the
// page should be rendered at.
func (v *Viewport) Fit(page Size) float64 {
	v.zoom = 1
	v.offset = Vec{}
	if page.Empty() || v.Frame.Size().Empty() {
		v.Base = Size{}
		return 0
	}
	scale := math.Min(v.Frame.W/page.W, v.Frame.H/page.H)
	v.Base = Size{page.W * scale, page.H * scale}
	v.offset = Vec{(v.Frame.W - v.Base.W) / 2, (v.Frame.H - v.Base.H) / 2}
	return v.Base.W
}

// Resize changes the frame, for example after a rotation, and refits the
// current page.
func (v *Viewport) Resize(frame Rect) float64 {
	page := v.Base
	v.Frame = frame
	return v.Fit(page)
}

func (v *Viewport) center() Vec { return Vec{v.Frame.W / 2, v.Frame.H / 2} }

func (v *Viewport) clampZoom(z float64) float64 {
	lo, hi := v.MinZoom, v.MaxZoom
	if lo <= 0 {
		lo = DefaultMinZoom
	}
	if hi < lo {
		hi = math.Max(lo, DefaultMaxZoom)
	}
	if math.IsNaN(z) {
		return v.Zoom()
	}
	return math.Max(lo, math.Min(hi, z))
}

// clampOffset keeps at least MinVisible pixels of the page inside the frame
// on each axis, or the whole page when it is smaller than that.
func (v *Viewport) clampOffset() {
	ext := v.Extent()
	v.offset.X = clampAxis(v.offset.X, ext.W, v.Frame.W, v.MinVisible)
	v.offset.Y = clampAxis(v.offset.Y, ext.H, v.Frame.H, v.MinVisible)
}

func clampAxis(off, content, frame, minVisible float64) float64 {
	if minVisible <= 0 {
		minVisible = DefaultMinVisible
	}
	m := math.Min(minVisible, math.Min(content, frame))
	lo, hi := m-content, frame-m
	return math.Max(lo, math.Min(hi, off))
}
