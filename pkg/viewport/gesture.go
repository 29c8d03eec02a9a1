package viewport

import "math"

// Mode selects what a tap means.
type Mode int

const (
	// ModePan ignores taps; drags pan.
	ModePan Mode = iota
	// ModePlace turns a tap into a placement; drags still pan.
	ModePlace
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModePlace {
		return "place"
	}
	return "pan"
}

// ActionKind says what a gesture did.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionPan
	ActionZoom
	ActionPlace
)

// Action is the outcome of one input event. At is set for ActionPlace and
// holds the normalized page position.
type Action struct {
	Kind ActionKind
	At   Vec
}

// Gesture defaults.
const (
	DefaultTapSlop       = 6.0
	DefaultWheelZoomRate = 0.0015
)

// Gestures interprets pointer and wheel input for a Viewport. Positions are
// in client coordinates.
type Gestures struct {
	vp   *Viewport
	Mode Mode

	TapSlop       float64
	WheelZoomRate float64

	pointers map[int]Vec
	down     Vec
	moved    bool

	pinchDist float64
	pinchZoom float64
}

// NewGestures returns an interpreter driving vp, starting in ModePan.
func NewGestures(vp *Viewport) *Gestures {
	return &Gestures{
		vp:            vp,
		TapSlop:       DefaultTapSlop,
		WheelZoomRate: DefaultWheelZoomRate,
		pointers:      make(map[int]Vec),
	}
}

// Toggle flips between pan and place mode and returns the new mode.
func (g *Gestures) Toggle() Mode {
	if g.Mode == ModePlace {
		g.Mode = ModePan
	} else {
		g.Mode = ModePlace
	}
	return g.Mode
}

// PointerDown registers a pointer. A second pointer starts a pinch.
func (g *Gestures) PointerDown(id int, pos Vec) {
	g.pointers[id] = pos
	switch len(g.pointers) {
	case 1:
		g.down = pos
		g.moved = false
	case 2:
		a, b := g.pair()
		g.pinchDist = b.Sub(a).Len()
		g.pinchZoom = g.vp.Zoom()
		g.moved = true
	}
}

// PointerMove pans for one pointer and zooms about the midpoint for two.
func (g *Gestures) PointerMove(id int, pos Vec) Action {
	prev, ok := g.pointers[id]
	if !ok {
		return Action{}
	}
	g.pointers[id] = pos

	switch len(g.pointers) {
	case 1:
		if !g.moved && pos.Sub(g.down).Len() <= g.slop() {
			return Action{}
		}
		g.moved = true
		g.vp.Pan(pos.Sub(prev))
		return Action{Kind: ActionPan}
	case 2:
		a, b := g.pair()
		dist := b.Sub(a).Len()
		if g.pinchDist <= 0 || dist <= 0 {
			return Action{}
		}
		mid := a.Add(b).Scale(0.5).Sub(g.vp.Frame.Origin())
		g.vp.ZoomAt(mid, g.pinchZoom*dist/g.pinchDist)
		return Action{Kind: ActionZoom}
	}
	return Action{}
}

// PointerUp releases a pointer. Releasing the only pointer without having
// moved past TapSlop is a tap; in ModePlace a tap on the page yields
// ActionPlace. Taps outside the page do nothing.
func (g *Gestures) PointerUp(id int, pos Vec) Action {
	if _, ok := g.pointers[id]; !ok {
		return Action{}
	}
	delete(g.pointers, id)

	if len(g.pointers) == 1 {
		// Pinch ended; the remaining finger continues as a drag.
		for _, p := range g.pointers {
			g.down = p
		}
		g.pinchDist = 0
		return Action{}
	}
	if len(g.pointers) > 0 || g.moved {
		return Action{}
	}
	if g.Mode != ModePlace || pos.Sub(g.down).Len() > g.slop() {
		return Action{}
	}
	n, err := g.vp.ScreenToNormalized(pos)
	if err != nil {
		return Action{}
	}
	return Action{Kind: ActionPlace, At: n}
}

// Cancel forgets all active pointers.
func (g *Gestures) Cancel() {
	clear(g.pointers)
	g.moved = false
	g.pinchDist = 0
}

// Wheel pans by delta, or zooms at pos when modifier is held. Positive
// delta.Y scrolls down and zooms out.
func (g *Gestures) Wheel(pos, delta Vec, modifier bool) Action {
	if modifier {
		rate := g.WheelZoomRate
		if rate <= 0 {
			rate = DefaultWheelZoomRate
		}
		g.vp.ZoomAt(pos.Sub(g.vp.Frame.Origin()), g.vp.Zoom()*math.Exp(-delta.Y*rate))
		return Action{Kind: ActionZoom}
	}
	g.vp.Pan(delta.Scale(-1))
	return Action{Kind: ActionPan}
}

func (g *Gestures) slop() float64 {
	if g.TapSlop <= 0 {
		return DefaultTapSlop
	}
	return g.TapSlop
}

// pair returns the two active pointers in id order so pinch geometry is
// stable across events.
func (g *Gestures) pair() (Vec, Vec) {
	ids := make([]int, 0, 2)
	for id := range g.pointers {
		ids = append(ids, id)
	}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	return g.pointers[ids[0]], g.pointers[ids[1]]
}
