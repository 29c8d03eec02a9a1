package viewport_test

import (
	"fmt"

	"github.com/matzehuels/pepedot/pkg/viewport"
)

func ExampleViewport_ZoomAt() {
	vp := viewport.New(viewport.Rect{W: 400, H: 400})
	vp.Fit(viewport.Size{W: 400, H: 400})

	cursor := viewport.Vec{X: 100, Y: 100}
	before, _ := vp.ScreenToNormalized(cursor)

	// The page point under the cursor stays put.
	vp.ZoomAt(cursor, 2)
	after, _ := vp.ScreenToNormalized(cursor)

	fmt.Println("offset:", vp.Offset())
	fmt.Printf("before: %.2f,%.2f\n", before.X, before.Y)
	fmt.Printf("after:  %.2f,%.2f\n", after.X, after.Y)
	// Output:
	// offset: {-100 -100}
	// before: 0.25,0.25
	// after:  0.25,0.25
}

func ExampleViewport_Fit() {
	// A landscape page in a portrait frame is letterboxed.
	vp := viewport.New(viewport.Rect{W: 300, H: 600})
	width := vp.Fit(viewport.Size{W: 1200, H: 800})

	fmt.Println("render width:", width)
	fmt.Println("base:", vp.Base)
	fmt.Println("offset:", vp.Offset())
	// Output:
	// render width: 300
	// base: {300 200}
	// offset: {0 200}
}

func ExampleGestures() {
	vp := viewport.New(viewport.Rect{W: 200, H: 200})
	vp.Fit(viewport.Size{W: 200, H: 200})
	g := viewport.NewGestures(vp)

	tap := func(at viewport.Vec) viewport.Action {
		g.PointerDown(1, at)
		return g.PointerUp(1, at)
	}

	fmt.Println("pan mode tap places:", tap(viewport.Vec{X: 50, Y: 150}).Kind == viewport.ActionPlace)
	g.Toggle()
	act := tap(viewport.Vec{X: 50, Y: 150})
	fmt.Println("place mode tap places:", act.Kind == viewport.ActionPlace)
	fmt.Printf("at: %.2f,%.2f\n", act.At.X, act.At.Y)
	// Output:
	// pan mode tap places: false
	// place mode tap places: true
	// at: 0.25,0.75
}
