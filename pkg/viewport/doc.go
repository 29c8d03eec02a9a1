// Package viewport maps screen positions to normalized page coordinates
// under pan and zoom.
//
// A [Viewport] has a Frame (the on-screen rectangle the page is shown in,
// in client coordinates) and a Base size (the rendered page size at zoom 1).
// The page is drawn at offset with size Base*zoom, both relative to the
// frame origin:
//
//	local      = (client - frame.origin - offset) / (base * zoom)
//	client     = frame.origin + offset + local * base * zoom
//
// Zooming pivots on the cursor so the page point under it stays put, and
// panning is clamped so the page never leaves the frame entirely.
//
// [Gestures] turns raw pointer and wheel events into pan, zoom and place
// actions. On touch input a tap is ambiguous, so placement only happens
// in [ModePlace]; in [ModePan] taps are ignored.
package viewport
