// Package render is the document rendering collaborator.
//
// # Overview
//
// Given the raw bytes of an uploaded drawing, a [Renderer] reports how many
// pages it has, the natural size of each page and a raster of a page at a
// requested pixel width. Two implementations exist:
//
//   - [PDF]: page count and page boxes via ledongthuc/pdf. Vector content
//     is not rasterized; pages come back as blank sheets of the right
//     proportions, which is enough to lay out markers.
//   - [Raster]: PNG, JPEG, GIF, BMP and TIFF drawings, always one page,
//     scaled with disintegration/imaging.
//
// [Detect] picks the implementation from the leading bytes.
//
// # Overlays
//
// [Overlay] draws numbered markers over a page raster, as used for the
// page previews in exported archives:
//
//	img, err := r.RenderPage(ctx, data, page, 1200)
//	out := render.Overlay(img, points, ordinals)
package render
