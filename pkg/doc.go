// Package pkg provides the libraries behind pepedot, a tool for placing
// numbered, dated points on multi-page construction drawings.
//
// # Overview
//
// A project holds up to ten drawings (PDF or raster images) and the points
// placed on their pages. The pkg directory is organized into four areas:
//
//  1. Domain: [annotation] (projects, points, ordinals) and [viewport]
//     (zoom, pan and screen-to-page mapping)
//  2. Control: [session] (the per-user controller that validates, mutates
//     and autosaves)
//  3. Persistence: [cache] (snapshot gateways and document blobs) and
//     [archive] (zip export and import)
//  4. Support: [render], [photo], [fonts], [config], [errors],
//     [observability] and [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	pointer input / CLI flags
//	         ↓
//	    [session] package (gestures, validation, confirmation)
//	         ↓
//	    [annotation] package (store mutation, proximity rule)
//	         ↓
//	    [cache] package (autosave snapshot, document blobs)
//
// and for transfer:
//
//	[annotation.Project] ⇄ [archive] ⇄ zip (manifest, points, documents,
//	photos, points.xlsx, page previews)
//
// # Quick Start
//
//	s, _ := session.New(ctx, session.Options{Cache: cache.NewMemoryCache()})
//	_ = s.CreateProject(ctx, "RN1")
//	_, _ = s.AddDocument(ctx, "ground floor.pdf", pdfBytes)
//	pt, err := s.PlaceAt(ctx, viewport.Vec{X: 0.3, Y: 0.4}, annotation.Fields{Title: "Crack"})
//	if errors.Is(err, errors.ErrCodeProximity) {
//	    // too close to an existing point at this zoom
//	}
//	_ = s.Export(ctx, file)
//
// # Error Handling
//
// Every package returns [errors.Error] values carrying a stable code such
// as PROXIMITY, PROJECT_LIMIT or INVALID_ARCHIVE. Use [errors.Is] or the
// category helpers ([errors.IsValidation], [errors.IsCapacity]) to branch.
//
// # Observability
//
// Register hooks at startup to receive session, archive and cache events:
//
//	observability.SetSessionHooks(myHooks)
//
// # Configuration
//
// [config.Load] layers built-in defaults, a TOML file, .env and PEPEDOT_*
// environment variables. Its helpers convert settings into [cache.Options],
// [session.Limits] and [photo.Options].
//
// [annotation]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/annotation
// [viewport]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/viewport
// [session]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/cache
// [archive]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/archive
// [render]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/render
// [photo]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/photo
// [fonts]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/fonts
// [config]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/buildinfo
// [annotation.Project]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/annotation#Project
// [errors.Error]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/errors#Error
// [errors.Is]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/errors#Is
// [errors.IsValidation]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/errors#IsValidation
// [errors.IsCapacity]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/errors#IsCapacity
// [config.Load]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/config#Load
// [cache.Options]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/cache#Options
// [session.Limits]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/session#Limits
// [photo.Options]: https://pkg.go.dev/github.com/matzehuels/pepedot/pkg/photo#Options
package pkg
