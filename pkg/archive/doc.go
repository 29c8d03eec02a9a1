// Package archive reads and writes the portable project bundle.
//
// # Layout
//
// An archive is a zip file with fixed entry timestamps, so identical input
// produces identical bytes apart from the export time:
//
//	manifest.json                project metadata, document list, totals
//	points.json                  every point, photos inline as data URLs
//	documents/<name>             original document binaries
//	photos/<ord>_<title>_<doc>.<ext>
//	points.xlsx                  one row per point, sorted by document, page, id
//	pages/<doc>-p<n>.png         optional page previews with numbered markers
//
// manifest.json and points.json are authoritative. The photo files, the
// spreadsheet and the previews are derived and ignored on import.
//
// # Export
//
// [Serialize] builds the whole archive in memory. The spreadsheet and the
// page previews are produced concurrently; the preview loop checks the
// context before each page, so a cancelled export returns without writing
// anything:
//
//	data, err := archive.Serialize(ctx, project,
//	    archive.WithPagePreviews(render.Auto{}, 1600))
//
// # Import
//
// [Deserialize] parses the entire archive into a fresh project before
// returning. It never touches live state; a missing or malformed
// manifest.json or points.json yields an INVALID_ARCHIVE error and no
// project. Archives written by earlier versions of the field app (pdfs/
// folder, pdfIdx and imageData fields) are accepted.
//
// # Round trip
//
// For any project S, manifest.json and points.json of
// Serialize(Deserialize(Serialize(S))) equal those of Serialize(S) except
// for exportedAt. [Diff] compares two archives on exactly these entries.
package archive
