// Package annotation holds the work-order data model and the store that
// keeps it consistent.
//
// # Model
//
// A [Project] (work order) owns an ordered list of [Document]s and a flat
// list of [Point]s. A point belongs to exactly one (documentIndex, page) pair
// and sits at a normalized position x,y in [0,1] on that page.
//
// # Invariants
//
// The [Store] enforces:
//
//   - x and y are clamped to [0,1] on every write
//   - two points on the same page are never closer than the proximity
//     threshold, measured in screen pixels at the zoom active during placement
//   - removing document k drops its points and shifts every later
//     documentIndex (and the per-document page map) down by one
//   - point ids are handed out from a monotonic sequence and never reused
//
// Every Store method validates its input completely before mutating, so a
// rejected call leaves the project untouched.
//
// # Ordinals
//
// The number shown next to a point is not stored anywhere. [OrdinalOf] and
// [Ordinals] derive it from creation order among the points sharing a page,
// so removing or adding a point renumbers its page-mates automatically.
package annotation
