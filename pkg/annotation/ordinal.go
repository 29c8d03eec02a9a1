package annotation

import (
	"cmp"
	"slices"
)

// PagePoints returns the points on one page, sorted by id.
func PagePoints(points []Point, key PageKey) []Point {
	var out []Point
	for _, p := range points {
		if p.Key() == key {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b Point) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// OrdinalOf returns the 1-based rank of p among the points sharing its page,
// ordered by id. It returns 0 if p is not in points.
func OrdinalOf(points []Point, p Point) int {
	for i, q := range PagePoints(points, p.Key()) {
		if q.ID == p.ID {
			return i + 1
		}
	}
	return 0
}

// Ordinals computes the ordinal of every point in one pass. The result is a
// throwaway view; it must not be kept across mutations.
func Ordinals(points []Point) map[int64]int {
	byPage := make(map[PageKey][]int64)
	for _, p := range points {
		byPage[p.Key()] = append(byPage[p.Key()], p.ID)
	}
	out := make(map[int64]int, len(points))
	for _, ids := range byPage {
		slices.Sort(ids)
		for i, id := range ids {
			out[id] = i + 1
		}
	}
	return out
}

// SortForExport returns a copy of points ordered by (documentIndex, page, id).
func SortForExport(points []Point) []Point {
	out := append([]Point(nil), points...)
	slices.SortFunc(out, func(a, b Point) int {
		if c := cmp.Compare(a.DocumentIndex, b.DocumentIndex); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Page, b.Page); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
