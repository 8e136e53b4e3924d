package fit

import (
	"cmp"
	"math"
	"slices"
)

// Point is a single (x, y) sample. Points order by X only.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Axis selects the coordinate touched by PointSet.Edit.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// inputPrecision is the number of decimals kept for points added one at a time.
const inputPrecision = 2

// PointSet is the ordered collection of input samples. It is kept sorted
// ascending by X after every mutation; equal X values keep insertion order.
// Duplicates are not removed.
//
// A PointSet is not safe for concurrent use. Each session owns its own.
type PointSet struct {
	points []Point
}

// NewPointSet creates an empty point set.
func NewPointSet() *PointSet {
	return &PointSet{}
}

// Add appends a point rounded to two decimals and restores the sort order.
func (ps *PointSet) Add(x, y float64) error {
	if !finite(x) || !finite(y) {
		return newError(KindInvalidPoint, "add", "x=%v y=%v", x, y)
	}
	ps.points = append(ps.points, Point{X: round(x, inputPrecision), Y: round(y, inputPrecision)})
	ps.sort()
	return nil
}

// Edit replaces one coordinate of the point at index. The value is stored
// as given. An out-of-range index leaves the set untouched.
func (ps *PointSet) Edit(index int, axis Axis, value float64) error {
	if index < 0 || index >= len(ps.points) {
		return newError(KindInvalidIndex, "edit", "index %d of %d", index, len(ps.points))
	}
	if !finite(value) {
		return newError(KindInvalidPoint, "edit", "value=%v", value)
	}
	switch axis {
	case AxisX:
		ps.points[index].X = value
	case AxisY:
		ps.points[index].Y = value
	default:
		return newError(KindInvalidPoint, "edit", "unknown axis %q", axis)
	}
	ps.sort()
	return nil
}

// Delete removes the point at index. An out-of-range index leaves the set untouched.
func (ps *PointSet) Delete(index int) error {
	if index < 0 || index >= len(ps.points) {
		return newError(KindInvalidIndex, "delete", "index %d of %d", index, len(ps.points))
	}
	ps.points = slices.Delete(ps.points, index, index+1)
	return nil
}

// ReplaceAll swaps the whole content for points, stored unrounded.
// An empty or non-finite input is rejected and the previous content is kept.
func (ps *PointSet) ReplaceAll(points []Point) error {
	if len(points) == 0 {
		return insufficient("replace", 1, 0)
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return newError(KindInvalidPoint, "replace", "point %d: x=%v y=%v", i, p.X, p.Y)
		}
	}
	ps.points = slices.Clone(points)
	ps.sort()
	return nil
}

// Clear empties the set.
func (ps *PointSet) Clear() {
	ps.points = nil
}

// Len returns the number of points.
func (ps *PointSet) Len() int {
	return len(ps.points)
}

// Points returns a sorted copy of the content.
func (ps *PointSet) Points() []Point {
	return slices.Clone(ps.points)
}

func (ps *PointSet) sort() {
	slices.SortStableFunc(ps.points, func(a, b Point) int {
		return cmp.Compare(a.X, b.X)
	})
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if !finite(v) {
			return false
		}
	}
	return true
}

// repeatedX returns an x value shared by two points, if any.
func repeatedX(points []Point) (float64, bool) {
	seen := make(map[float64]struct{}, len(points))
	for _, p := range points {
		if _, ok := seen[p.X]; ok {
			return p.X, true
		}
		seen[p.X] = struct{}{}
	}
	return 0, false
}
