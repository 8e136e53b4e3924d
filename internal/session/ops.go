package session

import "github.com/cwbudde/curvefit/internal/fit"

// Op is a point mutation. The set of operations is closed.
type Op interface {
	apply(ps *fit.PointSet) error
}

// Add appends a point, rounded to two decimals.
type Add struct {
	X, Y float64
}

// Edit changes one coordinate of the point at Index.
type Edit struct {
	Index int
	Axis  fit.Axis
	Value float64
}

// Delete removes the point at Index.
type Delete struct {
	Index int
}

// Replace swaps in a whole new point list, e.g. from an import.
type Replace struct {
	Points []fit.Point
}

// Clear removes every point.
type Clear struct{}

func (op Add) apply(ps *fit.PointSet) error     { return ps.Add(op.X, op.Y) }
func (op Edit) apply(ps *fit.PointSet) error    { return ps.Edit(op.Index, op.Axis, op.Value) }
func (op Delete) apply(ps *fit.PointSet) error  { return ps.Delete(op.Index) }
func (op Replace) apply(ps *fit.PointSet) error { return ps.ReplaceAll(op.Points) }
func (Clear) apply(ps *fit.PointSet) error      { ps.Clear(); return nil }
