package fit

import (
	"fmt"
	"slices"
	"strings"
)

// Lagrange is the interpolating polynomial through all of Points, evaluated
// directly as Σ y_i·L_i(x) without solving for coefficients.
//
// Denominators[i] is Π_{j≠i} (x_i − x_j), the constant part of basis L_i.
type Lagrange struct {
	Points       []Point   `json:"points"`
	Denominators []float64 `json:"denominators"`
}

// FitLagrange prepares the Lagrange form for points. It needs at least two
// points with pairwise distinct x values.
func FitLagrange(points []Point) (*Lagrange, error) {
	n := len(points)
	if n < 2 {
		return nil, insufficient("lagrange", 2, n)
	}
	if x, ok := repeatedX(points); ok {
		return nil, newError(KindDegenerateFit, "lagrange", "repeated x=%v", x)
	}

	denominators := make([]float64, n)
	for i, pi := range points {
		d := 1.0
		for j, pj := range points {
			if i != j {
				d *= pi.X - pj.X
			}
		}
		denominators[i] = d
	}
	if !allFinite(denominators) || slices.Contains(denominators, 0) {
		return nil, newError(KindDegenerateFit, "lagrange", "basis denominators overflow")
	}

	return &Lagrange{
		Points:       slices.Clone(points),
		Denominators: denominators,
	}, nil
}

// Basis returns L_i(x) = Π_{j≠i} (x − x_j)/(x_i − x_j).
func (l *Lagrange) Basis(i int, x float64) float64 {
	xi := l.Points[i].X
	v := 1.0
	for j, pj := range l.Points {
		if i != j {
			v *= (x - pj.X) / (xi - pj.X)
		}
	}
	return v
}

// Eval returns Σ y_i·L_i(x). Cost is O(n²) per call.
func (l *Lagrange) Eval(x float64) float64 {
	var sum float64
	for i, p := range l.Points {
		sum += p.Y * l.Basis(i, x)
	}
	return sum
}

// Degree returns n − 1.
func (l *Lagrange) Degree() int {
	return len(l.Points) - 1
}

// Equation renders the weighted sum of basis polynomials.
func (l *Lagrange) Equation() string {
	terms := make([]string, len(l.Points))
	for i, p := range l.Points {
		terms[i] = fmt.Sprintf("%s·L%d(x)", formatNumber(p.Y), i)
	}
	return "P(x) = " + strings.Join(terms, " + ")
}

// BasisNumerator renders the product (x − x_j) for j ≠ i.
func (l *Lagrange) BasisNumerator(i int) string {
	var b strings.Builder
	for j, pj := range l.Points {
		if i != j {
			fmt.Fprintf(&b, "(x - %s)", formatNumber(pj.X))
		}
	}
	return b.String()
}

func (l *Lagrange) model() {}
