package fit

import (
	"fmt"
	"math"
)

// degenerateTolerance is the smallest |n·Σx² − (Σx)²| accepted by the
// least-squares line fit. Below it all x values are (nearly) equal.
const degenerateTolerance = 1e-9

// Sums holds the accumulated totals of a least-squares line fit, kept so a
// step-by-step derivation can be rebuilt without recomputation.
type Sums struct {
	N     int     `json:"n"`
	SumX  float64 `json:"sumX"`
	SumY  float64 `json:"sumY"`
	SumXY float64 `json:"sumXY"`
	SumX2 float64 `json:"sumX2"`
}

// SlopeNumerator returns n·Σxy − Σx·Σy.
func (s Sums) SlopeNumerator() float64 {
	return float64(s.N)*s.SumXY - s.SumX*s.SumY
}

// SlopeDenominator returns n·Σx² − (Σx)².
func (s Sums) SlopeDenominator() float64 {
	return float64(s.N)*s.SumX2 - s.SumX*s.SumX
}

// Regression is an ordinary least-squares line y = Slope·x + Intercept.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Sums      Sums    `json:"sums"`
}

// FitRegression computes the least-squares line through points.
// It needs at least two points and fails with DegenerateFit when every
// x value is the same or the values are too large to fit in float64.
func FitRegression(points []Point) (*Regression, error) {
	n := len(points)
	if n < 2 {
		return nil, insufficient("regression", 2, n)
	}

	s := Sums{N: n}
	for _, p := range points {
		s.SumX += p.X
		s.SumY += p.Y
		s.SumXY += p.X * p.Y
		s.SumX2 += p.X * p.X
	}

	if !finite(s.SumX) || !finite(s.SumY) || !finite(s.SumXY) || !finite(s.SumX2) {
		return nil, newError(KindDegenerateFit, "regression", "sums overflow")
	}
	denominator := s.SlopeDenominator()
	if !finite(denominator) {
		return nil, newError(KindDegenerateFit, "regression", "denominator overflows")
	}
	if math.Abs(denominator) < degenerateTolerance {
		return nil, newError(KindDegenerateFit, "regression", "x values do not vary (denominator %g)", denominator)
	}

	slope := s.SlopeNumerator() / denominator
	intercept := (s.SumY - slope*s.SumX) / float64(n)
	if !finite(slope) || !finite(intercept) {
		return nil, newError(KindDegenerateFit, "regression", "slope=%v intercept=%v", slope, intercept)
	}
	return &Regression{
		Slope:     slope,
		Intercept: intercept,
		Sums:      s,
	}, nil
}

// Eval returns Slope·x + Intercept.
func (r *Regression) Eval(x float64) float64 {
	return r.Slope*x + r.Intercept
}

// Degree is always 1.
func (r *Regression) Degree() int { return 1 }

// Equation renders the line as "y = m x ± c".
func (r *Regression) Equation() string {
	sign := "+"
	if r.Intercept < 0 {
		sign = "-"
	}
	return fmt.Sprintf("y = %sx %s %s", formatNumber(r.Slope), sign, formatNumber(math.Abs(r.Intercept)))
}

func (r *Regression) model() {}
