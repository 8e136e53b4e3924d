package fit

import (
	"math"
	"strconv"
)

// perfectFitThreshold is the MSE below which a model is said to pass through
// every point.
const perfectFitThreshold = 1e-9

// Evaluator is a fitted model seen as a function of x. NaN means undefined.
type Evaluator func(x float64) float64

// Undefined is the evaluator of a missing or failed model.
func Undefined(float64) float64 { return math.NaN() }

// Model is the method-specific result of a fit: *Regression, *Polynomial or
// *Lagrange. The set is closed.
type Model interface {
	// Eval evaluates the model at x.
	Eval(x float64) float64
	// Degree is the polynomial degree of the model.
	Degree() int
	// Equation is a plain-text rendering of the model.
	Equation() string

	model()
}

// EvaluatorOf wraps a model as an Evaluator. A nil model is Undefined.
func EvaluatorOf(m Model) Evaluator {
	if m == nil {
		return Undefined
	}
	return m.Eval
}

// MSE computes the mean squared error of eval over points.
//
// It is 0 when there are no points or when eval is undefined at the x=0
// probe: there is nothing meaningful to compare against.
func MSE(points []Point, eval Evaluator) float64 {
	if len(points) == 0 || eval == nil || math.IsNaN(eval(0)) {
		return 0
	}

	var sum float64
	for _, p := range points {
		d := p.Y - eval(p.X)
		sum += d * d
	}
	return sum / float64(len(points))
}

// formatNumber renders v with at most four decimals and no trailing zeros.
func formatNumber(v float64) string {
	r := round(v, 4)
	if r == 0 {
		r = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
