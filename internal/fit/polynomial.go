package fit

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// negligibleCoefficient is the magnitude below which a term is left out of
// the rendered equation.
const negligibleCoefficient = 1e-9

// Polynomial is an exact interpolating polynomial obtained from a square
// Vandermonde system. Matrix and Vector are the system that was solved.
type Polynomial struct {
	Coefficients []float64   `json:"coefficients"` // a0 .. a_degree
	Matrix       [][]float64 `json:"matrix"`
	Vector       []float64   `json:"vector"`
}

// FitPolynomial interpolates exactly degree+1 points with a polynomial of
// the given degree. Over-determined systems are not solved.
func FitPolynomial(points []Point, degree int) (*Polynomial, error) {
	if degree < 1 {
		return nil, newError(KindInvalidDegree, "polynomial", "degree %d", degree)
	}
	n := len(points)
	if n < degree+1 {
		return nil, insufficient("polynomial", degree+1, n)
	}
	if n > degree+1 {
		return nil, newError(KindOverdeterminedSystem, "polynomial", "%d points for degree %d", n, degree)
	}
	if x, ok := repeatedX(points); ok {
		return nil, newError(KindDegenerateFit, "polynomial", "repeated x=%v", x)
	}

	a := vandermonde(points, degree)
	if !allFinite(a.RawMatrix().Data) {
		return nil, newError(KindDegenerateFit, "polynomial", "powers of x overflow for degree %d", degree)
	}
	b := make([]float64, n)
	for i, p := range points {
		b[i] = p.Y
	}

	coeffs, err := Solve(rows(a), b)
	if err != nil {
		return nil, err
	}
	if !allFinite(coeffs) {
		return nil, newError(KindSingularSystem, "polynomial", "coefficients overflow")
	}

	return &Polynomial{
		Coefficients: coeffs,
		Matrix:       rows(a),
		Vector:       b,
	}, nil
}

// vandermonde builds the matrix whose row i is [1, x_i, x_i², …, x_i^degree].
func vandermonde(points []Point, degree int) *mat.Dense {
	v := mat.NewDense(len(points), degree+1, nil)
	for i, p := range points {
		for j, pow := 0, 1.0; j <= degree; j, pow = j+1, pow*p.X {
			v.Set(i, j, pow)
		}
	}
	return v
}

// rows copies a matrix into row-major slices.
func rows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

// Eval evaluates Σ a_i·x^i with Horner's rule.
func (p *Polynomial) Eval(x float64) float64 {
	if len(p.Coefficients) == 0 {
		return math.NaN()
	}
	var y float64
	for i := len(p.Coefficients) - 1; i >= 0; i-- {
		y = y*x + p.Coefficients[i]
	}
	return y
}

// Degree returns the number of coefficients minus one.
func (p *Polynomial) Degree() int {
	return len(p.Coefficients) - 1
}

// Equation renders the polynomial from the constant term upwards, leaving
// out negligible terms and writing unit coefficients as a bare power of x.
func (p *Polynomial) Equation() string {
	var b strings.Builder
	for i, c := range p.Coefficients {
		if math.Abs(c) < negligibleCoefficient {
			continue
		}
		mag := math.Abs(c)
		switch {
		case b.Len() == 0 && c < 0:
			b.WriteString("-")
		case b.Len() > 0 && c < 0:
			b.WriteString(" - ")
		case b.Len() > 0:
			b.WriteString(" + ")
		}
		if i == 0 {
			b.WriteString(formatNumber(mag))
			continue
		}
		if round(mag, 4) != 1 {
			b.WriteString(formatNumber(mag))
			b.WriteString(" ")
		}
		b.WriteString(power(i))
	}
	if b.Len() == 0 {
		return "P(x) = 0"
	}
	return "P(x) = " + b.String()
}

func power(i int) string {
	if i == 1 {
		return "x"
	}
	return "x^" + strconv.Itoa(i)
}

func (p *Polynomial) model() {}
