package fit

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Solve returns x such that a·x = b for a square matrix a given row-major.
// It factorizes a with partial pivoting (LU) and fails with SingularSystem
// when a is singular or too ill-conditioned for the result to be trusted.
func Solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if n == 0 {
		return nil, errors.New("solve: empty system")
	}
	if len(a) != n {
		return nil, fmt.Errorf("solve: matrix has %d rows, vector has %d entries", len(a), n)
	}

	data := make([]float64, 0, n*n)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("solve: row %d has %d columns, want %d", i, len(row), n)
		}
		data = append(data, row...)
	}

	var lu mat.LU
	lu.Factorize(mat.NewDense(n, n, data))

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		// ErrSingular for an exact zero pivot, mat.Condition past ConditionTolerance otherwise.
		return nil, newError(KindSingularSystem, "solve", "%v", err)
	}

	return mat.Col(nil, 0, &x), nil
}
