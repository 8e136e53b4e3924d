package fit

import (
	"testing"

	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func coords(points []Point) (x, y []float64) {
	for _, p := range points {
		x = append(x, p.X)
		y = append(y, p.Y)
	}
	return x, y
}

func TestFitRegression(t *testing.T) {
	points := []Point{{0, 1}, {1, 3}, {2, 4}, {3, 8}, {4, 9}}

	r, err := FitRegression(points)
	require.NoError(t, err)

	assert.InDelta(t, 2.1, r.Slope, 1e-12)
	assert.InDelta(t, 0.8, r.Intercept, 1e-12)
	assert.Equal(t, Sums{N: 5, SumX: 10, SumY: 25, SumXY: 71, SumX2: 30}, r.Sums)
	assert.InDelta(t, 105.0, r.Sums.SlopeNumerator(), 1e-12)
	assert.InDelta(t, 50.0, r.Sums.SlopeDenominator(), 1e-12)
	assert.InDelta(t, 1.9/5, MSE(points, r.Eval), 1e-12)
}

func TestFitRegressionMatchesGonum(t *testing.T) {
	points := []Point{{-2.5, 4.1}, {-1, 2.2}, {0.3, 0.9}, {1.7, -0.4}, {2, -1.6}, {6.25, -7}}

	r, err := FitRegression(points)
	require.NoError(t, err)

	x, y := coords(points)
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	assert.InDelta(t, beta, r.Slope, 1e-9)
	assert.InDelta(t, alpha, r.Intercept, 1e-9)
}

func TestFitRegressionThroughTwoPoints(t *testing.T) {
	points := []Point{{1, 2}, {3, 8}}

	r, err := FitRegression(points)
	require.NoError(t, err)

	assert.InDelta(t, 2, r.Eval(1), 1e-9)
	assert.InDelta(t, 8, r.Eval(3), 1e-9)
	assert.InDelta(t, 0, MSE(points, r.Eval), 1e-9)
}

func TestFitRegressionFailures(t *testing.T) {
	_, err := FitRegression([]Point{{1, 1}})
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = FitRegression(nil)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = FitRegression([]Point{{1, 1}, {1, 5}})
	assert.ErrorIs(t, err, ErrDegenerateFit)
	assert.NotErrorIs(t, err, ErrInsufficientPoints)

	// x² overflows, so n·Σx² − (Σx)² would be Inf − Inf.
	r, err := FitRegression([]Point{{1e200, 1}, {2e200, 5}})
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrDegenerateFit)

	r, err = FitRegression([]Point{{0, -1e308}, {1, 1e308}})
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrDegenerateFit)
}

// The closed-form line must not be beaten by a numerical search over the
// same sum of squared residuals.
func TestFitRegressionIsLeastSquaresMinimum(t *testing.T) {
	points := []Point{{0, 1}, {1, 3}, {2, 4}, {3, 8}, {4, 9}}

	r, err := FitRegression(points)
	require.NoError(t, err)

	sse := func(params []float64) float64 {
		var sum float64
		for _, p := range points {
			d := p.Y - (params[0]*p.X + params[1])
			sum += d * d
		}
		return sum
	}

	best, searched, err := opt.NewMayfly(100, 20, 42).Minimize(sse, []float64{-10, -10}, []float64{10, 10})
	require.NoError(t, err)

	closedForm := sse([]float64{r.Slope, r.Intercept})
	assert.LessOrEqual(t, closedForm, searched+1e-9, "optimizer found %v", best)
}

func TestRegressionEquation(t *testing.T) {
	tests := []struct {
		slope, intercept float64
		want             string
	}{
		{2, -1, "y = 2x - 1"},
		{0.5, 3.25, "y = 0.5x + 3.25"},
		{-1.23456, 0, "y = -1.2346x + 0"},
	}
	for _, tt := range tests {
		r := &Regression{Slope: tt.slope, Intercept: tt.intercept}
		assert.Equal(t, tt.want, r.Equation())
	}
}
