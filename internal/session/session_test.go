package session

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cwbudde/curvefit/internal/dataset"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, cfg fit.MethodConfig) *Session {
	t.Helper()
	s, err := New("test", cfg)
	require.NoError(t, err)
	return s
}

func addAll(t *testing.T, s *Session, points ...fit.Point) {
	t.Helper()
	for _, p := range points {
		require.NoError(t, s.Apply(Add{X: p.X, Y: p.Y}))
	}
}

func TestNew_EmptySessionHasNoModel(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())

	report, err := s.Report()
	assert.Nil(t, report)
	assert.ErrorIs(t, err, fit.ErrInsufficientPoints)
	assert.Zero(t, s.Revision())

	v := s.Snapshot()
	assert.Empty(t, v.Points)
	assert.NotNil(t, v.Points)
	require.NotNil(t, v.FitError)
	assert.Equal(t, fit.KindInsufficientPoints, v.FitError.Kind)
	assert.Nil(t, v.Report)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New("bad", fit.MethodConfig{Method: fit.PolynomialInterp, Degree: 0})
	assert.ErrorIs(t, err, fit.ErrInvalidDegree)

	_, err = New("bad", fit.MethodConfig{Method: fit.Method(42)})
	assert.ErrorIs(t, err, fit.ErrUnknownMethod)
}

func TestApply_AddRefitsRegression(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 2, Y: 5}, fit.Point{X: 0, Y: 1}, fit.Point{X: 1, Y: 3})

	assert.Equal(t, []fit.Point{{X: 0, Y: 1}, {X: 1, Y: 3}, {X: 2, Y: 5}}, s.Points())
	assert.Equal(t, uint64(3), s.Revision())

	report, err := s.Report()
	require.NoError(t, err)
	reg, ok := report.Model.(*fit.Regression)
	require.True(t, ok, "expected regression model, got %T", report.Model)
	assert.InDelta(t, 2.0, reg.Slope, 1e-9)
	assert.InDelta(t, 1.0, reg.Intercept, 1e-9)
	assert.True(t, report.PerfectFit)
}

func TestApply_AddRoundsToTwoDecimals(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 1.23456, Y: -0.005001})

	assert.Equal(t, []fit.Point{{X: 1.23, Y: -0.01}}, s.Points())
}

func TestApply_CapacityLimitsInterpolation(t *testing.T) {
	tests := []struct {
		name string
		cfg  fit.MethodConfig
		max  int
	}{
		{"linear", fit.MethodConfig{Method: fit.LinearInterp}, 2},
		{"quadratic", fit.MethodConfig{Method: fit.QuadraticInterp}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, tt.cfg)
			for i := range tt.max {
				require.NoError(t, s.Apply(Add{X: float64(i), Y: float64(i * i)}))
			}
			assert.False(t, s.Snapshot().CanAdd)

			rev := s.Revision()
			err := s.Apply(Add{X: 10, Y: 10})
			assert.ErrorIs(t, err, ErrCapacity)
			assert.Len(t, s.Points(), tt.max)
			assert.Equal(t, rev, s.Revision())
		})
	}
}

func TestApply_ReplaceIgnoresCapacity(t *testing.T) {
	s := newSession(t, fit.MethodConfig{Method: fit.LinearInterp})
	require.NoError(t, s.Apply(Replace{Points: []fit.Point{{X: 0, Y: 0}, {X: 1, Y: 2}, {X: 2, Y: 9}}}))

	report, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 2, report.PointsUsed)
	assert.Len(t, s.Points(), 3)
}

func TestApply_FailedMutationLeavesStateUnchanged(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 0, Y: 1}, fit.Point{X: 1, Y: 3})
	before := s.Snapshot()

	err := s.Apply(Edit{Index: 5, Axis: fit.AxisY, Value: 1})
	assert.ErrorIs(t, err, fit.ErrInvalidIndex)

	err = s.Apply(Delete{Index: -1})
	assert.ErrorIs(t, err, fit.ErrInvalidIndex)

	err = s.Apply(Replace{})
	assert.ErrorIs(t, err, fit.ErrInsufficientPoints)

	assert.Equal(t, before, s.Snapshot())
}

func TestApply_EditResortsAndRefits(t *testing.T) {
	s := newSession(t, fit.MethodConfig{Method: fit.LagrangeInterp})
	addAll(t, s, fit.Point{X: 0, Y: 0}, fit.Point{X: 1, Y: 1}, fit.Point{X: 2, Y: 4})

	require.NoError(t, s.Apply(Edit{Index: 0, Axis: fit.AxisX, Value: 3}))
	assert.Equal(t, []fit.Point{{X: 1, Y: 1}, {X: 2, Y: 4}, {X: 3, Y: 0}}, s.Points())

	report, err := s.Report()
	require.NoError(t, err)
	assert.True(t, report.PerfectFit)
}

func TestApply_RepeatedXReportsDegenerateFit(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 1, Y: 1}, fit.Point{X: 1, Y: 2})

	_, err := s.Report()
	assert.ErrorIs(t, err, fit.ErrDegenerateFit)

	v := s.Snapshot()
	require.NotNil(t, v.FitError)
	assert.Equal(t, fit.KindDegenerateFit, v.FitError.Kind)
}

func TestApply_ClearDropsModel(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 0, Y: 1}, fit.Point{X: 1, Y: 3})

	require.NoError(t, s.Apply(Clear{}))
	assert.Empty(t, s.Points())
	report, err := s.Report()
	assert.Nil(t, report)
	assert.ErrorIs(t, err, fit.ErrInsufficientPoints)
}

func TestSetMethod_KeepsRequestedDegree(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 0, Y: 1}, fit.Point{X: 1, Y: 2}, fit.Point{X: 2, Y: 5}, fit.Point{X: 3, Y: 10})

	require.NoError(t, s.SetMethod(fit.MethodConfig{Method: fit.PolynomialInterp, Degree: 5}))

	assert.Equal(t, 5, s.Config().Degree)
	report, err := s.Report()
	require.NoError(t, err)
	assert.Equal(t, 5, report.RequestedDegree)
	assert.Equal(t, 3, report.Degree)
	assert.True(t, report.PerfectFit)
}

func TestSetMethod_RejectsInvalidDegree(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	rev := s.Revision()

	err := s.SetMethod(fit.MethodConfig{Method: fit.PolynomialInterp, Degree: 0})
	assert.ErrorIs(t, err, fit.ErrInvalidDegree)
	assert.Equal(t, fit.DefaultMethodConfig(), s.Config())
	assert.Equal(t, rev, s.Revision())
}

func TestEvaluate_RecordsPointUntilNextChange(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 0, Y: 1}, fit.Point{X: 1, Y: 3})

	y, ok := s.Evaluate(4)
	require.True(t, ok)
	assert.InDelta(t, 9.0, y, 1e-9)

	v := s.Snapshot()
	require.NotNil(t, v.Report)
	require.NotNil(t, v.Report.EvaluationPoint)
	assert.InDelta(t, 4.0, v.Report.EvaluationPoint.X, 1e-12)

	addAll(t, s, fit.Point{X: 2, Y: 5})
	assert.Nil(t, s.Snapshot().Report.EvaluationPoint)
}

func TestEvaluate_WithoutModel(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())

	_, ok := s.Evaluate(1)
	assert.False(t, ok)
}

func TestImport_ReplacesPoints(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 7, Y: 7})

	stats, err := s.Import(strings.NewReader("1,2\nbad\n3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, dataset.ImportStats{Rows: 3, Skipped: 1}, stats)
	assert.Equal(t, []fit.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, s.Points())
}

func TestImport_NoValidRowsKeepsPoints(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 7, Y: 7})
	rev := s.Revision()

	_, err := s.Import(strings.NewReader("bad\nworse\n"))
	assert.True(t, errors.Is(err, dataset.ErrNoValidRows))
	assert.Equal(t, []fit.Point{{X: 7, Y: 7}}, s.Points())
	assert.Equal(t, rev, s.Revision())
}

func TestCurve_SamplesPaddedRange(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	addAll(t, s, fit.Point{X: 0, Y: 1}, fit.Point{X: 10, Y: 21})

	pr, curve := s.Curve(10)
	assert.InDelta(t, -1.0, pr.MinX, 1e-9)
	assert.InDelta(t, 11.0, pr.MaxX, 1e-9)
	require.Len(t, curve, 11)
	assert.InDelta(t, -1.0, curve[0].Y, 1e-9)
}

func TestSnapshot_MarshalsWithoutNaN(t *testing.T) {
	for _, m := range fit.Methods {
		cfg := fit.MethodConfig{Method: m, Degree: 2}
		t.Run(m.String(), func(t *testing.T) {
			s := newSession(t, cfg)
			_, err := json.Marshal(s.Snapshot())
			require.NoError(t, err, "empty session")

			require.NoError(t, s.Apply(Replace{Points: []fit.Point{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 2, Y: 3}}}))
			data, err := json.Marshal(s.Snapshot())
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, "test", decoded["id"])
		})
	}
}

func TestSummarize(t *testing.T) {
	s := newSession(t, fit.DefaultMethodConfig())
	assert.Nil(t, s.Summarize().MSE)

	addAll(t, s, fit.Point{X: 0, Y: 0}, fit.Point{X: 1, Y: 1})
	sum := s.Summarize()
	assert.Equal(t, 2, sum.Points)
	require.NotNil(t, sum.MSE)
	assert.InDelta(t, 0.0, *sum.MSE, 1e-12)
}
