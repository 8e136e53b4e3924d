package fit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	got, err := ParseMethod("  Lagrange ")
	require.NoError(t, err)
	assert.Equal(t, LagrangeInterp, got)

	_, err = ParseMethod("spline")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMethodConfigJSON(t *testing.T) {
	data, err := json.Marshal(MethodConfig{Method: PolynomialInterp, Degree: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"polynomial","degree":4}`, string(data))

	var cfg MethodConfig
	require.NoError(t, json.Unmarshal([]byte(`{"method":"quadratic"}`), &cfg))
	assert.Equal(t, MethodConfig{Method: QuadraticInterp}, cfg)

	assert.Error(t, json.Unmarshal([]byte(`{"method":"cubic"}`), &cfg))
}

func TestRequirementFor(t *testing.T) {
	tests := []struct {
		cfg    MethodConfig
		want   Requirement
		hint   string
		canAdd map[int]bool
	}{
		{MethodConfig{Method: OrdinaryRegression}, Requirement{Min: 2}, "needs at least 2 points", map[int]bool{0: true, 50: true}},
		{MethodConfig{Method: LinearInterp}, Requirement{Min: 2, Max: 2}, "needs exactly 2 points", map[int]bool{1: true, 2: false, 3: false}},
		{MethodConfig{Method: QuadraticInterp}, Requirement{Min: 3, Max: 3}, "needs exactly 3 points", map[int]bool{2: true, 3: false}},
		{MethodConfig{Method: PolynomialInterp, Degree: 4}, Requirement{Min: 5}, "needs at least 5 points", map[int]bool{10: true}},
		{MethodConfig{Method: LagrangeInterp}, Requirement{Min: 2}, "needs at least 2 points", map[int]bool{10: true}},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.String(), func(t *testing.T) {
			req := RequirementFor(tt.cfg)
			assert.Equal(t, tt.want, req)
			assert.Equal(t, tt.hint, req.Hint())
			for n, want := range tt.canAdd {
				assert.Equal(t, want, req.CanAdd(n), "CanAdd(%d)", n)
			}
		})
	}
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "polynomial(degree=3)", MethodConfig{Method: PolynomialInterp, Degree: 3}.String())
	assert.Equal(t, "lagrange", MethodConfig{Method: LagrangeInterp, Degree: 3}.String())
	assert.Equal(t, "Method(9)", Method(9).String())
}
