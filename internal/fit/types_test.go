package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSorted(t *testing.T, ps *PointSet) {
	t.Helper()
	pts := ps.Points()
	for i := 1; i < len(pts); i++ {
		assert.LessOrEqual(t, pts[i-1].X, pts[i].X, "points %d and %d out of order: %v", i-1, i, pts)
	}
}

func TestPointSetAddRoundsAndSorts(t *testing.T) {
	ps := NewPointSet()
	require.NoError(t, ps.Add(3.14159, 2.71828))
	require.NoError(t, ps.Add(-1.005, 0.499))
	require.NoError(t, ps.Add(1, 1))

	assert.Equal(t, []Point{{X: -1, Y: 0.5}, {X: 1, Y: 1}, {X: 3.14, Y: 2.72}}, ps.Points())
	assert.Equal(t, 3, ps.Len())
}

func TestPointSetAddRejectsNonFinite(t *testing.T) {
	ps := NewPointSet()
	err := ps.Add(math.NaN(), 1)
	assert.ErrorIs(t, err, ErrInvalidPoint)
	err = ps.Add(1, math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidPoint)
	assert.Zero(t, ps.Len())
}

func TestPointSetKeepsDuplicatesInInsertionOrder(t *testing.T) {
	ps := NewPointSet()
	require.NoError(t, ps.Add(2, 3))
	require.NoError(t, ps.Add(1, 0))
	require.NoError(t, ps.Add(2, 7))

	assert.Equal(t, []Point{{X: 1, Y: 0}, {X: 2, Y: 3}, {X: 2, Y: 7}}, ps.Points())
}

func TestPointSetEdit(t *testing.T) {
	tests := []struct {
		name  string
		index int
		axis  Axis
		value float64
		want  []Point
		err   error
	}{
		{
			name:  "y in place",
			index: 1, axis: AxisY, value: 9.876,
			want: []Point{{X: 0, Y: 0}, {X: 1, Y: 9.876}, {X: 2, Y: 4}},
		},
		{
			name:  "x moves point",
			index: 0, axis: AxisX, value: 5,
			want: []Point{{X: 1, Y: 1}, {X: 2, Y: 4}, {X: 5, Y: 0}},
		},
		{
			name:  "stale index",
			index: 3, axis: AxisX, value: 5,
			want: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 4}},
			err:  ErrInvalidIndex,
		},
		{
			name:  "negative index",
			index: -1, axis: AxisY, value: 5,
			want: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 4}},
			err:  ErrInvalidIndex,
		},
		{
			name:  "unknown axis",
			index: 0, axis: Axis("z"), value: 5,
			want: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 4}},
			err:  ErrInvalidPoint,
		},
		{
			name:  "NaN value",
			index: 0, axis: AxisX, value: math.NaN(),
			want: []Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 4}},
			err:  ErrInvalidPoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := NewPointSet()
			require.NoError(t, ps.ReplaceAll([]Point{{2, 4}, {0, 0}, {1, 1}}))

			err := ps.Edit(tt.index, tt.axis, tt.value)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, ps.Points())
			assertSorted(t, ps)
		})
	}
}

func TestPointSetDelete(t *testing.T) {
	ps := NewPointSet()
	require.NoError(t, ps.ReplaceAll([]Point{{0, 0}, {1, 1}, {2, 4}}))

	require.NoError(t, ps.Delete(1))
	assert.Equal(t, []Point{{0, 0}, {2, 4}}, ps.Points())

	assert.ErrorIs(t, ps.Delete(2), ErrInvalidIndex)
	assert.ErrorIs(t, ps.Delete(-1), ErrInvalidIndex)
	assert.Equal(t, 2, ps.Len())
}

func TestPointSetReplaceAll(t *testing.T) {
	ps := NewPointSet()
	require.NoError(t, ps.Add(1, 1))

	// Imported values are not rounded.
	require.NoError(t, ps.ReplaceAll([]Point{{X: 3.14159, Y: 1}, {X: -2.5, Y: 0.001}}))
	assert.Equal(t, []Point{{X: -2.5, Y: 0.001}, {X: 3.14159, Y: 1}}, ps.Points())

	// Empty input leaves the set untouched.
	assert.ErrorIs(t, ps.ReplaceAll(nil), ErrInsufficientPoints)
	assert.Equal(t, 2, ps.Len())

	assert.ErrorIs(t, ps.ReplaceAll([]Point{{X: math.Inf(-1), Y: 0}}), ErrInvalidPoint)
	assert.Equal(t, 2, ps.Len())
}

func TestPointSetClear(t *testing.T) {
	ps := NewPointSet()
	require.NoError(t, ps.Add(1, 1))
	ps.Clear()
	assert.Zero(t, ps.Len())
	assert.Empty(t, ps.Points())
}

func TestPointSetPointsIsCopy(t *testing.T) {
	ps := NewPointSet()
	require.NoError(t, ps.Add(1, 1))

	pts := ps.Points()
	pts[0].X = 100

	assert.Equal(t, 1.0, ps.Points()[0].X)
}

func TestPointSetSortedAfterMixedMutations(t *testing.T) {
	ps := NewPointSet()
	for i, x := range []float64{5, -3, 8, 0, 2.5, 8, -7} {
		require.NoError(t, ps.Add(x, float64(i)))
		assertSorted(t, ps)
	}
	require.NoError(t, ps.Edit(0, AxisX, 100))
	assertSorted(t, ps)
	require.NoError(t, ps.Edit(6, AxisX, -100))
	assertSorted(t, ps)
	require.NoError(t, ps.Delete(3))
	assertSorted(t, ps)
}
