package clifford

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetric_Constructors(t *testing.T) {
	e3 := Euclidean(3)
	assert.Equal(t, 3, e3.Dim())
	assert.Equal(t, "Cl(+++)", e3.Key())
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, e3.Sign(i))
	}

	m4 := Minkowski(4)
	assert.Equal(t, "Cl(+---)", m4.Key())
	assert.Equal(t, 1, m4.Sign(0))
	assert.Equal(t, -1, m4.Sign(1))
	assert.Equal(t, -1, m4.Sign(3))

	custom, err := NewMetric([]int{-1, 1, -1})
	require.NoError(t, err)
	assert.Equal(t, "Cl(-+-)", custom.Key())

	_, err = NewMetric([]int{1, 0})
	assert.Error(t, err)
	_, err = NewMetric(nil)
	assert.Error(t, err)
}

func TestMetric_DerivedSizes(t *testing.T) {
	cases := []struct {
		metric    Metric
		numBlades int
		matrixDim int
	}{
		{Euclidean(1), 2, 4},
		{Euclidean(2), 4, 4},
		{Euclidean(3), 8, 8},
		{Minkowski(4), 16, 8},
		{Euclidean(5), 32, 16},
	}
	for _, c := range cases {
		assert.Equalf(t, c.numBlades, c.metric.NumBlades(), "%s NumBlades", c.metric)
		assert.Equalf(t, c.matrixDim, c.metric.MatrixDim(), "%s MatrixDim", c.metric)
	}
}

func TestMetric_IsComparable(t *testing.T) {
	assert.Equal(t, Euclidean(3), Euclidean(3))
	assert.NotEqual(t, Euclidean(3), Minkowski(3))

	seen := map[Metric]bool{Euclidean(2): true}
	assert.True(t, seen[Euclidean(2)])
}

func TestMetric_ConstructorPanicsOnZeroDim(t *testing.T) {
	assert.Panics(t, func() { Euclidean(0) })
	assert.Panics(t, func() { Minkowski(0) })
}
