package manifold

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/causalml/substrate/backend/reference"
	"github.com/causalml/substrate/tensor"
)

func TestMetricField_Validation(t *testing.T) {
	grid := tensor.Shape{4, 4}

	ok, err := tensor.NewRaw(tensor.Shape{16, 2, 2}, tensor.Float64, tensor.Host)
	require.NoError(t, err)
	_, err = NewMetricField(ok, grid, []float64{1, 1})
	assert.NoError(t, err)

	t.Run("WrongRank", func(t *testing.T) {
		bad, err := tensor.NewRaw(tensor.Shape{16, 4}, tensor.Float64, tensor.Host)
		require.NoError(t, err)
		_, err = NewMetricField(bad, grid, []float64{1, 1})
		assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	})

	t.Run("CellCountMismatch", func(t *testing.T) {
		bad, err := tensor.NewRaw(tensor.Shape{8, 2, 2}, tensor.Float64, tensor.Host)
		require.NoError(t, err)
		_, err = NewMetricField(bad, grid, []float64{1, 1})
		assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	})

	t.Run("DimGridRankMismatch", func(t *testing.T) {
		bad, err := tensor.NewRaw(tensor.Shape{16, 3, 3}, tensor.Float64, tensor.Host)
		require.NoError(t, err)
		_, err = NewMetricField(bad, grid, []float64{1, 1})
		assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	})

	t.Run("SpacingMismatch", func(t *testing.T) {
		_, err = NewMetricField(ok, grid, []float64{1})
		assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	})
}

func TestFlat(t *testing.T) {
	grid := tensor.Shape{3, 3}
	f, err := Flat(grid, []float64{1, 1}, tensor.Float64)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Dim())

	data := f.Data().AsFloat64()
	for c := 0; c < 9; c++ {
		assert.Equal(t, 1.0, data[c*4])
		assert.Equal(t, 0.0, data[c*4+1])
		assert.Equal(t, 0.0, data[c*4+2])
		assert.Equal(t, 1.0, data[c*4+3])
	}
}

// A flat metric has identically vanishing connection coefficients.
func TestView_FlatChristoffelIsZero(t *testing.T) {
	grid := tensor.Shape{4, 4}
	f, err := Flat(grid, []float64{0.5, 0.25}, tensor.Float64)
	require.NoError(t, err)

	view := NewView(f, reference.NewSequential())
	gamma, err := view.ComputeChristoffel()
	require.NoError(t, err)

	assert.True(t, gamma.Shape().Equal(tensor.Shape{16, 2, 2, 2}))
	for i, v := range gamma.AsFloat64() {
		assert.InDeltaf(t, 0, v, 1e-12, "component %d", i)
	}
}

// A 1D conformal metric g(x) = f(x) has the single Christoffel symbol
// Γ⁰₀₀ = f′ / (2f); with the discrete stencil the expected value uses the
// same central difference, so the comparison is tight.
func TestView_ConformalMetric1D(t *testing.T) {
	const cells = 8
	grid := tensor.Shape{cells}
	dx := 1.0

	f := make([]float64, cells)
	data, err := tensor.NewRaw(tensor.Shape{cells, 1, 1}, tensor.Float64, tensor.Host)
	require.NoError(t, err)
	for i := 0; i < cells; i++ {
		f[i] = 2 + math.Sin(2*math.Pi*float64(i)/cells)
		data.AsFloat64()[i] = f[i]
	}

	field, err := NewMetricField(data, grid, []float64{dx})
	require.NoError(t, err)
	view := NewView(field, reference.NewSequential())

	gamma, err := view.ComputeChristoffel()
	require.NoError(t, err)
	require.True(t, gamma.Shape().Equal(tensor.Shape{cells, 1, 1, 1}))

	got := gamma.AsFloat64()
	for i := 0; i < cells; i++ {
		df := (f[(i+1)%cells] - f[(i+cells-1)%cells]) / (2 * dx)
		want := df / (2 * f[i])
		assert.InDeltaf(t, want, got[i], 1e-12, "cell %d", i)
	}
}

// Christoffel symbols of the second kind are symmetric in the two lower
// indices for any metric derived from central differences.
func TestView_ChristoffelLowerSymmetry(t *testing.T) {
	const side = 4
	grid := tensor.Shape{side, side}
	n := 2

	data, err := tensor.NewRaw(tensor.Shape{side * side, n, n}, tensor.Float64, tensor.Host)
	require.NoError(t, err)
	d := data.AsFloat64()
	for x := 0; x < side; x++ {
		for y := 0; y < side; y++ {
			c := x*side + y
			// Diagonal metric varying smoothly and periodically.
			d[c*4] = 2 + 0.3*math.Sin(2*math.Pi*float64(x)/side)
			d[c*4+3] = 1.5 + 0.2*math.Cos(2*math.Pi*float64(y)/side)
		}
	}

	field, err := NewMetricField(data, grid, []float64{1, 1})
	require.NoError(t, err)
	gamma, err := NewView(field, reference.NewSequential()).ComputeChristoffel()
	require.NoError(t, err)

	g := gamma.AsFloat64()
	cells := side * side
	for c := 0; c < cells; c++ {
		for lam := 0; lam < n; lam++ {
			for mu := 0; mu < n; mu++ {
				for nu := 0; nu < n; nu++ {
					a := g[((c*n+lam)*n+mu)*n+nu]
					b := g[((c*n+lam)*n+nu)*n+mu]
					assert.InDeltaf(t, a, b, 1e-12, "cell %d Γ^%d_{%d%d}", c, lam, mu, nu)
				}
			}
		}
	}
}

func TestMetricField_Accessors(t *testing.T) {
	f, err := Flat(tensor.Shape{2, 2}, []float64{0.1, 0.2}, tensor.Float64)
	require.NoError(t, err)
	assert.True(t, f.GridShape().Equal(tensor.Shape{2, 2}))
	assert.Equal(t, []float64{0.1, 0.2}, f.Spacing())

	f.Spacing()[0] = 99
	assert.Equal(t, 0.1, f.Spacing()[0], "Spacing must return a copy")
}
