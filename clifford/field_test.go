package clifford

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/causalml/substrate/tensor"
)

func TestMultiField_VectorRoundTrip(t *testing.T) {
	br := newTestBridge()
	metric := Euclidean(2)
	grid := tensor.Shape{2, 3}
	spacing := []float64{1, 1}

	vectors := []float64{
		1, 0, 0, 1, 1, 1,
		2, -1, 0.5, 0.25, -3, 4,
	}
	field, err := FieldFromVectors(br, metric, grid, spacing, vectors)
	require.NoError(t, err)
	assert.True(t, field.Data().Shape().Equal(tensor.Shape{6, 4, 4}))

	back, err := field.Vectors()
	require.NoError(t, err)
	assert.True(t, back.Shape().Equal(tensor.Shape{6, 2}))
	assert.InDeltaSlice(t, vectors, back.AsFloat64(), 1e-10)
}

func TestMultiField_ValidationErrors(t *testing.T) {
	br := newTestBridge()
	metric := Euclidean(2)

	_, err := FieldFromVectors(br, metric, tensor.Shape{4}, []float64{1, 1}, make([]float64, 8))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch, "spacing rank mismatch")

	_, err = FieldFromVectors(br, metric, tensor.Shape{4}, []float64{1}, make([]float64, 6))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch, "wrong component count")
}

// The pointwise product of fields is the geometric product cell by cell.
func TestMultiField_GeometricProduct(t *testing.T) {
	br := newTestBridge()
	metric := Euclidean(2)
	grid := tensor.Shape{3}
	spacing := []float64{1}

	// Field of e1 at every cell and field of e2 at every cell.
	f1, err := FieldFromVectors(br, metric, grid, spacing, []float64{1, 0, 1, 0, 1, 0})
	require.NoError(t, err)
	f2, err := FieldFromVectors(br, metric, grid, spacing, []float64{0, 1, 0, 1, 0, 1})
	require.NoError(t, err)

	prod, err := f1.GeometricProduct(f2)
	require.NoError(t, err)
	coeffs, err := prod.Coefficients()
	require.NoError(t, err)

	// e1·e2 is the bivector (blade index 3) at every cell.
	data := coeffs.AsFloat64()
	n := metric.NumBlades()
	for cell := 0; cell < 3; cell++ {
		for blade := 0; blade < n; blade++ {
			want := 0.0
			if blade == 3 {
				want = 1
			}
			assert.InDeltaf(t, want, data[cell*n+blade], 1e-10, "cell %d blade %d", cell, blade)
		}
	}

	// And e1·e1 collapses to the scalar 1.
	sq, err := f1.GeometricProduct(f1)
	require.NoError(t, err)
	sqCoeffs, err := sq.Coefficients()
	require.NoError(t, err)
	sqData := sqCoeffs.AsFloat64()
	for cell := 0; cell < 3; cell++ {
		assert.InDelta(t, 1.0, sqData[cell*n], 1e-10)
	}
}

func TestMultiField_ProductMismatches(t *testing.T) {
	br := newTestBridge()
	a, err := FieldFromVectors(br, Euclidean(2), tensor.Shape{2}, []float64{1}, make([]float64, 4))
	require.NoError(t, err)
	b, err := FieldFromVectors(br, Minkowski(2), tensor.Shape{2}, []float64{1}, make([]float64, 4))
	require.NoError(t, err)
	_, err = a.GeometricProduct(b)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	c, err := FieldFromVectors(br, Euclidean(2), tensor.Shape{3}, []float64{1}, make([]float64, 6))
	require.NoError(t, err)
	_, err = a.GeometricProduct(c)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

// Central differences of a sampled sinusoid have the exact discrete
// derivative cos(θ)·sin(Δθ)/dx, so the stencil can be checked without a
// discretization-error tolerance.
func TestMultiField_DerivativePeriodic(t *testing.T) {
	br := newTestBridge()
	metric := Euclidean(2)
	const cells = 8
	grid := tensor.Shape{cells}
	dx := 0.5
	spacing := []float64{dx}

	vectors := make([]float64, cells*2)
	for i := 0; i < cells; i++ {
		vectors[i*2] = math.Sin(2 * math.Pi * float64(i) / cells)
	}
	field, err := FieldFromVectors(br, metric, grid, spacing, vectors)
	require.NoError(t, err)

	deriv, err := field.Derivative(0)
	require.NoError(t, err)
	back, err := deriv.Vectors()
	require.NoError(t, err)

	data := back.AsFloat64()
	factor := math.Sin(2*math.Pi/cells) / dx
	for i := 0; i < cells; i++ {
		want := math.Cos(2*math.Pi*float64(i)/cells) * factor
		assert.InDeltaf(t, want, data[i*2], 1e-9, "cell %d", i)
		assert.InDeltaf(t, 0, data[i*2+1], 1e-9, "cell %d second component", i)
	}
}

func TestMultiField_DerivativeOfConstantIsZero(t *testing.T) {
	br := newTestBridge()
	metric := Euclidean(2)
	grid := tensor.Shape{4, 4}
	spacing := []float64{1, 1}

	vectors := make([]float64, 16*2)
	for i := range vectors {
		vectors[i] = 2.5
	}
	field, err := FieldFromVectors(br, metric, grid, spacing, vectors)
	require.NoError(t, err)

	for axis := 0; axis < 2; axis++ {
		deriv, err := field.Derivative(axis)
		require.NoError(t, err)
		back, err := deriv.Vectors()
		require.NoError(t, err)
		for i, v := range back.AsFloat64() {
			assert.InDeltaf(t, 0, v, 1e-10, "axis %d component %d", axis, i)
		}
	}
}

func TestMultiField_DerivativeAxisOutOfBounds(t *testing.T) {
	br := newTestBridge()
	field, err := FieldFromVectors(br, Euclidean(2), tensor.Shape{4}, []float64{1}, make([]float64, 8))
	require.NoError(t, err)
	_, err = field.Derivative(1)
	assert.ErrorIs(t, err, tensor.ErrIndexOutOfBounds)
}

func TestMultiField_SingleCellDerivative(t *testing.T) {
	br := newTestBridge()
	field, err := FieldFromVectors(br, Euclidean(2), tensor.Shape{1}, []float64{1}, []float64{3, 4})
	require.NoError(t, err)
	deriv, err := field.Derivative(0)
	require.NoError(t, err)
	back, err := deriv.Vectors()
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0}, back.AsFloat64(), 0)
}

func TestMultiField_Accessors(t *testing.T) {
	br := newTestBridge()
	grid := tensor.Shape{2, 2}
	spacing := []float64{0.5, 0.25}
	field, err := FieldFromVectors(br, Euclidean(2), grid, spacing, make([]float64, 8))
	require.NoError(t, err)

	assert.Equal(t, Euclidean(2), field.Metric())
	assert.True(t, field.GridShape().Equal(grid))
	assert.Equal(t, spacing, field.Spacing())

	// Returned slices are copies.
	field.Spacing()[0] = 99
	assert.Equal(t, 0.5, field.Spacing()[0])
}
