// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package clifford

import (
	"fmt"

	"github.com/causalml/substrate/tensor"
)

// MultiField is a multivector field over a regular grid, stored in matrix
// representation: one matrixDim×matrixDim matrix per grid cell.
//
// Keeping the matrix form resident means the geometric product of two
// fields is a single batched matmul and derivatives are tensor stencils,
// so whole-field operations stay on the backend without per-cell
// host round trips.
type MultiField struct {
	data    *tensor.RawTensor // [cells, m, m]
	metric  Metric
	grid    tensor.Shape
	spacing []float64
	bridge  *Bridge
}

// FieldFromVectors builds a grade-1 field from per-cell vector
// components.
//
// vectors holds metric.Dim() components per cell in row-major grid order,
// so len(vectors) must equal prod(grid)·metric.Dim(). spacing gives the
// physical step per grid axis and must match the grid rank.
func FieldFromVectors[T tensor.DType](br *Bridge, metric Metric, grid tensor.Shape, spacing []float64, vectors []T) (*MultiField, error) {
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("clifford: field: %w", err)
	}
	if len(spacing) != len(grid) {
		return nil, fmt.Errorf("clifford: field: %w: %d spacing entries for %dD grid",
			tensor.ErrShapeMismatch, len(spacing), len(grid))
	}
	cells := grid.NumElements()
	dim := metric.Dim()
	if len(vectors) != cells*dim {
		return nil, fmt.Errorf("clifford: field: %w: grid %v with %s needs %d components, got %d",
			tensor.ErrShapeMismatch, grid, metric, cells*dim, len(vectors))
	}

	numBlades := metric.NumBlades()
	coeffs := make([]T, cells*numBlades)
	for c := 0; c < cells; c++ {
		for i := 0; i < dim; i++ {
			coeffs[c*numBlades+(1<<i)] = vectors[c*dim+i]
		}
	}

	t, err := tensor.FromSlice[T, tensor.Backend](coeffs, tensor.Shape{cells, numBlades}, br.backend)
	if err != nil {
		return nil, err
	}
	data, err := br.ToMatrix(t.Raw(), metric)
	if err != nil {
		return nil, err
	}
	return &MultiField{
		data:    data,
		metric:  metric,
		grid:    grid.Clone(),
		spacing: append([]float64(nil), spacing...),
		bridge:  br,
	}, nil
}

// Data returns the field's matrix-representation tensor [cells, m, m].
func (f *MultiField) Data() *tensor.RawTensor { return f.data }

// Metric returns the field's algebra.
func (f *MultiField) Metric() Metric { return f.metric }

// GridShape returns the grid dimensions.
func (f *MultiField) GridShape() tensor.Shape { return f.grid.Clone() }

// Spacing returns the physical step per grid axis.
func (f *MultiField) Spacing() []float64 { return append([]float64(nil), f.spacing...) }

// GeometricProduct computes the pointwise geometric product of two fields
// as one batched matrix multiplication.
func (f *MultiField) GeometricProduct(other *MultiField) (*MultiField, error) {
	if f.metric != other.metric {
		return nil, fmt.Errorf("clifford: field product: %w: metrics %s and %s differ",
			tensor.ErrShapeMismatch, f.metric, other.metric)
	}
	if !f.grid.Equal(other.grid) {
		return nil, fmt.Errorf("clifford: field product: %w: grids %v and %v differ",
			tensor.ErrShapeMismatch, f.grid, other.grid)
	}
	data, err := f.bridge.backend.MatMul(f.data, other.data)
	if err != nil {
		return nil, err
	}
	return f.withData(data), nil
}

// Derivative computes the central-difference derivative along a grid
// axis with periodic (wrap-around) boundary:
//
//	∂f/∂x ≈ (f(x+dx) − f(x−dx)) / (2·dx)
//
// The shifted fields come from slice+concat rotations, so the stencil is
// three backend operations regardless of grid size.
func (f *MultiField) Derivative(axis int) (*MultiField, error) {
	if axis < 0 || axis >= len(f.grid) {
		return nil, fmt.Errorf("clifford: derivative: %w: axis %d for %dD grid",
			tensor.ErrIndexOutOfBounds, axis, len(f.grid))
	}
	b := f.bridge.backend
	size := f.grid[axis]
	if size == 1 {
		// A single cell wraps onto itself; the derivative is zero.
		zero, err := b.Sub(f.data, f.data)
		if err != nil {
			return nil, err
		}
		return f.withData(zero), nil
	}

	mDim := f.metric.MatrixDim()
	gridded, err := b.Reshape(f.data, append(f.grid.Clone(), mDim, mDim))
	if err != nil {
		return nil, err
	}
	next, err := rotate(b, gridded, axis, 1)
	if err != nil {
		return nil, err
	}
	prev, err := rotate(b, gridded, axis, size-1)
	if err != nil {
		return nil, err
	}
	diff, err := b.Sub(next, prev)
	if err != nil {
		return nil, err
	}
	scaled, err := b.MulScalar(diff, 1.0/(2.0*f.spacing[axis]))
	if err != nil {
		return nil, err
	}
	data, err := b.Reshape(scaled, f.data.Shape())
	if err != nil {
		return nil, err
	}
	return f.withData(data), nil
}

// Coefficients projects the field back onto blade coefficients,
// returning a tensor of shape [cells, numBlades].
func (f *MultiField) Coefficients() (*tensor.RawTensor, error) {
	return f.bridge.FromMatrix(f.data, f.metric)
}

// Vectors extracts the grade-1 components per cell as a [cells, dim]
// tensor, the inverse of FieldFromVectors for pure vector fields.
func (f *MultiField) Vectors() (*tensor.RawTensor, error) {
	coeffs, err := f.Coefficients()
	if err != nil {
		return nil, err
	}
	b := f.bridge.backend
	cols := make([]*tensor.RawTensor, f.metric.Dim())
	for i := range cols {
		blade := 1 << i
		if cols[i], err = b.Slice(coeffs, 1, blade, blade+1); err != nil {
			return nil, err
		}
	}
	return b.Concat(cols, 1)
}

func (f *MultiField) withData(data *tensor.RawTensor) *MultiField {
	return &MultiField{
		data:    data,
		metric:  f.metric,
		grid:    f.grid,
		spacing: f.spacing,
		bridge:  f.bridge,
	}
}

// rotate shifts a tensor circularly along axis so that index i of the
// result reads index (i+by) mod size of the input.
func rotate(b tensor.Backend, x *tensor.RawTensor, axis, by int) (*tensor.RawTensor, error) {
	size := x.Shape()[axis]
	by %= size
	if by == 0 {
		return x, nil
	}
	head, err := b.Slice(x, axis, by, size)
	if err != nil {
		return nil, err
	}
	tail, err := b.Slice(x, axis, 0, by)
	if err != nil {
		return nil, err
	}
	return b.Concat([]*tensor.RawTensor{head, tail}, axis)
}
