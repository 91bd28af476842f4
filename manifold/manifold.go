// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package manifold provides metric-tensor fields over regular grids and
// the connection coefficients derived from them.
//
// A MetricField stores one n×n metric tensor per grid cell; a View binds
// the field to a backend and computes Christoffel symbols with the same
// periodic central-difference stencil the clifford field layer uses.
package manifold

import (
	"fmt"

	"github.com/causalml/substrate/tensor"
)

// MetricField is a field of symmetric metric tensors g_{μν} over a
// regular grid. The grid rank must equal the metric dimension so every
// tensor index has a matching derivative direction.
type MetricField struct {
	data    *tensor.RawTensor // [cells, n, n]
	grid    tensor.Shape
	spacing []float64
}

// NewMetricField wraps a [cells, n, n] tensor as a metric field.
func NewMetricField(data *tensor.RawTensor, grid tensor.Shape, spacing []float64) (*MetricField, error) {
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("manifold: %w", err)
	}
	shape := data.Shape()
	if len(shape) != 3 || shape[1] != shape[2] {
		return nil, fmt.Errorf("manifold: %w: metric field must be [cells, n, n], got %v",
			tensor.ErrShapeMismatch, shape)
	}
	if shape[0] != grid.NumElements() {
		return nil, fmt.Errorf("manifold: %w: %d cells for grid %v",
			tensor.ErrShapeMismatch, shape[0], grid)
	}
	if len(spacing) != len(grid) {
		return nil, fmt.Errorf("manifold: %w: %d spacing entries for %dD grid",
			tensor.ErrShapeMismatch, len(spacing), len(grid))
	}
	if shape[1] != len(grid) {
		return nil, fmt.Errorf("manifold: %w: metric dimension %d must equal grid rank %d",
			tensor.ErrShapeMismatch, shape[1], len(grid))
	}
	return &MetricField{data: data, grid: grid.Clone(), spacing: append([]float64(nil), spacing...)}, nil
}

// Flat builds the flat (identity) metric field over a grid.
func Flat(grid tensor.Shape, spacing []float64, dtype tensor.DataType) (*MetricField, error) {
	if err := grid.Validate(); err != nil {
		return nil, fmt.Errorf("manifold: %w", err)
	}
	n := len(grid)
	cells := grid.NumElements()
	data, err := tensor.NewRaw(tensor.Shape{cells, n, n}, dtype, tensor.Host)
	if err != nil {
		return nil, err
	}
	for c := 0; c < cells; c++ {
		for i := 0; i < n; i++ {
			storeOne(data, c*n*n+i*n+i)
		}
	}
	return NewMetricField(data, grid, spacing)
}

func storeOne(t *tensor.RawTensor, idx int) {
	switch t.DType() {
	case tensor.Float32:
		t.AsFloat32()[idx] = 1
	case tensor.Float64:
		t.AsFloat64()[idx] = 1
	case tensor.Complex64:
		t.AsComplex64()[idx] = 1
	case tensor.Complex128:
		t.AsComplex128()[idx] = 1
	}
}

// Data returns the underlying [cells, n, n] tensor.
func (f *MetricField) Data() *tensor.RawTensor { return f.data }

// GridShape returns the grid dimensions.
func (f *MetricField) GridShape() tensor.Shape { return f.grid.Clone() }

// Spacing returns the physical step per grid axis.
func (f *MetricField) Spacing() []float64 { return append([]float64(nil), f.spacing...) }

// Dim returns the metric dimension n.
func (f *MetricField) Dim() int { return f.data.Shape()[1] }

// View binds a metric field to a backend for derived computations.
type View struct {
	field   *MetricField
	backend tensor.Backend
}

// NewView creates a view of a metric field on the given backend.
func NewView(f *MetricField, backend tensor.Backend) *View {
	return &View{field: f, backend: backend}
}

// Field returns the underlying metric field.
func (v *View) Field() *MetricField { return v.field }

// ComputeChristoffel computes the Christoffel symbols of the second kind
// per cell:
//
//	Γ^λ_{μν} = ½ g^{λσ} (∂_μ g_{σν} + ∂_ν g_{σμ} − ∂_σ g_{μν})
//
// Partial derivatives use the periodic central-difference stencil; the
// contraction over σ is one batched matmul against the inverse metric.
// The result has shape [cells, n, n, n] indexed [cell, λ, μ, ν]. A flat
// metric yields all zeros.
func (v *View) ComputeChristoffel() (*tensor.RawTensor, error) {
	b := v.backend
	f := v.field
	n := f.Dim()
	cells := f.grid.NumElements()

	ginv, err := b.Inverse(f.data)
	if err != nil {
		return nil, fmt.Errorf("manifold: christoffel: %w", err)
	}

	// Stack ∂_a g over the derivative directions: D[cell, a, σ, ν].
	gridded, err := b.Reshape(f.data, append(f.grid.Clone(), n, n))
	if err != nil {
		return nil, err
	}
	parts := make([]*tensor.RawTensor, n)
	for a := 0; a < n; a++ {
		da, err := v.partial(gridded, a)
		if err != nil {
			return nil, err
		}
		if parts[a], err = b.Reshape(da, tensor.Shape{cells, 1, n, n}); err != nil {
			return nil, err
		}
	}
	derivs, err := b.Concat(parts, 1)
	if err != nil {
		return nil, err
	}

	// Arrange the three terms with index order [cell, σ, μ, ν].
	dMu, err := b.Transpose(derivs, 0, 2, 1, 3) // ∂_μ g_{σν}
	if err != nil {
		return nil, err
	}
	dNu, err := b.Transpose(derivs, 0, 2, 3, 1) // ∂_ν g_{σμ}
	if err != nil {
		return nil, err
	}
	sum, err := b.Add(dMu, dNu)
	if err != nil {
		return nil, err
	}
	term, err := b.Sub(sum, derivs) // − ∂_σ g_{μν}
	if err != nil {
		return nil, err
	}

	// Contract with g^{λσ} over σ.
	flat, err := b.Reshape(term, tensor.Shape{cells, n, n * n})
	if err != nil {
		return nil, err
	}
	contracted, err := b.MatMul(ginv, flat)
	if err != nil {
		return nil, err
	}
	halved, err := b.MulScalar(contracted, 0.5)
	if err != nil {
		return nil, err
	}
	return b.Reshape(halved, tensor.Shape{cells, n, n, n})
}

// partial computes the periodic central-difference derivative of the
// grid-shaped metric along grid axis a.
func (v *View) partial(gridded *tensor.RawTensor, a int) (*tensor.RawTensor, error) {
	b := v.backend
	size := v.field.grid[a]
	if size == 1 {
		return b.Sub(gridded, gridded)
	}
	next, err := rotate(b, gridded, a, 1)
	if err != nil {
		return nil, err
	}
	prev, err := rotate(b, gridded, a, size-1)
	if err != nil {
		return nil, err
	}
	diff, err := b.Sub(next, prev)
	if err != nil {
		return nil, err
	}
	return b.MulScalar(diff, 1.0/(2.0*v.field.spacing[a]))
}

// rotate shifts a tensor circularly along axis so index i of the result
// reads index (i+by) mod size of the input.
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
