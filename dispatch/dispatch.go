// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dispatch routes tensor operations between the reference backend
// and an optional accelerated backend.
//
// Routing is a pure function of operand metadata (scalar type, matrix
// dimension, batch size) so that the chosen backend is reproducible across
// runs and across processes. Per-call measurement or adaptive feedback is
// deliberately absent: numerical experiments must not change behavior
// based on machine load.
//
// Example:
//
//	ref := reference.New()
//	var engine *dispatch.Engine
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    engine = dispatch.New(ref, gpu)
//	} else {
//	    engine = dispatch.New(ref, nil)
//	}
//	x := tensor.Randn[float32](tensor.Shape{512, 512}, engine)
package dispatch

import (
	"fmt"

	"github.com/causalml/substrate/tensor"
)

// Thresholds above which acceleration pays for its transfer overhead.
// Values were chosen from matmul crossover measurements on discrete GPUs;
// below them the host reference backend wins on latency.
const (
	// DimensionThreshold is the matrix dimension at or above which a
	// single matrix operation is routed to the accelerated backend.
	DimensionThreshold = 64

	// BatchThreshold is the element or batch count at or above which a
	// batched operation is routed to the accelerated backend even when
	// each matrix is small.
	BatchThreshold = 256
)

// ShouldAccelerate reports whether an operation with the given matrix
// dimension and batch size should run on the accelerated backend.
//
// The decision depends only on its arguments. For elementwise operations
// matrixDim is 0 and batch is the element count.
func ShouldAccelerate(matrixDim, batch int) bool {
	return matrixDim >= DimensionThreshold || batch >= BatchThreshold
}

// Engine is a tensor.Backend that routes each operation to the reference
// backend or the accelerated backend according to ShouldAccelerate.
//
// Two overrides take precedence over the thresholds:
//   - no accelerated backend is configured: everything runs on reference
//   - the accelerated backend does not support the operand's scalar type:
//     the operation falls back to reference instead of erroring
//
// Structural operations (reshape, transpose, slice, concat, reductions)
// and host-factored linear algebra (inverse, eig) always run on the
// reference backend; they are memory-bound and have no device kernels.
type Engine struct {
	ref   tensor.Backend
	accel tensor.Backend

	dimThreshold   int
	batchThreshold int
}

// Compile-time check that Engine implements tensor.Backend.
var _ tensor.Backend = (*Engine)(nil)

// New creates a dispatch engine with the default thresholds. ref must be
// non-nil; accel may be nil, in which case every operation runs on ref.
func New(ref, accel tensor.Backend) *Engine {
	return NewWithThresholds(ref, accel, DimensionThreshold, BatchThreshold)
}

// NewWithThresholds creates a dispatch engine with explicit thresholds,
// normally sourced from configuration.
func NewWithThresholds(ref, accel tensor.Backend, dimThreshold, batchThreshold int) *Engine {
	if ref == nil {
		panic("dispatch: reference backend must not be nil")
	}
	return &Engine{
		ref:            ref,
		accel:          accel,
		dimThreshold:   dimThreshold,
		batchThreshold: batchThreshold,
	}
}

// Reference returns the reference backend.
func (e *Engine) Reference() tensor.Backend { return e.ref }

// Accelerated returns the accelerated backend, or nil if none is
// configured.
func (e *Engine) Accelerated() tensor.Backend { return e.accel }

// Pick returns the backend that an operation with the given scalar type,
// matrix dimension and batch size routes to. Exposed so callers can
// pre-place data with Upload on the backend that will run their workload.
func (e *Engine) Pick(dtype tensor.DataType, matrixDim, batch int) tensor.Backend {
	if e.accel == nil || !e.accel.Supports(dtype) {
		return e.ref
	}
	if matrixDim >= e.dimThreshold || batch >= e.batchThreshold {
		return e.accel
	}
	return e.ref
}

func (e *Engine) pickElementwise(x *tensor.RawTensor) tensor.Backend {
	return e.Pick(x.DType(), 0, x.Shape().NumElements())
}

// pickMatrix routes by the trailing matrix dimensions and the leading
// batch product of x.
func (e *Engine) pickMatrix(x *tensor.RawTensor) tensor.Backend {
	shape := x.Shape()
	if len(shape) < 2 {
		return e.ref
	}
	dim := shape[len(shape)-1]
	if d := shape[len(shape)-2]; d > dim {
		dim = d
	}
	batch := 1
	for _, d := range shape[:len(shape)-2] {
		batch *= d
	}
	return e.Pick(x.DType(), dim, batch)
}

// Add routes element-wise addition.
func (e *Engine) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.pickElementwise(a).Add(a, b)
}

// Sub routes element-wise subtraction.
func (e *Engine) Sub(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.pickElementwise(a).Sub(a, b)
}

// Mul routes element-wise multiplication.
func (e *Engine) Mul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.pickElementwise(a).Mul(a, b)
}

// Div routes element-wise division.
func (e *Engine) Div(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.pickElementwise(a).Div(a, b)
}

// AddScalar routes scalar addition.
func (e *Engine) AddScalar(x *tensor.RawTensor, scalar any) (*tensor.RawTensor, error) {
	return e.pickElementwise(x).AddScalar(x, scalar)
}

// MulScalar routes scalar multiplication.
func (e *Engine) MulScalar(x *tensor.RawTensor, scalar any) (*tensor.RawTensor, error) {
	return e.pickElementwise(x).MulScalar(x, scalar)
}

// MatMul routes batched matrix multiplication by the left operand's
// matrix dimension and batch size.
func (e *Engine) MatMul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.pickMatrix(a).MatMul(a, b)
}

// Pow routes matrix power.
func (e *Engine) Pow(x *tensor.RawTensor, k int) (*tensor.RawTensor, error) {
	return e.pickMatrix(x).Pow(x, k)
}

// Reshape runs on the reference backend.
func (e *Engine) Reshape(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	return e.ref.Reshape(x, shape)
}

// Transpose runs on the reference backend.
func (e *Engine) Transpose(x *tensor.RawTensor, axes ...int) (*tensor.RawTensor, error) {
	return e.ref.Transpose(x, axes...)
}

// Slice runs on the reference backend.
func (e *Engine) Slice(x *tensor.RawTensor, axis, start, end int) (*tensor.RawTensor, error) {
	return e.ref.Slice(x, axis, start, end)
}

// Concat runs on the reference backend.
func (e *Engine) Concat(xs []*tensor.RawTensor, axis int) (*tensor.RawTensor, error) {
	return e.ref.Concat(xs, axis)
}

// Sum runs on the reference backend.
func (e *Engine) Sum(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.ref.Sum(x)
}

// SumAxis runs on the reference backend.
func (e *Engine) SumAxis(x *tensor.RawTensor, axis int, keepDim bool) (*tensor.RawTensor, error) {
	return e.ref.SumAxis(x, axis, keepDim)
}

// Inverse runs on the reference backend.
func (e *Engine) Inverse(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return e.ref.Inverse(x)
}

// Eig runs on the reference backend.
func (e *Engine) Eig(x *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor, error) {
	return e.ref.Eig(x)
}

// Upload places data on the accelerated backend when one is configured
// and supports the scalar type; otherwise it is a host-side copy.
func (e *Engine) Upload(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if e.accel != nil && e.accel.Supports(x.DType()) {
		return e.accel.Upload(x)
	}
	return e.ref.Upload(x)
}

// Download materializes device results back into host memory.
func (e *Engine) Download(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if x.Device() != tensor.Host && e.accel != nil {
		return e.accel.Download(x)
	}
	return e.ref.Download(x)
}

// Supports reports whether at least the reference backend can execute the
// scalar type. The reference backend supports every contract dtype, so
// this is always true for valid dtypes.
func (e *Engine) Supports(dtype tensor.DataType) bool {
	return e.ref.Supports(dtype)
}

// Name identifies the engine and its configured backends.
func (e *Engine) Name() string {
	if e.accel == nil {
		return fmt.Sprintf("Dispatch(%s)", e.ref.Name())
	}
	return fmt.Sprintf("Dispatch(%s, %s)", e.ref.Name(), e.accel.Name())
}

// Device reports Host: engine results are always safe to read from host
// code after Download.
func (e *Engine) Device() tensor.Device { return tensor.Host }
