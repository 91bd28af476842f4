// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensor operations in the
// substrate numeric layer.
//
// The package defines core interfaces and types for type-safe tensor
// operations:
//   - Tensor[T, B]: high-level generic tensor with type safety
//   - RawTensor: low-level tensor for backend implementations
//   - Backend: the contract every compute backend implements
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := reference.New()
//	x := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float64](tensor.Shape{2, 3}, backend)
//	z, err := x.Add(y) // Element-wise addition
package tensor

import (
	"github.com/causalml/substrate/internal/tensor"
)

// DType is a constraint for tensor scalar types.
// Supported types: float32, float64, complex64, complex128.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32    DataType = tensor.Float32
	Float64    DataType = tensor.Float64
	Complex64  DataType = tensor.Complex64
	Complex128 DataType = tensor.Complex128
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	Host   Device = tensor.Host
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation used by backends.
type RawTensor = tensor.RawTensor

// Tensor is a generic type-safe tensor.
//
// T is the scalar type; B is the backend implementation. Both are fixed at
// construction: no implicit mixed precision, no hidden backend switches.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Sentinel errors; match with errors.Is.
var (
	ErrShapeMismatch         = tensor.ErrShapeMismatch
	ErrIndexOutOfBounds      = tensor.ErrIndexOutOfBounds
	ErrSingularMatrix        = tensor.ErrSingularMatrix
	ErrNotSymmetric          = tensor.ErrNotSymmetric
	ErrUnsupportedScalarType = tensor.ErrUnsupportedScalarType
	ErrEigenFailed           = tensor.ErrEigenFailed
	ErrResourceExhausted     = tensor.ErrResourceExhausted
)

// Creation functions

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Eye creates a 2D identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	return tensor.Eye[T, B](n, b)
}

// Randn creates a tensor filled with standard normal samples.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// FromSlice creates a tensor from a Go slice; this is the contract's
// create operation. Fails with ErrShapeMismatch when the element count
// does not match the shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New creates a tensor from a raw tensor.
//
// This is a low-level function; most users should use the creation
// functions above.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates a new raw tensor with the given shape, dtype, and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// BroadcastShapes computes the broadcast shape for two shapes following
// NumPy broadcasting rules.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
