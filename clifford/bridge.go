// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package clifford

import (
	"fmt"

	"github.com/causalml/substrate/tensor"
)

// Bridge converts between blade-coefficient tensors and their faithful
// matrix representation, using one backend matmul in each direction.
//
// ToMatrix multiplies the coefficient row against the flattened Gamma
// table; FromMatrix projects back through the trace inner product, which
// is again a single matmul against the transposed table. The isomorphism
// means matrix multiplication of images equals the geometric product of
// preimages, which is how the field layer computes products in bulk.
type Bridge struct {
	cache   *Cache
	backend tensor.Backend
}

// NewBridge creates a bridge over the given Gamma cache and backend.
func NewBridge(cache *Cache, backend tensor.Backend) *Bridge {
	return &Bridge{cache: cache, backend: backend}
}

// Backend returns the backend the bridge executes on.
func (br *Bridge) Backend() tensor.Backend { return br.backend }

// ToMatrix maps blade coefficients into matrix representation.
//
// coeffs has shape [..., numBlades]; the result has shape
// [..., matrixDim, matrixDim] with the same leading dimensions.
func (br *Bridge) ToMatrix(coeffs *tensor.RawTensor, metric Metric) (*tensor.RawTensor, error) {
	numBlades := metric.NumBlades()
	mDim := metric.MatrixDim()

	shape := coeffs.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != numBlades {
		return nil, fmt.Errorf("clifford: to-matrix: %w: trailing dimension of %v must be %d for %s",
			tensor.ErrShapeMismatch, shape, numBlades, metric)
	}
	batch := coeffs.NumElements() / numBlades

	table, err := br.cache.Get(metric, coeffs.DType())
	if err != nil {
		return nil, err
	}
	flat, err := br.backend.Reshape(table, tensor.Shape{numBlades, mDim * mDim})
	if err != nil {
		return nil, err
	}
	rows, err := br.backend.Reshape(coeffs, tensor.Shape{batch, numBlades})
	if err != nil {
		return nil, err
	}
	prod, err := br.backend.MatMul(rows, flat)
	if err != nil {
		return nil, fmt.Errorf("clifford: to-matrix: %w", err)
	}

	outShape := append(shape[:len(shape)-1].Clone(), mDim, mDim)
	return br.backend.Reshape(prod, outShape)
}

// FromMatrix projects a matrix representation back onto blade
// coefficients.
//
// matrix has shape [..., matrixDim, matrixDim]; the result has shape
// [..., numBlades]. The projection is exact for any matrix in the image
// of ToMatrix; for matrices outside the image it yields the closest
// multivector under the trace inner product.
func (br *Bridge) FromMatrix(matrix *tensor.RawTensor, metric Metric) (*tensor.RawTensor, error) {
	numBlades := metric.NumBlades()
	mDim := metric.MatrixDim()

	shape := matrix.Shape()
	if len(shape) < 2 || shape[len(shape)-1] != mDim || shape[len(shape)-2] != mDim {
		return nil, fmt.Errorf("clifford: from-matrix: %w: trailing dimensions of %v must be [%d, %d] for %s",
			tensor.ErrShapeMismatch, shape, mDim, mDim, metric)
	}
	batch := matrix.NumElements() / (mDim * mDim)

	table, err := br.cache.Get(metric, matrix.DType())
	if err != nil {
		return nil, err
	}
	flat, err := br.backend.Reshape(table, tensor.Shape{numBlades, mDim * mDim})
	if err != nil {
		return nil, err
	}
	flatT, err := br.backend.Transpose(flat)
	if err != nil {
		return nil, err
	}
	rows, err := br.backend.Reshape(matrix, tensor.Shape{batch, mDim * mDim})
	if err != nil {
		return nil, err
	}
	prod, err := br.backend.MatMul(rows, flatT)
	if err != nil {
		return nil, fmt.Errorf("clifford: from-matrix: %w", err)
	}
	// Blade matrices have trace norm² = matrixDim under <X,Y> = tr(XᵀY).
	scaled, err := br.backend.MulScalar(prod, 1.0/float64(mDim))
	if err != nil {
		return nil, err
	}

	outShape := append(shape[:len(shape)-2].Clone(), numBlades)
	return br.backend.Reshape(scaled, outShape)
}

// Embed maps a single multivector into its matrix representation.
func Embed[T tensor.DType](br *Bridge, mv *MultiVector[T]) (*tensor.RawTensor, error) {
	coeffs, err := tensor.FromSlice[T, tensor.Backend](
		mv.Coefficients(), tensor.Shape{mv.Metric().NumBlades()}, br.backend)
	if err != nil {
		return nil, err
	}
	return br.ToMatrix(coeffs.Raw(), mv.Metric())
}

// Extract projects a single matrix back into a multivector. The matrix
// is downloaded to host memory first if it lives on a device.
func Extract[T tensor.DType](br *Bridge, matrix *tensor.RawTensor, metric Metric) (*MultiVector[T], error) {
	coeffs, err := br.FromMatrix(matrix, metric)
	if err != nil {
		return nil, err
	}
	host, err := br.backend.Download(coeffs)
	if err != nil {
		return nil, err
	}
	return NewMultiVector[T](metric, tensor.New[T, tensor.Backend](host, br.backend).Data())
}
