// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package clifford

import (
	"fmt"
	"math/bits"

	"github.com/causalml/substrate/tensor"
)

// MultiVector is an element of a Clifford algebra: one coefficient per
// basis blade. Blade index is the bitmask over generating vectors, so
// index 0 is the scalar part, 1<<i is basis vector e_i, and 1<<i|1<<j is
// the bivector e_i e_j (i < j).
//
// MultiVector has value semantics: operations return new instances and
// never mutate their receivers.
type MultiVector[T tensor.DType] struct {
	coeffs []T
	metric Metric
}

// NewMultiVector builds a multivector from a full coefficient slice of
// length metric.NumBlades(). The slice is copied.
func NewMultiVector[T tensor.DType](metric Metric, coeffs []T) (*MultiVector[T], error) {
	if len(coeffs) != metric.NumBlades() {
		return nil, fmt.Errorf("clifford: %w: %s needs %d coefficients, got %d",
			tensor.ErrShapeMismatch, metric, metric.NumBlades(), len(coeffs))
	}
	c := make([]T, len(coeffs))
	copy(c, coeffs)
	return &MultiVector[T]{coeffs: c, metric: metric}, nil
}

// Scalar builds the multivector s·1.
func Scalar[T tensor.DType](metric Metric, s T) *MultiVector[T] {
	c := make([]T, metric.NumBlades())
	c[0] = s
	return &MultiVector[T]{coeffs: c, metric: metric}
}

// Vector builds a grade-1 multivector from basis-vector components.
func Vector[T tensor.DType](metric Metric, components []T) (*MultiVector[T], error) {
	if len(components) != metric.Dim() {
		return nil, fmt.Errorf("clifford: %w: %s needs %d vector components, got %d",
			tensor.ErrShapeMismatch, metric, metric.Dim(), len(components))
	}
	c := make([]T, metric.NumBlades())
	for i, v := range components {
		c[1<<i] = v
	}
	return &MultiVector[T]{coeffs: c, metric: metric}, nil
}

// Metric returns the algebra this multivector belongs to.
func (m *MultiVector[T]) Metric() Metric { return m.metric }

// Coefficients returns a copy of the blade coefficients.
func (m *MultiVector[T]) Coefficients() []T {
	c := make([]T, len(m.coeffs))
	copy(c, m.coeffs)
	return c
}

// Coefficient returns the coefficient of the blade with the given
// bitmask index.
func (m *MultiVector[T]) Coefficient(blade int) T { return m.coeffs[blade] }

// Add returns m + other.
func (m *MultiVector[T]) Add(other *MultiVector[T]) (*MultiVector[T], error) {
	if m.metric != other.metric {
		return nil, fmt.Errorf("clifford: %w: metrics %s and %s differ",
			tensor.ErrShapeMismatch, m.metric, other.metric)
	}
	out := make([]T, len(m.coeffs))
	for i := range out {
		out[i] = m.coeffs[i] + other.coeffs[i]
	}
	return &MultiVector[T]{coeffs: out, metric: m.metric}, nil
}

// Scale returns s·m.
func (m *MultiVector[T]) Scale(s T) *MultiVector[T] {
	out := make([]T, len(m.coeffs))
	for i, c := range m.coeffs {
		out[i] = s * c
	}
	return &MultiVector[T]{coeffs: out, metric: m.metric}
}

// GeometricProduct returns the geometric product m·other computed
// directly on blade coefficients.
//
// For blades a and b the product blade is a XOR b; the sign combines the
// permutation parity of interleaving the two generator sequences with the
// metric signs of the generators they share. This path is independent of
// the matrix representation, which is what makes the homomorphism check
// against the bridge meaningful.
func (m *MultiVector[T]) GeometricProduct(other *MultiVector[T]) (*MultiVector[T], error) {
	if m.metric != other.metric {
		return nil, fmt.Errorf("clifford: %w: metrics %s and %s differ",
			tensor.ErrShapeMismatch, m.metric, other.metric)
	}
	n := m.metric.NumBlades()
	out := make([]T, n)
	for a := 0; a < n; a++ {
		ca := m.coeffs[a]
		if ca == 0 {
			continue
		}
		for b := 0; b < n; b++ {
			cb := other.coeffs[b]
			if cb == 0 {
				continue
			}
			v := ca * cb
			if bladeProductSign(uint(a), uint(b), m.metric) < 0 {
				out[a^b] -= v
			} else {
				out[a^b] += v
			}
		}
	}
	return &MultiVector[T]{coeffs: out, metric: m.metric}, nil
}

// bladeProductSign returns the sign (+1/-1) of the product of blades a
// and b in the given metric.
func bladeProductSign(a, b uint, metric Metric) int {
	s := reorderSign(a, b)
	for i, common := 0, a&b; common != 0; i, common = i+1, common>>1 {
		if common&1 != 0 && metric.Sign(i) < 0 {
			s = -s
		}
	}
	return s
}

// reorderSign counts the generator swaps needed to sort the concatenation
// of blade a's and blade b's generators into canonical order.
func reorderSign(a, b uint) int {
	a >>= 1
	swaps := 0
	for a != 0 {
		swaps += bits.OnesCount(a & b)
		a >>= 1
	}
	if swaps&1 != 0 {
		return -1
	}
	return 1
}
