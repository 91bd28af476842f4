// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package clifford implements the matrix isomorphism bridge for Clifford
// algebras: multivectors, their faithful real matrix representation via
// cached Gamma basis tables, and multivector fields over regular grids.
//
// The bridge turns geometric products into dense matrix multiplications,
// which is the shape the backend contract is optimized for. Every algebra
// Cl(p,q) is identified by a Metric, and its basis-blade matrix table is
// built once per (metric, dtype) and cached.
package clifford

import (
	"fmt"
	"strings"
)

// Metric identifies a Clifford algebra Cl(p,q) by the signature of its
// generating basis vectors: +1 entries square to +1, -1 entries square
// to -1. Metric is an immutable value and valid as a map key.
type Metric struct {
	sig string // one '+' or '-' per basis vector
}

// Euclidean returns the metric with all-positive signature (+,+,...,+).
// Panics if dim < 1.
func Euclidean(dim int) Metric {
	if dim < 1 {
		panic("clifford: dimension must be positive")
	}
	return Metric{sig: strings.Repeat("+", dim)}
}

// Minkowski returns the mostly-minus metric (+,-,-,...,-) used for
// spacetime algebras. Panics if dim < 1.
func Minkowski(dim int) Metric {
	if dim < 1 {
		panic("clifford: dimension must be positive")
	}
	return Metric{sig: "+" + strings.Repeat("-", dim-1)}
}

// NewMetric builds a metric from an explicit signature. Every entry must
// be +1 or -1.
func NewMetric(signs []int) (Metric, error) {
	if len(signs) == 0 {
		return Metric{}, fmt.Errorf("clifford: empty signature")
	}
	var b strings.Builder
	for i, s := range signs {
		switch s {
		case 1:
			b.WriteByte('+')
		case -1:
			b.WriteByte('-')
		default:
			return Metric{}, fmt.Errorf("clifford: signature entry %d is %d, must be +1 or -1", i, s)
		}
	}
	return Metric{sig: b.String()}, nil
}

// Dim returns the number of generating basis vectors.
func (m Metric) Dim() int { return len(m.sig) }

// Sign returns the square of basis vector i: +1 or -1.
func (m Metric) Sign(i int) int {
	if m.sig[i] == '+' {
		return 1
	}
	return -1
}

// Key returns a stable identifier for the algebra, e.g. "Cl(+---)".
// Used as the cache key component for Gamma tables.
func (m Metric) Key() string { return "Cl(" + m.sig + ")" }

// NumBlades returns the dimension of the algebra as a vector space: 2^dim
// basis blades, indexed by bitmask over the generating vectors.
func (m Metric) NumBlades() int { return 1 << len(m.sig) }

// MatrixDim returns the side length of the real matrix representation.
//
// The representation uses ceil(dim/2) Pauli tensor factors, giving a
// complex dimension of 2^ceil(dim/2); realification doubles it. Odd
// dimensions reuse the next even construction so that all 2^dim blade
// matrices stay linearly independent and the trace projection is exact.
func (m Metric) MatrixDim() int {
	pairs := (len(m.sig) + 1) / 2
	return 1 << (pairs + 1)
}

func (m Metric) String() string { return m.Key() }
