// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package clifford

import (
	"fmt"
	"math/bits"

	"github.com/causalml/substrate/tensor"
)

// Gamma table construction.
//
// Generators come from the standard Pauli tensor-product construction:
// with p = ceil(dim/2) factors, generator 2k is σ3^⊗k ⊗ σ1 ⊗ I^⊗(p-k-1)
// and generator 2k+1 is σ3^⊗k ⊗ σ2 ⊗ I^⊗(p-k-1). Distinct generators
// anticommute and square to +1; negative-signature generators are scaled
// by i so they square to -1.
//
// The complex representation is realified (a+bi → [[a,-b],[b,a]] blocks)
// so the table is a plain real tensor that every contract dtype can hold,
// including the accelerated float32 path. Blade matrices are distinct
// Pauli strings up to phase, so under the trace inner product
// <X,Y> = tr(Xᵀ Y) they are orthogonal with norm² equal to MatrixDim;
// the bridge's projection divides by exactly that.

type cmplxMat [][]complex128

var (
	pauli1 = cmplxMat{{0, 1}, {1, 0}}
	pauli2 = cmplxMat{{0, complex(0, -1)}, {complex(0, 1), 0}}
	pauli3 = cmplxMat{{1, 0}, {0, -1}}
)

func cIdentity(n int) cmplxMat {
	m := make(cmplxMat, n)
	for i := range m {
		m[i] = make([]complex128, n)
		m[i][i] = 1
	}
	return m
}

func kron(a, b cmplxMat) cmplxMat {
	ra, ca := len(a), len(a[0])
	rb, cb := len(b), len(b[0])
	out := make(cmplxMat, ra*rb)
	for i := range out {
		out[i] = make([]complex128, ca*cb)
	}
	for i := 0; i < ra; i++ {
		for j := 0; j < ca; j++ {
			if a[i][j] == 0 {
				continue
			}
			for k := 0; k < rb; k++ {
				for l := 0; l < cb; l++ {
					out[i*rb+k][j*cb+l] = a[i][j] * b[k][l]
				}
			}
		}
	}
	return out
}

func cmul(a, b cmplxMat) cmplxMat {
	n := len(a)
	out := make(cmplxMat, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for k := 0; k < n; k++ {
			av := a[i][k]
			if av == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i][j] += av * b[k][j]
			}
		}
	}
	return out
}

func cscale(a cmplxMat, s complex128) cmplxMat {
	out := make(cmplxMat, len(a))
	for i := range a {
		out[i] = make([]complex128, len(a[i]))
		for j := range a[i] {
			out[i][j] = s * a[i][j]
		}
	}
	return out
}

// buildGenerators returns the dim anticommuting generator matrices of the
// complex representation, with metric signs applied.
func buildGenerators(metric Metric) []cmplxMat {
	dim := metric.Dim()
	pairs := (dim + 1) / 2

	gens := make([]cmplxMat, dim)
	for i := 0; i < dim; i++ {
		pair := i / 2
		base := pauli1
		if i%2 == 1 {
			base = pauli2
		}
		g := cmplxMat{{1}}
		for f := 0; f < pairs; f++ {
			switch {
			case f < pair:
				g = kron(g, pauli3)
			case f == pair:
				g = kron(g, base)
			default:
				g = kron(g, cIdentity(2))
			}
		}
		if metric.Sign(i) < 0 {
			g = cscale(g, complex(0, 1))
		}
		gens[i] = g
	}
	return gens
}

// realify embeds a complex matrix into a real matrix of twice the side
// length using 2×2 blocks [[re, -im], [im, re]].
func realify(c cmplxMat) [][]float64 {
	n := len(c)
	out := make([][]float64, 2*n)
	for i := range out {
		out[i] = make([]float64, 2*n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re, im := real(c[i][j]), imag(c[i][j])
			out[2*i][2*j] = re
			out[2*i][2*j+1] = -im
			out[2*i+1][2*j] = im
			out[2*i+1][2*j+1] = re
		}
	}
	return out
}

// buildGammaTable materializes the full blade table for a metric as a
// host tensor of shape [numBlades, matrixDim, matrixDim].
//
// Blades are built incrementally: the blade for bitmask bm is the lowest
// set generator times the already-built blade for the remaining bits, so
// construction does one matrix product per blade rather than re-deriving
// each product chain from scratch.
func buildGammaTable(metric Metric, dtype tensor.DataType) (*tensor.RawTensor, error) {
	gens := buildGenerators(metric)
	numBlades := metric.NumBlades()
	mDim := metric.MatrixDim()

	blades := make([]cmplxMat, numBlades)
	blades[0] = cIdentity(mDim / 2)
	for bm := 1; bm < numBlades; bm++ {
		low := bits.TrailingZeros(uint(bm))
		blades[bm] = cmul(gens[low], blades[bm&^(1<<low)])
	}

	out, err := tensor.NewRaw(tensor.Shape{numBlades, mDim, mDim}, dtype, tensor.Host)
	if err != nil {
		return nil, fmt.Errorf("clifford: gamma table for %s: %w", metric, err)
	}
	for bm, blade := range blades {
		r := realify(blade)
		base := bm * mDim * mDim
		for i := 0; i < mDim; i++ {
			for j := 0; j < mDim; j++ {
				storeReal(out, base+i*mDim+j, r[i][j])
			}
		}
	}
	return out, nil
}

// storeReal writes a real value into a flat tensor position for any
// contract dtype.
func storeReal(t *tensor.RawTensor, idx int, v float64) {
	switch t.DType() {
	case tensor.Float32:
		t.AsFloat32()[idx] = float32(v)
	case tensor.Float64:
		t.AsFloat64()[idx] = v
	case tensor.Complex64:
		t.AsComplex64()[idx] = complex(float32(v), 0)
	case tensor.Complex128:
		t.AsComplex128()[idx] = complex(v, 0)
	default:
		panic(fmt.Sprintf("clifford: unknown dtype %v", t.DType()))
	}
}
