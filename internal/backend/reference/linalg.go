package reference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/causalml/substrate/internal/tensor"
)

// Symmetry tolerance for Eig, relative to the largest magnitude entry.
const (
	symTolFloat32 = 1e-5
	symTolFloat64 = 1e-10
)

// Inverse inverts the trailing square matrix, batched over leading
// dimensions. Float32 widens to float64 for the factorization and narrows
// back (widening is exact, so no precision claim is violated); complex
// matrices go through the ℝ-embedding a+bi → [[a,-b],[b,a]] so a single
// real factorization path serves every dtype.
func (r *Backend) Inverse(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	shape := x.Shape()
	if len(shape) < 2 || shape[len(shape)-1] != shape[len(shape)-2] {
		return nil, fmt.Errorf("inverse: %w: matrix is not square: %v", tensor.ErrShapeMismatch, shape)
	}
	n := shape[len(shape)-1]
	cells := shape.NumElements() / (n * n)

	out, err := r.newResult(shape, x.DType())
	if err != nil {
		return nil, err
	}

	for c := 0; c < cells; c++ {
		if err := invertCell(out, x, c, n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func invertCell(out, x *tensor.RawTensor, cell, n int) error {
	off := cell * n * n
	switch x.DType() {
	case tensor.Float64:
		src := x.AsFloat64()[off : off+n*n]
		inv, err := invertDense(src, n)
		if err != nil {
			return err
		}
		copy(out.AsFloat64()[off:off+n*n], inv)
	case tensor.Float32:
		src := x.AsFloat32()[off : off+n*n]
		wide := make([]float64, n*n)
		for i, v := range src {
			wide[i] = float64(v)
		}
		inv, err := invertDense(wide, n)
		if err != nil {
			return err
		}
		dst := out.AsFloat32()[off : off+n*n]
		for i, v := range inv {
			dst[i] = float32(v)
		}
	case tensor.Complex64:
		src := x.AsComplex64()[off : off+n*n]
		wide := make([]complex128, n*n)
		for i, v := range src {
			wide[i] = complex128(v)
		}
		inv, err := invertComplex(wide, n)
		if err != nil {
			return err
		}
		dst := out.AsComplex64()[off : off+n*n]
		for i, v := range inv {
			dst[i] = complex64(v)
		}
	case tensor.Complex128:
		src := x.AsComplex128()[off : off+n*n]
		inv, err := invertComplex(src, n)
		if err != nil {
			return err
		}
		copy(out.AsComplex128()[off:off+n*n], inv)
	}
	return nil
}

func invertDense(src []float64, n int) ([]float64, error) {
	data := make([]float64, len(src))
	copy(data, src)
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(n, n, data)); err != nil {
		return nil, fmt.Errorf("inverse: %w: %v", tensor.ErrSingularMatrix, err)
	}
	result := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			result[i*n+j] = inv.At(i, j)
		}
	}
	return result, nil
}

// invertComplex embeds the complex matrix into a 2n real matrix, inverts,
// and projects back: R(M)⁻¹ = R(M⁻¹).
func invertComplex(src []complex128, n int) ([]complex128, error) {
	realified := make([]float64, 4*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			re, im := real(src[i*n+j]), imag(src[i*n+j])
			realified[i*2*n+j] = re
			realified[i*2*n+j+n] = -im
			realified[(i+n)*2*n+j] = im
			realified[(i+n)*2*n+j+n] = re
		}
	}
	inv, err := invertDense(realified, 2*n)
	if err != nil {
		return nil, err
	}
	result := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			result[i*n+j] = complex(inv[i*2*n+j], inv[(i+n)*2*n+j])
		}
	}
	return result, nil
}

// Eig decomposes a symmetric real matrix into eigenvalues (ascending) and
// column eigenvectors. The symmetric precondition is enforced: asymmetry
// beyond tolerance fails with ErrNotSymmetric instead of producing
// best-effort complex output, since spectral consumers order by real
// eigenvalues. Complex dtypes are not supported on this path.
func (r *Backend) Eig(x *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor, error) {
	shape := x.Shape()
	if len(shape) != 2 || shape[0] != shape[1] {
		return nil, nil, fmt.Errorf("eig: %w: expected square 2D matrix, got %v", tensor.ErrShapeMismatch, shape)
	}
	if x.DType().IsComplex() {
		return nil, nil, fmt.Errorf("eig: %w: %s", tensor.ErrUnsupportedScalarType, x.DType())
	}
	n := shape[0]

	data := make([]float64, n*n)
	tol := symTolFloat64
	switch x.DType() {
	case tensor.Float64:
		copy(data, x.AsFloat64())
	case tensor.Float32:
		tol = symTolFloat32
		for i, v := range x.AsFloat32() {
			data[i] = float64(v)
		}
	}

	maxAbs := 0.0
	for _, v := range data {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(data[i*n+j]-data[j*n+i]) > tol*(1+maxAbs) {
				return nil, nil, fmt.Errorf("eig: %w: a[%d,%d]=%g vs a[%d,%d]=%g",
					tensor.ErrNotSymmetric, i, j, data[i*n+j], j, i, data[j*n+i])
			}
			// Symmetrize exactly; the asymmetry is inside tolerance.
			m := (data[i*n+j] + data[j*n+i]) / 2
			data[i*n+j], data[j*n+i] = m, m
		}
	}

	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(n, data), true) {
		return nil, nil, fmt.Errorf("eig: %w", tensor.ErrEigenFailed)
	}

	values := es.Values(nil) // Ascending order.
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	vals, err := r.newResult(tensor.Shape{n}, x.DType())
	if err != nil {
		return nil, nil, err
	}
	vecs, err := r.newResult(tensor.Shape{n, n}, x.DType())
	if err != nil {
		return nil, nil, err
	}

	switch x.DType() {
	case tensor.Float64:
		copy(vals.AsFloat64(), values)
		dst := vecs.AsFloat64()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				dst[i*n+j] = vectors.At(i, j)
			}
		}
	case tensor.Float32:
		dstVals := vals.AsFloat32()
		for i, v := range values {
			dstVals[i] = float32(v)
		}
		dst := vecs.AsFloat32()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				dst[i*n+j] = float32(vectors.At(i, j))
			}
		}
	}
	return vals, vecs, nil
}
