package reference

import (
	"fmt"

	"github.com/causalml/substrate/internal/parallel"
	"github.com/causalml/substrate/internal/tensor"
)

// MatMul multiplies the trailing two dimensions of a and b, broadcasting
// over leading (batch) dimensions. Shapes [..., M, K] × [..., K, N] yield
// [..., M, N].
func (r *Backend) MatMul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("matmul: %w: mixed dtypes %s and %s",
			tensor.ErrUnsupportedScalarType, a.DType(), b.DType())
	}
	if len(a.Shape()) < 2 || len(b.Shape()) < 2 {
		return nil, fmt.Errorf("matmul: %w: operands must be at least 2D, got %v and %v",
			tensor.ErrShapeMismatch, a.Shape(), b.Shape())
	}

	aShape, bShape := a.Shape(), b.Shape()
	m, k := aShape[len(aShape)-2], aShape[len(aShape)-1]
	k2, n := bShape[len(bShape)-2], bShape[len(bShape)-1]
	if k != k2 {
		return nil, fmt.Errorf("matmul: %w: inner dimensions %d and %d do not chain (%v × %v)",
			tensor.ErrShapeMismatch, k, k2, aShape, bShape)
	}

	batchShape, _, err := tensor.BroadcastShapes(aShape[:len(aShape)-2], bShape[:len(bShape)-2])
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}

	outShape := append(batchShape.Clone(), m, n)
	out, err := r.newResult(outShape, a.DType())
	if err != nil {
		return nil, err
	}

	sa := broadcastStrides(aShape[:len(aShape)-2], batchShape)
	sb := broadcastStrides(bShape[:len(bShape)-2], batchShape)
	batchStrides := batchShape.ComputeStrides()
	batch := batchShape.NumElements()

	// One goroutine-sized unit of work per batch cell; the inner kernel
	// is a plain triple loop. This backend is the oracle, not the fast
	// path.
	run := func(cell int) (aOff, bOff, outOff int) {
		rem := cell
		for d := range batchShape {
			idx := rem / batchStrides[d]
			rem %= batchStrides[d]
			aOff += idx * sa[d]
			bOff += idx * sb[d]
		}
		return aOff * m * k, bOff * k * n, cell * m * n
	}

	switch a.DType() {
	case tensor.Float32:
		matmulBatched(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), batch, m, k, n, run, r.par)
	case tensor.Float64:
		matmulBatched(out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), batch, m, k, n, run, r.par)
	case tensor.Complex64:
		matmulBatched(out.AsComplex64(), a.AsComplex64(), b.AsComplex64(), batch, m, k, n, run, r.par)
	case tensor.Complex128:
		matmulBatched(out.AsComplex128(), a.AsComplex128(), b.AsComplex128(), batch, m, k, n, run, r.par)
	}
	return out, nil
}

func matmulBatched[T tensor.DType](dst, a, b []T, batch, m, k, n int,
	offsets func(cell int) (int, int, int), cfg parallel.Config,
) {
	parallel.For(batch, func(cell int) {
		aOff, bOff, outOff := offsets(cell)
		matmul2D(dst[outOff:outOff+m*n], a[aOff:aOff+m*k], b[bOff:bOff+k*n], m, k, n)
	}, parallel.Config{Enabled: cfg.Enabled, NumWorkers: cfg.NumWorkers, MinChunkSize: 1})
}

// matmul2D computes C = A·B for row-major A [m,k], B [k,n].
// ikj loop order keeps the inner loop contiguous in B and C.
func matmul2D[T tensor.DType](c, a, b []T, m, k, n int) {
	for i := 0; i < m; i++ {
		ci := c[i*n : (i+1)*n]
		for p := 0; p < k; p++ {
			av := a[i*k+p]
			bp := b[p*n : (p+1)*n]
			for j := range ci {
				ci[j] += av * bp[j]
			}
		}
	}
}

// Pow raises square (optionally batched) matrices to an integer power by
// repeated multiplication. k == 0 yields identity; negative k inverts
// first, so Pow(-k) can fail with ErrSingularMatrix.
func (r *Backend) Pow(x *tensor.RawTensor, k int) (*tensor.RawTensor, error) {
	shape := x.Shape()
	if len(shape) < 2 || shape[len(shape)-1] != shape[len(shape)-2] {
		return nil, fmt.Errorf("pow: %w: matrix is not square: %v", tensor.ErrShapeMismatch, shape)
	}

	base := x
	if k < 0 {
		inv, err := r.Inverse(x)
		if err != nil {
			return nil, fmt.Errorf("pow: %w", err)
		}
		base = inv
		k = -k
	}

	n := shape[len(shape)-1]
	result, err := r.batchedIdentity(shape, x.DType(), n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < k; i++ {
		result, err = r.MatMul(result, base)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// batchedIdentity builds identity matrices in the trailing two dims.
func (r *Backend) batchedIdentity(shape tensor.Shape, dtype tensor.DataType, n int) (*tensor.RawTensor, error) {
	out, err := r.newResult(shape, dtype)
	if err != nil {
		return nil, err
	}
	cells := shape.NumElements() / (n * n)
	for c := 0; c < cells; c++ {
		for i := 0; i < n; i++ {
			idx := c*n*n + i*n + i
			switch dtype {
			case tensor.Float32:
				out.AsFloat32()[idx] = 1
			case tensor.Float64:
				out.AsFloat64()[idx] = 1
			case tensor.Complex64:
				out.AsComplex64()[idx] = 1
			case tensor.Complex128:
				out.AsComplex128()[idx] = 1
			}
		}
	}
	return out, nil
}
