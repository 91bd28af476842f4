package reference

import (
	"fmt"

	"github.com/causalml/substrate/internal/parallel"
	"github.com/causalml/substrate/internal/tensor"
)

type binKind int

const (
	opAdd binKind = iota
	opSub
	opMul
	opDiv
)

func (k binKind) String() string {
	return [...]string{"add", "sub", "mul", "div"}[k]
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (r *Backend) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return r.binary(opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (r *Backend) Sub(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return r.binary(opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (r *Backend) Mul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return r.binary(opMul, a, b)
}

// Div performs element-wise division with broadcasting.
// Division by zero follows IEEE-754 (±Inf, NaN), matching the accelerated
// backend so parity tests can compare semantics, not just magnitudes.
func (r *Backend) Div(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	return r.binary(opDiv, a, b)
}

func (r *Backend) binary(kind binKind, a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	if a.DType() != b.DType() {
		return nil, fmt.Errorf("%s: %w: mixed dtypes %s and %s",
			kind, tensor.ErrUnsupportedScalarType, a.DType(), b.DType())
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	out, err := r.newResult(outShape, a.DType())
	if err != nil {
		return nil, err
	}

	if !needsBroadcast {
		switch a.DType() {
		case tensor.Float32:
			binVec(kind, out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), r.par)
		case tensor.Float64:
			binVec(kind, out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), r.par)
		case tensor.Complex64:
			binVec(kind, out.AsComplex64(), a.AsComplex64(), b.AsComplex64(), r.par)
		case tensor.Complex128:
			binVec(kind, out.AsComplex128(), a.AsComplex128(), b.AsComplex128(), r.par)
		}
		return out, nil
	}

	sa := broadcastStrides(a.Shape(), outShape)
	sb := broadcastStrides(b.Shape(), outShape)
	switch a.DType() {
	case tensor.Float32:
		binBroadcast(kind, out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, sa, sb, r.par)
	case tensor.Float64:
		binBroadcast(kind, out.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, sa, sb, r.par)
	case tensor.Complex64:
		binBroadcast(kind, out.AsComplex64(), a.AsComplex64(), b.AsComplex64(), outShape, sa, sb, r.par)
	case tensor.Complex128:
		binBroadcast(kind, out.AsComplex128(), a.AsComplex128(), b.AsComplex128(), outShape, sa, sb, r.par)
	}
	return out, nil
}

// binVec is the fast path for identically shaped operands.
// One branch-free loop per op kind.
func binVec[T tensor.DType](kind binKind, dst, a, b []T, cfg parallel.Config) {
	switch kind {
	case opAdd:
		parallel.ForRange(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] + b[i]
			}
		}, cfg)
	case opSub:
		parallel.ForRange(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] - b[i]
			}
		}, cfg)
	case opMul:
		parallel.ForRange(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] * b[i]
			}
		}, cfg)
	case opDiv:
		parallel.ForRange(len(dst), func(s, e int) {
			for i := s; i < e; i++ {
				dst[i] = a[i] / b[i]
			}
		}, cfg)
	}
}

// binBroadcast walks the output index space and maps each coordinate back
// into the operands through broadcast strides (stride 0 on size-1 dims).
func binBroadcast[T tensor.DType](kind binKind, dst, a, b []T, outShape tensor.Shape, sa, sb []int, cfg parallel.Config) {
	outStrides := outShape.ComputeStrides()
	parallel.ForRange(len(dst), func(s, e int) {
		for i := s; i < e; i++ {
			ia, ib := 0, 0
			rem := i
			for d := range outShape {
				idx := rem / outStrides[d]
				rem %= outStrides[d]
				ia += idx * sa[d]
				ib += idx * sb[d]
			}
			switch kind {
			case opAdd:
				dst[i] = a[ia] + b[ib]
			case opSub:
				dst[i] = a[ia] - b[ib]
			case opMul:
				dst[i] = a[ia] * b[ib]
			case opDiv:
				dst[i] = a[ia] / b[ib]
			}
		}
	}, cfg)
}

// broadcastStrides computes per-output-dimension strides into a tensor of
// the given shape, right-aligned against outShape. Size-1 and missing
// dimensions get stride 0.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := shape.ComputeStrides()
	result := make([]int, len(outShape))
	offset := len(outShape) - len(shape)
	for d := range outShape {
		src := d - offset
		if src < 0 || shape[src] == 1 {
			result[d] = 0
		} else {
			result[d] = strides[src]
		}
	}
	return result
}
