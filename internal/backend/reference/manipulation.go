package reference

import (
	"fmt"

	"github.com/causalml/substrate/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape.
func (r *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if x.NumElements() != shape.NumElements() {
		return nil, fmt.Errorf("reshape: %w: %v -> %v (different number of elements)",
			tensor.ErrShapeMismatch, x.Shape(), shape)
	}

	out, err := r.newResult(shape, x.DType())
	if err != nil {
		return nil, err
	}
	copy(out.Data(), x.Data())
	return out, nil
}

// Transpose permutes the tensor's dimensions. With no axes given, all
// dimensions are reversed.
func (r *Backend) Transpose(x *tensor.RawTensor, axes ...int) (*tensor.RawTensor, error) {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		return nil, fmt.Errorf("transpose: %w: %d axes for %dD tensor",
			tensor.ErrIndexOutOfBounds, len(axes), ndim)
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			return nil, fmt.Errorf("transpose: %w: axis %d for %dD tensor",
				tensor.ErrIndexOutOfBounds, ax, ndim)
		}
		if seen[ax] {
			return nil, fmt.Errorf("transpose: %w: duplicate axis %d", tensor.ErrIndexOutOfBounds, ax)
		}
		seen[ax] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}

	out, err := r.newResult(newShape, x.DType())
	if err != nil {
		return nil, err
	}

	// Move whole elements as byte blocks so one implementation covers
	// every dtype.
	elem := x.DType().Size()
	srcStrides := x.Strides()
	outStrides := newShape.ComputeStrides()
	src, dst := x.Data(), out.Data()
	n := x.NumElements()
	for i := 0; i < n; i++ {
		srcIdx := 0
		rem := i
		for d := 0; d < ndim; d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += idx * srcStrides[axes[d]]
		}
		copy(dst[i*elem:(i+1)*elem], src[srcIdx*elem:srcIdx*elem+elem])
	}
	return out, nil
}

// Slice extracts the half-open range [start, end) along axis.
func (r *Backend) Slice(x *tensor.RawTensor, axis, start, end int) (*tensor.RawTensor, error) {
	shape := x.Shape()
	if axis < 0 || axis >= len(shape) {
		return nil, fmt.Errorf("slice: %w: axis %d for %dD tensor",
			tensor.ErrIndexOutOfBounds, axis, len(shape))
	}
	if start < 0 || end > shape[axis] || start >= end {
		return nil, fmt.Errorf("slice: %w: range [%d, %d) on axis %d of size %d",
			tensor.ErrIndexOutOfBounds, start, end, axis, shape[axis])
	}

	outShape := shape.Clone()
	outShape[axis] = end - start
	out, err := r.newResult(outShape, x.DType())
	if err != nil {
		return nil, err
	}

	// Contiguous inner block per outer index.
	elem := x.DType().Size()
	outer := 1
	for d := 0; d < axis; d++ {
		outer *= shape[d]
	}
	inner := elem
	for d := axis + 1; d < len(shape); d++ {
		inner *= shape[d]
	}
	srcRow := shape[axis] * inner
	dstRow := (end - start) * inner
	src, dst := x.Data(), out.Data()
	for o := 0; o < outer; o++ {
		copy(dst[o*dstRow:(o+1)*dstRow], src[o*srcRow+start*inner:o*srcRow+end*inner])
	}
	return out, nil
}

// Concat concatenates tensors along an axis. All inputs must share dtype
// and shape except on the concatenation axis.
func (r *Backend) Concat(xs []*tensor.RawTensor, axis int) (*tensor.RawTensor, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("concat: %w: no tensors", tensor.ErrShapeMismatch)
	}
	first := xs[0].Shape()
	if axis < 0 || axis >= len(first) {
		return nil, fmt.Errorf("concat: %w: axis %d for %dD tensor",
			tensor.ErrIndexOutOfBounds, axis, len(first))
	}

	outShape := first.Clone()
	for _, x := range xs[1:] {
		if x.DType() != xs[0].DType() {
			return nil, fmt.Errorf("concat: %w: mixed dtypes", tensor.ErrUnsupportedScalarType)
		}
		s := x.Shape()
		if len(s) != len(first) {
			return nil, fmt.Errorf("concat: %w: rank mismatch %v vs %v", tensor.ErrShapeMismatch, first, s)
		}
		for d := range s {
			if d != axis && s[d] != first[d] {
				return nil, fmt.Errorf("concat: %w: %v vs %v on dim %d", tensor.ErrShapeMismatch, first, s, d)
			}
		}
		outShape[axis] += s[axis]
	}

	out, err := r.newResult(outShape, xs[0].DType())
	if err != nil {
		return nil, err
	}

	elem := xs[0].DType().Size()
	outer := 1
	for d := 0; d < axis; d++ {
		outer *= first[d]
	}
	inner := elem
	for d := axis + 1; d < len(first); d++ {
		inner *= first[d]
	}
	dstRow := outShape[axis] * inner
	dst := out.Data()
	rowOffset := 0
	for _, x := range xs {
		srcRow := x.Shape()[axis] * inner
		src := x.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*dstRow+rowOffset:o*dstRow+rowOffset+srcRow], src[o*srcRow:(o+1)*srcRow])
		}
		rowOffset += srcRow
	}
	return out, nil
}
