package reference

import (
	"fmt"

	"github.com/causalml/substrate/internal/tensor"
)

// Sum reduces the tensor to a scalar (0-D tensor).
func (r *Backend) Sum(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	out, err := r.newResult(tensor.Shape{}, x.DType())
	if err != nil {
		return nil, err
	}

	switch x.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] = sumSlice(x.AsFloat32())
	case tensor.Float64:
		out.AsFloat64()[0] = sumSlice(x.AsFloat64())
	case tensor.Complex64:
		out.AsComplex64()[0] = sumSlice(x.AsComplex64())
	case tensor.Complex128:
		out.AsComplex128()[0] = sumSlice(x.AsComplex128())
	}
	return out, nil
}

func sumSlice[T tensor.DType](xs []T) T {
	var acc T
	for _, v := range xs {
		acc += v
	}
	return acc
}

// SumAxis sums along a single axis. With keepDim the reduced axis stays as
// size 1; otherwise it is removed from the shape.
func (r *Backend) SumAxis(x *tensor.RawTensor, axis int, keepDim bool) (*tensor.RawTensor, error) {
	shape := x.Shape()
	if axis < 0 || axis >= len(shape) {
		return nil, fmt.Errorf("sum_axis: %w: axis %d for %dD tensor",
			tensor.ErrIndexOutOfBounds, axis, len(shape))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for d, dim := range shape {
		switch {
		case d != axis:
			outShape = append(outShape, dim)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	out, err := r.newResult(outShape, x.DType())
	if err != nil {
		return nil, err
	}

	outer := 1
	for d := 0; d < axis; d++ {
		outer *= shape[d]
	}
	inner := 1
	for d := axis + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	switch x.DType() {
	case tensor.Float32:
		sumAxisKernel(out.AsFloat32(), x.AsFloat32(), outer, shape[axis], inner)
	case tensor.Float64:
		sumAxisKernel(out.AsFloat64(), x.AsFloat64(), outer, shape[axis], inner)
	case tensor.Complex64:
		sumAxisKernel(out.AsComplex64(), x.AsComplex64(), outer, shape[axis], inner)
	case tensor.Complex128:
		sumAxisKernel(out.AsComplex128(), x.AsComplex128(), outer, shape[axis], inner)
	}
	return out, nil
}

func sumAxisKernel[T tensor.DType](dst, src []T, outer, axisLen, inner int) {
	for o := 0; o < outer; o++ {
		for a := 0; a < axisLen; a++ {
			base := (o*axisLen + a) * inner
			outBase := o * inner
			for i := 0; i < inner; i++ {
				dst[outBase+i] += src[base+i]
			}
		}
	}
}
