package webgpu

import (
	"fmt"

	"github.com/causalml/substrate/internal/tensor"
)

// Add performs element-wise addition on the device.
func (b *Backend) Add(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.binary("add", addShader, a, other)
}

// Sub performs element-wise subtraction on the device.
func (b *Backend) Sub(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.binary("sub", subShader, a, other)
}

// Mul performs element-wise multiplication on the device.
func (b *Backend) Mul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.binary("mul", mulShader, a, other)
}

// Div performs element-wise division on the device.
// Division by zero follows IEEE-754 (±Inf, NaN).
func (b *Backend) Div(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	return b.binary("div", divShader, a, other)
}

func (b *Backend) binary(name, shader string, a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkDType(name, a); err != nil {
		return nil, err
	}
	if err := b.checkDType(name, other); err != nil {
		return nil, err
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), other.Shape())
	if err != nil {
		return nil, fmt.Errorf("webgpu %s: %w", name, err)
	}

	// The kernels index both operands identically, so broadcast operands
	// are materialized host-side before upload.
	if needsBroadcast {
		if a, err = expand(a, outShape); err != nil {
			return nil, err
		}
		if other, err = expand(other, outShape); err != nil {
			return nil, err
		}
	}
	return b.runBinaryOp(a, other, name, shader)
}

// AddScalar adds a scalar to every element on the device.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) (*tensor.RawTensor, error) {
	return b.scalarOp("scalar_add", scalarAddShader, x, scalar)
}

// MulScalar multiplies every element by a scalar on the device.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) (*tensor.RawTensor, error) {
	return b.scalarOp("scalar_mul", scalarMulShader, x, scalar)
}

func (b *Backend) scalarOp(name, shader string, x *tensor.RawTensor, scalar any) (*tensor.RawTensor, error) {
	if err := b.checkDType(name, x); err != nil {
		return nil, err
	}
	s, err := scalarAsFloat32(scalar)
	if err != nil {
		return nil, fmt.Errorf("webgpu %s: %w", name, err)
	}
	return b.runScalarOp(x, s, name, shader)
}

func scalarAsFloat32(scalar any) (float32, error) {
	switch v := scalar.(type) {
	case int:
		return float32(v), nil
	case float32:
		return v, nil
	case float64:
		return float32(v), nil
	default:
		return 0, fmt.Errorf("%w: scalar type %T", tensor.ErrUnsupportedScalarType, scalar)
	}
}

// MatMul multiplies the trailing two dimensions with broadcasting over
// leading (batch) dimensions, flattening the batch for the device kernel.
func (b *Backend) MatMul(a, other *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkDType("matmul", a); err != nil {
		return nil, err
	}
	if err := b.checkDType("matmul", other); err != nil {
		return nil, err
	}
	aShape, bShape := a.Shape(), other.Shape()
	if len(aShape) < 2 || len(bShape) < 2 {
		return nil, fmt.Errorf("webgpu matmul: %w: operands must be at least 2D, got %v and %v",
			tensor.ErrShapeMismatch, aShape, bShape)
	}

	m, k := aShape[len(aShape)-2], aShape[len(aShape)-1]
	k2, n := bShape[len(bShape)-2], bShape[len(bShape)-1]
	if k != k2 {
		return nil, fmt.Errorf("webgpu matmul: %w: inner dimensions %d and %d do not chain (%v × %v)",
			tensor.ErrShapeMismatch, k, k2, aShape, bShape)
	}

	batchShape, _, err := tensor.BroadcastShapes(aShape[:len(aShape)-2], bShape[:len(bShape)-2])
	if err != nil {
		return nil, fmt.Errorf("webgpu matmul: %w", err)
	}
	batch := batchShape.NumElements()

	aFull, err := expand(a, append(batchShape.Clone(), m, k))
	if err != nil {
		return nil, err
	}
	bFull, err := expand(other, append(batchShape.Clone(), k, n))
	if err != nil {
		return nil, err
	}

	result, err := b.runBatchMatMul(aFull, bFull, batch, m, k, n)
	if err != nil {
		return nil, err
	}
	return b.host.Reshape(result, append(batchShape.Clone(), m, n))
}

// Pow raises square (optionally batched) matrices to an integer power by
// repeated device matmul. Negative k inverts on the host shim first.
func (b *Backend) Pow(x *tensor.RawTensor, k int) (*tensor.RawTensor, error) {
	if err := b.checkDType("pow", x); err != nil {
		return nil, err
	}
	shape := x.Shape()
	if len(shape) < 2 || shape[len(shape)-1] != shape[len(shape)-2] {
		return nil, fmt.Errorf("webgpu pow: %w: matrix is not square: %v", tensor.ErrShapeMismatch, shape)
	}

	base := x
	if k < 0 {
		inv, err := b.Inverse(x)
		if err != nil {
			return nil, fmt.Errorf("webgpu pow: %w", err)
		}
		base = inv
		k = -k
	}

	n := shape[len(shape)-1]
	result, err := identity(shape, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < k; i++ {
		result, err = b.MatMul(result, base)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func identity(shape tensor.Shape, n int) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(shape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	data := out.AsFloat32()
	cells := shape.NumElements() / (n * n)
	for c := 0; c < cells; c++ {
		for i := 0; i < n; i++ {
			data[c*n*n+i*n+i] = 1
		}
	}
	return out, nil
}

// expand materializes a float32 tensor into a broadcast-compatible shape.
func expand(x *tensor.RawTensor, outShape tensor.Shape) (*tensor.RawTensor, error) {
	if x.Shape().Equal(outShape) {
		return x, nil
	}
	out, err := tensor.NewRaw(outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	srcStrides := x.Strides()
	strides := make([]int, len(outShape))
	offset := len(outShape) - len(x.Shape())
	for d := range outShape {
		src := d - offset
		if src < 0 || x.Shape()[src] == 1 {
			strides[d] = 0
		} else {
			strides[d] = srcStrides[src]
		}
	}

	outStrides := outShape.ComputeStrides()
	src, dst := x.AsFloat32(), out.AsFloat32()
	for i := range dst {
		srcIdx := 0
		rem := i
		for d := range outShape {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += idx * strides[d]
		}
		dst[i] = src[srcIdx]
	}
	return out, nil
}
