package reference

import (
	"fmt"

	"github.com/causalml/substrate/internal/tensor"
)

// AddScalar adds a scalar to every element. The scalar is converted to the
// tensor's dtype up front; an inconvertible value is rejected rather than
// coerced.
func (r *Backend) AddScalar(x *tensor.RawTensor, scalar any) (*tensor.RawTensor, error) {
	return r.scalarOp("add_scalar", x, scalar, true)
}

// MulScalar multiplies every element by a scalar.
func (r *Backend) MulScalar(x *tensor.RawTensor, scalar any) (*tensor.RawTensor, error) {
	return r.scalarOp("mul_scalar", x, scalar, false)
}

func (r *Backend) scalarOp(name string, x *tensor.RawTensor, scalar any, add bool) (*tensor.RawTensor, error) {
	out, err := r.newResult(x.Shape(), x.DType())
	if err != nil {
		return nil, err
	}

	c, err := scalarAsComplex(scalar)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !x.DType().IsComplex() && imag(c) != 0 {
		return nil, fmt.Errorf("%s: %w: complex scalar %v for %s tensor",
			name, tensor.ErrUnsupportedScalarType, scalar, x.DType())
	}

	switch x.DType() {
	case tensor.Float32:
		scalarVec(out.AsFloat32(), x.AsFloat32(), float32(real(c)), add)
	case tensor.Float64:
		scalarVec(out.AsFloat64(), x.AsFloat64(), real(c), add)
	case tensor.Complex64:
		scalarVec(out.AsComplex64(), x.AsComplex64(), complex64(c), add)
	case tensor.Complex128:
		scalarVec(out.AsComplex128(), x.AsComplex128(), c, add)
	}
	return out, nil
}

func scalarVec[T tensor.DType](dst, src []T, s T, add bool) {
	if add {
		for i := range dst {
			dst[i] = src[i] + s
		}
		return
	}
	for i := range dst {
		dst[i] = src[i] * s
	}
}

// scalarAsComplex widens any supported numeric scalar to complex128, the
// common superset of the DType constraint.
func scalarAsComplex(scalar any) (complex128, error) {
	switch v := scalar.(type) {
	case int:
		return complex(float64(v), 0), nil
	case float32:
		return complex(float64(v), 0), nil
	case float64:
		return complex(v, 0), nil
	case complex64:
		return complex128(v), nil
	case complex128:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: scalar type %T", tensor.ErrUnsupportedScalarType, scalar)
	}
}
