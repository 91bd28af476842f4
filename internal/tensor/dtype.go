// Package tensor provides the core tensor types and the backend contract
// for the substrate numeric layer.
package tensor

// DType is a constraint for supported tensor scalar types.
// The set is closed: every type that may inhabit a tensor satisfies the
// field axioms (add, sub, mul, multiplicative inverse where defined),
// which is what the algebraic layers above rely on.
type DType interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported scalar types.
const (
	Float32 DataType = iota
	Float64
	Complex64
	Complex128
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		panic("unknown data type")
	}
}

// IsComplex reports whether the data type has complex elements.
func (dt DataType) IsComplex() bool {
	return dt == Complex64 || dt == Complex128
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	default:
		panic("unsupported type")
	}
}
