package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros[float64](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), Host)
	if err != nil {
		panic(err) // Shape validation should prevent this
	}

	// Data is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, one[T](), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Eye creates a 2D identity matrix.
//
// Example:
//
//	t := tensor.Eye[float64](3, backend) // 3x3 identity matrix
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	for i := 0; i < n; i++ {
		t.Set(one[T](), i, i)
	}
	return t
}

// Randn creates a tensor with values drawn from a standard normal
// distribution via the Box-Muller transform. For complex dtypes the real
// and imaginary parts are drawn independently.
// Uses math/rand (not crypto/rand); reproducibility matters more here
// than entropy.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		dst := any(data).([]float32)
		for i := range dst {
			dst[i] = float32(normSample())
		}
	case float64:
		dst := any(data).([]float64)
		for i := range dst {
			dst[i] = normSample()
		}
	case complex64:
		dst := any(data).([]complex64)
		for i := range dst {
			dst[i] = complex(float32(normSample()), float32(normSample()))
		}
	case complex128:
		dst := any(data).([]complex128)
		for i := range dst {
			dst[i] = complex(normSample(), normSample())
		}
	}
	return t
}

func normSample() float64 {
	u1 := rand.Float64() //nolint:gosec // G404: math/rand intentionally, for reproducibility
	u2 := rand.Float64() //nolint:gosec // G404: math/rand intentionally, for reproducibility
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}

// one returns the multiplicative identity for T.
func one[T DType]() T {
	var dummy T
	var v any
	switch any(dummy).(type) {
	case float32:
		v = float32(1)
	case float64:
		v = float64(1)
	case complex64:
		v = complex64(1)
	case complex128:
		v = complex128(1)
	}
	return v.(T)
}
