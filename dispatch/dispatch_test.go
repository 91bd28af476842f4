package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/causalml/substrate/backend/reference"
	"github.com/causalml/substrate/tensor"
)

// countingAccel wraps the reference backend as a stand-in accelerator so
// routing can be observed without a GPU. It claims float32 support only,
// like the real accelerated backend.
type countingAccel struct {
	tensor.Backend
	calls int
}

func newCountingAccel() *countingAccel {
	return &countingAccel{Backend: reference.NewSequential()}
}

func (c *countingAccel) Name() string                        { return "CountingAccel" }
func (c *countingAccel) Device() tensor.Device               { return tensor.WebGPU }
func (c *countingAccel) Supports(dt tensor.DataType) bool    { return dt == tensor.Float32 }
func (c *countingAccel) Add(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	c.calls++
	return c.Backend.Add(a, b)
}
func (c *countingAccel) MatMul(a, b *tensor.RawTensor) (*tensor.RawTensor, error) {
	c.calls++
	return c.Backend.MatMul(a, b)
}

func TestShouldAccelerate(t *testing.T) {
	cases := []struct {
		dim, batch int
		want       bool
	}{
		{1, 1, false},
		{63, 255, false},
		{64, 1, true},
		{1, 256, true},
		{64, 256, true},
		{1024, 1, true},
		{0, 100000, true},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, ShouldAccelerate(c.dim, c.batch),
			"ShouldAccelerate(%d, %d)", c.dim, c.batch)
	}
}

// The decision must be a pure function: repeated evaluation with the
// same metadata never changes the answer.
func TestShouldAccelerate_Deterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.True(t, ShouldAccelerate(64, 1))
		assert.False(t, ShouldAccelerate(63, 255))
	}
}

func TestEngine_PickFallbacks(t *testing.T) {
	ref := reference.NewSequential()

	t.Run("NoAccelConfigured", func(t *testing.T) {
		e := New(ref, nil)
		assert.Same(t, tensor.Backend(ref), e.Pick(tensor.Float32, 1024, 1024))
	})

	t.Run("UnsupportedDType", func(t *testing.T) {
		accel := newCountingAccel()
		e := New(ref, accel)
		assert.Same(t, tensor.Backend(ref), e.Pick(tensor.Float64, 1024, 1024))
		assert.Same(t, tensor.Backend(ref), e.Pick(tensor.Complex128, 1024, 1024))
	})

	t.Run("BelowThresholds", func(t *testing.T) {
		accel := newCountingAccel()
		e := New(ref, accel)
		assert.Same(t, tensor.Backend(ref), e.Pick(tensor.Float32, 8, 8))
	})

	t.Run("AboveThresholds", func(t *testing.T) {
		accel := newCountingAccel()
		e := New(ref, accel)
		assert.Same(t, tensor.Backend(accel), e.Pick(tensor.Float32, 64, 1))
		assert.Same(t, tensor.Backend(accel), e.Pick(tensor.Float32, 1, 256))
	})
}

func TestEngine_RoutesElementwiseByCount(t *testing.T) {
	ref := reference.NewSequential()
	accel := newCountingAccel()
	e := New(ref, accel)

	small := tensor.Zeros[float32, tensor.Backend](tensor.Shape{4}, nil).Raw()
	_, err := e.Add(small, small)
	require.NoError(t, err)
	assert.Equal(t, 0, accel.calls, "small elementwise op must stay on reference")

	large := tensor.Zeros[float32, tensor.Backend](tensor.Shape{512}, nil).Raw()
	_, err = e.Add(large, large)
	require.NoError(t, err)
	assert.Equal(t, 1, accel.calls, "large elementwise op must route to accel")
}

func TestEngine_RoutesMatMulByDim(t *testing.T) {
	ref := reference.NewSequential()
	accel := newCountingAccel()
	e := New(ref, accel)

	small := tensor.Eye[float32, tensor.Backend](8, nil).Raw()
	_, err := e.MatMul(small, small)
	require.NoError(t, err)
	assert.Equal(t, 0, accel.calls)

	big := tensor.Eye[float32, tensor.Backend](64, nil).Raw()
	_, err = e.MatMul(big, big)
	require.NoError(t, err)
	assert.Equal(t, 1, accel.calls)
}

func TestEngine_Float64StaysOnReference(t *testing.T) {
	ref := reference.NewSequential()
	accel := newCountingAccel()
	e := New(ref, accel)

	big := tensor.Eye[float64, tensor.Backend](128, nil).Raw()
	_, err := e.MatMul(big, big)
	require.NoError(t, err)
	assert.Equal(t, 0, accel.calls, "float64 must fall back, not fail")
}

func TestEngine_StructuralOpsOnReference(t *testing.T) {
	ref := reference.NewSequential()
	accel := newCountingAccel()
	e := New(ref, accel)

	x := tensor.Zeros[float32, tensor.Backend](tensor.Shape{512, 2}, nil).Raw()
	reshaped, err := e.Reshape(x, tensor.Shape{2, 512})
	require.NoError(t, err)
	assert.Equal(t, tensor.Host, reshaped.Device())
	assert.Equal(t, 0, accel.calls)
}

func TestEngine_CustomThresholds(t *testing.T) {
	ref := reference.NewSequential()
	accel := newCountingAccel()
	e := NewWithThresholds(ref, accel, 8, 16)

	assert.Same(t, tensor.Backend(accel), e.Pick(tensor.Float32, 8, 1))
	assert.Same(t, tensor.Backend(ref), e.Pick(tensor.Float32, 7, 15))
}

func TestEngine_ImplementsContract(t *testing.T) {
	e := New(reference.NewSequential(), nil)
	assert.True(t, e.Supports(tensor.Float64))
	assert.Equal(t, tensor.Host, e.Device())
	assert.Contains(t, e.Name(), "Dispatch")
}
