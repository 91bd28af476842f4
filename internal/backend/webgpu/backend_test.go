package webgpu

import (
	"errors"
	"math"
	"testing"

	"github.com/causalml/substrate/internal/backend/reference"
	"github.com/causalml/substrate/internal/tensor"
)

// newTestBackend skips the test when no WebGPU adapter is present.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	if !IsAvailable() {
		t.Skip("WebGPU not available, skipping GPU test")
	}
	b, err := New()
	if err != nil {
		t.Skipf("WebGPU initialization failed: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func rawF32(t *testing.T, shape tensor.Shape, data ...float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.Host)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) > 0 {
		copy(raw.AsFloat32(), data)
	}
	return raw
}

func float32Close(a, b []float32, epsilon float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		if d > epsilon {
			return false
		}
	}
	return true
}

func TestWebGPUBackend_Metadata(t *testing.T) {
	b := newTestBackend(t)
	if b.Device() != tensor.WebGPU {
		t.Errorf("Device() = %v, want WebGPU", b.Device())
	}
	if !b.Supports(tensor.Float32) {
		t.Error("Supports(Float32) = false")
	}
	if b.Supports(tensor.Float64) || b.Supports(tensor.Complex64) {
		t.Error("only Float32 should be supported")
	}
}

func TestWebGPUBackend_UnsupportedDType(t *testing.T) {
	b := newTestBackend(t)
	a, _ := tensor.NewRaw(tensor.Shape{2}, tensor.Float64, tensor.Host)
	_, err := b.Add(a, a)
	if !errors.Is(err, tensor.ErrUnsupportedScalarType) {
		t.Errorf("got %v, want ErrUnsupportedScalarType", err)
	}
}

func TestWebGPUBackend_Add(t *testing.T) {
	b := newTestBackend(t)
	a := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	c := rawF32(t, tensor.Shape{2, 3}, 10, 20, 30, 40, 50, 60)

	result, err := b.Add(a, c)
	if err != nil {
		t.Fatal(err)
	}
	down, err := b.Download(result)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{11, 22, 33, 44, 55, 66}
	if !float32Close(down.AsFloat32(), want, 1e-6) {
		t.Errorf("Add = %v, want %v", down.AsFloat32(), want)
	}
}

func TestWebGPUBackend_Broadcast(t *testing.T) {
	b := newTestBackend(t)
	a := rawF32(t, tensor.Shape{2, 1}, 1, 2)
	c := rawF32(t, tensor.Shape{3}, 10, 20, 30)

	result, err := b.Add(a, c)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", result.Shape())
	}
	down, err := b.Download(result)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{11, 21, 31, 12, 22, 32}
	if !float32Close(down.AsFloat32(), want, 1e-6) {
		t.Errorf("broadcast Add = %v, want %v", down.AsFloat32(), want)
	}
}

func TestWebGPUBackend_DivByZeroIEEE(t *testing.T) {
	b := newTestBackend(t)
	a := rawF32(t, tensor.Shape{3}, 1, -1, 0)
	c := rawF32(t, tensor.Shape{3}, 0, 0, 0)

	result, err := b.Div(a, c)
	if err != nil {
		t.Fatalf("division by zero must not error, got %v", err)
	}
	down, err := b.Download(result)
	if err != nil {
		t.Fatal(err)
	}
	got := down.AsFloat32()
	if !math.IsInf(float64(got[0]), 1) {
		t.Errorf("1/0 = %g, want +Inf", got[0])
	}
	if !math.IsInf(float64(got[1]), -1) {
		t.Errorf("-1/0 = %g, want -Inf", got[1])
	}
	if !math.IsNaN(float64(got[2])) {
		t.Errorf("0/0 = %g, want NaN", got[2])
	}
}

// TestWebGPUBackend_ParityWithReference runs the same random workload on
// both backends and compares within float32 tolerance.
func TestWebGPUBackend_ParityWithReference(t *testing.T) {
	gpu := newTestBackend(t)
	ref := reference.NewSequential()

	a := tensor.Randn[float32, tensor.Backend](tensor.Shape{4, 16, 16}, nil).Raw()
	c := tensor.Randn[float32, tensor.Backend](tensor.Shape{4, 16, 16}, nil).Raw()

	ops := []struct {
		name string
		run  func(b tensor.Backend) (*tensor.RawTensor, error)
	}{
		{"Add", func(b tensor.Backend) (*tensor.RawTensor, error) { return b.Add(a, c) }},
		{"Mul", func(b tensor.Backend) (*tensor.RawTensor, error) { return b.Mul(a, c) }},
		{"MatMul", func(b tensor.Backend) (*tensor.RawTensor, error) { return b.MatMul(a, c) }},
		{"MulScalar", func(b tensor.Backend) (*tensor.RawTensor, error) { return b.MulScalar(a, 1.5) }},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			want, err := op.run(ref)
			if err != nil {
				t.Fatal(err)
			}
			got, err := op.run(gpu)
			if err != nil {
				t.Fatal(err)
			}
			down, err := gpu.Download(got)
			if err != nil {
				t.Fatal(err)
			}
			// Matmul accumulates 16 products; loose epsilon for
			// reassociation differences.
			if !float32Close(down.AsFloat32(), want.AsFloat32(), 1e-3) {
				t.Errorf("%s differs between backends", op.name)
			}
		})
	}
}

func TestWebGPUBackend_UploadDownload(t *testing.T) {
	b := newTestBackend(t)
	a := rawF32(t, tensor.Shape{4}, 1, 2, 3, 4)

	up, err := b.Upload(a)
	if err != nil {
		t.Fatal(err)
	}
	if up.Device() != tensor.WebGPU {
		t.Errorf("uploaded device = %v, want WebGPU", up.Device())
	}
	down, err := b.Download(up)
	if err != nil {
		t.Fatal(err)
	}
	if !float32Close(down.AsFloat32(), a.AsFloat32(), 0) {
		t.Error("Upload/Download round trip changed values")
	}
}

func TestWebGPUBackend_HostShim(t *testing.T) {
	b := newTestBackend(t)
	// Symmetric matrix; Eig runs on the host shim.
	a := rawF32(t, tensor.Shape{2, 2}, 2, 1, 1, 2)
	vals, _, err := b.Eig(a)
	if err != nil {
		t.Fatal(err)
	}
	if !float32Close(vals.AsFloat32(), []float32{1, 3}, 1e-5) {
		t.Errorf("eigenvalues = %v, want [1 3]", vals.AsFloat32())
	}

	inv, err := b.Inverse(rawF32(t, tensor.Shape{2, 2}, 2, 0, 0, 4))
	if err != nil {
		t.Fatal(err)
	}
	if !float32Close(inv.AsFloat32(), []float32{0.5, 0, 0, 0.25}, 1e-6) {
		t.Errorf("Inverse = %v", inv.AsFloat32())
	}
}
