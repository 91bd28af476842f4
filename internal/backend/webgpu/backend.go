// Package webgpu implements the accelerated backend on top of WebGPU
// compute shaders, via go-webgpu (github.com/go-webgpu/webgpu).
//
// The backend supports float32 only; other dtypes fail with
// ErrUnsupportedScalarType, which the dispatch engine turns into a
// reference-backend fallback. Elementwise arithmetic, batched matmul and
// scalar ops run on the device; inverse, eig and the shape/reduction ops
// execute as an explicit download → reference op → upload shim, since the
// device library carries no LAPACK-class routines. Every operation blocks
// until its result is host-visible, so calls compose imperatively.
package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/causalml/substrate/internal/backend/reference"
	"github.com/causalml/substrate/internal/tensor"
)

// Backend implements the tensor contract on GPU using WebGPU.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache.
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	// Recycled result and staging buffers.
	pool *bufferPool

	adapterInfo *wgpu.AdapterInfoGo

	// Host shim for operations without a device kernel.
	host *reference.Backend
}

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available or initialization fails.
func New() (backend *Backend, err error) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return nil, fmt.Errorf("webgpu: failed to create instance: %w", instanceErr)
	}
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	adapterInfo, _ := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		pool:        newBufferPool(device),
		adapterInfo: adapterInfo,
		host:        reference.New(),
	}, nil
}

// IsAvailable checks if WebGPU is available on the current system.
// Useful for graceful fallback to the reference backend.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, instanceErr := wgpu.CreateInstance(nil)
	if instanceErr != nil {
		return false
	}
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Release frees GPU resources. The backend must not be used afterwards.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	for _, s := range b.shaders {
		s.Release()
	}
	b.pipelines = nil
	b.shaders = nil

	if b.pool != nil {
		b.pool.clear()
		b.pool = nil
	}

	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}

// Name returns the backend name including the adapter when known.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Device, b.adapterInfo.Vendor)
	}
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// Supports reports scalar-type support: float32 only on this backend.
func (b *Backend) Supports(dtype tensor.DataType) bool {
	return dtype == tensor.Float32
}

func (b *Backend) checkDType(op string, x *tensor.RawTensor) error {
	if x.DType() != tensor.Float32 {
		return fmt.Errorf("webgpu %s: %w: %s", op, tensor.ErrUnsupportedScalarType, x.DType())
	}
	return nil
}

// deviceBuffer wraps a wgpu storage buffer as a tensor.DeviceBuffer.
type deviceBuffer struct {
	buf *wgpu.Buffer
}

func (d *deviceBuffer) Release() {
	if d.buf != nil {
		d.buf.Release()
		d.buf = nil
	}
}

// Upload copies host data into a device storage buffer and attaches the
// handle, so chained device operations reuse the resident copy. This is
// the explicit, costed host→device step; no other operation uploads its
// inputs implicitly beyond its own working buffers.
func (b *Backend) Upload(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkDType("upload", x); err != nil {
		return nil, err
	}
	out := x.Clone()
	buf := b.createBuffer(out.Data(), storageUsage)
	out.SetDeviceData(&deviceBuffer{buf: buf}, tensor.WebGPU)
	return out, nil
}

// Download reads the device-resident copy, if any, back into a fresh
// host tensor. For tensors without a device copy it degenerates to a
// host clone.
func (b *Backend) Download(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	out := x.Clone()
	if db, ok := x.DeviceData().(*deviceBuffer); ok && db.buf != nil {
		data, err := b.readBuffer(db.buf, uint64(x.ByteSize())) //nolint:gosec // G115: ByteSize is non-negative
		if err != nil {
			return nil, fmt.Errorf("webgpu download: %w", err)
		}
		copy(out.Data(), data)
	}
	return out, nil
}

// Host-shim operations: no device kernel exists for these, so they run on
// the reference implementation against host data. The shim is semantically
// identical by construction; parity tests cover the device kernels.

// Reshape returns a tensor with the same data and a new shape.
func (b *Backend) Reshape(x *tensor.RawTensor, shape tensor.Shape) (*tensor.RawTensor, error) {
	return b.host.Reshape(x, shape)
}

// Transpose permutes the tensor's dimensions.
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) (*tensor.RawTensor, error) {
	return b.host.Transpose(x, axes...)
}

// Slice extracts the half-open range [start, end) along axis.
func (b *Backend) Slice(x *tensor.RawTensor, axis, start, end int) (*tensor.RawTensor, error) {
	return b.host.Slice(x, axis, start, end)
}

// Concat concatenates tensors along an axis.
func (b *Backend) Concat(xs []*tensor.RawTensor, axis int) (*tensor.RawTensor, error) {
	return b.host.Concat(xs, axis)
}

// Sum reduces the tensor to a scalar.
func (b *Backend) Sum(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkDType("sum", x); err != nil {
		return nil, err
	}
	return b.host.Sum(x)
}

// SumAxis sums along a single axis.
func (b *Backend) SumAxis(x *tensor.RawTensor, axis int, keepDim bool) (*tensor.RawTensor, error) {
	if err := b.checkDType("sum_axis", x); err != nil {
		return nil, err
	}
	return b.host.SumAxis(x, axis, keepDim)
}

// Inverse inverts the trailing square matrix on the host shim.
func (b *Backend) Inverse(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkDType("inverse", x); err != nil {
		return nil, err
	}
	return b.host.Inverse(x)
}

// Eig decomposes a symmetric matrix on the host shim.
func (b *Backend) Eig(x *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor, error) {
	if err := b.checkDType("eig", x); err != nil {
		return nil, nil, err
	}
	return b.host.Eig(x)
}
