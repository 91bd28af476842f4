package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the compute device where tensor data resides.
type Device int

// Supported compute devices.
const (
	Host Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case Host:
		return "Host"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// DeviceBuffer is an opaque handle to device-resident storage attached to a
// RawTensor by an accelerated backend's Upload. Release frees the device
// allocation; the host copy stays valid.
type DeviceBuffer interface {
	Release()
}

// RawTensor is the low-level tensor representation: a flat row-major buffer
// plus shape, stride and runtime type information. Contract operations treat
// RawTensors as immutable values and always allocate fresh results; host code
// mutates storage only through the typed accessors before handing a tensor
// to a backend.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device

	// deviceBuf is set by an accelerated backend's Upload so chained
	// device operations can reuse the resident copy.
	deviceBuf DeviceBuffer
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// DeviceData returns the device-resident handle set by Upload, or nil when
// the tensor has no device copy.
func (r *RawTensor) DeviceData() DeviceBuffer {
	return r.deviceBuf
}

// SetDeviceData attaches a device-resident handle. Used by accelerated
// backends; a previously attached handle is released first.
func (r *RawTensor) SetDeviceData(buf DeviceBuffer, device Device) {
	if r.deviceBuf != nil {
		r.deviceBuf.Release()
	}
	r.deviceBuf = buf
	r.device = device
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsComplex64 interprets the data as []complex64.
// Panics if the tensor's dtype is not Complex64.
func (r *RawTensor) AsComplex64() []complex64 {
	if r.dtype != Complex64 {
		panic(fmt.Sprintf("tensor dtype is %s, not complex64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*complex64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsComplex128 interprets the data as []complex128.
// Panics if the tensor's dtype is not Complex128.
func (r *RawTensor) AsComplex128() []complex128 {
	if r.dtype != Complex128 {
		panic(fmt.Sprintf("tensor dtype is %s, not complex128", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*complex128)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone creates a deep copy of the RawTensor's host data. The device copy,
// if any, is not duplicated; the clone starts host-resident.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: Host,
	}
}

// Release frees the device-resident copy, if any. Host data stays valid.
func (r *RawTensor) Release() {
	if r.deviceBuf != nil {
		r.deviceBuf.Release()
		r.deviceBuf = nil
		r.device = Host
	}
}
