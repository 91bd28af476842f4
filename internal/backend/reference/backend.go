// Package reference implements the host-memory reference backend.
//
// It is the correctness oracle for the system: it supports every scalar
// type in the DType set, has no upload cost, and every other backend's
// output must agree with it within the stated tolerances. Elementwise and
// batched loops go through internal/parallel; linear algebra goes through
// gonum.
package reference

import (
	"fmt"

	"github.com/causalml/substrate/internal/parallel"
	"github.com/causalml/substrate/internal/tensor"
)

// Backend implements the tensor contract directly over host memory.
type Backend struct {
	par parallel.Config
}

// New creates a new reference backend with default parallelism.
func New() *Backend {
	return &Backend{par: parallel.DefaultConfig()}
}

// NewSequential creates a reference backend that never spawns workers.
// Deterministic single-goroutine execution, used by tests.
func NewSequential() *Backend {
	return &Backend{par: parallel.Config{}}
}

// Name returns the backend name.
func (r *Backend) Name() string {
	return "Reference"
}

// Device returns the compute device.
func (r *Backend) Device() tensor.Device {
	return tensor.Host
}

// Supports reports scalar-type support; the reference backend accepts the
// full DType set.
func (r *Backend) Supports(tensor.DataType) bool {
	return true
}

// Upload is an identity copy: the reference backend is host-resident, so
// residency transfer is free but still observable (a fresh tensor).
func (r *Backend) Upload(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return x.Clone(), nil
}

// Download mirrors Upload for the host backend.
func (r *Backend) Download(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return x.Clone(), nil
}

// newResult allocates the output tensor for an operation.
func (r *Backend) newResult(shape tensor.Shape, dtype tensor.DataType) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(shape, dtype, tensor.Host)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	return out, nil
}
