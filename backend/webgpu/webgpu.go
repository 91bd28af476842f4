// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU accelerated backend.
//
// WebGPU is a cross-platform compute API that works on Windows
// (Dawn/D3D12), macOS (Dawn/Metal), Linux (Dawn/Vulkan) and in browsers.
// The backend executes elementwise arithmetic and batched matmul on the
// device; operations without a device kernel run on an explicit host shim.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
//
//	x := tensor.Randn[float32](tensor.Shape{1024, 1024}, gpu)
package webgpu

import (
	internalwebgpu "github.com/causalml/substrate/internal/backend/webgpu"
	"github.com/causalml/substrate/tensor"
)

// Backend is the WebGPU implementation of the contract.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Returns an error if WebGPU initialization fails (e.g. no compatible
// GPU). Call Release when done to free device resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// It attempts to initialize a WebGPU adapter to verify that a compatible
// GPU and drivers are present, enabling graceful fallback to the
// reference backend:
//
//	if webgpu.IsAvailable() {
//	    accel, _ := webgpu.New()
//	    engine = dispatch.New(reference.New(), accel)
//	} else {
//	    engine = dispatch.New(reference.New(), nil)
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
