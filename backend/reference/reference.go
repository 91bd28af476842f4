// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package reference provides the host-memory reference backend.
//
// This backend is the system's correctness oracle: it supports every
// scalar type, has no device-transfer cost, and is always legal to use.
// Accelerated backends must agree with it within the stated tolerances.
//
// Example:
//
//	backend := reference.New()
//	x := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
package reference

import (
	internalreference "github.com/causalml/substrate/internal/backend/reference"
	"github.com/causalml/substrate/tensor"
)

// Backend is the host-memory reference implementation of the contract.
type Backend = internalreference.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new reference backend with default parallelism.
func New() *Backend {
	return internalreference.New()
}

// NewSequential creates a reference backend that never spawns workers.
// Deterministic single-goroutine execution, useful in tests.
func NewSequential() *Backend {
	return internalreference.NewSequential()
}
