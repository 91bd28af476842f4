// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/causalml/substrate/internal/tensor"

// Backend defines the contract that all compute backends must implement.
//
// Implementations:
//   - backend/reference: host-memory correctness baseline, all dtypes
//   - backend/webgpu: GPU execution via WebGPU compute shaders, float32
//
// Every operation is pure with respect to its tensor arguments and blocks
// until the result is complete. See the internal package for the full
// contract documentation, including the IEEE-754 division policy and the
// symmetric-only Eig semantics.
type Backend = tensor.Backend
