// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package topology

import "errors"

// Sentinel errors; match with errors.Is.
var (
	// ErrEmptyGraph is returned when a view or spectral operation is
	// requested over a graph with no vertices.
	ErrEmptyGraph = errors.New("topology: empty graph")

	// ErrVertexNotFound is returned when an operation references a
	// vertex that is not in the graph.
	ErrVertexNotFound = errors.New("topology: vertex not found")

	// ErrNonPositiveWeight is returned when an edge is added with a
	// weight that is zero or negative.
	ErrNonPositiveWeight = errors.New("topology: edge weight must be positive")

	// ErrDisconnectedGraph is returned by SpectralGap when the zero
	// eigenvalue of the normalized Laplacian has multiplicity greater
	// than one within tolerance, i.e. the graph has more than one
	// connected component.
	ErrDisconnectedGraph = errors.New("topology: graph is disconnected")
)
