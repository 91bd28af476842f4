// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package topology

import (
	"fmt"
	"math"

	"github.com/causalml/substrate/tensor"
)

// spectralTol is the magnitude below which a normalized-Laplacian
// eigenvalue counts as zero for connectivity detection.
const spectralTol = 1e-8

// View is a read-only tensor snapshot of a graph: dense float64
// adjacency plus the vertex-id to row mapping fixed at construction.
//
// The snapshot decouples the view from later graph mutation; take a new
// view to observe changes.
type View struct {
	adj     *tensor.RawTensor // [n, n] float64
	nodes   []string
	index   map[string]int
	backend tensor.Backend
}

// NewView snapshots a graph into dense tensor form. Vertex rows follow
// the graph's sorted vertex order.
func NewView(g *Graph, backend tensor.Backend) (*View, error) {
	nodes := g.Vertices()
	n := len(nodes)
	if n == 0 {
		return nil, ErrEmptyGraph
	}

	index := make(map[string]int, n)
	for i, id := range nodes {
		index[id] = i
	}

	adj, err := tensor.NewRaw(tensor.Shape{n, n}, tensor.Float64, tensor.Host)
	if err != nil {
		return nil, err
	}
	data := adj.AsFloat64()
	for i, u := range nodes {
		for v, w := range g.adj[u] {
			data[i*n+index[v]] = w
		}
	}
	return &View{adj: adj, nodes: nodes, index: index, backend: backend}, nil
}

// Adjacency returns the dense adjacency tensor [n, n].
func (v *View) Adjacency() *tensor.RawTensor { return v.adj }

// Nodes returns the vertex ids in row order.
func (v *View) Nodes() []string { return append([]string(nil), v.nodes...) }

// Index returns the row of a vertex id and whether it is in the view.
func (v *View) Index(id string) (int, bool) {
	i, ok := v.index[id]
	return i, ok
}

// NormalizedLaplacian computes L = I − D^{−1/2} A D^{−1/2} through
// backend operations on the adjacency snapshot.
//
// Rows of isolated vertices are left entirely zero, which keeps L
// symmetric and puts one extra zero eigenvalue per isolated vertex,
// consistent with each being its own component.
func (v *View) NormalizedLaplacian() (*tensor.RawTensor, error) {
	n := len(v.nodes)
	deg := v.degrees()

	col, err := tensor.NewRaw(tensor.Shape{n, 1}, tensor.Float64, tensor.Host)
	if err != nil {
		return nil, err
	}
	row, err := tensor.NewRaw(tensor.Shape{1, n}, tensor.Float64, tensor.Host)
	if err != nil {
		return nil, err
	}
	// Identity restricted to non-isolated vertices.
	mask, err := tensor.NewRaw(tensor.Shape{n, n}, tensor.Float64, tensor.Host)
	if err != nil {
		return nil, err
	}
	for i, d := range deg {
		if d == 0 {
			continue
		}
		s := 1 / math.Sqrt(d)
		col.AsFloat64()[i] = s
		row.AsFloat64()[i] = s
		mask.AsFloat64()[i*n+i] = 1
	}

	// Outer product of the D^{−1/2} diagonal, applied entrywise to A.
	// Each scale factor s_i·s_j is rounded once, so L is exactly
	// symmetric whenever A is.
	outer, err := v.backend.MatMul(col, row)
	if err != nil {
		return nil, err
	}
	scaled, err := v.backend.Mul(v.adj, outer)
	if err != nil {
		return nil, err
	}
	return v.backend.Sub(mask, scaled)
}

// degrees returns the weighted degree of each vertex in row order.
func (v *View) degrees() []float64 {
	n := len(v.nodes)
	a := v.adj.AsFloat64()
	deg := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			deg[i] += a[i*n+j]
		}
	}
	return deg
}

// SpectralGap returns the second-smallest eigenvalue of the normalized
// Laplacian. A zero eigenvalue of multiplicity greater than one means
// the graph is disconnected, reported as ErrDisconnectedGraph.
func (v *View) SpectralGap() (float64, error) {
	n := len(v.nodes)
	if n < 2 {
		return 0, fmt.Errorf("topology: spectral gap needs at least two vertices, got %d", n)
	}
	lap, err := v.NormalizedLaplacian()
	if err != nil {
		return 0, err
	}
	vals, _, err := v.backend.Eig(lap)
	if err != nil {
		return 0, fmt.Errorf("topology: spectral gap: %w", err)
	}
	host, err := v.backend.Download(vals)
	if err != nil {
		return 0, err
	}
	ascending := host.AsFloat64()
	if math.Abs(ascending[1]) < spectralTol {
		return 0, fmt.Errorf("%w: zero eigenvalue multiplicity > 1", ErrDisconnectedGraph)
	}
	return ascending[1], nil
}

// Diffuse advances a mass distribution over the graph by the given
// number of random-walk steps, computed as repeated matmul with the
// column-stochastic walk matrix A D^{−1}.
//
// The adjacency is normalized internally: the state carries raw mass,
// not a pre-normalized operator, and column stochasticity conserves
// total mass across steps; isolated vertices keep their mass in place.
// Callers that want the unnormalized iteration can matmul against
// Adjacency directly, or fetch the operator itself from Walk.
func (v *View) Diffuse(state *tensor.RawTensor, steps int) (*tensor.RawTensor, error) {
	n := len(v.nodes)
	shape := state.Shape()
	if len(shape) != 1 || shape[0] != n {
		return nil, fmt.Errorf("topology: diffuse: %w: state shape %v, want [%d]",
			tensor.ErrShapeMismatch, shape, n)
	}
	if steps < 0 {
		return nil, fmt.Errorf("topology: diffuse: %w: negative step count %d",
			tensor.ErrIndexOutOfBounds, steps)
	}

	walk, err := v.walkMatrix()
	if err != nil {
		return nil, err
	}
	cur, err := v.backend.Reshape(state, tensor.Shape{n, 1})
	if err != nil {
		return nil, err
	}
	for s := 0; s < steps; s++ {
		if cur, err = v.backend.MatMul(walk, cur); err != nil {
			return nil, err
		}
	}
	return v.backend.Reshape(cur, tensor.Shape{n})
}

// Walk returns the column-stochastic transition matrix A D^{−1} that
// Diffuse iterates, with identity columns for isolated vertices.
func (v *View) Walk() (*tensor.RawTensor, error) {
	return v.walkMatrix()
}

// walkMatrix builds A D^{−1} as a backend broadcast of the inverse
// column degrees, plus identity columns for isolated vertices.
func (v *View) walkMatrix() (*tensor.RawTensor, error) {
	n := len(v.nodes)
	a := v.adj.AsFloat64()

	inv, err := tensor.NewRaw(tensor.Shape{1, n}, tensor.Float64, tensor.Host)
	if err != nil {
		return nil, err
	}
	iso, err := tensor.NewRaw(tensor.Shape{n, n}, tensor.Float64, tensor.Host)
	if err != nil {
		return nil, err
	}
	for j := 0; j < n; j++ {
		var deg float64
		for i := 0; i < n; i++ {
			deg += a[i*n+j]
		}
		if deg == 0 {
			iso.AsFloat64()[j*n+j] = 1
			continue
		}
		inv.AsFloat64()[j] = 1 / deg
	}

	scaled, err := v.backend.Mul(v.adj, inv)
	if err != nil {
		return nil, err
	}
	return v.backend.Add(scaled, iso)
}
