// Copyright 2025 The Substrate Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package topology provides a host-side weighted graph and its tensor
// view: dense adjacency, normalized Laplacian, spectral gap and random
// walk diffusion executed on a backend.
//
// The graph itself lives in host maps and is the mutable source of
// truth; views are read-only snapshots. Mutating a graph after taking a
// view never changes the view.
package topology

import (
	"fmt"
	"sort"
)

// Graph is an undirected weighted graph over string vertex ids.
// Not safe for concurrent mutation.
type Graph struct {
	adj map[string]map[string]float64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[string]map[string]float64)}
}

// AddVertex adds a vertex. Adding an existing vertex is a no-op.
func (g *Graph) AddVertex(id string) {
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = make(map[string]float64)
	}
}

// AddEdge adds an undirected edge with the given positive weight,
// creating missing vertices. Re-adding an edge overwrites its weight.
func (g *Graph) AddEdge(u, v string, weight float64) error {
	if weight <= 0 {
		return fmt.Errorf("%w: %g between %q and %q", ErrNonPositiveWeight, weight, u, v)
	}
	g.AddVertex(u)
	g.AddVertex(v)
	g.adj[u][v] = weight
	g.adj[v][u] = weight
	return nil
}

// HasVertex reports whether the vertex exists.
func (g *Graph) HasVertex(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Weight returns the weight of edge (u, v) and whether it exists.
func (g *Graph) Weight(u, v string) (float64, bool) {
	w, ok := g.adj[u][v]
	return w, ok
}

// Neighbors returns the sorted neighbor ids of a vertex.
func (g *Graph) Neighbors(id string) ([]string, error) {
	nbrs, ok := g.adj[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}
	out := make([]string, 0, len(nbrs))
	for v := range nbrs {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// Vertices returns all vertex ids in sorted order. The ordering defines
// the row/column assignment of every view taken from this graph.
func (g *Graph) Vertices() []string {
	out := make([]string, 0, len(g.adj))
	for v := range g.adj {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// VertexCount returns the number of vertices.
func (g *Graph) VertexCount() int { return len(g.adj) }

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for u, nbrs := range g.adj {
		for v := range nbrs {
			if u <= v {
				n++
			}
		}
	}
	return n
}
