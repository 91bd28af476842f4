package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Basics(t *testing.T) {
	g := NewGraph()
	assert.Equal(t, 0, g.VertexCount())

	g.AddVertex("b")
	g.AddVertex("a")
	g.AddVertex("a") // idempotent
	assert.Equal(t, 2, g.VertexCount())
	assert.Equal(t, []string{"a", "b"}, g.Vertices())

	require.NoError(t, g.AddEdge("a", "c", 2.5))
	assert.Equal(t, 3, g.VertexCount(), "AddEdge creates missing vertices")
	assert.Equal(t, 1, g.EdgeCount())

	w, ok := g.Weight("a", "c")
	assert.True(t, ok)
	assert.Equal(t, 2.5, w)
	w, ok = g.Weight("c", "a")
	assert.True(t, ok, "edges are undirected")
	assert.Equal(t, 2.5, w)

	_, ok = g.Weight("a", "b")
	assert.False(t, ok)
}

func TestGraph_EdgeValidation(t *testing.T) {
	g := NewGraph()
	err := g.AddEdge("a", "b", 0)
	assert.ErrorIs(t, err, ErrNonPositiveWeight)
	err = g.AddEdge("a", "b", -1)
	assert.ErrorIs(t, err, ErrNonPositiveWeight)
	assert.Equal(t, 0, g.VertexCount(), "rejected edges must not add vertices")
}

func TestGraph_Neighbors(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "c", 1))
	require.NoError(t, g.AddEdge("a", "b", 1))

	nbrs, err := g.Neighbors("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, nbrs, "neighbors are sorted")

	_, err = g.Neighbors("missing")
	assert.ErrorIs(t, err, ErrVertexNotFound)
}

func TestGraph_OverwriteWeight(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "b", 1))
	require.NoError(t, g.AddEdge("a", "b", 3))
	assert.Equal(t, 1, g.EdgeCount())
	w, _ := g.Weight("a", "b")
	assert.Equal(t, 3.0, w)
}
