package topology

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/causalml/substrate/backend/reference"
	"github.com/causalml/substrate/tensor"
)

func completeGraph(n int) *Graph {
	g := NewGraph()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			_ = g.AddEdge(fmt.Sprintf("v%d", i), fmt.Sprintf("v%d", j), 1)
		}
	}
	return g
}

func TestView_Snapshot(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "b", 2))
	view, err := NewView(g, reference.NewSequential())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, view.Nodes())
	i, ok := view.Index("b")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	adj := view.Adjacency().AsFloat64()
	assert.Equal(t, []float64{0, 2, 2, 0}, adj)

	// Later mutation must not leak into the snapshot.
	require.NoError(t, g.AddEdge("a", "c", 1))
	assert.Equal(t, 2, len(view.Nodes()))
	assert.Equal(t, []float64{0, 2, 2, 0}, view.Adjacency().AsFloat64())
}

func TestView_EmptyGraph(t *testing.T) {
	_, err := NewView(NewGraph(), reference.NewSequential())
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

// The complete graph K5 has normalized-Laplacian spectrum
// {0, 1.25, 1.25, 1.25, 1.25}.
func TestView_K5Spectrum(t *testing.T) {
	backend := reference.NewSequential()
	view, err := NewView(completeGraph(5), backend)
	require.NoError(t, err)

	lap, err := view.NormalizedLaplacian()
	require.NoError(t, err)
	vals, _, err := backend.Eig(lap)
	require.NoError(t, err)

	got := vals.AsFloat64()
	want := []float64{0, 1.25, 1.25, 1.25, 1.25}
	assert.InDeltaSlice(t, want, got, 1e-10)

	gap, err := view.SpectralGap()
	require.NoError(t, err)
	assert.InDelta(t, 1.25, gap, 1e-10)
}

func TestView_NormalizedLaplacianStructure(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "b", 1))
	g.AddVertex("isolated")

	view, err := NewView(g, reference.NewSequential())
	require.NoError(t, err)
	lap, err := view.NormalizedLaplacian()
	require.NoError(t, err)

	l := lap.AsFloat64()
	n := 3
	// Symmetry.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, l[i*n+j], l[j*n+i])
		}
	}
	// The isolated vertex row/column stays zero.
	iso, _ := view.Index("isolated")
	for j := 0; j < n; j++ {
		assert.Zero(t, l[iso*n+j])
		assert.Zero(t, l[j*n+iso])
	}
}

// Unequal weights produce distinct scale factors per vertex; the
// Laplacian must still come out exactly symmetric.
func TestView_NormalizedLaplacianWeightedSymmetry(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "b", 0.3))
	require.NoError(t, g.AddEdge("b", "c", 0.7))
	require.NoError(t, g.AddEdge("a", "c", 1.9))

	view, err := NewView(g, reference.NewSequential())
	require.NoError(t, err)
	lap, err := view.NormalizedLaplacian()
	require.NoError(t, err)

	l := lap.AsFloat64()
	n := 3
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			assert.Equal(t, l[i*n+j], l[j*n+i])
		}
	}
}

func TestView_Walk(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "b", 1))
	require.NoError(t, g.AddEdge("b", "c", 3))
	g.AddVertex("iso")

	view, err := NewView(g, reference.NewSequential())
	require.NoError(t, err)
	walk, err := view.Walk()
	require.NoError(t, err)

	n := 4
	w := walk.AsFloat64()
	// Every column sums to one.
	for j := 0; j < n; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += w[i*n+j]
		}
		assert.InDeltaf(t, 1.0, sum, 1e-12, "column %d", j)
	}
	// The isolated vertex gets an identity column.
	iso, _ := view.Index("iso")
	for i := 0; i < n; i++ {
		want := 0.0
		if i == iso {
			want = 1
		}
		assert.Equal(t, want, w[i*n+iso])
	}
}

func TestView_SpectralGapDisconnected(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "b", 1))
	require.NoError(t, g.AddEdge("c", "d", 1))

	view, err := NewView(g, reference.NewSequential())
	require.NoError(t, err)
	_, err = view.SpectralGap()
	assert.ErrorIs(t, err, ErrDisconnectedGraph)
}

func TestView_DiffuseConservesMass(t *testing.T) {
	backend := reference.NewSequential()

	t.Run("CompleteGraph", func(t *testing.T) {
		view, err := NewView(completeGraph(5), backend)
		require.NoError(t, err)

		state, err := tensor.NewRaw(tensor.Shape{5}, tensor.Float64, tensor.Host)
		require.NoError(t, err)
		state.AsFloat64()[0] = 10 // all mass on one vertex

		out, err := view.Diffuse(state, 7)
		require.NoError(t, err)

		var mass float64
		for _, v := range out.AsFloat64() {
			mass += v
			assert.GreaterOrEqual(t, v, 0.0)
		}
		assert.InDelta(t, 10.0, mass, 1e-10)
	})

	t.Run("UniformIsStationaryOnRegularGraph", func(t *testing.T) {
		view, err := NewView(completeGraph(4), backend)
		require.NoError(t, err)

		state, err := tensor.NewRaw(tensor.Shape{4}, tensor.Float64, tensor.Host)
		require.NoError(t, err)
		for i := range state.AsFloat64() {
			state.AsFloat64()[i] = 0.25
		}
		out, err := view.Diffuse(state, 3)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.25, 0.25}, out.AsFloat64(), 1e-12)
	})

	t.Run("IsolatedVertexKeepsMass", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddEdge("a", "b", 1))
		g.AddVertex("iso")
		view, err := NewView(g, backend)
		require.NoError(t, err)

		state, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float64, tensor.Host)
		require.NoError(t, err)
		iso, _ := view.Index("iso")
		state.AsFloat64()[iso] = 1

		out, err := view.Diffuse(state, 5)
		require.NoError(t, err)
		assert.Equal(t, 1.0, out.AsFloat64()[iso])
	})

	t.Run("ZeroSteps", func(t *testing.T) {
		view, err := NewView(completeGraph(3), backend)
		require.NoError(t, err)
		state, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float64, tensor.Host)
		require.NoError(t, err)
		state.AsFloat64()[1] = 2
		out, err := view.Diffuse(state, 0)
		require.NoError(t, err)
		assert.Equal(t, state.AsFloat64(), out.AsFloat64())
	})
}

func TestView_DiffuseValidation(t *testing.T) {
	view, err := NewView(completeGraph(3), reference.NewSequential())
	require.NoError(t, err)

	bad, err := tensor.NewRaw(tensor.Shape{4}, tensor.Float64, tensor.Host)
	require.NoError(t, err)
	_, err = view.Diffuse(bad, 1)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	state, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float64, tensor.Host)
	require.NoError(t, err)
	_, err = view.Diffuse(state, -1)
	assert.ErrorIs(t, err, tensor.ErrIndexOutOfBounds)
}

func TestView_PathGraphGap(t *testing.T) {
	// P3: normalized Laplacian eigenvalues are {0, 1, 2}.
	g := NewGraph()
	require.NoError(t, g.AddEdge("a", "b", 1))
	require.NoError(t, g.AddEdge("b", "c", 1))

	view, err := NewView(g, reference.NewSequential())
	require.NoError(t, err)
	gap, err := view.SpectralGap()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, gap, 1e-10)
	assert.False(t, math.IsNaN(gap))
}
