package graphs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAdjacency(t *testing.T) {
	testCases := []struct {
		name        string
		adj         Adjacency
		expectedErr error
	}{
		{
			name: "basic",
			adj:  Adjacency{U: 1, V: -2, Genome: "A"},
		},
		{
			name: "with distance",
			adj:  Adjacency{U: 1, V: -2, Genome: "A", Distance: 0, HasDistance: true},
		},
		{
			name:        "self loop",
			adj:         Adjacency{U: 3, V: 3, Genome: "A"},
			expectedErr: ErrSelfLoop,
		},
		{
			name:        "zero extremity",
			adj:         Adjacency{U: 0, V: 3, Genome: "A"},
			expectedErr: ErrInvalidExtremity,
		},
		{
			name:        "missing genome",
			adj:         Adjacency{U: 1, V: 3},
			expectedErr: ErrMissingGenomeLabel,
		},
		{
			name:        "negative distance",
			adj:         Adjacency{U: 1, V: 3, Genome: "A", Distance: -1, HasDistance: true},
			expectedErr: ErrNegativeDistance,
		},
		{
			name: "negative distance unrecorded",
			adj:  Adjacency{U: 1, V: 3, Genome: "A", Distance: -1},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			bg := NewBreakpointGraph()
			err := bg.AddAdjacency(test.adj)
			if test.expectedErr != nil {
				assert.ErrorIs(t, err, test.expectedErr)
				assert.Zero(t, bg.NumAdjacencies())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, bg.NumAdjacencies())
			assert.Equal(t, 2, bg.NumNodes())
		})
	}
}

func buildGraph(t *testing.T, adjs ...Adjacency) *BreakpointGraph {
	t.Helper()
	bg := NewBreakpointGraph()
	for _, a := range adjs {
		require.NoError(t, bg.AddAdjacency(a))
	}
	return bg
}

func TestVertexDistance(t *testing.T) {
	bg := buildGraph(t,
		Adjacency{U: 1, V: 2, Genome: "A", Distance: 10, HasDistance: true},
		Adjacency{U: 2, V: 1, Genome: "B", Distance: 20, HasDistance: true},
		Adjacency{U: 1, V: 2, Genome: "C"},
		Adjacency{U: 2, V: 3, Genome: "A"},
		Adjacency{U: 3, V: 4, Genome: "A", Distance: 0, HasDistance: true},
	)
	testCases := []struct {
		a, b     int64
		expected float64
	}{
		{1, 2, 15},
		{2, 1, 15},
		{2, 3, 0},
		{3, 4, 0},
		{1, 4, 0},
	}
	for _, test := range testCases {
		assert.Equal(t, test.expected, bg.VertexDistance(test.a, test.b), "distance %d %d", test.a, test.b)
	}
}

func TestComponents(t *testing.T) {
	bg := buildGraph(t,
		Adjacency{U: 9, V: 7, Genome: "A"},
		Adjacency{U: 5, V: -6, Genome: "B"},
		Adjacency{U: -6, V: 8, Genome: "A"},
		Adjacency{U: 5, V: -6, Genome: "A"},
		Adjacency{U: -1, V: 2, Genome: "C"},
	)
	comps := bg.Components()
	require.Len(t, comps, 3)
	assert.Equal(t, []int64{-6, 5, 8}, comps[0].Nodes())
	assert.Equal(t, []int64{-1, 2}, comps[1].Nodes())
	assert.Equal(t, []int64{7, 9}, comps[2].Nodes())

	c := comps[0]
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 3, c.NumAdjacencies())
	assert.Equal(t, []int64{5, 8}, c.Neighbors(-6))
	assert.Equal(t, []int64{-6}, c.Neighbors(5))
	between := c.Between(5, -6)
	require.Len(t, between, 2)
	assert.Equal(t, "B", between[0].Genome)
	assert.Equal(t, "A", between[1].Genome)
	assert.Equal(t, between, c.Between(-6, 5))
	assert.Equal(t, []string{"A", "B"}, c.Genomes())
	assert.Len(t, c.Adjacencies(), 3)
	assert.Empty(t, c.Between(5, 8))
}

func TestAdjacencyOther(t *testing.T) {
	a := Adjacency{U: 4, V: -9, Genome: "A"}
	assert.Equal(t, int64(-9), a.Other(4))
	assert.Equal(t, int64(4), a.Other(-9))
}

func TestNewComponentExtraNodes(t *testing.T) {
	c := NewComponent([]int64{3, 1}, []Adjacency{{U: 2, V: 1, Genome: "A"}})
	assert.Equal(t, []int64{1, 2, 3}, c.Nodes())
	assert.Empty(t, c.Neighbors(3))
	assert.Equal(t, []int64{2}, c.Neighbors(1))
}
