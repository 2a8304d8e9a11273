package infer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph/simple"

	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

func scoringGraph(nodes []int64, weights map[[2]int64]float64) *simple.WeightedDirectedGraph {
	g := simple.NewWeightedDirectedGraph(0, 0)
	for _, n := range nodes {
		g.AddNode(simple.Node(n))
	}
	for uv, w := range weights {
		g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(uv[0]), simple.Node(uv[1]), w))
	}
	return g
}

func noDistance(a, b int64) float64 { return float64(a + b) }

func TestMatchingGraph(t *testing.T) {
	scores := scoringGraph([]int64{1, 2, 3, 4}, map[[2]int64]float64{
		{1, 2}: 0.5, {2, 1}: 0.25,
		{2, 3}: 1,
		{3, 4}: -2, {4, 3}: 3,
	})
	mg := MatchingGraph(scores)
	assert.Equal(t, 4, mg.Nodes().Len())
	assert.Equal(t, 3, mg.Edges().Len())
	testCases := []struct {
		u, v     int64
		expected float64
	}{
		{1, 2, -0.75},
		{2, 1, -0.75},
		{3, 2, -1},
		{4, 3, -1},
	}
	for _, test := range testCases {
		e := mg.WeightedEdge(test.u, test.v)
		require.NotNil(t, e)
		assert.Equal(t, test.expected, e.Weight())
	}
	assert.Nil(t, mg.WeightedEdge(1, 4))
}

func TestPartition(t *testing.T) {
	testCases := []struct {
		name     string
		adjs     []gr.Adjacency
		weights  map[[2]int64]float64
		expected []Pair
	}{
		{
			name:     "trivial",
			adjs:     []gr.Adjacency{{U: 9, V: -4, Genome: "A"}},
			expected: []Pair{{A: -4, B: 9, Distance: TrivialDistance}},
		},
		{
			name: "star matches one leaf",
			adjs: []gr.Adjacency{{U: 1, V: 2, Genome: "A"}, {U: 1, V: 3, Genome: "B"}, {U: 1, V: 4, Genome: "C"}},
			weights: map[[2]int64]float64{
				{1, 2}: 3, {2, 1}: 3, {1, 3}: 1, {3, 1}: 0.5, {1, 4}: 2, {4, 1}: 2,
			},
			expected: []Pair{{A: 1, B: 3, Distance: 4}},
		},
		{
			name: "no scores still matches",
			adjs: []gr.Adjacency{{U: 1, V: 2, Genome: "A"}, {U: 2, V: 3, Genome: "A"}, {U: 3, V: 4, Genome: "A"}},
			weights: map[[2]int64]float64{
				{1, 2}: 0, {3, 4}: 0,
			},
			expected: []Pair{{A: 1, B: 2, Distance: 3}, {A: 3, B: 4, Distance: 7}},
		},
		{
			name: "node without scored edges left out",
			adjs: []gr.Adjacency{{U: 1, V: 2, Genome: "A"}, {U: 2, V: 3, Genome: "A"}},
			weights: map[[2]int64]float64{
				{1, 2}: 0.1,
			},
			expected: []Pair{{A: 1, B: 2, Distance: 3}},
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			comp := gr.NewComponent(nil, test.adjs)
			pairs, mg := Partition(comp, scoringGraph(comp.Nodes(), test.weights), noDistance)
			assert.Equal(t, test.expected, pairs)
			if comp.Len() == 2 {
				assert.Nil(t, mg)
			} else {
				assert.NotNil(t, mg)
			}
		})
	}
}

func TestPartitionFeasible(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for iter := range 100 {
		n := 3 + rng.IntN(9)
		adjs := make([]gr.Adjacency, 0)
		weights := make(map[[2]int64]float64)
		for u := 1; u < n; u++ {
			v := 1 + rng.IntN(u) // keeps the component connected
			adjs = append(adjs, gr.Adjacency{U: int64(u + 1), V: int64(v), Genome: "A"})
			weights[[2]int64{int64(u + 1), int64(v)}] = rng.Float64()
			weights[[2]int64{int64(v), int64(u + 1)}] = rng.Float64()
		}
		comp := gr.NewComponent(nil, adjs)
		pairs, _ := Partition(comp, scoringGraph(comp.Nodes(), weights), noDistance)
		seen := make(map[int64]bool)
		for _, p := range pairs {
			assert.Less(t, p.A, p.B)
			assert.NotEmpty(t, comp.Between(p.A, p.B), "iteration %d: pair (%d, %d) is not an adjacency", iter, p.A, p.B)
			assert.False(t, seen[p.A] || seen[p.B], "iteration %d: node matched twice", iter)
			seen[p.A], seen[p.B] = true, true
		}
		assert.LessOrEqual(t, 2*len(pairs), 2*(comp.Len()/2))
	}
}
