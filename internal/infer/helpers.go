package infer

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/jsdoublel/phyloadj/internal/matching"
)

// Folds the directed scoring graph into an undirected matching graph. The
// weights of u -> v and v -> u are summed and the sum negated.
func MatchingGraph(scores *simple.WeightedDirectedGraph) *simple.WeightedUndirectedGraph {
	mg := simple.NewWeightedUndirectedGraph(0, 0)
	nodes := scores.Nodes()
	for nodes.Next() {
		mg.AddNode(simple.Node(nodes.Node().ID()))
	}
	sums := make(map[[2]int64]float64)
	edges := scores.WeightedEdges()
	for edges.Next() {
		e := edges.WeightedEdge()
		u, v := e.From().ID(), e.To().ID()
		if u > v {
			u, v = v, u
		}
		sums[[2]int64{u, v}] += e.Weight()
	}
	for uv, w := range sums {
		mg.SetWeightedEdge(mg.NewWeightedEdge(simple.Node(uv[0]), simple.Node(uv[1]), -w))
	}
	return mg
}

// Flattens mg into matching edges over the positions of nodes, which must be
// sorted. Edges are listed by ascending endpoints.
func matchingEdges(mg *simple.WeightedUndirectedGraph, nodes []int64) []matching.Edge {
	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}
	edges := make([]matching.Edge, 0)
	for i, u := range nodes {
		nbrs := make([]int64, 0)
		for _, v := range graph.NodesOf(mg.From(u)) {
			if v.ID() > u {
				nbrs = append(nbrs, v.ID())
			}
		}
		slices.Sort(nbrs)
		for _, v := range nbrs {
			edges = append(edges, matching.Edge{U: i, V: index[v], W: mg.WeightedEdge(u, v).Weight()})
		}
	}
	return edges
}
