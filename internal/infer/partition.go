package infer

import (
	"gonum.org/v1/gonum/graph/simple"

	gr "github.com/jsdoublel/phyloadj/internal/graphs"
	"github.com/jsdoublel/phyloadj/internal/matching"
)

// Distance assigned to the pair of a two node component
const TrivialDistance = 1.0

// Chosen adjacency between extremities A < B
type Pair struct {
	A, B     int64
	Distance float64
}

type DistanceFunc func(a, b int64) float64

// Splits a component into adjacencies. A two node component is paired
// directly without looking at scores. Otherwise the scoring graph is folded
// into a matching graph and the pairs come from a maximum cardinality matching
// of largest weight; each pair's distance is dist(a, b). Nodes can be left
// unmatched. The matching graph is returned for diagnostics (nil for two node
// components).
func Partition(comp *gr.Component, scores *simple.WeightedDirectedGraph, dist DistanceFunc) ([]Pair, *simple.WeightedUndirectedGraph) {
	nodes := comp.Nodes()
	if len(nodes) == 2 {
		return []Pair{{A: nodes[0], B: nodes[1], Distance: TrivialDistance}}, nil
	}
	mg := MatchingGraph(scores)
	mate := matching.MaxWeightMatching(len(nodes), matchingEdges(mg, nodes), true)
	pairs := make([]Pair, 0, len(nodes)/2)
	for i, m := range mate {
		if m > i {
			a, b := nodes[i], nodes[m]
			pairs = append(pairs, Pair{A: a, B: b, Distance: dist(a, b)})
		}
	}
	return pairs, mg
}
