// Package diag writes diagnostics for scored components: the breakpoint
// subgraph, the matching graph, and the best reconstruction of every node as
// Graphviz DOT files, optional SVG renderings of those, and a histogram of the
// matching weights of a run.
package diag

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/jsdoublel/phyloadj/internal/ancestral"
	gr "github.com/jsdoublel/phyloadj/internal/graphs"
)

var genomeColors = []string{
	"red", "blue", "darkgreen", "orange", "purple", "brown", "deeppink", "cyan4", "gold3", "gray40",
}

// Reconstructed tree as a digraph, nodes labeled "<label> <genome>" and
// edges labeled with branch lengths
func TreeDOT[L cmp.Ordered](t *ancestral.LabeledTree[L]) string {
	var buf bytes.Buffer
	buf.WriteString("digraph {\n")
	for i, n := range t.Nodes {
		label := strings.TrimSpace(fmt.Sprintf("%v %s", n.Label, n.Name))
		fmt.Fprintf(&buf, "  %d [label=%q];\n", i, label)
	}
	for i, n := range t.Nodes {
		for _, c := range n.Children {
			length := strconv.FormatFloat(t.Nodes[c].Length, 'g', -1, 64)
			fmt.Fprintf(&buf, "  %d -> %d [label=%q];\n", i, c, length)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// Breakpoint subgraph with one edge per observed adjacency, colored by genome
func ComponentDOT(comp *gr.Component) string {
	colors := make(map[string]string)
	for i, g := range comp.Genomes() {
		colors[g] = genomeColors[i%len(genomeColors)]
	}
	var buf bytes.Buffer
	buf.WriteString("graph {\n")
	for _, n := range comp.Nodes() {
		fmt.Fprintf(&buf, "  \"%d\";\n", n)
	}
	for _, a := range comp.Adjacencies() {
		label := a.Genome
		if a.HasDistance {
			label += " " + strconv.FormatFloat(a.Distance, 'g', -1, 64)
		}
		fmt.Fprintf(&buf, "  \"%d\" -- \"%d\" [color=%q, label=%q];\n", a.U, a.V, colors[a.Genome], label)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// Matching graph with weights as edge labels
func MatchingDOT(mg *simple.WeightedUndirectedGraph) string {
	nodes := make([]int64, 0)
	for _, n := range graph.NodesOf(mg.Nodes()) {
		nodes = append(nodes, n.ID())
	}
	slices.Sort(nodes)
	var buf bytes.Buffer
	buf.WriteString("graph {\n")
	for _, n := range nodes {
		fmt.Fprintf(&buf, "  \"%d\";\n", n)
	}
	for _, w := range matchingWeights(mg, nodes) {
		fmt.Fprintf(&buf, "  \"%d\" -- \"%d\" [label=%q];\n", w.u, w.v, fmt.Sprintf("%5.2f", w.w))
	}
	buf.WriteString("}\n")
	return buf.String()
}

type weightedPair struct {
	u, v int64
	w    float64
}

// Edges of mg with u < v in ascending order; nodes must be sorted
func matchingWeights(mg *simple.WeightedUndirectedGraph, nodes []int64) []weightedPair {
	pairs := make([]weightedPair, 0)
	for _, u := range nodes {
		nbrs := make([]int64, 0)
		for _, v := range graph.NodesOf(mg.From(u)) {
			if v.ID() > u {
				nbrs = append(nbrs, v.ID())
			}
		}
		slices.Sort(nbrs)
		for _, v := range nbrs {
			pairs = append(pairs, weightedPair{u: u, v: v, w: mg.WeightedEdge(u, v).Weight()})
		}
	}
	return pairs
}

// Renders a DOT graph to SVG using Graphviz
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
