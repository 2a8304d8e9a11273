package graphs

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"
)

var (
	ErrSelfLoop           = errors.New("self loop")
	ErrInvalidExtremity   = errors.New("invalid extremity")
	ErrNegativeDistance   = errors.New("negative distance")
	ErrMissingGenomeLabel = errors.New("missing genome label")
)

// Candidate adjacency between two signed extremities observed in one genome
type Adjacency struct {
	U, V        int64   // extremities, the sign encodes orientation
	Genome      string  // genome that observed the adjacency (a species tree leaf)
	Distance    float64 // observed gap between the extremities
	HasDistance bool    // false when the genome did not record a gap
}

// Returns the extremity on the other side of the adjacency from n
func (a Adjacency) Other(n int64) int64 {
	if a.U == n {
		return a.V
	}
	return a.U
}

// Chosen adjacency, stored under the key -Start
type Connection struct {
	Start    int64
	End      int64
	Distance float64
}

// gonum line carrying a breakpoint graph adjacency
type adjacencyLine struct {
	from, to graph.Node
	uid      int64
	adj      Adjacency
}

func (l adjacencyLine) From() graph.Node { return l.from }
func (l adjacencyLine) To() graph.Node   { return l.to }
func (l adjacencyLine) ID() int64        { return l.uid }

func (l adjacencyLine) ReversedLine() graph.Line {
	l.from, l.to = l.to, l.from
	return l
}

// Multigraph of signed extremities with one parallel edge per genome that
// observed the adjacency
type BreakpointGraph struct {
	g      *multi.UndirectedGraph
	nLines int64
}

func NewBreakpointGraph() *BreakpointGraph {
	return &BreakpointGraph{g: multi.NewUndirectedGraph()}
}

// Adds an observed adjacency. Returns an error for self loops, the zero
// extremity (it has no sign), negative distances, or a missing genome.
func (bg *BreakpointGraph) AddAdjacency(a Adjacency) error {
	switch {
	case a.U == 0 || a.V == 0:
		return fmt.Errorf("%w 0 in adjacency %d %d", ErrInvalidExtremity, a.U, a.V)
	case a.U == a.V:
		return fmt.Errorf("%w on extremity %d", ErrSelfLoop, a.U)
	case a.Genome == "":
		return fmt.Errorf("%w for adjacency %d %d", ErrMissingGenomeLabel, a.U, a.V)
	case a.HasDistance && a.Distance < 0:
		return fmt.Errorf("%w %g for adjacency %d %d", ErrNegativeDistance, a.Distance, a.U, a.V)
	}
	bg.g.SetLine(adjacencyLine{from: bg.node(a.U), to: bg.node(a.V), uid: bg.nLines, adj: a})
	bg.nLines++
	return nil
}

func (bg *BreakpointGraph) node(id int64) graph.Node {
	if n := bg.g.Node(id); n != nil {
		return n
	}
	n := multi.Node(id)
	bg.g.AddNode(n)
	return n
}

func (bg *BreakpointGraph) NumNodes() int { return bg.g.Nodes().Len() }

func (bg *BreakpointGraph) NumAdjacencies() int { return int(bg.nLines) }

// Adjacencies between a and b in insertion order
func (bg *BreakpointGraph) between(a, b int64) []Adjacency {
	lines := graph.LinesOf(bg.g.Lines(a, b))
	slices.SortFunc(lines, func(l1, l2 graph.Line) int { return cmp.Compare(l1.ID(), l2.ID()) })
	adjs := make([]Adjacency, len(lines))
	for i, l := range lines {
		adjs[i] = l.(adjacencyLine).adj
	}
	return adjs
}

// Mean of the recorded distances over the parallel edges joining a and b;
// zero when no edge records one.
func (bg *BreakpointGraph) VertexDistance(a, b int64) float64 {
	total, count := 0.0, 0
	for _, adj := range bg.between(a, b) {
		if adj.HasDistance {
			total += adj.Distance
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// Connected components, each with nodes sorted ascending, ordered by their
// smallest node.
func (bg *BreakpointGraph) Components() []*Component {
	ccs := topo.ConnectedComponents(bg.g)
	comps := make([]*Component, 0, len(ccs))
	for _, cc := range ccs {
		ids := make([]int64, len(cc))
		for i, n := range cc {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		adjs := make([]Adjacency, 0)
		for _, u := range ids {
			for _, v := range graph.NodesOf(bg.g.From(u)) {
				if u < v.ID() {
					adjs = append(adjs, bg.between(u, v.ID())...)
				}
			}
		}
		comps = append(comps, NewComponent(ids, adjs))
	}
	slices.SortFunc(comps, func(c1, c2 *Component) int { return cmp.Compare(c1.nodes[0], c2.nodes[0]) })
	return comps
}
