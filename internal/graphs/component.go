package graphs

import "slices"

// Connected component of a breakpoint graph. Read-only after construction.
type Component struct {
	nodes     []int64                         // sorted ascending
	incident  map[int64]map[int64][]Adjacency // node -> neighbor -> adjacencies
	neighbors map[int64][]int64               // sorted neighbors of each node
	nAdj      int
}

// Builds a component from its nodes and the adjacencies between them. Nodes
// that only appear in adjs are added. Adjacencies between the same pair keep
// the order given.
func NewComponent(nodes []int64, adjs []Adjacency) *Component {
	c := &Component{
		incident:  make(map[int64]map[int64][]Adjacency),
		neighbors: make(map[int64][]int64),
		nAdj:      len(adjs),
	}
	for _, n := range nodes {
		c.addNode(n)
	}
	for _, a := range adjs {
		c.addNode(a.U)
		c.addNode(a.V)
		c.incident[a.U][a.V] = append(c.incident[a.U][a.V], a)
		c.incident[a.V][a.U] = append(c.incident[a.V][a.U], a)
	}
	for n, nbrs := range c.incident {
		ids := make([]int64, 0, len(nbrs))
		for v := range nbrs {
			ids = append(ids, v)
		}
		slices.Sort(ids)
		c.neighbors[n] = ids
	}
	slices.Sort(c.nodes)
	return c
}

func (c *Component) addNode(n int64) {
	if _, ok := c.incident[n]; !ok {
		c.incident[n] = make(map[int64][]Adjacency)
		c.nodes = append(c.nodes, n)
	}
}

// Sorted nodes of the component. The returned slice must not be modified.
func (c *Component) Nodes() []int64 { return c.nodes }

func (c *Component) Len() int { return len(c.nodes) }

func (c *Component) NumAdjacencies() int { return c.nAdj }

// Sorted distinct neighbors of n
func (c *Component) Neighbors(n int64) []int64 { return c.neighbors[n] }

// Parallel adjacencies joining n and v
func (c *Component) Between(n, v int64) []Adjacency { return c.incident[n][v] }

// Every adjacency in the component, once each, ordered by endpoints
func (c *Component) Adjacencies() []Adjacency {
	adjs := make([]Adjacency, 0, c.nAdj)
	for _, u := range c.nodes {
		for _, v := range c.neighbors[u] {
			if u < v {
				adjs = append(adjs, c.incident[u][v]...)
			}
		}
	}
	return adjs
}

// Sorted names of the genomes observing at least one adjacency in the component
func (c *Component) Genomes() []string {
	seen := make(map[string]bool)
	genomes := make([]string, 0)
	for _, a := range c.Adjacencies() {
		if !seen[a.Genome] {
			seen[a.Genome] = true
			genomes = append(genomes, a.Genome)
		}
	}
	slices.Sort(genomes)
	return genomes
}
